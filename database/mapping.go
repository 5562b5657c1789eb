package database

import (
	"strings"
	"time"

	"github.com/Kellerman81/go_movie_catalog/model"
)

// Table declares a table and the column order its row type binds to.
type Table struct {
	Name    string
	Columns []string
}

// ColumnList returns the columns joined for a select list.
func (t Table) ColumnList() string {
	return strings.Join(t.Columns, ",")
}

var (
	TableUsers       = Table{Name: "users", Columns: []string{"id", "username", "password"}}
	TableMovies      = Table{Name: "movies", Columns: []string{"rank", "year", "title", "description", "poster"}}
	TableGenres      = Table{Name: "genres", Columns: []string{"id", "name"}}
	TableMovieGenres = Table{Name: "movie_genres", Columns: []string{"id", "movie_rank", "genre_id"}}
	TableActors      = Table{Name: "actors", Columns: []string{"id", "name"}}
	TableDirectors   = Table{Name: "directors", Columns: []string{"id", "name"}}
	TableReviews     = Table{Name: "reviews", Columns: []string{"id", "user_id", "movie_rank", "review_text", "timestamp"}}
)

// Row types mirror one table each. fields returns scan destinations in the
// column order of the matching Table.

type userRow struct {
	ID       int64
	Username string
	Password string
}

func (r *userRow) fields() []any { return []any{&r.ID, &r.Username, &r.Password} }

func (r userRow) toModel() *model.User {
	return &model.User{ID: r.ID, Username: r.Username, Password: r.Password}
}

type movieRow struct {
	Rank        int
	Year        int
	Title       string
	Description string
	Poster      string
}

func (r *movieRow) fields() []any {
	return []any{&r.Rank, &r.Year, &r.Title, &r.Description, &r.Poster}
}

func movieRowFromModel(m *model.Movie) movieRow {
	return movieRow{Rank: m.Rank, Year: m.Year, Title: m.Title, Description: m.Description, Poster: m.Poster}
}

func (r movieRow) toModel() *model.Movie {
	return &model.Movie{Rank: r.Rank, Year: r.Year, Title: r.Title, Description: r.Description, Poster: r.Poster}
}

type genreRow struct {
	ID   int64
	Name string
}

func (r *genreRow) fields() []any { return []any{&r.ID, &r.Name} }

func (r genreRow) toModel() model.Genre {
	return model.Genre{ID: r.ID, Name: r.Name}
}

// nameRow backs both the actors and the directors table.
type nameRow struct {
	ID   int64
	Name string
}

func (r *nameRow) fields() []any { return []any{&r.ID, &r.Name} }

// movieGenreRow is a movie_genres link resolved to the genre name.
type movieGenreRow struct {
	MovieRank int
	Name      string
}

func (r *movieGenreRow) fields() []any { return []any{&r.MovieRank, &r.Name} }

// reviewRow is a reviews row resolved to the author's username.
type reviewRow struct {
	ID        int64
	Username  string
	MovieRank int
	Text      string
	Timestamp time.Time
}

func (r *reviewRow) fields() []any {
	return []any{&r.ID, &r.Username, &r.MovieRank, &r.Text, &r.Timestamp}
}

func (r reviewRow) toModel() model.Review {
	return model.Review{ID: r.ID, Username: r.Username, MovieRank: r.MovieRank, Text: r.Text, Timestamp: r.Timestamp.UTC()}
}

// rankRow holds a single movie rank.
type rankRow struct {
	Rank int
}

func (r *rankRow) fields() []any { return []any{&r.Rank} }

// row is implemented by pointers to the row types above.
type row[T any] interface {
	*T
	fields() []any
}
