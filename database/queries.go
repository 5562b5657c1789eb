package database

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/Kellerman81/go_movie_catalog/apperrors"
	"github.com/Kellerman81/go_movie_catalog/logger"
	"github.com/Kellerman81/go_movie_catalog/model"
	"github.com/jmoiron/sqlx"
)

// Query narrows a select. Where and OrderBy are raw SQL fragments using ?
// placeholders; they are rebound for the active driver.
type Query struct {
	Where     string
	WhereArgs []any
	OrderBy   string
	Limit     int
}

func buildquery(columns string, table string, qu Query) string {
	var bld strings.Builder
	bld.WriteString("select ")
	bld.WriteString(columns)
	bld.WriteString(" from ")
	bld.WriteString(table)
	if qu.Where != "" {
		bld.WriteString(" where ")
		bld.WriteString(qu.Where)
	}
	if qu.OrderBy != "" {
		bld.WriteString(" order by ")
		bld.WriteString(qu.OrderBy)
	}
	if qu.Limit > 0 {
		bld.WriteString(" limit ")
		bld.WriteString(strconv.Itoa(qu.Limit))
	}
	return bld.String()
}

// queryRows runs query and scans every row into a T through its field binding.
func queryRows[T any, P row[T]](ctx context.Context, q sqlx.ExtContext, query string, args ...any) ([]T, error) {
	query = q.Rebind(query)
	logQuery(query, args)
	rows, err := q.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.WrapWithMessageFor(apperrors.ErrClassDatabase, "query", "query failed", query, err)
	}
	defer rows.Close()

	var result []T
	for rows.Next() {
		var item T
		if err := rows.Scan(P(&item).fields()...); err != nil {
			return nil, apperrors.WrapWithMessageFor(apperrors.ErrClassDatabase, "query", "scan failed", query, err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.WrapWithMessageFor(apperrors.ErrClassDatabase, "query", "iteration failed", query, err)
	}
	return result, nil
}

// queryInt returns a single nullable integer. ok is false for NULL or no row.
func queryInt(ctx context.Context, q sqlx.ExtContext, query string, args ...any) (int64, bool, error) {
	query = q.Rebind(query)
	logQuery(query, args)
	var val sql.NullInt64
	if err := q.QueryRowxContext(ctx, query, args...).Scan(&val); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, apperrors.WrapWithMessageFor(apperrors.ErrClassDatabase, "query", "query failed", query, err)
	}
	return val.Int64, val.Valid, nil
}

// insertReturningID runs an insert ending in "returning id".
func insertReturningID(ctx context.Context, q sqlx.ExtContext, query string, args ...any) (int64, error) {
	query = q.Rebind(query)
	logQuery(query, args)
	var id int64
	err := q.QueryRowxContext(ctx, query, args...).Scan(&id)
	return id, err
}

func exec(ctx context.Context, q sqlx.ExtContext, query string, args ...any) error {
	query = q.Rebind(query)
	logQuery(query, args)
	_, err := q.ExecContext(ctx, query, args...)
	return err
}

// CountRows returns the number of rows in table matching qu.
func CountRows(ctx context.Context, q sqlx.ExtContext, table Table, qu Query) (int, error) {
	qu.OrderBy = ""
	qu.Limit = 0
	n, _, err := queryInt(ctx, q, buildquery("count(*)", table.Name, qu), qu.WhereArgs...)
	return int(n), err
}

func exists(ctx context.Context, q sqlx.ExtContext, table Table, where string, args ...any) (bool, error) {
	_, ok, err := queryInt(ctx, q, buildquery("1", table.Name, Query{Where: where, Limit: 1}), args...)
	return ok, err
}

// InsertUser stores u and sets its ID.
func InsertUser(ctx context.Context, q sqlx.ExtContext, u *model.User) error {
	id, err := insertReturningID(ctx, q,
		"insert into users (username, password) values (?, ?) returning id", u.Username, u.Password)
	if err != nil {
		return translate(err, "add_user", "user", u.Username)
	}
	u.ID = id
	return nil
}

// UserID returns the id of the user named username.
func UserID(ctx context.Context, q sqlx.ExtContext, username string) (int64, bool, error) {
	return queryInt(ctx, q, "select id from users where username = ?", username)
}

// GetUser returns the user named username with its reviews, or nil.
func GetUser(ctx context.Context, q sqlx.ExtContext, username string) (*model.User, error) {
	rows, err := queryRows[userRow](ctx, q,
		buildquery(TableUsers.ColumnList(), TableUsers.Name, Query{Where: "username = ?", Limit: 1}), username)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	user := rows[0].toModel()
	user.Reviews, err = SelectReviews(ctx, q, Query{Where: "r.user_id = ?", WhereArgs: []any{user.ID}})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// InsertMovie stores m and links it to its genres. Genre names not yet
// stored are added.
func InsertMovie(ctx context.Context, q sqlx.ExtContext, m *model.Movie) error {
	r := movieRowFromModel(m)
	err := exec(ctx, q, "insert into movies (rank, year, title, description, poster) values (?, ?, ?, ?, ?)",
		r.Rank, r.Year, r.Title, r.Description, r.Poster)
	if err != nil {
		return translate(err, "add_movie", "movie", m.Key())
	}

	linked := make(map[string]struct{}, len(m.Genres))
	for _, name := range m.Genres {
		if _, ok := linked[name]; ok {
			continue
		}
		linked[name] = struct{}{}
		genreID, err := EnsureGenre(ctx, q, name)
		if err != nil {
			return err
		}
		if err := exec(ctx, q, "insert into movie_genres (movie_rank, genre_id) values (?, ?)", m.Rank, genreID); err != nil {
			return translate(err, "add_movie", "movie genre", name)
		}
	}
	return nil
}

// MovieExists reports whether a movie with rank is stored.
func MovieExists(ctx context.Context, q sqlx.ExtContext, rank int) (bool, error) {
	return exists(ctx, q, TableMovies, "rank = ?", rank)
}

// MovieKeyExists reports whether a movie with the given title and year is stored.
func MovieKeyExists(ctx context.Context, q sqlx.ExtContext, key model.MovieKey) (bool, error) {
	return exists(ctx, q, TableMovies, "title = ? and year = ?", key.Title, key.Year)
}

// SelectMovies returns the movies matching qu, ordered by rank unless qu
// orders otherwise, with genres and reviews attached.
func SelectMovies(ctx context.Context, q sqlx.ExtContext, qu Query) ([]*model.Movie, error) {
	if qu.OrderBy == "" {
		qu.OrderBy = "rank asc"
	}
	rows, err := queryRows[movieRow](ctx, q, buildquery(TableMovies.ColumnList(), TableMovies.Name, qu), qu.WhereArgs...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []*model.Movie{}, nil
	}

	movies := make([]*model.Movie, len(rows))
	byRank := make(map[int]*model.Movie, len(rows))
	ranks := make([]int, len(rows))
	for i := range rows {
		movies[i] = rows[i].toModel()
		byRank[movies[i].Rank] = movies[i]
		ranks[i] = movies[i].Rank
	}

	query, args, err := sqlx.In(`select mg.movie_rank, g.name from movie_genres mg
		inner join genres g on g.id = mg.genre_id
		where mg.movie_rank in (?) order by mg.movie_rank, mg.id`, ranks)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrClassDatabase, "select_movies", err)
	}
	links, err := queryRows[movieGenreRow](ctx, q, query, args...)
	if err != nil {
		return nil, err
	}
	for _, link := range links {
		m := byRank[link.MovieRank]
		m.Genres = append(m.Genres, link.Name)
	}

	query, args, err = sqlx.In("r.movie_rank in (?)", ranks)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrClassDatabase, "select_movies", err)
	}
	reviews, err := SelectReviews(ctx, q, Query{Where: query, WhereArgs: args})
	if err != nil {
		return nil, err
	}
	for _, review := range reviews {
		m := byRank[review.MovieRank]
		m.Reviews = append(m.Reviews, review)
	}
	return movies, nil
}

// SelectMoviesByRank returns the movies whose rank is in ranks, ordered by rank.
func SelectMoviesByRank(ctx context.Context, q sqlx.ExtContext, ranks []int) ([]*model.Movie, error) {
	if len(ranks) == 0 {
		return []*model.Movie{}, nil
	}
	where, args, err := sqlx.In("rank in (?)", ranks)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrClassDatabase, "select_movies", err)
	}
	return SelectMovies(ctx, q, Query{Where: where, WhereArgs: args})
}

// GetMovie returns the movie with rank, or nil.
func GetMovie(ctx context.Context, q sqlx.ExtContext, rank int) (*model.Movie, error) {
	return firstMovie(SelectMovies(ctx, q, Query{Where: "rank = ?", WhereArgs: []any{rank}, Limit: 1}))
}

// GetMovieOrdered returns the first movie in the given rank order, or nil.
func GetMovieOrdered(ctx context.Context, q sqlx.ExtContext, orderBy string) (*model.Movie, error) {
	return firstMovie(SelectMovies(ctx, q, Query{OrderBy: orderBy, Limit: 1}))
}

func firstMovie(movies []*model.Movie, err error) (*model.Movie, error) {
	if err != nil || len(movies) == 0 {
		return nil, err
	}
	return movies[0], nil
}

// PreviousYear returns the greatest stored year below year.
func PreviousYear(ctx context.Context, q sqlx.ExtContext, year int) (int, bool, error) {
	val, ok, err := queryInt(ctx, q, "select max(year) from movies where year < ?", year)
	return int(val), ok, err
}

// NextYear returns the smallest stored year above year.
func NextYear(ctx context.Context, q sqlx.ExtContext, year int) (int, bool, error) {
	val, ok, err := queryInt(ctx, q, "select min(year) from movies where year > ?", year)
	return int(val), ok, err
}

// InsertGenre stores g and sets its ID.
func InsertGenre(ctx context.Context, q sqlx.ExtContext, g *model.Genre) error {
	id, err := insertReturningID(ctx, q, "insert into genres (name) values (?) returning id", g.Name)
	if err != nil {
		return translate(err, "add_genre", "genre", g.Name)
	}
	g.ID = id
	return nil
}

// GenreID returns the id of the genre called name.
func GenreID(ctx context.Context, q sqlx.ExtContext, name string) (int64, bool, error) {
	return queryInt(ctx, q, "select id from genres where name = ?", name)
}

// EnsureGenre returns the id of the genre called name, adding it if needed.
func EnsureGenre(ctx context.Context, q sqlx.ExtContext, name string) (int64, error) {
	id, ok, err := GenreID(ctx, q, name)
	if err != nil || ok {
		return id, err
	}
	g := model.NewGenre(name)
	if err := InsertGenre(ctx, q, &g); err != nil {
		return 0, err
	}
	return g.ID, nil
}

// SelectGenres returns every genre ordered by name, each with the ranks of
// its movies in ascending order.
func SelectGenres(ctx context.Context, q sqlx.ExtContext) ([]model.Genre, error) {
	rows, err := queryRows[genreRow](ctx, q, buildquery(TableGenres.ColumnList(), TableGenres.Name, Query{OrderBy: "name asc"}))
	if err != nil {
		return nil, err
	}
	links, err := queryRows[movieGenreRow](ctx, q, `select mg.movie_rank, g.name from movie_genres mg
		inner join genres g on g.id = mg.genre_id order by mg.movie_rank`)
	if err != nil {
		return nil, err
	}
	ranks := make(map[string][]int, len(rows))
	for _, link := range links {
		ranks[link.Name] = append(ranks[link.Name], link.MovieRank)
	}

	genres := make([]model.Genre, len(rows))
	for i := range rows {
		genres[i] = rows[i].toModel()
		genres[i].MovieRanks = ranks[genres[i].Name]
		if genres[i].MovieRanks == nil {
			genres[i].MovieRanks = []int{}
		}
	}
	return genres, nil
}

// GenreMovieRanks returns the ranks of the movies tagged with genre name,
// ascending. An unknown genre yields an empty slice.
func GenreMovieRanks(ctx context.Context, q sqlx.ExtContext, name string) ([]int, error) {
	rows, err := queryRows[rankRow](ctx, q, `select mg.movie_rank from movie_genres mg
		inner join genres g on g.id = mg.genre_id
		where g.name = ? order by mg.movie_rank`, name)
	if err != nil {
		return nil, err
	}
	ranks := make([]int, len(rows))
	for i := range rows {
		ranks[i] = rows[i].Rank
	}
	return ranks, nil
}

// InsertActor stores a and sets its ID.
func InsertActor(ctx context.Context, q sqlx.ExtContext, a *model.Actor) error {
	id, err := insertReturningID(ctx, q, "insert into actors (name) values (?) returning id", a.FullName)
	if err != nil {
		return translate(err, "add_actor", "actor", a.FullName)
	}
	a.ID = id
	return nil
}

// InsertDirector stores d and sets its ID.
func InsertDirector(ctx context.Context, q sqlx.ExtContext, d *model.Director) error {
	id, err := insertReturningID(ctx, q, "insert into directors (name) values (?) returning id", d.FullName)
	if err != nil {
		return translate(err, "add_director", "director", d.FullName)
	}
	d.ID = id
	return nil
}

// SelectActors returns every actor in insertion order.
func SelectActors(ctx context.Context, q sqlx.ExtContext) ([]model.Actor, error) {
	rows, err := queryRows[nameRow](ctx, q, buildquery(TableActors.ColumnList(), TableActors.Name, Query{OrderBy: "id asc"}))
	if err != nil {
		return nil, err
	}
	actors := make([]model.Actor, len(rows))
	for i := range rows {
		actors[i] = model.Actor{ID: rows[i].ID, FullName: rows[i].Name}
	}
	return actors, nil
}

// SelectDirectors returns every director in insertion order.
func SelectDirectors(ctx context.Context, q sqlx.ExtContext) ([]model.Director, error) {
	rows, err := queryRows[nameRow](ctx, q, buildquery(TableDirectors.ColumnList(), TableDirectors.Name, Query{OrderBy: "id asc"}))
	if err != nil {
		return nil, err
	}
	directors := make([]model.Director, len(rows))
	for i := range rows {
		directors[i] = model.Director{ID: rows[i].ID, FullName: rows[i].Name}
	}
	return directors, nil
}

// InsertReview stores r for the user with userID and sets its ID.
func InsertReview(ctx context.Context, q sqlx.ExtContext, userID int64, r *model.Review) error {
	id, err := insertReturningID(ctx, q,
		"insert into reviews (user_id, movie_rank, review_text, timestamp) values (?, ?, ?, ?) returning id",
		userID, r.MovieRank, r.Text, r.Timestamp.UTC())
	if err != nil {
		return translate(err, "add_review", "review", r.MovieRank)
	}
	r.ID = id
	return nil
}

// SelectReviews returns the reviews matching qu, oldest first. Column
// references in qu use the alias r for reviews and u for users.
func SelectReviews(ctx context.Context, q sqlx.ExtContext, qu Query) ([]model.Review, error) {
	if qu.OrderBy == "" {
		qu.OrderBy = "r.timestamp asc, r.id asc"
	}
	rows, err := queryRows[reviewRow](ctx, q,
		buildquery("r.id,u.username,r.movie_rank,r.review_text,r.timestamp",
			"reviews r inner join users u on u.id = r.user_id", qu), qu.WhereArgs...)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	reviews := make([]model.Review, len(rows))
	for i := range rows {
		reviews[i] = rows[i].toModel()
	}
	return reviews, nil
}

// LogTableCounts logs the row count of each catalog table at debug level.
func LogTableCounts(ctx context.Context, q sqlx.ExtContext) {
	for _, table := range []Table{TableMovies, TableGenres, TableMovieGenres, TableActors, TableDirectors, TableUsers, TableReviews} {
		n, err := CountRows(ctx, q, table, Query{})
		if err != nil {
			logger.LogError(err, "Count failed")
			continue
		}
		logger.LogDynamicany(logger.StrDebug, "Table rows", logger.StrTable, table.Name, logger.StrCount, n)
	}
}
