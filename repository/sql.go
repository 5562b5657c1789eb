package repository

import (
	"context"

	"github.com/Kellerman81/go_movie_catalog/apperrors"
	"github.com/Kellerman81/go_movie_catalog/database"
	"github.com/Kellerman81/go_movie_catalog/model"
)

// SQLRepository stores the catalog in a relational database. Every write
// runs in its own session.
type SQLRepository struct {
	db *database.DB
}

var _ Repository = (*SQLRepository)(nil)

func NewSQLRepository(db *database.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

// Close closes the underlying database.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

func (r *SQLRepository) AddUser(ctx context.Context, user *model.User) error {
	return r.db.WithSession(ctx, func(s *database.Session) error {
		_, ok, err := database.UserID(ctx, s, user.Username)
		if err != nil {
			return err
		}
		if ok {
			return apperrors.DuplicateKey("add_user", "user", user.Username)
		}
		return database.InsertUser(ctx, s, user)
	})
}

func (r *SQLRepository) GetUser(ctx context.Context, username string) (*model.User, error) {
	return database.GetUser(ctx, r.db, username)
}

func (r *SQLRepository) AddMovie(ctx context.Context, movie *model.Movie) error {
	return r.db.WithSession(ctx, func(s *database.Session) error {
		found, err := database.MovieExists(ctx, s, movie.Rank)
		if err != nil {
			return err
		}
		if found {
			return apperrors.DuplicateKey("add_movie", "movie", movie.Rank)
		}
		found, err = database.MovieKeyExists(ctx, s, movie.Key())
		if err != nil {
			return err
		}
		if found {
			return apperrors.DuplicateKey("add_movie", "movie", movie.Key())
		}
		return database.InsertMovie(ctx, s, movie)
	})
}

func (r *SQLRepository) AddGenre(ctx context.Context, genre *model.Genre) error {
	return r.db.WithSession(ctx, func(s *database.Session) error {
		_, ok, err := database.GenreID(ctx, s, genre.Name)
		if err != nil {
			return err
		}
		if ok {
			return apperrors.DuplicateKey("add_genre", "genre", genre.Name)
		}
		return database.InsertGenre(ctx, s, genre)
	})
}

func (r *SQLRepository) AddReview(ctx context.Context, review *model.Review) error {
	return r.db.WithSession(ctx, func(s *database.Session) error {
		userID, ok, err := database.UserID(ctx, s, review.Username)
		if err != nil {
			return err
		}
		if !ok {
			return unknownUser(review.Username)
		}
		found, err := database.MovieExists(ctx, s, review.MovieRank)
		if err != nil {
			return err
		}
		if !found {
			return unknownMovie(review.MovieRank)
		}
		return database.InsertReview(ctx, s, userID, review)
	})
}

func (r *SQLRepository) GetMovie(ctx context.Context, rank int) (*model.Movie, error) {
	return database.GetMovie(ctx, r.db, rank)
}

func (r *SQLRepository) GetNumberOfMovies(ctx context.Context) (int, error) {
	return database.CountRows(ctx, r.db, database.TableMovies, database.Query{})
}

func (r *SQLRepository) GetFirstMovie(ctx context.Context) (*model.Movie, error) {
	return database.GetMovieOrdered(ctx, r.db, "rank asc")
}

func (r *SQLRepository) GetLastMovie(ctx context.Context) (*model.Movie, error) {
	return database.GetMovieOrdered(ctx, r.db, "rank desc")
}

func (r *SQLRepository) GetYearOfPreviousMovie(ctx context.Context, movie *model.Movie) (int, bool, error) {
	if movie == nil {
		return 0, false, nil
	}
	return database.PreviousYear(ctx, r.db, movie.Year)
}

func (r *SQLRepository) GetYearOfNextMovie(ctx context.Context, movie *model.Movie) (int, bool, error) {
	if movie == nil {
		return 0, false, nil
	}
	return database.NextYear(ctx, r.db, movie.Year)
}

func (r *SQLRepository) GetMoviesByYear(ctx context.Context, year *int) ([]*model.Movie, error) {
	if year == nil {
		return database.SelectMovies(ctx, r.db, database.Query{})
	}
	return database.SelectMovies(ctx, r.db, database.Query{Where: "year = ?", WhereArgs: []any{*year}})
}

func (r *SQLRepository) GetGenres(ctx context.Context) ([]model.Genre, error) {
	return database.SelectGenres(ctx, r.db)
}

func (r *SQLRepository) GetMoviesByRank(ctx context.Context, ranks []int) ([]*model.Movie, error) {
	return database.SelectMoviesByRank(ctx, r.db, ranks)
}

func (r *SQLRepository) GetMovieRanksForGenre(ctx context.Context, genreName string) ([]int, error) {
	return database.GenreMovieRanks(ctx, r.db, genreName)
}

func (r *SQLRepository) GetReviews(ctx context.Context) ([]model.Review, error) {
	return database.SelectReviews(ctx, r.db, database.Query{})
}

func (r *SQLRepository) GetReviewsForMovie(ctx context.Context, rank int) ([]model.Review, error) {
	return database.SelectReviews(ctx, r.db, database.Query{Where: "r.movie_rank = ?", WhereArgs: []any{rank}})
}

func unknownUser(username string) error {
	return apperrors.WrapWithMessageFor(apperrors.ErrClassValidation, "add_review", "unknown user", username, apperrors.ErrNotFound).
		WithContext("entity", "user")
}

func unknownMovie(rank int) error {
	return apperrors.WrapWithMessageFor(apperrors.ErrClassValidation, "add_review", "unknown movie", "", apperrors.ErrNotFound).
		WithContext("entity", "movie").
		WithContext("rank", rank)
}
