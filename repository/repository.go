// Package repository is the query façade over the catalog store. Read
// lookups report absence with nil results or ok=false, never with an error.
package repository

import (
	"context"

	"github.com/Kellerman81/go_movie_catalog/model"
)

type Repository interface {
	AddUser(ctx context.Context, user *model.User) error
	// GetUser returns nil when no user has that username.
	GetUser(ctx context.Context, username string) (*model.User, error)

	AddMovie(ctx context.Context, movie *model.Movie) error
	AddGenre(ctx context.Context, genre *model.Genre) error
	// AddReview fails when the review's movie or user is unknown.
	AddReview(ctx context.Context, review *model.Review) error

	GetMovie(ctx context.Context, rank int) (*model.Movie, error)
	GetNumberOfMovies(ctx context.Context) (int, error)
	GetFirstMovie(ctx context.Context) (*model.Movie, error)
	GetLastMovie(ctx context.Context) (*model.Movie, error)

	// GetYearOfPreviousMovie returns the nearest release year before the
	// movie's year across the whole catalog.
	GetYearOfPreviousMovie(ctx context.Context, movie *model.Movie) (int, bool, error)
	// GetYearOfNextMovie returns the nearest release year after the movie's
	// year across the whole catalog.
	GetYearOfNextMovie(ctx context.Context, movie *model.Movie) (int, bool, error)

	// GetMoviesByYear returns the movies released in year, or every movie
	// when year is nil. Results are ordered by rank.
	GetMoviesByYear(ctx context.Context, year *int) ([]*model.Movie, error)
	GetGenres(ctx context.Context) ([]model.Genre, error)
	// GetMoviesByRank ignores ranks that are not stored.
	GetMoviesByRank(ctx context.Context, ranks []int) ([]*model.Movie, error)
	GetMovieRanksForGenre(ctx context.Context, genreName string) ([]int, error)

	GetReviews(ctx context.Context) ([]model.Review, error)
	GetReviewsForMovie(ctx context.Context, rank int) ([]model.Review, error)

	Close() error
}
