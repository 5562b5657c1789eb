package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Kellerman81/go_movie_catalog/apperrors"
	"github.com/Kellerman81/go_movie_catalog/config"
	"github.com/Kellerman81/go_movie_catalog/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(config.DatabaseConfig{
		Driver:       config.DriverSqlite,
		Path:         filepath.Join(t.TempDir(), "catalog.db"),
		MaxOpenConns: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())
	return db
}

func movie(rank int, title string, year int, genres ...string) *model.Movie {
	m := model.NewMovie(title, year)
	m.Rank = rank
	m.Genres = genres
	return m
}

func TestMigrateIdempotent(t *testing.T) {
	db := openTestDB(t)
	assert.Equal(t, uint(1), db.Version())

	require.NoError(t, db.Migrate())
	assert.Equal(t, uint(1), db.Version())

	for _, table := range []Table{TableUsers, TableMovies, TableGenres, TableMovieGenres, TableActors, TableDirectors, TableReviews} {
		n, err := CountRows(context.Background(), db, table, Query{})
		require.NoError(t, err, table.Name)
		assert.Zero(t, n, table.Name)
	}
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "mysql"})
	assert.Equal(t, apperrors.ErrClassConfig, apperrors.GetClass(err))
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "catalog.db")
	db, err := Open(config.DatabaseConfig{Driver: config.DriverSqlite, Path: path})
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, config.DriverSqlite, db.DriverName())
	_, err = os.Stat(filepath.Dir(path))
	assert.NoError(t, err)
}

func TestWithSessionCommits(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	err := db.WithSession(ctx, func(s *Session) error {
		return InsertMovie(ctx, s, movie(1, "Inception", 2010, "Action", "Sci-Fi"))
	})
	require.NoError(t, err)

	got, err := GetMovie(ctx, db, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Inception", got.Title)
	assert.Equal(t, []string{"Action", "Sci-Fi"}, got.Genres)
	assert.Nil(t, got.Reviews)
}

func TestWithSessionRollsBackOnError(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	failure := errors.New("abort")

	err := db.WithSession(ctx, func(s *Session) error {
		require.NoError(t, InsertMovie(ctx, s, movie(1, "Inception", 2010, "Action")))
		return failure
	})
	require.ErrorIs(t, err, failure)

	n, err := CountRows(ctx, db, TableMovies, Query{})
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = CountRows(ctx, db, TableGenres, Query{})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestWithSessionRollsBackOnPanic(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = db.WithSession(ctx, func(s *Session) error {
			require.NoError(t, InsertMovie(ctx, s, movie(1, "Inception", 2010)))
			panic("boom")
		})
	})

	got, err := GetMovie(ctx, db, 1)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionRollbackAfterCommit(t *testing.T) {
	db := openTestDB(t)
	sess, err := db.Begin(context.Background())
	require.NoError(t, err)

	require.NoError(t, sess.Commit())
	assert.NoError(t, sess.Rollback())
	assert.NoError(t, sess.Commit())
}

func TestDuplicateInsertsAreClassified(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, InsertMovie(ctx, db, movie(1, "Inception", 2010)))
	err := InsertMovie(ctx, db, movie(1, "Other", 2011))
	assert.ErrorIs(t, err, apperrors.ErrDuplicateKey)
	err = InsertMovie(ctx, db, movie(2, "Inception", 2010))
	assert.ErrorIs(t, err, apperrors.ErrDuplicateKey)

	g := model.NewGenre("Drama")
	require.NoError(t, InsertGenre(ctx, db, &g))
	assert.NotZero(t, g.ID)
	dup := model.NewGenre("Drama")
	assert.ErrorIs(t, InsertGenre(ctx, db, &dup), apperrors.ErrDuplicateKey)

	a := model.NewActor("Tom Hardy")
	require.NoError(t, InsertActor(ctx, db, &a))
	assert.ErrorIs(t, InsertActor(ctx, db, &model.Actor{FullName: "Tom Hardy"}), apperrors.ErrDuplicateKey)

	d := model.NewDirector("Christopher Nolan")
	require.NoError(t, InsertDirector(ctx, db, &d))
	assert.ErrorIs(t, InsertDirector(ctx, db, &model.Director{FullName: "Christopher Nolan"}), apperrors.ErrDuplicateKey)
}

func TestInsertMovieLinksGenresOnce(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, InsertMovie(ctx, db, movie(1, "A", 2000, "Drama", "Drama", "War")))
	require.NoError(t, InsertMovie(ctx, db, movie(2, "B", 2001, "War")))

	genres, err := SelectGenres(ctx, db)
	require.NoError(t, err)
	require.Len(t, genres, 2)
	assert.Equal(t, "Drama", genres[0].Name)
	assert.Equal(t, []int{1}, genres[0].MovieRanks)
	assert.Equal(t, "War", genres[1].Name)
	assert.Equal(t, []int{1, 2}, genres[1].MovieRanks)

	ranks, err := GenreMovieRanks(ctx, db, "War")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, ranks)

	ranks, err = GenreMovieRanks(ctx, db, "Western")
	require.NoError(t, err)
	assert.Empty(t, ranks)
}

func TestYearNeighbours(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	require.NoError(t, InsertMovie(ctx, db, movie(1, "A", 2010)))
	require.NoError(t, InsertMovie(ctx, db, movie(2, "B", 2005)))
	require.NoError(t, InsertMovie(ctx, db, movie(3, "C", 2014)))

	year, ok, err := PreviousYear(ctx, db, 2010)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2005, year)

	year, ok, err = NextYear(ctx, db, 2010)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2014, year)

	_, ok, err = PreviousYear(ctx, db, 2005)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = NextYear(ctx, db, 2014)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSelectMoviesByRank(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	for i, title := range []string{"A", "B", "C"} {
		require.NoError(t, InsertMovie(ctx, db, movie(i+1, title, 2000+i)))
	}

	movies, err := SelectMoviesByRank(ctx, db, []int{3, 1, 42})
	require.NoError(t, err)
	require.Len(t, movies, 2)
	assert.Equal(t, 1, movies[0].Rank)
	assert.Equal(t, 3, movies[1].Rank)

	movies, err = SelectMoviesByRank(ctx, db, nil)
	require.NoError(t, err)
	assert.Empty(t, movies)

	last, err := GetMovieOrdered(ctx, db, "rank desc")
	require.NoError(t, err)
	assert.Equal(t, "C", last.Title)
}

func TestReviewsRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	user, err := model.NewUser("fmercury", "secret")
	require.NoError(t, err)
	require.NoError(t, InsertUser(ctx, db, user))
	assert.ErrorIs(t, InsertUser(ctx, db, &model.User{Username: "fmercury", Password: "x"}), apperrors.ErrDuplicateKey)

	require.NoError(t, InsertMovie(ctx, db, movie(1, "Inception", 2010)))
	review := model.NewReview(user.Username, 1, "Loved it")
	require.NoError(t, InsertReview(ctx, db, user.ID, review))
	assert.NotZero(t, review.ID)

	got, err := GetMovie(ctx, db, 1)
	require.NoError(t, err)
	require.Len(t, got.Reviews, 1)
	assert.Equal(t, "fmercury", got.Reviews[0].Username)
	assert.Equal(t, "Loved it", got.Reviews[0].Text)
	assert.True(t, review.Timestamp.Equal(got.Reviews[0].Timestamp))

	stored, err := GetUser(ctx, db, "fmercury")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.CheckPassword("secret"))
	require.Len(t, stored.Reviews, 1)
	assert.Equal(t, 1, stored.Reviews[0].MovieRank)

	missing, err := GetUser(ctx, db, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, IsUniqueViolation(nil))
	assert.False(t, IsUniqueViolation(errors.New("other")))
}

func TestBackup(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	require.NoError(t, InsertMovie(ctx, db, movie(1, "Inception", 2010)))

	target := filepath.Join(t.TempDir(), "backup.db")
	require.NoError(t, db.Backup(ctx, target))
	_, err := os.Stat(target)
	require.NoError(t, err)

	assert.Equal(t, apperrors.ErrClassValidation, apperrors.GetClass(db.Backup(ctx, target)))
}
