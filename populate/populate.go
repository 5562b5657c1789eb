// Package populate loads the movie dataset into a store.
package populate

import (
	"context"
	"time"

	"github.com/Kellerman81/go_movie_catalog/database"
	"github.com/Kellerman81/go_movie_catalog/logger"
	"github.com/Kellerman81/go_movie_catalog/moviereader"
	"github.com/Kellerman81/go_movie_catalog/repository"
)

// Stats counts the rows a load inserted.
type Stats struct {
	Movies      int
	Genres      int
	Actors      int
	Directors   int
	MovieGenres int
}

func (s Stats) log(path string, started time.Time) {
	logger.LogDynamicany(logger.StrInfo, "Dataset loaded",
		logger.StrFile, path,
		"movies", s.Movies,
		"genres", s.Genres,
		"actors", s.Actors,
		"directors", s.Directors,
		"movie_genres", s.MovieGenres,
		"elapsed", time.Since(started))
}

// Populate reads the dataset at path and stores all of it in one session.
// Nothing is written when reading fails or any insert fails.
func Populate(ctx context.Context, db *database.DB, path string) (Stats, error) {
	started := time.Now()
	reader := moviereader.New(path)
	if err := reader.Read(ctx); err != nil {
		return Stats{}, err
	}

	var stats Stats
	err := db.WithSession(ctx, func(s *database.Session) error {
		for _, g := range reader.Genres() {
			if err := database.InsertGenre(ctx, s, &g); err != nil {
				return err
			}
		}
		for _, a := range reader.Actors() {
			if err := database.InsertActor(ctx, s, &a); err != nil {
				return err
			}
		}
		for _, d := range reader.Directors() {
			if err := database.InsertDirector(ctx, s, &d); err != nil {
				return err
			}
		}
		for _, m := range reader.Movies() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := database.InsertMovie(ctx, s, m); err != nil {
				return err
			}
		}

		stats.Movies = len(reader.Movies())
		stats.Actors = len(reader.Actors())
		stats.Directors = len(reader.Directors())
		var err error
		if stats.Genres, err = database.CountRows(ctx, s, database.TableGenres, database.Query{}); err != nil {
			return err
		}
		stats.MovieGenres, err = database.CountRows(ctx, s, database.TableMovieGenres, database.Query{})
		return err
	})
	if err != nil {
		logger.LogError(err, "Dataset load rolled back")
		return Stats{}, err
	}

	stats.log(path, started)
	return stats, nil
}

// IfEmpty runs Populate only when no movie is stored yet. loaded reports
// whether it did.
func IfEmpty(ctx context.Context, db *database.DB, path string) (stats Stats, loaded bool, err error) {
	n, err := database.CountRows(ctx, db, database.TableMovies, database.Query{})
	if err != nil {
		return Stats{}, false, err
	}
	if n > 0 {
		logger.LogDynamicany(logger.StrDebug, "Catalog already populated", logger.StrCount, n)
		return Stats{}, false, nil
	}
	stats, err = Populate(ctx, db, path)
	return stats, err == nil, err
}

// LoadMemory reads the dataset at path into a new in-memory repository.
func LoadMemory(ctx context.Context, path string) (*repository.MemoryRepository, Stats, error) {
	started := time.Now()
	reader := moviereader.New(path)
	if err := reader.Read(ctx); err != nil {
		return nil, Stats{}, err
	}

	repo := repository.NewMemoryRepository()
	for _, g := range reader.Genres() {
		if err := repo.AddGenre(ctx, &g); err != nil {
			return nil, Stats{}, err
		}
	}
	for _, a := range reader.Actors() {
		if err := repo.AddActor(&a); err != nil {
			return nil, Stats{}, err
		}
	}
	for _, d := range reader.Directors() {
		if err := repo.AddDirector(&d); err != nil {
			return nil, Stats{}, err
		}
	}
	for _, m := range reader.Movies() {
		if err := repo.AddMovie(ctx, m); err != nil {
			return nil, Stats{}, err
		}
	}

	genres, err := repo.GetGenres(ctx)
	if err != nil {
		return nil, Stats{}, err
	}
	stats := Stats{
		Movies:    len(reader.Movies()),
		Genres:    len(genres),
		Actors:    len(reader.Actors()),
		Directors: len(reader.Directors()),
	}
	for _, g := range genres {
		stats.MovieGenres += len(g.MovieRanks)
	}
	stats.log(path, started)
	return repo, stats, nil
}
