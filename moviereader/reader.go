// Package moviereader parses the movie dataset CSV into deduplicated movie,
// actor, director and genre sequences.
package moviereader

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Kellerman81/go_movie_catalog/apperrors"
	"github.com/Kellerman81/go_movie_catalog/logger"
	"github.com/Kellerman81/go_movie_catalog/model"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	ColTitle       = "Title"
	ColYear        = "Year"
	ColDescription = "Description"
	ColPoster      = "Poster"
	ColGenres      = "Genres"
	ColActors      = "Actors"
	ColDirector    = "Director"
	ColGenre       = "Genre"
)

// Columns lists the required header columns in file order.
var Columns = []string{ColTitle, ColYear, ColDescription, ColPoster, ColGenres, ColActors, ColDirector, ColGenre}

// Reader accumulates the entities of one dataset file. The result slices keep
// first-seen order and never hold two entities with the same identity.
type Reader struct {
	path string

	movies    []*model.Movie
	actors    []model.Actor
	directors []model.Director
	genres    []model.Genre

	movieKeys    map[model.MovieKey]struct{}
	actorKeys    map[string]struct{}
	directorKeys map[string]struct{}
	genreKeys    map[string]struct{}
}

// New returns a reader for the dataset at path.
func New(path string) *Reader {
	r := &Reader{path: path}
	r.reset()
	return r
}

func (r *Reader) reset() {
	r.movies = nil
	r.actors = nil
	r.directors = nil
	r.genres = nil
	r.movieKeys = make(map[model.MovieKey]struct{})
	r.actorKeys = make(map[string]struct{})
	r.directorKeys = make(map[string]struct{})
	r.genreKeys = make(map[string]struct{})
}

func (r *Reader) Movies() []*model.Movie { return r.movies }
func (r *Reader) Actors() []model.Actor { return r.actors }
func (r *Reader) Directors() []model.Director { return r.directors }
func (r *Reader) Genres() []model.Genre { return r.genres }
func (r *Reader) Path() string { return r.path }

// Read opens the dataset file and parses it. A missing or unreadable file
// fails with a DATA_SOURCE error.
func (r *Reader) Read(ctx context.Context) error {
	file, err := os.Open(r.path)
	if err != nil {
		r.reset()
		return apperrors.DataSource("read_csv", r.path, err)
	}
	defer file.Close()

	if st, err := file.Stat(); err == nil && st.IsDir() {
		r.reset()
		return apperrors.DataSource("read_csv", r.path, errors.New("path is a directory"))
	}
	return r.Parse(ctx, file)
}

// Parse reads the dataset from src, replacing any previous result. On error
// the result is cleared.
func (r *Reader) Parse(ctx context.Context, src io.Reader) error {
	r.reset()
	if err := r.parse(ctx, src); err != nil {
		r.reset()
		return err
	}
	return nil
}

func (r *Reader) parse(ctx context.Context, src io.Reader) error {
	reader := csv.NewReader(transform.NewReader(src, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	reader.LazyQuotes = true
	reader.ReuseRecord = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.MalformedRecord(0, ColTitle, errors.New("missing header row"))
		}
		return r.readError(0, err)
	}
	index, err := headerIndex(header)
	if err != nil {
		return err
	}

	startTime := time.Now()
	row := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			return r.readError(row, err)
		}
		if err := r.processRecord(row, index, record); err != nil {
			return err
		}
	}

	logger.LogDynamicany(logger.StrDebug, "Completed dataset parse",
		logger.StrFile, r.path,
		"rows", row,
		"movies", len(r.movies),
		"actors", len(r.actors),
		"directors", len(r.directors),
		"genres", len(r.genres),
		"elapsed", time.Since(startTime))
	return nil
}

func (r *Reader) readError(row int, err error) error {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return apperrors.MalformedRecord(row, "", err)
	}
	return apperrors.DataSource("read_csv", r.path, err)
}

// headerIndex maps each required column to its position in the header.
func headerIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for idx, name := range header {
		name = strings.TrimSpace(name)
		if _, ok := index[name]; !ok {
			index[name] = idx
		}
	}
	for _, col := range Columns {
		if _, ok := index[col]; !ok {
			return nil, apperrors.MalformedRecord(0, col, errors.New("missing header column"))
		}
	}
	return index, nil
}

// field returns the value of col, failing when the row is too short to hold it.
func field(row int, index map[string]int, record []string, col string) (string, error) {
	idx := index[col]
	if idx >= len(record) {
		return "", apperrors.MalformedRecord(row, col, errors.New("missing field"))
	}
	return record[idx], nil
}

func (r *Reader) processRecord(row int, index map[string]int, record []string) error {
	var values [8]string
	for i, col := range Columns {
		val, err := field(row, index, record, col)
		if err != nil {
			return err
		}
		values[i] = val
	}
	title, yearStr, description, poster, genres, actors, director, genre := values[0], values[1], values[2], values[3], values[4], values[5], values[6], values[7]

	year, err := strconv.Atoi(strings.TrimSpace(yearStr))
	if err != nil {
		return apperrors.MalformedRecord(row, ColYear, err)
	}
	movie := model.NewMovie(title, year)
	if movie.Title == "" {
		return apperrors.MalformedRecord(row, ColTitle, errors.New("empty title"))
	}

	if _, ok := r.movieKeys[movie.Key()]; !ok {
		movie.Rank = row
		movie.Description = strings.TrimSpace(description)
		movie.Poster = strings.TrimSpace(poster)
		movie.Genres = splitList(genres)
		r.movieKeys[movie.Key()] = struct{}{}
		r.movies = append(r.movies, movie)
	}

	for _, name := range splitList(actors) {
		actor := model.NewActor(name)
		if _, ok := r.actorKeys[actor.Key()]; !ok {
			r.actorKeys[actor.Key()] = struct{}{}
			r.actors = append(r.actors, actor)
		}
	}

	if dir := model.NewDirector(director); dir.FullName != "" {
		if _, ok := r.directorKeys[dir.Key()]; !ok {
			r.directorKeys[dir.Key()] = struct{}{}
			r.directors = append(r.directors, dir)
		}
	}

	for _, name := range splitList(genre) {
		g := model.NewGenre(name)
		if _, ok := r.genreKeys[g.Key()]; !ok {
			r.genreKeys[g.Key()] = struct{}{}
			r.genres = append(r.genres, g)
		}
	}
	return nil
}

// splitList splits a comma joined field, trimming items and dropping empty ones.
func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
