package repository

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/Kellerman81/go_movie_catalog/apperrors"
	"github.com/Kellerman81/go_movie_catalog/model"
)

// MemoryRepository keeps the catalog in process memory. Writes are fully
// validated before anything is stored, so a failed write changes nothing.
// Returned entities are copies.
type MemoryRepository struct {
	mu sync.RWMutex

	users     map[string]*model.User
	movies    map[int]*model.Movie
	movieKeys map[model.MovieKey]int
	// ranks is kept sorted ascending.
	ranks     []int
	genres    map[string]*model.Genre
	actors    []model.Actor
	directors []model.Director
	reviews   []model.Review

	actorKeys    map[string]struct{}
	directorKeys map[string]struct{}

	lastUserID   int64
	lastGenreID  int64
	lastActorID  int64
	lastDirID    int64
	lastReviewID int64
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:        make(map[string]*model.User),
		movies:       make(map[int]*model.Movie),
		movieKeys:    make(map[model.MovieKey]int),
		genres:       make(map[string]*model.Genre),
		actorKeys:    make(map[string]struct{}),
		directorKeys: make(map[string]struct{}),
	}
}

func (r *MemoryRepository) Close() error { return nil }

func (r *MemoryRepository) AddUser(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.Username]; ok {
		return apperrors.DuplicateKey("add_user", "user", user.Username)
	}
	r.lastUserID++
	user.ID = r.lastUserID
	r.users[user.Username] = &model.User{ID: user.ID, Username: user.Username, Password: user.Password}
	return nil
}

func (r *MemoryRepository) GetUser(_ context.Context, username string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.users[username]
	if !ok {
		return nil, nil
	}
	user := *stored
	user.Reviews = r.filterReviews(func(rv *model.Review) bool { return rv.Username == username })
	return &user, nil
}

func (r *MemoryRepository) AddMovie(_ context.Context, movie *model.Movie) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.movies[movie.Rank]; ok {
		return apperrors.DuplicateKey("add_movie", "movie", movie.Rank)
	}
	if _, ok := r.movieKeys[movie.Key()]; ok {
		return apperrors.DuplicateKey("add_movie", "movie", movie.Key())
	}

	stored := &model.Movie{
		Rank:        movie.Rank,
		Year:        movie.Year,
		Title:       movie.Title,
		Description: movie.Description,
		Poster:      movie.Poster,
	}
	for _, name := range movie.Genres {
		if slices.Contains(stored.Genres, name) {
			continue
		}
		stored.Genres = append(stored.Genres, name)
		genre := r.ensureGenre(name)
		pos, _ := slices.BinarySearch(genre.MovieRanks, movie.Rank)
		genre.MovieRanks = slices.Insert(genre.MovieRanks, pos, movie.Rank)
	}

	r.movies[movie.Rank] = stored
	r.movieKeys[movie.Key()] = movie.Rank
	pos, _ := slices.BinarySearch(r.ranks, movie.Rank)
	r.ranks = slices.Insert(r.ranks, pos, movie.Rank)
	return nil
}

func (r *MemoryRepository) ensureGenre(name string) *model.Genre {
	if genre, ok := r.genres[name]; ok {
		return genre
	}
	r.lastGenreID++
	genre := &model.Genre{ID: r.lastGenreID, Name: name, MovieRanks: []int{}}
	r.genres[name] = genre
	return genre
}

func (r *MemoryRepository) AddGenre(_ context.Context, genre *model.Genre) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.genres[genre.Name]; ok {
		return apperrors.DuplicateKey("add_genre", "genre", genre.Name)
	}
	genre.ID = r.ensureGenre(genre.Name).ID
	return nil
}

// AddActor stores actor unless an actor with the same name exists.
func (r *MemoryRepository) AddActor(actor *model.Actor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.actorKeys[actor.Key()]; ok {
		return apperrors.DuplicateKey("add_actor", "actor", actor.FullName)
	}
	r.lastActorID++
	actor.ID = r.lastActorID
	r.actorKeys[actor.Key()] = struct{}{}
	r.actors = append(r.actors, *actor)
	return nil
}

// AddDirector stores director unless a director with the same name exists.
func (r *MemoryRepository) AddDirector(director *model.Director) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.directorKeys[director.Key()]; ok {
		return apperrors.DuplicateKey("add_director", "director", director.FullName)
	}
	r.lastDirID++
	director.ID = r.lastDirID
	r.directorKeys[director.Key()] = struct{}{}
	r.directors = append(r.directors, *director)
	return nil
}

func (r *MemoryRepository) Actors() []model.Actor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.actors)
}

func (r *MemoryRepository) Directors() []model.Director {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.directors)
}

func (r *MemoryRepository) AddReview(_ context.Context, review *model.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[review.Username]; !ok {
		return unknownUser(review.Username)
	}
	if _, ok := r.movies[review.MovieRank]; !ok {
		return unknownMovie(review.MovieRank)
	}
	r.lastReviewID++
	review.ID = r.lastReviewID
	stored := *review
	stored.Timestamp = stored.Timestamp.UTC()
	r.reviews = append(r.reviews, stored)
	return nil
}

func (r *MemoryRepository) GetMovie(_ context.Context, rank int) (*model.Movie, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.copyMovie(rank), nil
}

// copyMovie returns a detached copy of the stored movie with its reviews, or
// nil. The caller holds the lock.
func (r *MemoryRepository) copyMovie(rank int) *model.Movie {
	stored, ok := r.movies[rank]
	if !ok {
		return nil
	}
	movie := *stored
	movie.Genres = slices.Clone(stored.Genres)
	movie.Reviews = r.filterReviews(func(rv *model.Review) bool { return rv.MovieRank == rank })
	return &movie
}

func (r *MemoryRepository) GetNumberOfMovies(context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.movies), nil
}

func (r *MemoryRepository) GetFirstMovie(context.Context) (*model.Movie, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.ranks) == 0 {
		return nil, nil
	}
	return r.copyMovie(r.ranks[0]), nil
}

func (r *MemoryRepository) GetLastMovie(context.Context) (*model.Movie, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.ranks) == 0 {
		return nil, nil
	}
	return r.copyMovie(r.ranks[len(r.ranks)-1]), nil
}

func (r *MemoryRepository) GetYearOfPreviousMovie(_ context.Context, movie *model.Movie) (int, bool, error) {
	if movie == nil {
		return 0, false, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	year, found := 0, false
	for _, m := range r.movies {
		if m.Year < movie.Year && (!found || m.Year > year) {
			year, found = m.Year, true
		}
	}
	return year, found, nil
}

func (r *MemoryRepository) GetYearOfNextMovie(_ context.Context, movie *model.Movie) (int, bool, error) {
	if movie == nil {
		return 0, false, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	year, found := 0, false
	for _, m := range r.movies {
		if m.Year > movie.Year && (!found || m.Year < year) {
			year, found = m.Year, true
		}
	}
	return year, found, nil
}

func (r *MemoryRepository) GetMoviesByYear(_ context.Context, year *int) ([]*model.Movie, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	movies := []*model.Movie{}
	for _, rank := range r.ranks {
		if year == nil || r.movies[rank].Year == *year {
			movies = append(movies, r.copyMovie(rank))
		}
	}
	return movies, nil
}

func (r *MemoryRepository) GetGenres(context.Context) ([]model.Genre, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	genres := make([]model.Genre, 0, len(r.genres))
	for _, g := range r.genres {
		genres = append(genres, model.Genre{ID: g.ID, Name: g.Name, MovieRanks: slices.Clone(g.MovieRanks)})
	}
	slices.SortFunc(genres, func(a, b model.Genre) int { return cmp.Compare(a.Name, b.Name) })
	return genres, nil
}

func (r *MemoryRepository) GetMoviesByRank(_ context.Context, ranks []int) ([]*model.Movie, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	wanted := slices.Clone(ranks)
	slices.Sort(wanted)
	wanted = slices.Compact(wanted)

	movies := []*model.Movie{}
	for _, rank := range wanted {
		if movie := r.copyMovie(rank); movie != nil {
			movies = append(movies, movie)
		}
	}
	return movies, nil
}

func (r *MemoryRepository) GetMovieRanksForGenre(_ context.Context, genreName string) ([]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	genre, ok := r.genres[genreName]
	if !ok {
		return []int{}, nil
	}
	return slices.Clone(genre.MovieRanks), nil
}

func (r *MemoryRepository) GetReviews(context.Context) ([]model.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.filterReviews(func(*model.Review) bool { return true }), nil
}

func (r *MemoryRepository) GetReviewsForMovie(_ context.Context, rank int) ([]model.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.filterReviews(func(rv *model.Review) bool { return rv.MovieRank == rank }), nil
}

// filterReviews returns the matching reviews oldest first, or nil when none
// match. The caller holds the lock.
func (r *MemoryRepository) filterReviews(match func(*model.Review) bool) []model.Review {
	var out []model.Review
	for i := range r.reviews {
		if match(&r.reviews[i]) {
			out = append(out, r.reviews[i])
		}
	}
	slices.SortStableFunc(out, func(a, b model.Review) int { return a.Timestamp.Compare(b.Timestamp) })
	return out
}
