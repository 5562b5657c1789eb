// Package model holds the catalog entities. Entities carry no storage
// knowledge; identity is defined by explicit key functions which the
// ingestion pass and every set or map membership check share.
package model

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// MovieKey identifies a movie by title and release year.
type MovieKey struct {
	Title string
	Year  int
}

type Movie struct {
	Rank        int
	Year        int
	Title       string
	Description string
	Poster      string
	Genres      []string
	Reviews     []Review
}

// NewMovie returns a movie with a trimmed title. The rank is assigned by the
// caller.
func NewMovie(title string, year int) *Movie {
	return &Movie{Title: strings.TrimSpace(title), Year: year}
}

// Key returns the identity of the movie. Rank is not part of it.
func (m *Movie) Key() MovieKey {
	return MovieKey{Title: m.Title, Year: m.Year}
}

// Equal reports whether both movies share title and release year.
func (m *Movie) Equal(other *Movie) bool {
	if m == nil || other == nil {
		return m == other
	}
	return m.Key() == other.Key()
}

type Genre struct {
	ID   int64
	Name string
	// MovieRanks lists the ranks of the movies tagged with this genre, ascending.
	MovieRanks []int
}

func NewGenre(name string) Genre {
	return Genre{Name: strings.TrimSpace(name)}
}

func (g Genre) Key() string { return g.Name }

type Actor struct {
	ID       int64
	FullName string
}

func NewActor(name string) Actor {
	return Actor{FullName: strings.TrimSpace(name)}
}

func (a Actor) Key() string { return a.FullName }

type Director struct {
	ID       int64
	FullName string
}

func NewDirector(name string) Director {
	return Director{FullName: strings.TrimSpace(name)}
}

func (d Director) Key() string { return d.FullName }

type Review struct {
	ID        int64
	Username  string
	MovieRank int
	Text      string
	Timestamp time.Time
}

// NewReview returns a review stamped with the current time.
func NewReview(username string, movieRank int, text string) *Review {
	return &Review{
		Username:  strings.TrimSpace(username),
		MovieRank: movieRank,
		Text:      strings.TrimSpace(text),
		Timestamp: time.Now().UTC().Truncate(time.Second),
	}
}

type User struct {
	ID       int64
	Username string
	// Password is the bcrypt hash, never the plaintext.
	Password string
	Reviews  []Review
}

// NewUser hashes the plaintext password and returns the user.
func NewUser(username, password string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &User{Username: strings.TrimSpace(username), Password: string(hash)}, nil
}

// CheckPassword reports whether password matches the stored hash.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}
