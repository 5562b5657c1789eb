package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMovieEqualityIgnoresRank(t *testing.T) {
	a := NewMovie("  Inception ", 2010)
	a.Rank = 1
	b := NewMovie("Inception", 2010)
	b.Rank = 99

	assert.Equal(t, "Inception", a.Title)
	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Key(), b.Key())

	assert.False(t, a.Equal(NewMovie("Inception", 2011)))
	assert.False(t, a.Equal(NewMovie("Interstellar", 2010)))
	assert.False(t, a.Equal(nil))

	var nilMovie *Movie
	assert.True(t, nilMovie.Equal(nil))
}

func TestMovieKeyAsMapKey(t *testing.T) {
	seen := map[MovieKey]struct{}{}
	seen[NewMovie("Up", 2009).Key()] = struct{}{}

	_, ok := seen[NewMovie("Up ", 2009).Key()]
	assert.True(t, ok)
}

func TestNameIdentity(t *testing.T) {
	assert.Equal(t, NewActor(" Chris Pratt").Key(), NewActor("Chris Pratt").Key())
	assert.Equal(t, NewDirector("James Gunn ").Key(), "James Gunn")
	assert.Equal(t, NewGenre("Action").Key(), NewGenre(" Action ").Key())
	assert.NotEqual(t, NewGenre("Action").Key(), NewGenre("action").Key())
}

func TestUserPassword(t *testing.T) {
	user, err := NewUser(" fmercury ", "mvNX9jw2")
	require.NoError(t, err)

	assert.Equal(t, "fmercury", user.Username)
	assert.NotEqual(t, "mvNX9jw2", user.Password)
	assert.True(t, user.CheckPassword("mvNX9jw2"))
	assert.False(t, user.CheckPassword("wrong"))
}

func TestNewReview(t *testing.T) {
	review := NewReview("fmercury", 3, " Loved it ")

	assert.Equal(t, "Loved it", review.Text)
	assert.Equal(t, 3, review.MovieRank)
	assert.False(t, review.Timestamp.IsZero())
	assert.Zero(t, review.Timestamp.Nanosecond())
}
