package apperrors

import (
	"errors"
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrClassDatabase, "op", nil))
	assert.Nil(t, WrapWithContext(ErrClassDatabase, "op", nil, map[string]any{"a": 1}))
}

func TestClassifiedErrorMessage(t *testing.T) {
	err := WrapWithMessageFor(ErrClassDatabase, "add_movie", "insert failed", "Inception", errors.New("disk full"))

	assert.Equal(t, "[DATABASE] add_movie insert failed for: Inception Error: disk full", err.Error())
	assert.Equal(t, ErrClassDatabase, GetClass(err))
	assert.Equal(t, "add_movie", GetOperation(err))
}

func TestSentinelMatching(t *testing.T) {
	dup := DuplicateKey("add_user", "user", "fmercury")
	assert.ErrorIs(t, dup, ErrDuplicateKey)
	assert.NotErrorIs(t, dup, ErrMalformedRecord)

	wrapped := fmt.Errorf("outer: %w", dup)
	assert.ErrorIs(t, wrapped, ErrDuplicateKey)
	assert.Equal(t, ErrClassDuplicateKey, GetClass(wrapped))

	src := DataSource("populate", "/nope.csv", errors.New("no such file"))
	assert.ErrorIs(t, src, ErrDataSource)
	assert.Equal(t, "/nope.csv", GetContext(src)["path"])

	db := Wrap(ErrClassDatabase, "op", errors.New("x"))
	assert.NotErrorIs(t, db, ErrDuplicateKey)
}

func TestRecordPosition(t *testing.T) {
	_, convErr := strconv.Atoi("20x4")
	err := MalformedRecord(7, "Year", convErr)

	require.ErrorIs(t, err, ErrMalformedRecord)
	assert.ErrorIs(t, err, strconv.ErrSyntax)

	row, field, ok := RecordPosition(err)
	require.True(t, ok)
	assert.Equal(t, 7, row)
	assert.Equal(t, "Year", field)

	_, _, ok = RecordPosition(errors.New("plain"))
	assert.False(t, ok)
}

func TestGetClassUnknown(t *testing.T) {
	assert.Equal(t, ErrClassUnknown, GetClass(nil))
	assert.Equal(t, ErrClassUnknown, GetClass(errors.New("plain")))
	assert.Nil(t, GetContext(errors.New("plain")))
	assert.Equal(t, "", GetOperation(nil))
}
