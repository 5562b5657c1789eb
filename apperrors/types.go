package apperrors

import (
	"errors"
	"strings"
)

// ErrorClass represents the category of an error.
type ErrorClass string

const (
	// ErrClassMalformedRecord represents a bad or missing field in a source record.
	ErrClassMalformedRecord ErrorClass = "MALFORMED_RECORD"
	// ErrClassDataSource represents an unreadable or missing data source.
	ErrClassDataSource ErrorClass = "DATA_SOURCE"
	// ErrClassDuplicateKey represents a uniqueness violation on insert.
	ErrClassDuplicateKey ErrorClass = "DUPLICATE_KEY"
	// ErrClassDatabase represents database-related errors.
	ErrClassDatabase ErrorClass = "DATABASE"
	// ErrClassConfig represents configuration-related errors.
	ErrClassConfig ErrorClass = "CONFIG"
	// ErrClassValidation represents validation-related errors.
	ErrClassValidation ErrorClass = "VALIDATION"
	// ErrClassUnknown represents unknown or unclassified errors.
	ErrClassUnknown ErrorClass = "UNKNOWN"
)

var (
	ErrMalformedRecord = errors.New("malformed record")
	ErrDataSource      = errors.New("data source unavailable")
	ErrDuplicateKey    = errors.New("duplicate key")
	// ErrNotFound is never returned by read lookups, which report absence
	// with nil results. It is used where a write depends on a missing row.
	ErrNotFound = errors.New("not found")
)

var classSentinels = map[ErrorClass]error{
	ErrClassMalformedRecord: ErrMalformedRecord,
	ErrClassDataSource:      ErrDataSource,
	ErrClassDuplicateKey:    ErrDuplicateKey,
}

// ClassifiedError wraps an error with classification metadata.
type ClassifiedError struct {
	// Class represents the category of the error
	Class ErrorClass
	// Operation describes the operation that failed
	Operation string
	// Message describes the failed operation in more detail
	Message string
	// MessageFor identifies the entity on which an operation failed.
	MessageFor string
	// Err is the underlying error
	Err error
	// Context provides additional context about the error
	Context map[string]any
}

// Error implements the error interface.
func (e *ClassifiedError) Error() string {
	var bld strings.Builder
	bld.Grow(128)

	bld.WriteRune('[')
	bld.WriteString(string(e.Class))
	bld.WriteRune(']')

	if e.Operation != "" {
		bld.WriteRune(' ')
		bld.WriteString(e.Operation)
	}

	if e.Message != "" {
		bld.WriteRune(' ')
		bld.WriteString(e.Message)
	}

	if e.MessageFor != "" {
		bld.WriteString(" for: ")
		bld.WriteString(e.MessageFor)
	}

	if e.Err != nil {
		bld.WriteString(" Error: ")
		bld.WriteString(e.Err.Error())
	}
	return bld.String()
}

// Unwrap returns the wrapped error for errors.Is/As compatibility.
func (e *ClassifiedError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel of this error's class, so
// errors.Is(err, ErrDuplicateKey) holds for every DUPLICATE_KEY error.
func (e *ClassifiedError) Is(target error) bool {
	sentinel, ok := classSentinels[e.Class]
	return ok && sentinel == target
}
