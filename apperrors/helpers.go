package apperrors

import (
	"errors"
)

// Wrap creates a classified error.
func Wrap(class ErrorClass, operation string, err error) *ClassifiedError {
	if err == nil {
		return nil
	}

	return &ClassifiedError{
		Class:     class,
		Operation: operation,
		Err:       err,
		Context:   make(map[string]any),
	}
}

// New creates a new classified error with a message.
func New(class ErrorClass, operation string, message string) *ClassifiedError {
	return &ClassifiedError{
		Class:     class,
		Operation: operation,
		Err:       errors.New(message),
		Context:   make(map[string]any),
	}
}

// WithContext adds context to a classified error.
func (e *ClassifiedError) WithContext(key string, value any) *ClassifiedError {
	if e == nil {
		return nil
	}
	if e.Context == nil {
		e.Context = make(map[string]any)
	}

	e.Context[key] = value

	return e
}

// WrapWithContext creates a classified error and adds context fields in one call.
//
// Example usage:
//
//	err := apperrors.WrapWithContext(
//	    apperrors.ErrClassDatabase,
//	    "add_movie",
//	    cause,
//	    map[string]any{"rank": 12},
//	)
func WrapWithContext(
	class ErrorClass,
	operation string,
	err error,
	context map[string]any,
) *ClassifiedError {
	if err == nil {
		return nil
	}

	classified := Wrap(class, operation, err)
	for key, value := range context {
		classified.WithContext(key, value)
	}

	return classified
}

// NewWithContext creates a new classified error with context fields.
func NewWithContext(
	class ErrorClass,
	operation string,
	message string,
	context map[string]any,
) *ClassifiedError {
	classified := New(class, operation, message)
	for key, value := range context {
		classified.WithContext(key, value)
	}

	return classified
}

func WrapWithMessageFor(
	class ErrorClass,
	operation string,
	message string,
	messageFor string,
	err error,
) *ClassifiedError {
	if err == nil {
		classified := New(class, operation, message)

		classified.MessageFor = messageFor
		return classified
	}

	classified := Wrap(class, operation, err)

	classified.Message = message
	classified.MessageFor = messageFor

	return classified
}

// MalformedRecord reports a bad or missing field at the given data row.
// Row 0 is the header row.
func MalformedRecord(row int, field string, err error) *ClassifiedError {
	classified := WrapWithMessageFor(ErrClassMalformedRecord, "read_csv", "bad or missing field", field, err)
	return classified.WithContext("row", row).WithContext("field", field)
}

// DataSource reports an unreadable data source.
func DataSource(operation string, path string, err error) *ClassifiedError {
	return WrapWithMessageFor(ErrClassDataSource, operation, "cannot read data source", path, err).
		WithContext("path", path)
}

// DuplicateKey reports an insert that would violate an identity invariant.
func DuplicateKey(operation string, entity string, key any) *ClassifiedError {
	return NewWithContext(ErrClassDuplicateKey, operation, entity+" already exists", map[string]any{
		"entity": entity,
		"key":    key,
	})
}

// GetClass extracts the error class from an error.
func GetClass(err error) ErrorClass {
	if err == nil {
		return ErrClassUnknown
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class
	}

	return ErrClassUnknown
}

// GetOperation extracts the operation from an error.
func GetOperation(err error) string {
	if err == nil {
		return ""
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Operation
	}

	return ""
}

// GetContext extracts context from an error.
func GetContext(err error) map[string]any {
	if err == nil {
		return nil
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Context
	}

	return nil
}

// RecordPosition returns the row and field of a malformed record error.
func RecordPosition(err error) (row int, field string, ok bool) {
	if GetClass(err) != ErrClassMalformedRecord {
		return 0, "", false
	}
	ctx := GetContext(err)
	row, rowok := ctx["row"].(int)
	field, fieldok := ctx["field"].(string)
	return row, field, rowok && fieldok
}
