package apperrors

import (
	"errors"
)

// Wrap creates a classified error. It returns nil for a nil err.
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

// WrapWithMessageFor wraps err and records which entity the operation was for.
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

// GetClass returns the class of the outermost classified error in err's chain.
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
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Operation
	}

	return ""
}

// GetContext extracts context from an error.
func GetContext(err error) map[string]any {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Context
	}

	return nil
}

// IsClass reports whether any error in err's chain carries class.
func IsClass(err error, class ErrorClass) bool {
	var ce *ClassifiedError
	for err != nil && errors.As(err, &ce) {
		if ce.Class == class {
			return true
		}
		err = ce.Err
	}
	return false
}
