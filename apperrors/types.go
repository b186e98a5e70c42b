package apperrors

import (
	"strings"
	"sync"
)

// ErrorClass represents the category of an error.
type ErrorClass string

const (
	// ErrClassConfig represents configuration-related errors.
	ErrClassConfig ErrorClass = "CONFIG"
	// ErrClassDatabase represents database-related errors.
	ErrClassDatabase ErrorClass = "DATABASE"
	// ErrClassAPI represents API-related errors.
	ErrClassAPI ErrorClass = "API"
	// ErrClassCatalog represents failures of remote catalog lookups.
	ErrClassCatalog ErrorClass = "CATALOG"
	ErrClassAuth    ErrorClass = "AUTH"
	ErrClassTable   ErrorClass = "TABLE"
	// ErrClassNetwork represents network-related errors.
	ErrClassNetwork ErrorClass = "NETWORK"
	// ErrClassValidation represents validation-related errors.
	ErrClassValidation ErrorClass = "VALIDATION"
	// ErrClassNotFound is used when a requested record does not exist.
	ErrClassNotFound ErrorClass = "NOTFOUND"
	// ErrClassUnknown represents unknown or unclassified errors.
	ErrClassUnknown ErrorClass = "UNKNOWN"
)

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

var errorBuilder = sync.Pool{
	New: func() any {
		return &strings.Builder{}
	},
}

// Error implements the error interface.
func (e *ClassifiedError) Error() string {
	bld := errorBuilder.Get().(*strings.Builder)
	defer func() {
		bld.Reset()
		errorBuilder.Put(bld)
	}()

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
