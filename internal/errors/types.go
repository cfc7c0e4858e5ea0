package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the categories of failures surfaced to callers
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeUnsupportedDocumentType
	ErrorTypeUnsupportedJurisdiction
	ErrorTypeUnsupportedCombination
	ErrorTypeMalformedTemplate
	ErrorTypeInvalidRequest
)

// Sentinels for errors.Is matching. A *FormError matches the sentinel of its Type.
var (
	ErrUnsupportedDocumentType = &FormError{Type: ErrorTypeUnsupportedDocumentType, Message: "unsupported document type"}
	ErrUnsupportedJurisdiction = &FormError{Type: ErrorTypeUnsupportedJurisdiction, Message: "unsupported jurisdiction"}
	ErrUnsupportedCombination  = &FormError{Type: ErrorTypeUnsupportedCombination, Message: "document type not offered in jurisdiction"}
	ErrMalformedTemplate       = &FormError{Type: ErrorTypeMalformedTemplate, Message: "malformed template"}
	ErrInvalidRequest          = &FormError{Type: ErrorTypeInvalidRequest, Message: "invalid request"}
)

// FormError is the error returned by the loader and the overlay engine
type FormError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Context string    `json:"context,omitempty"`
	Err     error     `json:"-"`
}

// Error implements the error interface
func (e *FormError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Type.String(), e.Message)
	if e.Context != "" {
		msg += ": " + e.Context
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause, if any
func (e *FormError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a FormError of the same type
func (e *FormError) Is(target error) bool {
	var fe *FormError
	if !errors.As(target, &fe) {
		return false
	}
	return fe.Type == e.Type
}

// String returns a string representation of the ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeUnsupportedDocumentType:
		return "UNSUPPORTED_DOCUMENT_TYPE"
	case ErrorTypeUnsupportedJurisdiction:
		return "UNSUPPORTED_JURISDICTION"
	case ErrorTypeUnsupportedCombination:
		return "UNSUPPORTED_COMBINATION"
	case ErrorTypeMalformedTemplate:
		return "MALFORMED_TEMPLATE"
	case ErrorTypeInvalidRequest:
		return "INVALID_REQUEST"
	default:
		return "UNKNOWN"
	}
}

// IsRequestError reports whether the error type is caused by caller input.
// MalformedTemplate is a deployment problem, not a bad request.
func (et ErrorType) IsRequestError() bool {
	switch et {
	case ErrorTypeUnsupportedDocumentType, ErrorTypeUnsupportedJurisdiction,
		ErrorTypeUnsupportedCombination, ErrorTypeInvalidRequest:
		return true
	default:
		return false
	}
}

// New creates a new FormError
func New(errorType ErrorType, message string) *FormError {
	return &FormError{
		Type:    errorType,
		Message: message,
	}
}

// NewWithContext creates a new FormError with additional context
func NewWithContext(errorType ErrorType, message, context string) *FormError {
	return &FormError{
		Type:    errorType,
		Message: message,
		Context: context,
	}
}

// Wrap wraps a standard error as a FormError
func Wrap(errorType ErrorType, message string, err error) *FormError {
	return &FormError{
		Type:    errorType,
		Message: message,
		Err:     err,
	}
}

// WithContext adds context to an existing FormError
func (e *FormError) WithContext(context string) *FormError {
	e.Context = context
	return e
}

// TypeOf returns the ErrorType carried by err, or ErrorTypeUnknown
func TypeOf(err error) ErrorType {
	var fe *FormError
	if errors.As(err, &fe) {
		return fe.Type
	}
	return ErrorTypeUnknown
}
