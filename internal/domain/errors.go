package domain

import "net/http"

// Error is a domain error tagged with the HTTP status it should surface as.
// Anything that is not an *Error degrades to a generic 500 at the boundary.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func NewError(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

// Validation covers malformed or missing input and policy violations.
func Validation(message string) *Error {
	return NewError(http.StatusBadRequest, message)
}

// Auth covers bad credentials with the original 400 semantics.
func Auth(message string) *Error {
	return NewError(http.StatusBadRequest, message)
}

// Unauthorized covers missing, invalid or revoked tokens.
func Unauthorized(message string) *Error {
	return NewError(http.StatusUnauthorized, message)
}

func Forbidden(message string) *Error {
	return NewError(http.StatusForbidden, message)
}

func NotFound(message string) *Error {
	return NewError(http.StatusNotFound, message)
}

// Conflict covers duplicate registration; the original API reports it as 400.
func Conflict(message string) *Error {
	return NewError(http.StatusBadRequest, message)
}

func Internal(message string) *Error {
	return NewError(http.StatusInternalServerError, message)
}
