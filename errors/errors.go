package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

var (
	// Connection-establishment failures. Fatal to the attempt, never to the process.
	ErrTokenMissing = fmt.Errorf("authentication token missing")
	ErrTokenInvalid = fmt.Errorf("authentication token invalid")

	// Registry invariants. Should not occur under correct id generation,
	// tolerated and logged when they do.
	ErrDuplicateConnection = fmt.Errorf("connection id already registered")
	ErrConnectionNotFound  = fmt.Errorf("connection id not registered")

	// Account errors surfaced by the auth service.
	ErrUserAlreadyExists  = fmt.Errorf("username is taken")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity rules")
	ErrInvalidUsername    = fmt.Errorf("username does not meet format rules")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")

	ErrWorkerPanic = fmt.Errorf("worker panic")
	ErrEmptyWords  = fmt.Errorf("no censored words have been found")
)

// MapToHTTPStatus translates domain errors at the API boundary.
// Anything unrecognized becomes a 500 so internals never leak to clients.
func MapToHTTPStatus(err error) int {
	switch {
	case stderrors.Is(err, ErrTokenMissing),
		stderrors.Is(err, ErrTokenInvalid),
		stderrors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case stderrors.Is(err, ErrUserAlreadyExists):
		return http.StatusConflict
	case stderrors.Is(err, ErrInvalidPassword), stderrors.Is(err, ErrInvalidUsername):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
