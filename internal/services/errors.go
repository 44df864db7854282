package services

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrEmailAlreadyRegistered = errors.New("a user with this email already exists")
	ErrDuplicateEmail         = errors.New("email already in use")
	ErrUserNotFound           = errors.New("user not found")
	ErrInvalidToken           = errors.New("invalid token")
	ErrTokenExpired           = errors.New("token has expired")
	ErrTokenAlreadyUsed       = errors.New("token has already been used")
	ErrAlreadyActivated       = errors.New("user already has a password")
	ErrInvalidCredentials     = errors.New("incorrect credentials")
	ErrNotificationFailed     = errors.New("notification could not be delivered")
)

// ErrorKind groups workflow errors by how callers should react to them.
type ErrorKind string

const (
	KindNone           ErrorKind = ""
	KindValidation     ErrorKind = "validation"
	KindConflict       ErrorKind = "conflict"
	KindNotFound       ErrorKind = "not_found"
	KindToken          ErrorKind = "token"
	KindAuthentication ErrorKind = "authentication"
	KindOperational    ErrorKind = "operational"
	KindInternal       ErrorKind = "internal"
)

func Kind(err error) ErrorKind {
	var validationErr *ValidationError
	switch {
	case err == nil:
		return KindNone
	case errors.As(err, &validationErr):
		return KindValidation
	case errors.Is(err, ErrEmailAlreadyRegistered), errors.Is(err, ErrDuplicateEmail):
		return KindConflict
	case errors.Is(err, ErrUserNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrTokenAlreadyUsed),
		errors.Is(err, ErrAlreadyActivated):
		return KindToken
	case errors.Is(err, ErrInvalidCredentials):
		return KindAuthentication
	case errors.Is(err, ErrNotificationFailed):
		return KindOperational
	default:
		return KindInternal
	}
}

// ValidationError carries per-field messages for rejected input.
type ValidationError struct {
	Fields map[string]string
}

func (err *ValidationError) Error() string {
	names := make([]string, 0, len(err.Fields))
	for name := range err.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+err.Fields[name])
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func NewFieldError(field string, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}
