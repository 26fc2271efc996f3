package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenExpired  = errors.New("refresh token expired")
	ErrRefreshTokenReused   = errors.New("refresh token already used")
	ErrNotFound             = errors.New("not found")
	ErrStorageTimeout       = errors.New("storage operation timed out")
)

// ValidationError collects every violated field of a request, not just the
// first one encountered.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

func (e *ValidationError) Add(field, message string) {
	e.Fields[field] = message
}

func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fmt.Sprintf("validation failed: %s", strings.Join(fields, ", "))
}

// AuthorizationError means the caller is authenticated but lacks the role or
// ownership the operation requires. Field is set when a specific request
// field (e.g. a role assignment) triggered the denial.
type AuthorizationError struct {
	Field   string
	Message string
}

func (e *AuthorizationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ConflictError surfaces a storage-level uniqueness violation on the named
// field.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already in use", e.Field)
}
