package domain

import (
	"errors"
	"strings"
)

// Domain errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrWorkspaceNotFound  = errors.New("workspace not found")
	ErrChallengeNotFound  = errors.New("challenge not found")
	ErrActivityNotFound   = errors.New("activity not found")
	ErrEmailTaken         = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrInvalidVerifyCode  = errors.New("invalid verification code")
	ErrAlreadyMember      = errors.New("user is already a member")
	ErrNotAMember         = errors.New("user is not a member")
	ErrOwnerCannotLeave   = errors.New("owner cannot leave")
	ErrForbidden          = errors.New("forbidden")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNameRequired       = errors.New("name is required")
	ErrNameTooLong        = errors.New("name exceeds maximum length")
	ErrDescriptionTooLong = errors.New("description exceeds maximum length")
	ErrInvalidDateRange   = errors.New("end date must be after start date")
)

// Validation constants
const (
	MaxNameLength        = 255
	MaxDescriptionLength = 2000
)

// FieldError names one invalid field of a request
type FieldError struct {
	Field   string
	Message string
}

// ValidationFailed collects every invalid field of a request so the
// response can report them all at once rather than stopping at the
// first one
type ValidationFailed struct {
	Fields []FieldError
}

func (e *ValidationFailed) Error() string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Field
	}
	return "validation failed: " + strings.Join(names, ", ")
}
