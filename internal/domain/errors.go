package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInviteCode   = errors.New("invalid or inactive invite code")
	ErrIdentityCreation    = errors.New("identity creation failed")
	ErrProfileRegistration = errors.New("profile registration failed")
	ErrProfileFetch        = errors.New("profile fetch failed")
	ErrAuthorization       = errors.New("not authorized")
	ErrRemote              = errors.New("remote call failed")

	// ErrOrphanedIdentity means an identity exists without a profile and could not be removed.
	ErrOrphanedIdentity = errors.New("identity exists without profile")

	ErrInviteConsumed     = errors.New("invite code already used")
	ErrAlreadyRegistered  = errors.New("identity already has a profile")
	ErrInvalidDifficulty  = errors.New("difficulty level must be between 1 and 5")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
	ErrNoClassroom        = errors.New("no classroom assigned")
)

// RegistrationError carries the stage at which the invite flow was abandoned.
type RegistrationError struct {
	Stage RegistrationState
	Err   error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("registration abandoned at %s: %v", e.Stage, e.Err)
}

func (e *RegistrationError) Unwrap() error {
	return e.Err
}

// FieldError names the input field that failed validation
type FieldError struct {
	Field   string
	Message string
}

// ValidationError wraps ErrValidation with per-field details
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	return fmt.Sprintf("%s: %s %s", ErrValidation, e.Fields[0].Field, e.Fields[0].Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
