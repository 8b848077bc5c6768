package auth

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidCredentials indicates the API refused the credentials or issued a
// token whose claims could not be trusted.
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid username or password"
}

// ErrAccountExists indicates the registration email is already taken
type ErrAccountExists struct {
	Email string
}

func (e *ErrAccountExists) Error() string {
	return fmt.Sprintf("account already registered: %s", e.Email)
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ValidationError converts a validator failure into an ErrValidation naming the
// first offending field.
func ValidationError(err error) *ErrValidation {
	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		ve := ves[0]
		return &ErrValidation{Field: ve.Field(), Message: ve.Tag()}
	}
	return &ErrValidation{Field: "request", Message: err.Error()}
}
