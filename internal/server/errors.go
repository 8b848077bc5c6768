// Package server provides the backend-for-frontend HTTP server of the job board client.
package server

import (
	"errors"
	"net/http"

	"github.com/jonathan/job-board-client/internal/api"
	"github.com/jonathan/job-board-client/internal/auth"
)

// ErrNotFound indicates the requested record does not exist
type ErrNotFound struct {
	What string
}

func (e *ErrNotFound) Error() string {
	return e.What + " not found"
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	switch err.(type) {
	case *auth.ErrAccountExists:
		return http.StatusConflict
	case *auth.ErrInvalidCredentials:
		return http.StatusUnauthorized
	case *auth.ErrValidation:
		return http.StatusBadRequest
	case *ErrNotFound:
		return http.StatusNotFound
	}

	if errors.Is(err, api.ErrNoToken) {
		return http.StatusUnauthorized
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode >= 400 && apiErr.StatusCode < 500:
			return apiErr.StatusCode
		default:
			return http.StatusBadGateway
		}
	}
	return http.StatusInternalServerError
}

// userMessage is the text shown for a failed write. API messages pass through;
// anything else gets a generic message.
func userMessage(err error) string {
	switch err.(type) {
	case *auth.ErrAccountExists, *auth.ErrInvalidCredentials, *auth.ErrValidation, *ErrNotFound:
		return err.Error()
	}
	if errors.Is(err, api.ErrNoToken) {
		return "not signed in"
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 && apiErr.Message != "" {
			return apiErr.Message
		}
		return "the job board is unavailable, try again later"
	}
	return "internal error"
}
