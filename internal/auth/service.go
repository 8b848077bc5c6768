// Package auth implements sign-in and registration against the job board API.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/jonathan/job-board-client/internal/api"
	"github.com/jonathan/job-board-client/internal/claims"
	"github.com/jonathan/job-board-client/internal/types"
)

// API is the subset of the job board API the flows use.
type API interface {
	Token(ctx context.Context, username, password string) (*types.TokenResponse, error)
	Profile(ctx context.Context, token string, role types.Role) (*types.User, error)
	Register(ctx context.Context, req *types.RegisterRequest) (json.RawMessage, error)
}

// Service runs the sign-in and registration flows.
type Service struct {
	api     API
	decoder claims.Decoder
	logger  logrus.FieldLogger
}

// NewService creates a Service. A nil decoder reads claims unverified.
func NewService(client API, decoder claims.Decoder, logger logrus.FieldLogger) *Service {
	if decoder == nil {
		decoder = claims.UnverifiedDecoder{}
	}
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Service{api: client, decoder: decoder, logger: logger.WithField("component", "auth")}
}

// SignIn exchanges credentials for a token, reads the role from the token's
// claims and fetches the matching profile. The returned user carries the role
// and email from the claims.
func (s *Service) SignIn(ctx context.Context, username, password string) (string, *types.User, error) {
	req := types.LoginRequest{Username: username, Password: password}
	if err := req.Validate(); err != nil {
		return "", nil, ValidationError(err)
	}

	tok, err := s.api.Token(ctx, username, password)
	if err != nil {
		switch api.StatusCode(err) {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusUnprocessableEntity:
			return "", nil, &ErrInvalidCredentials{}
		}
		return "", nil, fmt.Errorf("failed to obtain token: %w", err)
	}

	c, err := s.decoder.Decode(tok.AccessToken)
	if err != nil {
		s.logger.WithError(err).Warn("rejecting token with unusable claims")
		return "", nil, &ErrInvalidCredentials{}
	}

	user, err := s.api.Profile(ctx, tok.AccessToken, c.Role)
	if err != nil {
		return "", nil, fmt.Errorf("failed to load profile: %w", err)
	}
	user.Role = c.Role
	if c.Email != "" {
		user.Email = c.Email
	}
	if user.Username == "" {
		user.Username = username
	}

	s.logger.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("signed in")
	return tok.AccessToken, user, nil
}

// Register validates req and creates the account. No retry is attempted.
func (s *Service) Register(ctx context.Context, req *types.RegisterRequest) (json.RawMessage, error) {
	if err := req.Validate(); err != nil {
		return nil, ValidationError(err)
	}

	out, err := s.api.Register(ctx, req)
	if err != nil {
		switch api.StatusCode(err) {
		case http.StatusConflict:
			return nil, &ErrAccountExists{Email: req.Email}
		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			return nil, &ErrValidation{Field: "request", Message: apiMessage(err)}
		}
		return nil, fmt.Errorf("registration failed: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"role": req.Role}).Info("registered account")
	return out, nil
}

func apiMessage(err error) string {
	var e *api.Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return err.Error()
}
