package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/jonathan/job-board-client/internal/types"
)

// Token exchanges credentials for an access token using the OAuth2
// resource-owner password grant against /auth/token.
func (c *Client) Token(ctx context.Context, username, password string) (*types.TokenResponse, error) {
	cfg := oauth2.Config{
		Endpoint: oauth2.Endpoint{
			TokenURL:  c.baseURL + "/auth/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)

	tok, err := cfg.PasswordCredentialsToken(ctx, username, password)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			return nil, &Error{
				Op:         "token",
				StatusCode: re.Response.StatusCode,
				Message:    errorMessage(re.Response.Header.Get("Content-Type"), re.Body),
			}
		}
		return nil, &Error{Op: "token", Message: "HTTP request failed", Cause: err}
	}

	return &types.TokenResponse{
		AccessToken: tok.AccessToken,
		TokenType:   tok.TokenType,
		ExpiresIn:   tok.ExpiresIn,
	}, nil
}

// Register creates an account on the endpoint matching req.Role and returns
// the API's echo of the new account.
func (c *Client) Register(ctx context.Context, req *types.RegisterRequest) (json.RawMessage, error) {
	var path string
	switch req.Role {
	case types.RoleCandidate:
		path = "/auth/register/candidate/"
	case types.RoleEmployer:
		path = "/auth/register/employer/"
	default:
		return nil, &Error{Op: "register", Message: fmt.Sprintf("unknown role %q", req.Role)}
	}

	var out json.RawMessage
	if _, err := c.do(ctx, request{op: "register", method: http.MethodPost, path: path, body: req}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// VerifyToken asks the API whether token is still valid. A non-2xx answer is
// (false, nil); only transport failures return an error.
func (c *Client) VerifyToken(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	_, err := c.do(ctx, request{op: "verify token", method: http.MethodGet, path: "/auth/verify-token/", token: token}, nil)
	if err == nil {
		return true, nil
	}
	if StatusCode(err) != 0 {
		return false, nil
	}
	return false, err
}

// Profile fetches the profile of the token holder from the endpoint of role.
func (c *Client) Profile(ctx context.Context, token string, role types.Role) (*types.User, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	var path string
	switch role {
	case types.RoleCandidate:
		path = "/candidates/"
	case types.RoleEmployer:
		path = "/employers/"
	default:
		return nil, &Error{Op: "profile", Message: fmt.Sprintf("unknown role %q", role)}
	}

	var user types.User
	if _, err := c.do(ctx, request{op: "profile", method: http.MethodGet, path: path, token: token}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
