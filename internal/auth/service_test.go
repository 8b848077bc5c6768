package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-board-client/internal/api"
	"github.com/jonathan/job-board-client/internal/claims"
	"github.com/jonathan/job-board-client/internal/types"
)

var testSecret = []byte("test-secret")

type fakeAPI struct {
	token      string
	tokenErr   error
	profile    *types.User
	profileErr error
	profileFor types.Role
	registered *types.RegisterRequest
	regErr     error
}

func (f *fakeAPI) Token(context.Context, string, string) (*types.TokenResponse, error) {
	if f.tokenErr != nil {
		return nil, f.tokenErr
	}
	return &types.TokenResponse{AccessToken: f.token, TokenType: "bearer"}, nil
}

func (f *fakeAPI) Profile(_ context.Context, _ string, role types.Role) (*types.User, error) {
	f.profileFor = role
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	u := *f.profile
	return &u, nil
}

func (f *fakeAPI) Register(_ context.Context, req *types.RegisterRequest) (json.RawMessage, error) {
	f.registered = req
	if f.regErr != nil {
		return nil, f.regErr
	}
	return json.RawMessage(`{"id":7}`), nil
}

func signed(t *testing.T, role types.Role, email string) string {
	t.Helper()
	tok, err := claims.Sign(testSecret, claims.Claims{
		Subject:   "42",
		Role:      role,
		Email:     email,
		ExpiresAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	return tok
}

func TestSignIn_MergesClaimsIntoProfile(t *testing.T) {
	f := &fakeAPI{
		token:   signed(t, types.RoleEmployer, "boss@acme.test"),
		profile: &types.User{ID: 42, FirstName: "Ada", CompanyName: "Acme"},
	}
	svc := NewService(f, claims.HMACDecoder{Secret: testSecret}, nil)

	tok, user, err := svc.SignIn(context.Background(), "ada", "secret")
	require.NoError(t, err)
	assert.Equal(t, f.token, tok)
	assert.Equal(t, types.RoleEmployer, f.profileFor)
	assert.Equal(t, types.RoleEmployer, user.Role)
	assert.Equal(t, "boss@acme.test", user.Email)
	assert.Equal(t, "ada", user.Username)
	assert.Equal(t, "Acme", user.CompanyName)
}

func TestSignIn_RejectedCredentials(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized} {
		f := &fakeAPI{tokenErr: &api.Error{Op: "token", StatusCode: status}}
		svc := NewService(f, nil, nil)

		_, _, err := svc.SignIn(context.Background(), "ada", "wrong")
		var invalid *ErrInvalidCredentials
		assert.ErrorAs(t, err, &invalid, "status %d", status)
	}
}

func TestSignIn_TransportFailureIsNotCredentialError(t *testing.T) {
	f := &fakeAPI{tokenErr: &api.Error{Op: "token", Cause: errors.New("connection refused")}}
	svc := NewService(f, nil, nil)

	_, _, err := svc.SignIn(context.Background(), "ada", "secret")
	require.Error(t, err)
	var invalid *ErrInvalidCredentials
	assert.False(t, errors.As(err, &invalid))
}

func TestSignIn_UntrustedClaimsFailClosed(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-jwt"},
		{"forged", func() string {
			tok, _ := claims.Sign([]byte("other"), claims.Claims{Role: types.RoleCandidate, ExpiresAt: time.Now().Add(time.Hour)})
			return tok
		}()},
		{"unknown role", func() string {
			tok, _ := claims.Sign(testSecret, claims.Claims{Role: "admin", ExpiresAt: time.Now().Add(time.Hour)})
			return tok
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeAPI{token: tt.token, profile: &types.User{}}
			svc := NewService(f, claims.HMACDecoder{Secret: testSecret}, nil)

			_, user, err := svc.SignIn(context.Background(), "ada", "secret")
			var invalid *ErrInvalidCredentials
			require.ErrorAs(t, err, &invalid)
			assert.Nil(t, user)
			assert.Empty(t, f.profileFor, "profile must not be fetched")
		})
	}
}

func TestSignIn_EmptyFieldsFailValidation(t *testing.T) {
	svc := NewService(&fakeAPI{}, nil, nil)
	_, _, err := svc.SignIn(context.Background(), "", "secret")
	var ve *ErrValidation
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Username", ve.Field)
}

func TestRegister(t *testing.T) {
	valid := func() *types.RegisterRequest {
		return &types.RegisterRequest{
			Role:      types.RoleCandidate,
			Email:     "ada@example.test",
			Password:  "secret",
			FirstName: "Ada",
			LastName:  "Lovelace",
			Age:       36,
			Phone:     5551234,
		}
	}

	t.Run("success", func(t *testing.T) {
		f := &fakeAPI{}
		out, err := NewService(f, nil, nil).Register(context.Background(), valid())
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":7}`, string(out))
		assert.Equal(t, "ada@example.test", f.registered.Email)
	})

	t.Run("employer needs company", func(t *testing.T) {
		req := valid()
		req.Role = types.RoleEmployer
		f := &fakeAPI{}
		_, err := NewService(f, nil, nil).Register(context.Background(), req)
		var ve *ErrValidation
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "CompanyName", ve.Field)
		assert.Nil(t, f.registered)
	})

	t.Run("conflict", func(t *testing.T) {
		f := &fakeAPI{regErr: &api.Error{Op: "register", StatusCode: http.StatusConflict}}
		_, err := NewService(f, nil, nil).Register(context.Background(), valid())
		var exists *ErrAccountExists
		require.ErrorAs(t, err, &exists)
		assert.Equal(t, "ada@example.test", exists.Email)
	})

	t.Run("api rejects body", func(t *testing.T) {
		f := &fakeAPI{regErr: &api.Error{Op: "register", StatusCode: http.StatusUnprocessableEntity, Message: "email: invalid"}}
		_, err := NewService(f, nil, nil).Register(context.Background(), valid())
		var ve *ErrValidation
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "email: invalid", ve.Message)
	})
}
