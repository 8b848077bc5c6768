package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-board-client/internal/types"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Options{BaseURL: srv.URL})
}

func TestToken_PasswordGrant(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/token", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "password", r.PostForm.Get("grant_type"))
		assert.Equal(t, "alice", r.PostForm.Get("username"))
		assert.Equal(t, "secret", r.PostForm.Get("password"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-1","token_type":"bearer","expires_in":3600}`))
	})

	tok, err := c.Token(context.Background(), "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok.AccessToken)
	assert.Equal(t, "bearer", tok.TokenType)
	assert.Equal(t, int64(3600), tok.ExpiresIn)
}

func TestToken_Rejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Incorrect username or password"}`))
	})

	_, err := c.Token(context.Background(), "alice", "wrong")
	require.Error(t, err)
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Incorrect username or password", apiErr.Message)
}

func TestVerifyToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/verify-token/", r.URL.Path)
		if r.Header.Get("Authorization") == "Bearer good" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	})

	ok, err := c.VerifyToken(context.Background(), "good")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.VerifyToken(context.Background(), "bad")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = c.VerifyToken(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyToken_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	ok, err := New(Options{BaseURL: srv.URL}).VerifyToken(context.Background(), "good")
	assert.False(t, ok)
	require.Error(t, err)
	assert.Equal(t, 0, StatusCode(err))
}

func TestProfile_ByRole(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/candidates/":
			_, _ = w.Write([]byte(`{"id":7,"first_name":"Ann","last_name":"Lee"}`))
		case "/employers/":
			_, _ = w.Write([]byte(`{"id":9,"company_name":"Acme"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	u, err := c.Profile(context.Background(), "tok", types.RoleCandidate)
	require.NoError(t, err)
	assert.Equal(t, 7, u.ID)
	assert.Equal(t, "Ann", u.FirstName)

	u, err = c.Profile(context.Background(), "tok", types.RoleEmployer)
	require.NoError(t, err)
	assert.Equal(t, "Acme", u.CompanyName)

	_, err = c.Profile(context.Background(), "tok", types.Role("admin"))
	assert.Error(t, err)

	_, err = c.Profile(context.Background(), "", types.RoleCandidate)
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestSearchResumes_SendsQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/resumes/search", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		var q types.SearchQuery
		require.NoError(t, json.NewDecoder(r.Body).Decode(&q))
		assert.Equal(t, []string{"go"}, q.Filters.Skills.MustHave)
		_, _ = w.Write([]byte(`[{"resume_id":1,"score":0.7},{"resume_id":2,"score":0.1}]`))
	})

	q := types.SearchQuery{}
	q.Filters.Skills.MustHave = []string{"go"}
	got, err := c.SearchResumes(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 0.7, got[0].Score)
}

func TestSearchVacancies_NullBodyIsEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`null`))
	})

	got, err := c.SearchVacancies(context.Background(), types.SearchQuery{})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestGetResume_NotFoundIsNil(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/resumes/1":
			_, _ = w.Write([]byte(`{"resume_description":{"id":1,"title":"Go dev"},"skills":[],"candidate":{"id":3}}`))
		case "/resumes/2":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	})
	ctx := context.Background()

	r, err := c.GetResume(ctx, "tok", 1)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "Go dev", r.Resume.Title)

	r, err = c.GetResume(ctx, "tok", 2)
	assert.NoError(t, err)
	assert.Nil(t, r)

	_, err = c.GetResume(ctx, "tok", 3)
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
}

func TestGetVacancy_NotFoundIsNil(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	v, err := c.GetVacancy(context.Background(), "tok", 5)
	assert.NoError(t, err)
	assert.Nil(t, v)
}

func TestCreate_RequiresTokenBeforeIO(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
	})
	ctx := context.Background()

	_, err := c.CreateResume(ctx, "", &types.CreateResumeRequest{})
	assert.True(t, errors.Is(err, ErrNoToken))
	_, err = c.CreateVacancy(ctx, "", &types.CreateVacancyRequest{})
	assert.True(t, errors.Is(err, ErrNoToken))
	_, err = c.GetVacancy(ctx, "", 1)
	assert.True(t, errors.Is(err, ErrNoToken))
	assert.Equal(t, int32(0), calls.Load())
}

func TestCreateVacancy_EchoAndFailure(t *testing.T) {
	fail := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/vacancies/", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		if fail {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"detail":[{"loc":["body","vacancy","title"],"msg":"field required"}]}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":11}`))
	})

	echo, err := c.CreateVacancy(context.Background(), "tok", &types.CreateVacancyRequest{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":11}`, string(echo))

	fail = true
	_, err = c.CreateVacancy(context.Background(), "tok", &types.CreateVacancyRequest{})
	require.Error(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, StatusCode(err))
	assert.Contains(t, err.Error(), "title: field required")
}

func TestRegister_RoleEndpoint(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"id":1}`))
	})

	_, err := c.Register(context.Background(), &types.RegisterRequest{Role: types.RoleEmployer})
	require.NoError(t, err)
	assert.Equal(t, "/auth/register/employer/", gotPath)

	_, err = c.Register(context.Background(), &types.RegisterRequest{Role: types.RoleCandidate})
	require.NoError(t, err)
	assert.Equal(t, "/auth/register/candidate/", gotPath)
}

func TestErrorMessage_HTMLBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html><head><title>502 Bad Gateway</title><style>h1{}</style></head>
			<body><h1>Bad Gateway</h1><hr><center>nginx</center></body></html>`))
	})

	_, err := c.SearchResumes(context.Background(), types.SearchQuery{})
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "502 Bad Gateway", apiErr.Message)
}

func TestHTMLText_FallsBackToBody(t *testing.T) {
	text, err := htmlText("<html><body><script>x()</script><p>Service\n   unavailable</p></body></html>")
	require.NoError(t, err)
	assert.Equal(t, "Service unavailable", text)
}
