package guard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testValidator accepts the tokens in valid and counts calls.
type testValidator struct {
	valid map[string]bool
	err   error
	delay time.Duration
	calls atomic.Int32
}

func (v *testValidator) VerifyToken(_ context.Context, token string) (bool, error) {
	v.calls.Add(1)
	if v.delay > 0 {
		time.Sleep(v.delay)
	}
	if v.err != nil {
		return false, v.err
	}
	return v.valid[token], nil
}

func TestCheck_PublicNeverValidates(t *testing.T) {
	v := &testValidator{}
	g := New(Options{Validator: v})

	for _, p := range []string{"/", "/auth/login", "/auth/register", "/auth/unauthorized", "/favicon.ico", "/_next/static/chunk.js", "/static/app.css", "/assets/logo.svg"} {
		d := g.Check(context.Background(), p, "expired")
		assert.True(t, d.Allow, p)
		assert.Equal(t, ReasonPublic, d.Reason, p)
	}
	assert.Equal(t, int32(0), v.calls.Load())
}

func TestCheck_ProtectedPaths(t *testing.T) {
	tests := []struct {
		name   string
		token  string
		v      *testValidator
		allow  bool
		reason Reason
	}{
		{"no token", "", &testValidator{}, false, ReasonNoToken},
		{"expired token", "expired", &testValidator{valid: map[string]bool{"good": true}}, false, ReasonInvalid},
		{"network failure", "good", &testValidator{err: errors.New("connection refused")}, false, ReasonValidationError},
		{"valid token", "good", &testValidator{valid: map[string]bool{"good": true}}, true, ReasonValid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New(Options{Validator: tt.v}).Check(context.Background(), "/resumes", tt.token)
			assert.Equal(t, tt.allow, d.Allow)
			assert.Equal(t, tt.reason, d.Reason)
			if !tt.allow {
				assert.Equal(t, UnauthorizedPath, d.Redirect)
			} else {
				assert.Empty(t, d.Redirect)
			}
		})
	}
}

func TestCheck_NoValidatorFailsClosed(t *testing.T) {
	d := New(Options{}).Check(context.Background(), "/profile", "tok")
	assert.False(t, d.Allow)
	assert.Equal(t, ReasonValidationError, d.Reason)
}

func TestCheck_SharesConcurrentValidation(t *testing.T) {
	v := &testValidator{valid: map[string]bool{"good": true}, delay: 50 * time.Millisecond}
	g := New(Options{Validator: v})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.True(t, g.Check(context.Background(), "/cards/1", "good").Allow)
		}()
	}
	wg.Wait()
	assert.Less(t, v.calls.Load(), int32(10))
}

// ctxValidator accepts every token after delay unless ctx ends first.
type ctxValidator struct {
	delay   time.Duration
	entered chan struct{}
	once    sync.Once
	calls   atomic.Int32
}

func (v *ctxValidator) VerifyToken(ctx context.Context, _ string) (bool, error) {
	v.calls.Add(1)
	v.once.Do(func() { close(v.entered) })
	select {
	case <-time.After(v.delay):
		return true, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func TestCheck_CancelledCallerDoesNotFailSharedValidation(t *testing.T) {
	v := &ctxValidator{delay: 50 * time.Millisecond, entered: make(chan struct{})}
	g := New(Options{Validator: v})

	first, cancel := context.WithCancel(context.Background())
	firstDone := make(chan Decision, 1)
	go func() { firstDone <- g.Check(first, "/resumes", "good") }()
	<-v.entered

	secondDone := make(chan Decision, 1)
	go func() { secondDone <- g.Check(context.Background(), "/resumes", "good") }()
	time.Sleep(10 * time.Millisecond)
	cancel()

	d := <-firstDone
	assert.False(t, d.Allow, "the cancelled caller stops waiting")
	assert.Equal(t, ReasonValidationError, d.Reason)

	d = <-secondDone
	assert.True(t, d.Allow)
	assert.Equal(t, ReasonValid, d.Reason)
	assert.Equal(t, int32(1), v.calls.Load())
}

func TestCustomPublicTable(t *testing.T) {
	g := New(Options{PublicPaths: []string{"/login"}, PublicPrefixes: []string{"/public/"}})
	assert.True(t, g.IsPublic("/login"))
	assert.True(t, g.IsPublic("/public/x"))
	assert.False(t, g.IsPublic("/"))
}

func TestTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, TokenFromRequest(r))

	r.Header.Set("Authorization", "bearer abc")
	assert.Equal(t, "abc", TokenFromRequest(r))

	r.Header.Set("Authorization", "Basic abc")
	assert.Empty(t, TokenFromRequest(r))

	r.AddCookie(&http.Cookie{Name: CookieName, Value: "a%2Eb"})
	assert.Equal(t, "a.b", TokenFromRequest(r), "cookie wins and is unescaped")
}

func TestMiddleware(t *testing.T) {
	v := &testValidator{valid: map[string]bool{"good": true}}
	g := New(Options{Validator: v})

	var seenToken string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenToken = Token(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	h := g.Middleware(next)

	t.Run("valid cookie passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/resumes", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: "good"})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "good", seenToken)
	})

	t.Run("browser navigation redirects", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/profile", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, UnauthorizedPath, rec.Header().Get("Location"))
	})

	t.Run("json client gets 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/profile", nil)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Authorization", "Bearer expired")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)

		var body map[string]string
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, UnauthorizedPath, body["redirect"])
		assert.Equal(t, string(ReasonInvalid), body["reason"])
	})

	t.Run("public path passes without token", func(t *testing.T) {
		seenToken = "unset"
		req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, seenToken)
	})
}
