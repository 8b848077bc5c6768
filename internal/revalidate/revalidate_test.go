package revalidate

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-board-client/internal/session"
	"github.com/jonathan/job-board-client/internal/storage"
	"github.com/jonathan/job-board-client/internal/types"
)

// tokenValidator accepts only the tokens in good; "boom" errors.
func tokenValidator(good ...string) session.Validator {
	return session.ValidatorFunc(func(_ context.Context, token string) (bool, error) {
		if token == "boom" {
			return false, errors.New("connection refused")
		}
		for _, g := range good {
			if g == token {
				return true, nil
			}
		}
		return false, nil
	})
}

func newRegistry(t *testing.T, v session.Validator) *session.Registry {
	t.Helper()
	stores := storage.NewMemoryFactory()
	reg := session.NewRegistry(func(_ context.Context, profile string) (*session.Session, error) {
		return session.New(session.Options{Store: stores.Open(profile), Validator: v}), nil
	}, nil)
	t.Cleanup(reg.Close)
	return reg
}

func signIn(t *testing.T, reg *session.Registry, profile, token string) *session.Session {
	t.Helper()
	ctx := context.Background()
	s, err := reg.Get(ctx, profile)
	require.NoError(t, err)
	require.NoError(t, s.Login(ctx, token, &types.User{ID: 1, Role: types.RoleCandidate}))
	return s
}

func TestRun_LogsOutRejectedSessions(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t, tokenValidator("good"))

	kept := signIn(t, reg, "a", "good")
	revoked := signIn(t, reg, "b", "revoked")
	unreachable := signIn(t, reg, "c", "boom")
	anon, err := reg.Get(ctx, "d")
	require.NoError(t, err)

	res := New(reg, "", nil).Run(ctx)
	assert.Equal(t, 3, res.Checked)
	assert.Equal(t, 2, res.LoggedOut)

	assert.True(t, kept.Authenticated())
	assert.False(t, revoked.Authenticated())
	assert.False(t, unreachable.Authenticated(), "validation errors fail closed")
	assert.False(t, anon.Authenticated())

	tok, ok, _ := revoked.Store().Get(ctx, storage.KeyToken)
	assert.False(t, ok)
	assert.Empty(t, tok)
}

func TestRun_EvictsIdleSessions(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t, tokenValidator("good"))
	signIn(t, reg, "a", "good")
	_, err := reg.Get(ctx, "anon")
	require.NoError(t, err)

	s := New(reg, "", nil)
	assert.Zero(t, s.Run(ctx).Evicted, "eviction is off by default")
	assert.Equal(t, 2, reg.Len())

	time.Sleep(5 * time.Millisecond)
	s.SetIdleTTL(time.Millisecond)
	res := s.Run(ctx)
	assert.Equal(t, 2, res.Evicted)
	assert.Zero(t, res.Checked)
	assert.Zero(t, reg.Len())

	again, err := reg.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, again.Authenticated(), "an evicted profile is restored from storage")
}

func TestRun_StopsOnCancelledContext(t *testing.T) {
	reg := newRegistry(t, tokenValidator("good"))
	signIn(t, reg, "a", "good")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := New(reg, "", nil).Run(ctx)
	assert.Zero(t, res.Checked)
}

func TestStart_RunsOnSchedule(t *testing.T) {
	var calls atomic.Int32
	v := session.ValidatorFunc(func(context.Context, string) (bool, error) {
		calls.Add(1)
		return true, nil
	})
	reg := newRegistry(t, v)
	signIn(t, reg, "a", "good")

	s := New(reg, "@every 1s", nil)
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
}

func TestStart_InvalidSpec(t *testing.T) {
	reg := newRegistry(t, tokenValidator())
	err := New(reg, "whenever", nil).Start(context.Background())
	assert.ErrorContains(t, err, "cron.AddFunc")
}
