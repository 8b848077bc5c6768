package broadcast

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-board-client/internal/types"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) handle(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func TestBus_DeliversToPeersNotSelf(t *testing.T) {
	ctx := context.Background()
	bus := NewBus()

	a, err := bus.Open(ctx, DefaultChannel)
	require.NoError(t, err)
	b, err := bus.Open(ctx, DefaultChannel)
	require.NoError(t, err)
	other, err := bus.Open(ctx, "other")
	require.NoError(t, err)

	var ra, rb, ro recorder
	a.Listen(ra.handle)
	b.Listen(rb.handle)
	other.Listen(ro.handle)

	user := &types.User{ID: 1, Role: types.RoleCandidate}
	require.NoError(t, a.Publish(ctx, LoginSuccess(user)))

	assert.Empty(t, ra.all(), "a port never hears itself")
	assert.Empty(t, ro.all(), "channels are isolated by name")
	require.Len(t, rb.all(), 1)
	got := rb.all()[0]
	assert.Equal(t, EventLoginSuccess, got.Type)
	assert.Equal(t, user, got.User)
	assert.Equal(t, a.ID(), got.Origin)
	assert.False(t, got.SentAt.IsZero())
}

func TestBus_ListenCancel(t *testing.T) {
	ctx := context.Background()
	bus := NewBus()
	a, _ := bus.Open(ctx, "c")
	b, _ := bus.Open(ctx, "c")

	var rb recorder
	cancel := b.Listen(rb.handle)
	require.NoError(t, a.Publish(ctx, Logout()))
	cancel()
	cancel()
	require.NoError(t, a.Publish(ctx, Logout()))

	assert.Len(t, rb.all(), 1)
}

func TestBus_Close(t *testing.T) {
	ctx := context.Background()
	bus := NewBus()
	a, _ := bus.Open(ctx, "c")
	b, _ := bus.Open(ctx, "c")
	assert.Equal(t, 2, bus.Ports("c"))

	var rb recorder
	b.Listen(rb.handle)
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
	assert.Equal(t, 1, bus.Ports("c"))

	require.NoError(t, a.Publish(ctx, Logout()))
	assert.Empty(t, rb.all())
	assert.ErrorIs(t, b.Publish(ctx, Logout()), ErrClosed)
}

func TestBus_ConcurrentPublish(t *testing.T) {
	ctx := context.Background()
	bus := NewBus()
	sink, _ := bus.Open(ctx, "c")
	var r recorder
	sink.Listen(r.handle)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		p, err := bus.Open(ctx, "c")
		require.NoError(t, err)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				_ = p.Publish(ctx, Logout())
			}
		}()
	}
	wg.Wait()
	assert.Len(t, r.all(), 200)
}
