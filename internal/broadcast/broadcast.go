// Package broadcast provides named message channels shared by every tab of a
// browser profile. A message published on a port reaches every other port open
// on the same channel name; it never comes back to the port that sent it.
package broadcast

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonathan/job-board-client/internal/types"
)

// DefaultChannel is the channel session events travel on.
const DefaultChannel = "auth_channel"

// ErrClosed is returned when publishing on a closed port.
var ErrClosed = errors.New("broadcast port closed")

// EventType names a session event.
type EventType string

const (
	EventLoginSuccess EventType = "LOGIN_SUCCESS"
	EventLogout       EventType = "LOGOUT"
)

// Event is one message on a channel.
type Event struct {
	Type   EventType   `json:"type"`
	User   *types.User `json:"userData,omitempty"`
	Origin string      `json:"origin,omitempty"`
	SentAt time.Time   `json:"sentAt"`
}

// LoginSuccess builds the event announcing that user signed in.
func LoginSuccess(user *types.User) Event {
	return Event{Type: EventLoginSuccess, User: user}
}

// Logout builds the event announcing a sign-out.
func Logout() Event {
	return Event{Type: EventLogout}
}

// Handler receives events from other ports.
type Handler func(Event)

// Port is one tab's end of a channel.
type Port interface {
	// ID identifies the port; it is stamped as Origin on published events.
	ID() string
	Publish(ctx context.Context, ev Event) error
	// Listen registers h and returns a function that unregisters it.
	Listen(h Handler) (cancel func())
	Close() error
}

// Transport opens ports on named channels.
type Transport interface {
	Open(ctx context.Context, name string) (Port, error)
}

// listeners is the handler set shared by port implementations.
type listeners struct {
	mu       sync.Mutex
	handlers map[int]Handler
	next     int
	closed   bool
}

func (l *listeners) add(h Handler) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.handlers == nil {
		l.handlers = make(map[int]Handler)
	}
	id := l.next
	l.next++
	l.handlers[id] = h

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.handlers, id)
			l.mu.Unlock()
		})
	}
}

func (l *listeners) dispatch(ev Event) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	hs := make([]Handler, 0, len(l.handlers))
	for _, h := range l.handlers {
		hs = append(hs, h)
	}
	l.mu.Unlock()

	for _, h := range hs {
		h(ev)
	}
}

// close marks the set closed and reports whether it already was.
func (l *listeners) close() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	was := l.closed
	l.closed = true
	l.handlers = nil
	return was
}

func (l *listeners) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

func stamp(ev Event, origin string) Event {
	ev.Origin = origin
	if ev.SentAt.IsZero() {
		ev.SentAt = time.Now().UTC()
	}
	return ev
}
