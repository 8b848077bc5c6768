package session

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/jonathan/job-board-client/internal/broadcast"
	"github.com/jonathan/job-board-client/internal/storage"
)

// BuildFunc constructs the session of a browser profile.
type BuildFunc func(ctx context.Context, profile string) (*Session, error)

// ProfileChannel namespaces a broadcast channel per browser profile, so tabs
// of different profiles never see each other's session events.
func ProfileChannel(base, profile string) string {
	return base + ":" + profile
}

// Builder creates profile sessions on shared storage, each owning a port on
// the profile's broadcast channel.
type Builder struct {
	Stores    storage.Factory
	Transport broadcast.Transport
	Channel   string
	Validator Validator
	// Navigator, when set, supplies the navigator of each profile's session.
	Navigator func(profile string) Navigator
	Logger    logrus.FieldLogger
}

// Build implements BuildFunc.
func (b Builder) Build(ctx context.Context, profile string) (*Session, error) {
	if b.Stores == nil {
		return nil, errors.New("no storage configured")
	}
	logger := b.Logger
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	logger = logger.WithField("profile", profile)

	channel := b.Channel
	if channel == "" {
		channel = broadcast.DefaultChannel
	}
	var nav Navigator
	if b.Navigator != nil {
		nav = b.Navigator(profile)
	}
	port := OpenPort(ctx, b.Transport, ProfileChannel(channel, profile), logger)

	return New(Options{
		Store:     b.Stores(profile),
		Validator: b.Validator,
		Port:      port,
		OwnsPort:  true,
		Navigator: nav,
		Logger:    logger,
	}), nil
}

// InitTimeout bounds building and initializing one profile's session.
const InitTimeout = 15 * time.Second

// Registry holds one initialized Session per browser profile.
type Registry struct {
	build  BuildFunc
	logger logrus.FieldLogger
	now    func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
	lastUsed map[string]time.Time
	onRemove []func(profile string)
	group    singleflight.Group
}

// NewRegistry creates a Registry that builds sessions with build.
func NewRegistry(build BuildFunc, logger logrus.FieldLogger) *Registry {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Registry{
		build:    build,
		logger:   logger.WithField("component", "registry"),
		now:      time.Now,
		sessions: make(map[string]*Session),
		lastUsed: make(map[string]time.Time),
	}
}

// Get returns the session of profile, building and initializing it on first use.
// Concurrent first calls for the same profile share one build. The build does
// not stop when ctx is cancelled, since other callers may be waiting on it.
func (r *Registry) Get(ctx context.Context, profile string) (*Session, error) {
	r.mu.Lock()
	s, ok := r.sessions[profile]
	if ok {
		r.lastUsed[profile] = r.now()
	}
	r.mu.Unlock()
	if ok {
		return s, nil
	}

	v, err, _ := r.group.Do(profile, func() (interface{}, error) {
		r.mu.RLock()
		existing, ok := r.sessions[profile]
		r.mu.RUnlock()
		if ok {
			return existing, nil
		}

		buildCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), InitTimeout)
		defer cancel()

		s, err := r.build(buildCtx, profile)
		if err != nil {
			return nil, err
		}
		if err := s.Init(buildCtx); err != nil {
			// The session is usable, just unauthenticated.
			r.logger.WithError(err).WithField("profile", profile).Warn("session init failed")
		}

		r.mu.Lock()
		r.sessions[profile] = s
		r.lastUsed[profile] = r.now()
		r.mu.Unlock()
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

// Lookup returns the session of profile if it was already built.
func (r *Registry) Lookup(profile string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[profile]
	return s, ok
}

// Range calls fn for every session in profile order until fn returns false.
func (r *Registry) Range(fn func(profile string, s *Session) bool) {
	r.mu.RLock()
	profiles := make([]string, 0, len(r.sessions))
	for p := range r.sessions {
		profiles = append(profiles, p)
	}
	held := make(map[string]*Session, len(r.sessions))
	for p, s := range r.sessions {
		held[p] = s
	}
	r.mu.RUnlock()

	sort.Strings(profiles)
	for _, p := range profiles {
		if !fn(p, held[p]) {
			return
		}
	}
}

// Len returns the number of sessions held.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// OnRemove registers fn to run after a profile's session is removed or evicted.
func (r *Registry) OnRemove(fn func(profile string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onRemove = append(r.onRemove, fn)
}

// Remove tears down and forgets the session of profile.
func (r *Registry) Remove(profile string) {
	r.mu.Lock()
	s, ok := r.sessions[profile]
	delete(r.sessions, profile)
	delete(r.lastUsed, profile)
	hooks := make([]func(string), len(r.onRemove))
	copy(hooks, r.onRemove)
	r.mu.Unlock()
	if !ok {
		return
	}
	s.Teardown()
	for _, fn := range hooks {
		fn(profile)
	}
}

// Evict removes every session not requested through Get for longer than idle
// and returns their profiles. Persisted state is kept, so an evicted profile
// that comes back is rebuilt from storage.
func (r *Registry) Evict(idle time.Duration) []string {
	cutoff := r.now().Add(-idle)
	r.mu.Lock()
	evicted := make(map[string]*Session)
	for p, t := range r.lastUsed {
		if t.Before(cutoff) {
			evicted[p] = r.sessions[p]
			delete(r.sessions, p)
			delete(r.lastUsed, p)
		}
	}
	hooks := make([]func(string), len(r.onRemove))
	copy(hooks, r.onRemove)
	r.mu.Unlock()

	profiles := make([]string, 0, len(evicted))
	for p, s := range evicted {
		profiles = append(profiles, p)
		if s != nil {
			s.Teardown()
		}
	}
	sort.Strings(profiles)
	for _, p := range profiles {
		for _, fn := range hooks {
			fn(p)
		}
	}
	if len(profiles) > 0 {
		r.logger.WithField("count", len(profiles)).Debug("evicted idle sessions")
	}
	return profiles
}

// Close tears down every session.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.lastUsed = make(map[string]time.Time)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Teardown()
	}
}
