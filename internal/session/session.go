// Package session holds the authenticated identity of one tab, persists it to
// the profile's shared storage and keeps it consistent with the profile's other
// tabs over a broadcast port.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jonathan/job-board-client/internal/broadcast"
	"github.com/jonathan/job-board-client/internal/snapshot"
	"github.com/jonathan/job-board-client/internal/storage"
	"github.com/jonathan/job-board-client/internal/types"
)

// rollbackTimeout bounds the cleanup of a partial login.
const rollbackTimeout = 5 * time.Second

// Paths the session navigates between.
const (
	HomePath  = "/"
	LoginPath = "/auth/login"
)

// Validator asks the API whether a token is still valid.
type Validator interface {
	VerifyToken(ctx context.Context, token string) (bool, error)
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(ctx context.Context, token string) (bool, error)

// VerifyToken implements Validator.
func (f ValidatorFunc) VerifyToken(ctx context.Context, token string) (bool, error) {
	return f(ctx, token)
}

// Navigator is the tab's view of where it is and how to move.
type Navigator interface {
	CurrentPath() string
	Navigate(path string)
}

// State is a point-in-time copy of the session.
type State struct {
	Token        string
	User         *types.User
	Initializing bool
}

// Authenticated reports whether the state holds a live identity.
func (s State) Authenticated() bool {
	return s.Token != "" && s.User != nil
}

// Options configures a Session.
type Options struct {
	Store     storage.Store
	Validator Validator
	// Port is the broadcast port; nil disables cross-tab synchronization.
	Port broadcast.Port
	// OwnsPort makes Teardown close Port as well.
	OwnsPort  bool
	Navigator Navigator
	Logger    logrus.FieldLogger
}

// Session is one tab's authentication state.
type Session struct {
	store     storage.Store
	snapshots *snapshot.Cache
	validator Validator
	logger    logrus.FieldLogger

	mu           sync.RWMutex
	token        string
	user         *types.User
	initializing bool

	initMu   sync.Mutex
	initDone bool
	initErr  error

	obsMu     sync.Mutex
	observers map[int]func(State)
	nextObs   int

	syncer   *Synchronizer
	ownsPort bool
}

// New creates a Session. Call Init before trusting CurrentUser.
func New(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	logger = logger.WithField("component", "session")

	s := &Session{
		store:     opts.Store,
		snapshots: snapshot.New(opts.Store, logger),
		validator: opts.Validator,
		logger:    logger,
		observers: make(map[int]func(State)),
		// Nothing is known until Init has read the store.
		initializing: true,
	}
	if opts.Port != nil {
		s.syncer = attach(s, opts.Port, opts.Navigator, logger)
		s.ownsPort = opts.OwnsPort
	} else {
		logger.Debug("no broadcast port, cross-tab sync disabled")
	}
	return s
}

// errInterrupted marks an Init cut short by its caller's context. The
// persisted session is left untouched and the next Init runs again.
var errInterrupted = errors.New("session init interrupted")

// Init restores a persisted session, validating its token first. It completes
// once; concurrent and later callers wait for and share that outcome. A run
// abandoned because ctx was cancelled does not count as complete.
func (s *Session) Init(ctx context.Context) error {
	s.initMu.Lock()
	defer s.initMu.Unlock()
	if s.initDone {
		return s.initErr
	}
	err := s.init(ctx)
	if errors.Is(err, errInterrupted) {
		return err
	}
	s.initDone = true
	s.initErr = err
	return err
}

// cancelledBy reports whether err is the caller giving up rather than the API
// answering. Deadlines still count as failed validations.
func cancelledBy(ctx context.Context, err error) bool {
	return errors.Is(err, context.Canceled) && errors.Is(ctx.Err(), context.Canceled)
}

func (s *Session) init(ctx context.Context) error {
	token, ok, err := s.store.Get(ctx, storage.KeyToken)
	if cancelledBy(ctx, err) {
		return fmt.Errorf("%w: %v", errInterrupted, err)
	}
	if err != nil {
		s.finishInit("", nil)
		return fmt.Errorf("failed to read persisted token: %w", err)
	}
	if !ok || token == "" {
		s.finishInit("", nil)
		return nil
	}

	valid, err := s.validate(ctx, token)
	if cancelledBy(ctx, err) {
		s.logger.WithError(err).Debug("token validation abandoned by caller")
		return fmt.Errorf("%w: %v", errInterrupted, err)
	}
	if err != nil {
		s.logger.WithError(err).Warn("token validation failed, logging out")
		valid = false
	}
	if !valid {
		s.logout(ctx, true)
		s.finishInit("", nil)
		return nil
	}

	user, err := s.persistedUser(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("persisted user unreadable, logging out")
		s.logout(ctx, true)
		s.finishInit("", nil)
		return nil
	}
	s.finishInit(token, user)
	return nil
}

func (s *Session) validate(ctx context.Context, token string) (bool, error) {
	if s.validator == nil {
		return false, errors.New("no token validator configured")
	}
	return s.validator.VerifyToken(ctx, token)
}

func (s *Session) persistedUser(ctx context.Context) (*types.User, error) {
	raw, ok, err := s.store.Get(ctx, storage.KeyUser)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New("no persisted user")
	}
	var u types.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &u, nil
}

func (s *Session) finishInit(token string, user *types.User) {
	s.mu.Lock()
	s.token = token
	s.user = user
	s.initializing = false
	s.mu.Unlock()
	s.notify()
}

// Login persists token and user, adopts them and tells the other tabs. If any
// key fails to persist, the keys already written are removed again.
func (s *Session) Login(ctx context.Context, token string, user *types.User) error {
	if token == "" || user == nil {
		return errors.New("login requires a token and a user")
	}
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	writes := []struct{ key, value, what string }{
		{storage.KeyToken, token, "token"},
		{storage.KeyUser, string(data), "user"},
		{storage.KeyTokenCookie, token, "token cookie"},
	}
	for i, w := range writes {
		if err := s.store.Set(ctx, w.key, w.value); err != nil {
			if i > 0 {
				s.rollback(writes[:i])
			}
			return fmt.Errorf("persist %s: %w", w.what, err)
		}
	}

	s.mu.Lock()
	s.token = token
	s.user = user
	s.initializing = false
	s.mu.Unlock()
	s.notify()

	s.logger.WithField("user_id", user.ID).Info("logged in")
	s.syncer.broadcast(ctx, broadcast.LoginSuccess(user))
	return nil
}

// rollback removes keys written by a Login that failed part way.
func (s *Session) rollback(written []struct{ key, value, what string }) {
	keys := make([]string, 0, len(written))
	for _, w := range written {
		keys = append(keys, w.key)
	}
	// The caller's context may be the reason the write failed.
	ctx, cancel := context.WithTimeout(context.Background(), rollbackTimeout)
	defer cancel()
	if err := s.store.Remove(ctx, keys...); err != nil {
		s.logger.WithError(err).Error("failed to roll back partial login")
	}
}

// Logout clears the persisted and in-memory session, the cached searches and
// the cookie mirror, then tells the other tabs. Calling it again is harmless.
func (s *Session) Logout(ctx context.Context) {
	s.logout(ctx, true)
}

func (s *Session) logout(ctx context.Context, announce bool) {
	if err := s.store.Remove(ctx, storage.KeyToken, storage.KeyUser, storage.KeyTokenCookie); err != nil {
		s.logger.WithError(err).Warn("failed to clear persisted session")
	}
	if err := s.snapshots.ClearAll(ctx); err != nil {
		s.logger.WithError(err).Warn("failed to clear cached searches")
	}

	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()
	s.notify()

	if announce {
		s.logger.Info("logged out")
		s.syncer.broadcast(ctx, broadcast.Logout())
	}
}

// Revalidate checks the held token again and logs out when it is no longer
// accepted. Validation errors count as rejection, except a cancelled ctx,
// which leaves the session as it is. It reports whether the session is still
// signed in.
func (s *Session) Revalidate(ctx context.Context) bool {
	token := s.Token()
	if token == "" {
		return false
	}
	valid, err := s.validate(ctx, token)
	if cancelledBy(ctx, err) {
		return s.Authenticated()
	}
	if err != nil {
		s.logger.WithError(err).Warn("token revalidation failed, logging out")
		valid = false
	}
	if !valid {
		s.logout(ctx, true)
		return false
	}
	return true
}

// adopt takes over a user announced by another tab without revalidating. The
// token is read back from the shared store.
func (s *Session) adopt(ctx context.Context, user *types.User) {
	if user == nil {
		return
	}
	token, ok, err := s.store.Get(ctx, storage.KeyToken)
	if err != nil || !ok || token == "" {
		s.logger.WithError(err).Debug("ignoring login broadcast without a shared token")
		return
	}
	if data, err := json.Marshal(user); err == nil {
		if err := s.store.Set(ctx, storage.KeyUser, string(data)); err != nil {
			s.logger.WithError(err).Warn("failed to persist adopted user")
		}
	}

	s.mu.Lock()
	s.token = token
	s.user = user
	s.mu.Unlock()
	s.notify()
}

// Teardown detaches the session from its broadcast port. The port stays open
// unless the session was given ownership of it.
func (s *Session) Teardown() {
	s.syncer.detach()
	if s.ownsPort && s.syncer != nil {
		s.ownsPort = false
		if err := s.syncer.port.Close(); err != nil {
			s.logger.WithError(err).Debug("failed to close broadcast port")
		}
	}
}

// CurrentUser returns the signed-in user, or nil.
func (s *Session) CurrentUser() *types.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Token returns the bearer token, or "".
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// IsInitializing reports whether Init has yet to settle the session, which
// includes the time before Init is first called.
func (s *Session) IsInitializing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initializing
}

// Authenticated reports whether the session holds a live identity.
func (s *Session) Authenticated() bool {
	return s.State().Authenticated()
}

// State returns a copy of the current state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{Token: s.token, User: s.user, Initializing: s.initializing}
}

// Snapshots returns the result cache sharing this session's store.
func (s *Session) Snapshots() *snapshot.Cache {
	return s.snapshots
}

// Store returns the storage backing this session.
func (s *Session) Store() storage.Store {
	return s.store
}

// Subscribe registers fn to receive every state change and returns a function
// that unregisters it.
func (s *Session) Subscribe(fn func(State)) (cancel func()) {
	s.obsMu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.obsMu.Unlock()

	return func() {
		s.obsMu.Lock()
		delete(s.observers, id)
		s.obsMu.Unlock()
	}
}

func (s *Session) notify() {
	st := s.State()
	s.obsMu.Lock()
	fns := make([]func(State), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.obsMu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}
