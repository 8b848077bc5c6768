package main

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jonathan/job-board-client/internal/api"
	"github.com/jonathan/job-board-client/internal/auth"
	"github.com/jonathan/job-board-client/internal/broadcast"
	"github.com/jonathan/job-board-client/internal/claims"
	"github.com/jonathan/job-board-client/internal/config"
	"github.com/jonathan/job-board-client/internal/db"
	"github.com/jonathan/job-board-client/internal/session"
	"github.com/jonathan/job-board-client/internal/storage"
)

// app holds the collaborators every command builds on.
type app struct {
	cfg       *config.Config
	logger    *logrus.Logger
	api       *api.Client
	decoder   claims.Decoder
	auth      *auth.Service
	stores    storage.Factory
	transport broadcast.Transport
	closers   []func()
}

// newApp loads the configuration and connects the configured storage backend
// and broadcast transport.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if profileArg != "" {
		cfg.StorageProfile = profileArg
	}

	logger, err := cfg.Logger()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger}
	a.api = api.New(api.Options{
		BaseURL: cfg.APIURL,
		Timeout: time.Duration(cfg.HTTPTimeout),
		Logger:  logger,
	})
	a.decoder = claims.NewDecoder(cfg.JWTSecret)
	a.auth = auth.NewService(a.api, a.decoder, logger)

	if err := a.connect(ctx); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

// connect picks the storage backend, and Redis pub/sub for broadcasts whenever
// a Redis URL is configured, so separate processes see each other's events.
func (a *app) connect(ctx context.Context) error {
	if a.cfg.RedisURL != "" {
		rdb, err := storage.NewRedisClient(ctx, a.cfg.RedisURL)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func() { _ = rdb.Close() })
		a.transport = broadcast.NewRedisTransport(rdb, storage.DefaultKeyPrefix, a.logger)
		if a.cfg.StorageBackend == config.BackendRedis {
			a.stores = storage.RedisFactory(rdb, storage.DefaultKeyPrefix)
		}
	} else {
		a.transport = broadcast.NewBus()
	}

	switch a.cfg.StorageBackend {
	case config.BackendPostgres:
		database, err := db.Connect(ctx, a.cfg.DatabaseURL)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, database.Close)
		if err := database.EnsureSchema(ctx); err != nil {
			return err
		}
		a.stores = database.Factory()
	case config.BackendMemory:
		a.stores = storage.NewMemoryFactory().Open
	}
	if a.stores == nil {
		return fmt.Errorf("storage backend %q is not available", a.cfg.StorageBackend)
	}

	a.logger.WithFields(logrus.Fields{
		"storage": a.cfg.StorageBackend,
		"profile": a.cfg.StorageProfile,
	}).Debug("client ready")
	return nil
}

// builder returns the session builder for this app's storage and transport.
func (a *app) builder(nav func(profile string) session.Navigator) session.Builder {
	return session.Builder{
		Stores:    a.stores,
		Transport: a.transport,
		Channel:   a.cfg.BroadcastChannel,
		Validator: a.api,
		Navigator: nav,
		Logger:    a.logger,
	}
}

// session opens and initializes the CLI's session, acting as one tab of the
// configured profile.
func (a *app) session(ctx context.Context, nav session.Navigator) (*session.Session, error) {
	var navFor func(string) session.Navigator
	if nav != nil {
		navFor = func(string) session.Navigator { return nav }
	}
	s, err := a.builder(navFor).Build(ctx, a.cfg.StorageProfile)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, s.Teardown)
	if err := s.Init(ctx); err != nil {
		a.logger.WithError(err).Warn("session init failed")
	}
	return s, nil
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// withApp runs fn with a connected app and closes it afterwards.
func withApp(ctx context.Context, fn func(a *app) error) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(a)
}
