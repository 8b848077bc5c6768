// Package snapshot persists the most recent search result set per result kind so a
// revisited page can render without refetching.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/jonathan/job-board-client/internal/schemas"
	"github.com/jonathan/job-board-client/internal/storage"
)

// Kind identifies which result set a snapshot holds.
type Kind string

const (
	KindResume  Kind = "resume"
	KindVacancy Kind = "vacancy"
)

// Kinds lists every snapshot kind.
var Kinds = []Kind{KindResume, KindVacancy}

// Key returns the storage key the snapshot of k lives under.
func (k Kind) Key() string {
	switch k {
	case KindResume:
		return storage.KeyResumeSnapshot
	case KindVacancy:
		return storage.KeyVacancySnapshot
	default:
		return ""
	}
}

var snapshotValidator = schemas.MustCompile("snapshot", schemas.SnapshotSchema)

// Cache reads and writes result snapshots in a storage.Store.
type Cache struct {
	store  storage.Store
	logger logrus.FieldLogger
}

// New creates a Cache over store. A nil logger discards output.
func New(store storage.Store, logger logrus.FieldLogger) *Cache {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Cache{store: store, logger: logger.WithField("component", "snapshot")}
}

// Save overwrites the snapshot of kind with results.
func (c *Cache) Save(ctx context.Context, kind Kind, results any) error {
	key := kind.Key()
	if key == "" {
		return fmt.Errorf("unknown snapshot kind %q", kind)
	}
	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("failed to marshal %s snapshot: %w", kind, err)
	}
	if err := c.store.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("failed to save %s snapshot: %w", kind, err)
	}
	return nil
}

// Load decodes the snapshot of kind into dst and reports whether one was used.
// Absent, unparsable, empty and schema-violating snapshots are misses, not
// errors; only storage failures are returned.
func (c *Cache) Load(ctx context.Context, kind Kind, dst any) (bool, error) {
	key := kind.Key()
	if key == "" {
		return false, fmt.Errorf("unknown snapshot kind %q", kind)
	}
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to read %s snapshot: %w", kind, err)
	}
	if !ok {
		return false, nil
	}

	if err := snapshotValidator.Validate(raw); err != nil {
		c.logger.WithField("kind", kind).WithError(err).Debug("discarding unusable snapshot")
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		c.logger.WithField("kind", kind).WithError(err).Debug("discarding undecodable snapshot")
		return false, nil
	}
	return true, nil
}

// Clear removes the snapshot of kind.
func (c *Cache) Clear(ctx context.Context, kind Kind) error {
	key := kind.Key()
	if key == "" {
		return fmt.Errorf("unknown snapshot kind %q", kind)
	}
	if err := c.store.Remove(ctx, key); err != nil {
		return fmt.Errorf("failed to clear %s snapshot: %w", kind, err)
	}
	return nil
}

// ClearAll removes every snapshot.
func (c *Cache) ClearAll(ctx context.Context) error {
	keys := make([]string, 0, len(Kinds))
	for _, k := range Kinds {
		keys = append(keys, k.Key())
	}
	if err := c.store.Remove(ctx, keys...); err != nil {
		return fmt.Errorf("failed to clear snapshots: %w", err)
	}
	return nil
}
