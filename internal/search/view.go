package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/jonathan/job-board-client/internal/paginate"
	"github.com/jonathan/job-board-client/internal/query"
	"github.com/jonathan/job-board-client/internal/snapshot"
	"github.com/jonathan/job-board-client/internal/types"
)

// NotFoundNotice is shown when a search yields nothing or fails.
const NotFoundNotice = "not found, try refreshing"

// ErrStale is returned by Submit when a newer search, a reset or an unmount
// superseded the one that just completed. Its result was dropped.
var ErrStale = errors.New("search result superseded")

// Fetcher runs a search against the API.
type Fetcher[T any] func(ctx context.Context, q types.SearchQuery) ([]T, error)

// Options configures a View.
type Options[T Scored] struct {
	Kind     snapshot.Kind
	Target   query.Target
	Fetch    Fetcher[T]
	Cache    *snapshot.Cache
	PageSize int
	Logger   logrus.FieldLogger
}

// View is one results page: its current result set, notice and page.
type View[T Scored] struct {
	kind     snapshot.Kind
	target   query.Target
	fetch    Fetcher[T]
	cache    *snapshot.Cache
	pageSize int
	logger   logrus.FieldLogger

	mu      sync.Mutex
	results []T
	notice  string
	loaded  bool
	mounted bool
	gen     uint64
	cancel  context.CancelFunc
	pager   paginate.State
}

// NewView creates an unmounted view.
func NewView[T Scored](opts Options[T]) *View[T] {
	if opts.PageSize <= 0 {
		opts.PageSize = paginate.DefaultPageSize
	}
	logger := opts.Logger
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &View[T]{
		kind:     opts.Kind,
		target:   opts.Target,
		fetch:    opts.Fetch,
		cache:    opts.Cache,
		pageSize: opts.PageSize,
		logger:   logger.WithFields(logrus.Fields{"component": "search", "kind": opts.Kind}),
	}
}

// Mount starts the view's lifetime. Results are applied only while mounted.
func (v *View[T]) Mount() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mounted = true
}

// Unmount ends the view's lifetime and abandons any in-flight search.
func (v *View[T]) Unmount() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mounted = false
	v.supersede()
}

// Mounted reports whether the view is mounted.
func (v *View[T]) Mounted() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mounted
}

// supersede invalidates the in-flight search. Callers hold mu.
func (v *View[T]) supersede() uint64 {
	v.gen++
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	return v.gen
}

// Submit runs q, replacing any search still in flight. The result is applied
// only if no newer search, reset or unmount happened meanwhile; otherwise
// ErrStale is returned and nothing changes. A failed or empty search leaves an
// empty result set with NotFoundNotice, and the view is not counted as loaded
// so the next Load tries again.
func (v *View[T]) Submit(ctx context.Context, q types.SearchQuery) error {
	v.mu.Lock()
	if !v.mounted {
		v.mu.Unlock()
		return ErrStale
	}
	gen := v.supersede()
	fetchCtx, cancel := context.WithCancel(ctx)
	v.cancel = cancel
	v.mu.Unlock()

	items, err := v.fetch(fetchCtx, q)

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.gen || !v.mounted {
		cancel()
		return ErrStale
	}
	v.cancel = nil
	cancel()

	v.pager.Reset()
	if err != nil {
		v.results = nil
		v.loaded = false
		v.notice = NotFoundNotice
		v.logger.WithError(err).Warn("search failed")
		return fmt.Errorf("search %s: %w", v.kind, err)
	}

	v.results = Ordered(items)
	v.loaded = len(v.results) > 0
	v.notice = ""
	if !v.loaded {
		v.notice = NotFoundNotice
	}
	if v.cache != nil {
		if err := v.cache.Save(ctx, v.kind, items); err != nil {
			v.logger.WithError(err).Warn("failed to save snapshot")
		}
	}
	return nil
}

// Load shows the cached snapshot if there is a usable one, otherwise runs an
// unfiltered search. Views already holding results are left alone.
func (v *View[T]) Load(ctx context.Context) error {
	v.mu.Lock()
	if v.loaded {
		v.mu.Unlock()
		return nil
	}
	v.mu.Unlock()

	if v.cache != nil {
		var items []T
		hit, err := v.cache.Load(ctx, v.kind, &items)
		if err != nil {
			v.logger.WithError(err).Warn("snapshot unavailable")
		}
		if hit {
			v.mu.Lock()
			defer v.mu.Unlock()
			if !v.loaded {
				v.results = Ordered(items)
				v.notice = ""
				v.loaded = true
				v.pager.Reset()
			}
			return nil
		}
	}
	return v.Submit(ctx, query.Default(v.target))
}

// Reset clears the snapshot and the shown results and abandons any in-flight
// search, so the next Load fetches afresh.
func (v *View[T]) Reset(ctx context.Context) error {
	v.mu.Lock()
	v.supersede()
	v.results = nil
	v.notice = ""
	v.loaded = false
	v.pager.Reset()
	v.mu.Unlock()

	if v.cache != nil {
		if err := v.cache.Clear(ctx, v.kind); err != nil {
			return err
		}
	}
	return nil
}

// Results returns a copy of the ordered result set.
func (v *View[T]) Results() []T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]T(nil), v.results...)
}

// Notice returns the message shown instead of results, if any.
func (v *View[T]) Notice() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.notice
}

// Loaded reports whether the view holds a non-empty result set.
func (v *View[T]) Loaded() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loaded
}

// Page moves to page n, clamped, and returns it.
func (v *View[T]) Page(n int) paginate.Page[T] {
	v.mu.Lock()
	defer v.mu.Unlock()
	n = v.pager.Go(n, len(v.results), v.pageSize)
	return paginate.Paginate(append([]T(nil), v.results...), v.pageSize, n)
}

// CurrentPage returns the page last moved to.
func (v *View[T]) CurrentPage() paginate.Page[T] {
	v.mu.Lock()
	defer v.mu.Unlock()
	return paginate.Paginate(append([]T(nil), v.results...), v.pageSize, v.pager.Current())
}
