// Package modules resolves named modules against a registry and loads them
// through pluggable sources, with dependency resolution, retries, a cache and
// de-duplication of concurrent loads.
package modules

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/kitia/cli/pkg/schedule"
	"github.com/pterm/pterm"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Defaults used by New.
const (
	DefaultAttempts     = 3
	DefaultRetryDelay   = time.Second
	DefaultFetchTimeout = 5 * time.Second
)

// Status is a read-only snapshot of the loader.
type Status struct {
	Initialized bool     `json:"initialized"`
	Cached      []string `json:"cached"`
	Loading     []string `json:"loading"`
	Registered  []string `json:"registered"`
}

// Loader loads modules by name. The zero value is not usable; use New.
type Loader struct {
	logger       *pterm.Logger
	sources      []Source
	attempts     int
	retryDelay   time.Duration
	fetchTimeout time.Duration

	mu          sync.Mutex
	registry    map[string]Info
	cache       map[string]Exports
	loading     map[string]struct{}
	initialized bool
	// gens is bumped per name by InvalidateCache and for every name by
	// ClearCache; a load only caches its result if its generation is current.
	gens  map[string]uint64
	epoch uint64

	group singleflight.Group
}

// Option configures a Loader.
type Option func(*Loader)

// WithSources sets the sources tried, in order, for every fetch.
func WithSources(sources ...Source) Option {
	return func(l *Loader) { l.sources = sources }
}

// WithRegistry seeds the registry.
func WithRegistry(registry map[string]Info) Option {
	return func(l *Loader) {
		for name, info := range registry {
			l.registry[name] = info.clone()
		}
	}
}

// WithLogger sets the logger used for attempt and fallback diagnostics.
func WithLogger(logger *pterm.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// WithRetry overrides the attempt count and the delay between attempts.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(l *Loader) {
		l.attempts = attempts
		l.retryDelay = delay
	}
}

// WithFetchTimeout bounds each source fetch.
func WithFetchTimeout(d time.Duration) Option {
	return func(l *Loader) { l.fetchTimeout = d }
}

// New returns a loader with an empty cache.
func New(opts ...Option) *Loader {
	l := &Loader{
		logger:       pterm.DefaultLogger.WithLevel(pterm.LogLevelDisabled),
		attempts:     DefaultAttempts,
		retryDelay:   DefaultRetryDelay,
		fetchTimeout: DefaultFetchTimeout,
		registry:     make(map[string]Info),
		cache:        make(map[string]Exports),
		loading:      make(map[string]struct{}),
		gens:         make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Init checks that a source is configured and that every registered module
// can be located. Failure is logged and reported but the loader stays usable.
func (l *Loader) Init(ctx context.Context) bool {
	if len(l.sources) == 0 {
		l.logger.Warn("module loader has no sources")
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	unresolved := lo.Filter(lo.Keys(l.registry), func(name string, _ int) bool {
		path := l.registry[name].Path
		return !lo.SomeBy(l.sources, func(s Source) bool { return s.Has(path) })
	})
	if len(unresolved) > 0 {
		slices.Sort(unresolved)
		l.logger.Warn("modules cannot be located by any source", l.logger.Args("modules", unresolved))
		return false
	}

	l.initialized = true
	l.logger.Debug("module loader initialized", l.logger.Args("modules", len(l.registry)))
	return true
}

// RegisterModule adds or replaces a registry entry. Cached exports for name
// are left untouched.
func (l *Loader) RegisterModule(name string, info Info) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.registry[name] = info.clone()
}

// Load returns the exports of name, loading it and its dependencies if needed.
// Concurrent calls for the same name share one load and the same result.
func (l *Loader) Load(ctx context.Context, name string) (Exports, error) {
	if exports, ok := l.cached(name); ok {
		return exports, nil
	}

	// The shared load must not be cancelled by whichever caller started it.
	ch := l.group.DoChan(name, func() (any, error) {
		return l.load(context.WithoutCancel(ctx), name)
	})

	select {
	case <-ctx.Done():
		return nil, &LoaderError{Module: name, Cause: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(Exports), nil
	}
}

// LoadMultiple loads names in parallel. The first failure is returned.
func (l *Loader) LoadMultiple(ctx context.Context, names []string) (map[string]Exports, error) {
	var mu sync.Mutex
	out := make(map[string]Exports, len(names))

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range lo.Uniq(names) {
		g.Go(func() error {
			exports, err := l.Load(gctx, name)
			if err != nil {
				return err
			}
			mu.Lock()
			out[name] = exports
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Preload loads names and only logs failures.
func (l *Loader) Preload(ctx context.Context, names []string) {
	if _, err := l.LoadMultiple(ctx, names); err != nil {
		l.logger.Warn("module preload failed", l.logger.Args("modules", names, "error", err))
	}
}

// InvalidateCache evicts name. It reports whether name was cached. A load of
// name already in flight still answers its callers but is not cached, and the
// next Load starts a new fetch.
func (l *Loader) InvalidateCache(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.cache[name]
	delete(l.cache, name)
	l.gens[name]++
	l.group.Forget(name)
	return ok
}

// ClearCache evicts every cached module, with the same effect on in-flight
// loads as InvalidateCache.
func (l *Loader) ClearCache() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[string]Exports)
	l.epoch++
	for name := range l.loading {
		l.group.Forget(name)
	}
}

// Status returns a snapshot of the loader state.
func (l *Loader) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()

	sorted := func(keys []string) []string {
		slices.Sort(keys)
		return keys
	}
	return Status{
		Initialized: l.initialized,
		Cached:      sorted(lo.Keys(l.cache)),
		Loading:     sorted(lo.Keys(l.loading)),
		Registered:  sorted(lo.Keys(l.registry)),
	}
}

func (l *Loader) cached(name string) (Exports, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	exports, ok := l.cache[name]
	return exports, ok
}

func (l *Loader) load(ctx context.Context, name string) (Exports, error) {
	// A load that finished between the caller's cache check and joining the
	// group has already populated the cache.
	if exports, ok := l.cached(name); ok {
		return exports, nil
	}

	l.mu.Lock()
	info, ok := l.registry[name]
	if !ok {
		l.mu.Unlock()
		return nil, &LoaderError{Module: name, Cause: ErrNotRegistered}
	}
	info = info.clone()
	cycle := findCycle(l.registry, name)
	gen, epoch := l.gens[name], l.epoch
	l.loading[name] = struct{}{}
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		delete(l.loading, name)
		l.mu.Unlock()
	}()

	if cycle != nil {
		return nil, &LoaderError{Module: name, Cause: &CycleError{Cycle: cycle}}
	}

	deps, err := l.loadDependencies(ctx, info.Dependencies)
	if err != nil {
		return nil, &LoaderError{Module: name, Cause: err}
	}

	exports, err := l.fetch(ctx, name, info, deps)
	if err != nil {
		return nil, &LoaderError{Module: name, Cause: err}
	}
	if err := info.validate(exports); err != nil {
		return nil, &LoaderError{Module: name, Cause: err}
	}

	l.mu.Lock()
	stale := l.gens[name] != gen || l.epoch != epoch
	if !stale {
		l.cache[name] = exports
	}
	l.mu.Unlock()

	if stale {
		l.logger.Debug("module invalidated while loading, not cached", l.logger.Args("module", name))
		return exports, nil
	}
	l.logger.Debug("module loaded", l.logger.Args("module", name))
	return exports, nil
}

func (l *Loader) loadDependencies(ctx context.Context, names []string) (map[string]Exports, error) {
	if len(names) == 0 {
		return map[string]Exports{}, nil
	}
	deps, err := l.LoadMultiple(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("dependency failed: %w", err)
	}
	return deps, nil
}

func (l *Loader) fetch(ctx context.Context, name string, info Info, deps map[string]Exports) (Exports, error) {
	var exports Exports
	err := schedule.Retry(ctx, l.attempts, l.retryDelay, func(attempt int) error {
		l.logger.Debug("fetching module", l.logger.Args("module", name, "attempt", attempt))
		got, err := l.fetchOnce(ctx, name, info.Path, deps)
		if err != nil {
			return err
		}
		exports = got
		return nil
	}, func(attempt int, err error) {
		l.logger.Warn("module fetch attempt failed",
			l.logger.Args("module", name, "attempt", attempt, "of", l.attempts, "error", err))
	})
	if err != nil {
		return nil, err
	}
	return exports, nil
}

// fetchOnce tries each source in order, each bounded by the fetch timeout.
func (l *Loader) fetchOnce(ctx context.Context, name, path string, deps map[string]Exports) (Exports, error) {
	if len(l.sources) == 0 {
		return nil, ErrNoSource
	}

	var errs []error
	for i, src := range l.sources {
		if i > 0 {
			l.logger.Debug("falling back to next module source",
				l.logger.Args("module", name, "source", src.Name()))
		}
		exports, err := schedule.WithTimeout(ctx, l.fetchTimeout, func(ctx context.Context) (Exports, error) {
			return src.Fetch(ctx, path, deps)
		})
		if err == nil && exports == nil {
			err = errors.New("source returned no exports")
		}
		if err == nil {
			return exports, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
	}
	return nil, errors.Join(errs...)
}
