// Package favorites keeps the user's favorite catalog identifiers in memory and
// mirrors them into a key-value store with debounced writes.
package favorites

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/kitia/cli/pkg/kvstore"
	"github.com/kitia/cli/pkg/schedule"
	"github.com/pterm/pterm"
	"github.com/samber/lo"
)

const (
	// MaxFavorites caps the number of stored identifiers.
	MaxFavorites = 100

	// StorageKey is the key the identifier list is stored under.
	StorageKey = "favorites"

	// DebounceDelay is how long toggle/add/remove wait before writing.
	DebounceDelay = 100 * time.Millisecond
)

// Listener receives the full favorites list after every committed change.
type Listener func(ids []string)

// Status is a point-in-time view of the store.
type Status struct {
	Initialized bool `json:"initialized"`
	Saving      bool `json:"saving"`
	Pending     bool `json:"pending"`
	Count       int  `json:"count"`
}

// Store is the authoritative favorites set.
type Store struct {
	backend  kvstore.Store
	logger   *pterm.Logger
	key      string
	debounce time.Duration

	mu          sync.Mutex
	ids         []string
	index       map[string]struct{}
	initialized bool
	listeners   []listenerEntry
	nextID      uint64
	// queue holds snapshots committed but not yet delivered to listeners;
	// draining is set while one goroutine delivers them in order.
	queue    [][]string
	draining bool

	// writeFailed is set when the last write failed, so Flush retries it.
	writeFailed bool

	// writeMu serializes backend writes; saving mirrors whether one is in flight.
	writeMu sync.Mutex
	saving  bool
	pending schedule.Task
}

type listenerEntry struct {
	id uint64
	fn Listener
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for degraded init, failed saves and listener panics.
func WithLogger(l *pterm.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithDebounce overrides DebounceDelay.
func WithDebounce(d time.Duration) Option {
	return func(s *Store) { s.debounce = d }
}

// WithKey overrides StorageKey.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// New returns an uninitialized store over backend. It performs no I/O.
func New(backend kvstore.Store, opts ...Option) *Store {
	s := &Store{
		backend:  backend,
		logger:   pterm.DefaultLogger.WithLevel(pterm.LogLevelDisabled),
		key:      StorageKey,
		debounce: DebounceDelay,
		index:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init loads persisted identifiers. It never fails: when storage is unreachable
// or holds a malformed value the store starts empty and Init returns false.
// On first run it persists an empty list to establish the key.
func (s *Store) Init(ctx context.Context) bool {
	values, err := s.backend.Get(ctx, s.key)
	if err != nil {
		s.logger.Warn("favorites storage unavailable, starting empty", s.logger.Args("error", err))
		s.replace(nil)
		s.notify()
		return false
	}

	raw, found := values[s.key]
	if !found {
		s.replace(nil)
		if err := s.persist(ctx); err != nil {
			s.logger.Warn("failed to create favorites storage", s.logger.Args("error", err))
			s.notify()
			return false
		}
		s.notify()
		return true
	}

	ids, ok := decodeIDs(raw)
	if !ok {
		s.logger.Warn("malformed favorites in storage, starting empty", s.logger.Args("value", fmt.Sprintf("%v", raw)))
		s.replace(nil)
		s.notify()
		return false
	}

	s.replace(sanitize(ids))
	s.logger.Debug("favorites loaded", s.logger.Args("count", s.Count()))
	s.notify()
	return true
}

// IsFavorite reports whether id is in the set.
func (s *Store) IsFavorite(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(id); err != nil {
		return false, err
	}
	_, ok := s.index[id]
	return ok, nil
}

// Toggle flips the membership of id and returns the new state.
func (s *Store) Toggle(id string) (bool, error) {
	s.mu.Lock()
	if err := s.check(id); err != nil {
		s.mu.Unlock()
		return false, err
	}

	var added bool
	if _, ok := s.index[id]; ok {
		s.drop(id)
	} else {
		if len(s.ids) >= MaxFavorites {
			s.mu.Unlock()
			return false, fmt.Errorf("%w: at most %d favorites", ErrLimitExceeded, MaxFavorites)
		}
		s.push(id)
		added = true
	}
	s.commitLocked()
	s.mu.Unlock()

	s.scheduleSave()
	s.notify()
	return added, nil
}

// Add inserts id. It returns false without error when id is already present.
func (s *Store) Add(id string) (bool, error) {
	s.mu.Lock()
	if err := s.check(id); err != nil {
		s.mu.Unlock()
		return false, err
	}
	if _, ok := s.index[id]; ok {
		s.mu.Unlock()
		return false, nil
	}
	if len(s.ids) >= MaxFavorites {
		s.mu.Unlock()
		return false, fmt.Errorf("%w: at most %d favorites", ErrLimitExceeded, MaxFavorites)
	}
	s.push(id)
	s.commitLocked()
	s.mu.Unlock()

	s.scheduleSave()
	s.notify()
	return true, nil
}

// Remove deletes id. It returns false when id was not present.
func (s *Store) Remove(id string) (bool, error) {
	s.mu.Lock()
	if err := s.check(id); err != nil {
		s.mu.Unlock()
		return false, err
	}
	if _, ok := s.index[id]; !ok {
		s.mu.Unlock()
		return false, nil
	}
	s.drop(id)
	s.commitLocked()
	s.mu.Unlock()

	s.scheduleSave()
	s.notify()
	return true, nil
}

// All returns the identifiers in insertion order. The result is never nil.
func (s *Store) All() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Export is an alias for All.
func (s *Store) Export() []string {
	return s.All()
}

// Count returns the number of favorites.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// Clear empties the set and writes immediately.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	if !s.initialized {
		s.mu.Unlock()
		return ErrNotInitialized
	}
	s.ids = nil
	s.index = make(map[string]struct{})
	s.commitLocked()
	s.mu.Unlock()

	s.pending.Cancel()
	s.notify()
	return s.persist(ctx)
}

// Import replaces the set with ids after dropping empty, duplicate and excess
// entries, writes immediately and returns the number accepted.
func (s *Store) Import(ctx context.Context, ids []string) (int, error) {
	if ids == nil {
		return 0, fmt.Errorf("%w: import list is nil", ErrInvalidArgument)
	}

	accepted := sanitize(ids)
	s.mu.Lock()
	if !s.initialized {
		s.mu.Unlock()
		return 0, ErrNotInitialized
	}
	s.setLocked(accepted)
	s.commitLocked()
	s.mu.Unlock()

	s.pending.Cancel()
	s.notify()
	if err := s.persist(ctx); err != nil {
		return len(accepted), err
	}
	return len(accepted), nil
}

// OnChange registers fn and returns a function that unregisters it.
func (s *Store) OnChange(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, listenerEntry{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.listeners = slices.DeleteFunc(s.listeners, func(e listenerEntry) bool { return e.id == id })
	}
}

// Flush writes a pending debounced save now and should be called before the
// process exits. When the debounced save has already started, Flush waits for
// it, and retries it when it failed.
func (s *Store) Flush(ctx context.Context) error {
	if s.pending.Cancel() {
		return s.persist(ctx)
	}

	s.pending.Wait()
	s.writeMu.Lock()
	s.mu.Lock()
	failed := s.writeFailed
	s.mu.Unlock()
	s.writeMu.Unlock()

	if failed {
		return s.persist(ctx)
	}
	return nil
}

// Status returns a snapshot of the store state.
func (s *Store) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Initialized: s.initialized,
		Saving:      s.saving,
		Pending:     s.pending.Pending(),
		Count:       len(s.ids),
	}
}

func (s *Store) check(id string) error {
	if !s.initialized {
		return ErrNotInitialized
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: favorite id must be a non-empty string", ErrInvalidArgument)
	}
	return nil
}

func (s *Store) push(id string) {
	s.ids = append(s.ids, id)
	s.index[id] = struct{}{}
}

func (s *Store) drop(id string) {
	delete(s.index, id)
	s.ids = slices.DeleteFunc(s.ids, func(v string) bool { return v == id })
}

func (s *Store) replace(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(ids)
	s.initialized = true
	s.commitLocked()
}

func (s *Store) setLocked(ids []string) {
	s.ids = slices.Clone(ids)
	s.index = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s.index[id] = struct{}{}
	}
}

func (s *Store) scheduleSave() {
	s.pending.Schedule(s.debounce, func() {
		if err := s.persist(context.Background()); err != nil {
			s.logger.Error("failed to save favorites", s.logger.Args("error", err))
		}
	})
}

// persist writes the current set. Writes never overlap; a write waiting on the
// lock snapshots the set only once it holds it, so it carries the latest state.
func (s *Store) persist(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	snapshot := slices.Clone(s.ids)
	if snapshot == nil {
		snapshot = []string{}
	}
	s.saving = true
	s.mu.Unlock()

	err := s.backend.Set(ctx, map[string]any{s.key: snapshot})

	s.mu.Lock()
	s.saving = false
	s.writeFailed = err != nil
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to save favorites: %w", err)
	}
	s.logger.Debug("favorites saved", s.logger.Args("count", len(snapshot)))
	return nil
}

// commitLocked queues the current set for listeners. Callers hold s.mu.
func (s *Store) commitLocked() {
	s.queue = append(s.queue, slices.Clone(s.ids))
}

// notify delivers queued snapshots in commit order. Only one goroutine
// delivers at a time; a change made by another goroutine, or by a listener,
// while delivery is running is delivered by that same loop afterwards.
func (s *Store) notify() {
	s.mu.Lock()
	if s.draining {
		s.mu.Unlock()
		return
	}
	s.draining = true
	for len(s.queue) > 0 {
		ids := s.queue[0]
		s.queue = s.queue[1:]
		listeners := slices.Clone(s.listeners)
		s.mu.Unlock()

		for _, l := range listeners {
			s.call(l.fn, slices.Clone(ids))
		}

		s.mu.Lock()
	}
	s.draining = false
	s.mu.Unlock()
}

func (s *Store) call(fn Listener, ids []string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("favorites listener panicked", s.logger.Args("panic", fmt.Sprintf("%v", r)))
		}
	}()
	fn(ids)
}

// sanitize drops blank and duplicate identifiers and truncates to MaxFavorites.
func sanitize(ids []string) []string {
	valid := lo.Uniq(lo.Filter(ids, func(id string, _ int) bool {
		return strings.TrimSpace(id) != ""
	}))
	if len(valid) > MaxFavorites {
		valid = valid[:MaxFavorites]
	}
	return valid
}

// decodeIDs accepts the list shapes a backend may return. Non-string entries
// are dropped; any other shape is malformed.
func decodeIDs(raw any) ([]string, bool) {
	switch v := raw.(type) {
	case []string:
		return v, true
	case []any:
		return lo.FilterMap(v, func(item any, _ int) (string, bool) {
			s, ok := item.(string)
			return s, ok
		}), true
	default:
		return nil, false
	}
}
