package modules

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode"
)

// GlobalPrefix prefixes every name produced by GlobalName.
const GlobalPrefix = "__kit_"

// Exports is the named-exports object a module resolves to.
type Exports map[string]any

// Factory builds a module's exports from its already-loaded dependencies.
type Factory func(ctx context.Context, deps map[string]Exports) (Exports, error)

// Source fetches module code for a registry path. Sources are tried in order
// until one succeeds.
type Source interface {
	Name() string
	Fetch(ctx context.Context, path string, deps map[string]Exports) (Exports, error)
	Has(path string) bool
}

// NativeSource resolves paths directly against a table of factories.
type NativeSource struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewNativeSource returns an empty native source.
func NewNativeSource() *NativeSource {
	return &NativeSource{factories: make(map[string]Factory)}
}

// Register binds path to f.
func (s *NativeSource) Register(path string, f Factory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.factories[path] = f
}

func (s *NativeSource) Name() string { return "native" }

func (s *NativeSource) Has(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.factories[path]
	return ok
}

func (s *NativeSource) Fetch(ctx context.Context, path string, deps map[string]Exports) (Exports, error) {
	s.mu.RLock()
	f, ok := s.factories[path]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("native source has no module at %s", path)
	}
	return f(ctx, deps)
}

// GlobalSource resolves paths through a table keyed by GlobalName(path).
// It is the fallback for modules that publish themselves under a well-known
// name instead of being importable by path.
type GlobalSource struct {
	mu      sync.RWMutex
	globals map[string]Factory
}

// NewGlobalSource returns an empty global source.
func NewGlobalSource() *GlobalSource {
	return &GlobalSource{globals: make(map[string]Factory)}
}

// Publish exposes f under the global name derived from path.
func (s *GlobalSource) Publish(path string, f Factory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.globals[GlobalName(path)] = f
}

func (s *GlobalSource) Name() string { return "global" }

func (s *GlobalSource) Has(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.globals[GlobalName(path)]
	return ok
}

func (s *GlobalSource) Fetch(ctx context.Context, path string, deps map[string]Exports) (Exports, error) {
	name := GlobalName(path)
	s.mu.RLock()
	f, ok := s.globals[name]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("global %s not found", name)
	}
	return f(ctx, deps)
}

// GlobalName derives the global lookup name for a module path: every
// character that is not a letter or digit becomes '_' and GlobalPrefix is
// prepended. "modules/favorites.js" maps to "__kit_modules_favorites_js".
func GlobalName(path string) string {
	return GlobalPrefix + strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return r
		}
		return '_'
	}, path)
}
