// Package app wires the storage backend, module loader and message router
// into one instance owned by the caller.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kitia/cli/internal/catalog"
	"github.com/kitia/cli/internal/config"
	"github.com/kitia/cli/internal/favorites"
	"github.com/kitia/cli/internal/modules"
	"github.com/kitia/cli/pkg/kvstore"
	"github.com/pterm/pterm"
	"github.com/samber/lo"
)

// Module names and paths in the registry.
const (
	ModuleStorage   = "storage"
	ModuleCatalog   = "catalog"
	ModuleFavorites = "favorites"

	pathStorage   = "modules/storage.js"
	pathCatalog   = "modules/catalog.js"
	pathFavorites = "modules/favorites.js"

	// ModuleVersion is reported by every built-in module.
	ModuleVersion = "1.0.0"
)

// Registry returns the built-in module registry.
func Registry() map[string]modules.Info {
	return map[string]modules.Info{
		ModuleStorage: {
			Path:    pathStorage,
			Exports: []string{"store"},
		},
		ModuleCatalog: {
			Path:    pathCatalog,
			Exports: []string{"catalog"},
			Version: "^1.0.0",
		},
		ModuleFavorites: {
			Path:         pathFavorites,
			Exports:      []string{"manager", "maxFavorites"},
			Dependencies: []string{ModuleStorage},
			Version:      "^1.0.0",
		},
	}
}

// App is the composition root.
type App struct {
	Config config.Config
	Logger *pterm.Logger
	Loader *modules.Loader

	backend kvstore.Store

	initMu sync.Mutex
	// initialized tracks which favorites stores have had Init run, so a
	// store is initialized exactly once per loaded instance.
	initialized map[*favorites.Store]bool
}

// Option configures an App.
type Option func(*appOptions)

type appOptions struct {
	backend       kvstore.Store
	loaderOptions []modules.Option
}

// WithBackend overrides the storage backend selected by the config.
func WithBackend(store kvstore.Store) Option {
	return func(o *appOptions) { o.backend = store }
}

// WithLoaderOptions appends loader options after the defaults.
func WithLoaderOptions(opts ...modules.Option) Option {
	return func(o *appOptions) { o.loaderOptions = append(o.loaderOptions, opts...) }
}

// New builds an App from cfg. It performs no storage I/O.
func New(cfg config.Config, logger *pterm.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = pterm.DefaultLogger.WithLevel(pterm.LogLevelDisabled)
	}
	var o appOptions
	for _, opt := range opts {
		opt(&o)
	}

	backend := o.backend
	if backend == nil {
		var err error
		backend, err = NewBackend(cfg)
		if err != nil {
			return nil, err
		}
	}

	a := &App{
		Config:      cfg,
		Logger:      logger,
		backend:     backend,
		initialized: make(map[*favorites.Store]bool),
	}

	native, global := a.sources()
	loaderOpts := append([]modules.Option{
		modules.WithSources(native, global),
		modules.WithRegistry(Registry()),
		modules.WithLogger(logger),
	}, o.loaderOptions...)
	a.Loader = modules.New(loaderOpts...)
	// Init only checks that each registered path is known to a source; the
	// loader logs which modules are unresolved.
	a.Loader.Init(context.Background())
	return a, nil
}

// NewBackend returns the key-value store selected by cfg.
func NewBackend(cfg config.Config) (kvstore.Store, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		return kvstore.NewMemory(), nil
	case config.StorageKeyring:
		return kvstore.NewKeyring(""), nil
	case config.StorageFile, "":
		if cfg.StoragePath == "" {
			return nil, fmt.Errorf("file storage requires a path")
		}
		return kvstore.NewFile(cfg.StoragePath), nil
	default:
		return nil, fmt.Errorf("unsupported storage %q", cfg.Storage)
	}
}

// sources builds the native source with every built-in module and a global
// source that republishes the catalog, so a catalog fetch still succeeds
// through the fallback path.
func (a *App) sources() (*modules.NativeSource, *modules.GlobalSource) {
	native := modules.NewNativeSource()
	native.Register(pathStorage, a.storageModule)
	native.Register(pathCatalog, catalogModule)
	native.Register(pathFavorites, a.favoritesModule)

	global := modules.NewGlobalSource()
	global.Publish(pathCatalog, catalogModule)
	return native, global
}

func (a *App) storageModule(ctx context.Context, _ map[string]modules.Exports) (modules.Exports, error) {
	return modules.Exports{"store": a.backend}, nil
}

func catalogModule(ctx context.Context, _ map[string]modules.Exports) (modules.Exports, error) {
	c, err := catalog.Load()
	if err != nil {
		return nil, err
	}
	return modules.Exports{"catalog": c, modules.VersionExport: ModuleVersion}, nil
}

func (a *App) favoritesModule(ctx context.Context, deps map[string]modules.Exports) (modules.Exports, error) {
	store, ok := deps[ModuleStorage]["store"].(kvstore.Store)
	if !ok {
		return nil, fmt.Errorf("storage module did not export a store")
	}
	manager := favorites.New(store, favorites.WithLogger(a.Logger))
	return modules.Exports{
		"manager":             manager,
		"maxFavorites":        favorites.MaxFavorites,
		modules.VersionExport: ModuleVersion,
	}, nil
}

// Favorites loads the favorites module and initializes its store once.
// A degraded Init is logged by the store and not treated as an error.
func (a *App) Favorites(ctx context.Context) (*favorites.Store, error) {
	exports, err := a.Loader.Load(ctx, ModuleFavorites)
	if err != nil {
		return nil, err
	}
	store, ok := exports["manager"].(*favorites.Store)
	if !ok {
		return nil, fmt.Errorf("favorites module exported %T, not a favorites store", exports["manager"])
	}

	a.initMu.Lock()
	defer a.initMu.Unlock()
	if !a.initialized[store] {
		if !store.Init(ctx) {
			a.Logger.Warn("favorites running without persisted state")
		}
		a.initialized[store] = true
	}
	return store, nil
}

// Catalog loads the catalog module.
func (a *App) Catalog(ctx context.Context) (*catalog.Catalog, error) {
	exports, err := a.Loader.Load(ctx, ModuleCatalog)
	if err != nil {
		return nil, err
	}
	c, ok := exports["catalog"].(*catalog.Catalog)
	if !ok {
		return nil, fmt.Errorf("catalog module exported %T, not a catalog", exports["catalog"])
	}
	return c, nil
}

// Close flushes pending favorites writes of every store this App
// initialized.
func (a *App) Close(ctx context.Context) error {
	a.initMu.Lock()
	stores := lo.Keys(a.initialized)
	a.initMu.Unlock()

	var errs []error
	for _, store := range stores {
		if err := store.Flush(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
