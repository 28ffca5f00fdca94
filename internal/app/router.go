package app

import (
	"context"
	"encoding/json"

	"github.com/kitia/cli/internal/bus"
	"github.com/kitia/cli/internal/favorites"
)

// Message types handled by Router.
const (
	MsgGetFavorites    = "getFavorites"
	MsgToggleFavorite  = "toggleFavorite"
	MsgAddFavorite     = "addFavorite"
	MsgRemoveFavorite  = "removeFavorite"
	MsgClearFavorites  = "clearFavorites"
	MsgImportFavorites = "importFavorites"
	MsgExportFavorites = "exportFavorites"
	MsgGetCatalog      = "getCatalog"
	MsgGetModuleStatus = "getModuleStatus"
)

// MessageTypes lists every message type Router handles.
func MessageTypes() []string {
	return []string{
		MsgGetFavorites, MsgToggleFavorite, MsgAddFavorite, MsgRemoveFavorite,
		MsgClearFavorites, MsgImportFavorites, MsgExportFavorites,
		MsgGetCatalog, MsgGetModuleStatus,
	}
}

type idPayload struct {
	ID string `json:"id"`
}

type idsPayload struct {
	IDs []string `json:"ids"`
}

// FavoriteResult is the reply data of single-id favorites messages.
type FavoriteResult struct {
	ID       string `json:"id"`
	Favorite bool   `json:"favorite"`
	Changed  bool   `json:"changed"`
}

// ImportResult is the reply data of importFavorites.
type ImportResult struct {
	Imported int `json:"imported"`
}

// Router returns a message router backed by this App.
func (a *App) Router() *bus.Router {
	r := bus.NewRouter(a.Logger)

	r.Handle(MsgGetFavorites, a.withFavorites(func(ctx context.Context, s *favorites.Store, _ json.RawMessage) (any, error) {
		return s.All(), nil
	}))
	r.Handle(MsgExportFavorites, a.withFavorites(func(ctx context.Context, s *favorites.Store, _ json.RawMessage) (any, error) {
		return s.Export(), nil
	}))
	r.Handle(MsgToggleFavorite, a.withID(func(s *favorites.Store, id string) (FavoriteResult, error) {
		on, err := s.Toggle(id)
		return FavoriteResult{ID: id, Favorite: on, Changed: err == nil}, err
	}))
	r.Handle(MsgAddFavorite, a.withID(func(s *favorites.Store, id string) (FavoriteResult, error) {
		added, err := s.Add(id)
		return FavoriteResult{ID: id, Favorite: err == nil, Changed: added}, err
	}))
	r.Handle(MsgRemoveFavorite, a.withID(func(s *favorites.Store, id string) (FavoriteResult, error) {
		removed, err := s.Remove(id)
		return FavoriteResult{ID: id, Favorite: false, Changed: removed}, err
	}))
	r.Handle(MsgClearFavorites, a.withFavorites(func(ctx context.Context, s *favorites.Store, _ json.RawMessage) (any, error) {
		return []string{}, s.Clear(ctx)
	}))
	r.Handle(MsgImportFavorites, a.withFavorites(func(ctx context.Context, s *favorites.Store, data json.RawMessage) (any, error) {
		in, err := bus.Decode[idsPayload](data)
		if err != nil {
			return nil, err
		}
		n, err := s.Import(ctx, in.IDs)
		if err != nil {
			return nil, err
		}
		return ImportResult{Imported: n}, nil
	}))
	r.Handle(MsgGetCatalog, func(ctx context.Context, _ json.RawMessage) (any, error) {
		c, err := a.Catalog(ctx)
		if err != nil {
			return nil, err
		}
		return c.All(), nil
	})
	r.Handle(MsgGetModuleStatus, func(ctx context.Context, _ json.RawMessage) (any, error) {
		return a.Loader.Status(), nil
	})
	return r
}

func (a *App) withFavorites(fn func(ctx context.Context, s *favorites.Store, data json.RawMessage) (any, error)) bus.HandlerFunc {
	return func(ctx context.Context, data json.RawMessage) (any, error) {
		s, err := a.Favorites(ctx)
		if err != nil {
			return nil, err
		}
		return fn(ctx, s, data)
	}
}

func (a *App) withID(fn func(s *favorites.Store, id string) (FavoriteResult, error)) bus.HandlerFunc {
	return a.withFavorites(func(ctx context.Context, s *favorites.Store, data json.RawMessage) (any, error) {
		in, err := bus.Decode[idPayload](data)
		if err != nil {
			return nil, err
		}
		res, err := fn(s, in.ID)
		if err != nil {
			return nil, err
		}
		return res, nil
	})
}
