package cmd

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/kitia/cli/internal/catalog"
	"github.com/kitia/cli/internal/favorites"
	"github.com/kitia/cli/pkg/kvstore"
	"github.com/pterm/pterm"
	"github.com/stretchr/testify/require"
)

var outBuf bytes.Buffer

// setupStdoutCapture sends pterm output to outBuf for the rest of the test.
func setupStdoutCapture(t *testing.T) {
	t.Helper()
	outBuf.Reset()
	pterm.SetDefaultOutput(&outBuf)
	pterm.DisableStyling()
	t.Cleanup(func() {
		pterm.SetDefaultOutput(os.Stdout)
		pterm.EnableStyling()
	})
}

func newTestStore(t *testing.T, backend kvstore.Store, ids ...string) *favorites.Store {
	t.Helper()
	s := favorites.New(backend)
	require.True(t, s.Init(context.Background()))
	if len(ids) > 0 {
		_, err := s.Import(context.Background(), ids)
		require.NoError(t, err)
	}
	return s
}

func newTestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Load()
	require.NoError(t, err)
	return c
}

// FakeFavoritesService wraps a real store and lets tests override calls.
type FakeFavoritesService struct {
	*favorites.Store
	FlushFunc func(ctx context.Context) error
	flushes   int
}

func (f *FakeFavoritesService) Flush(ctx context.Context) error {
	f.flushes++
	if f.FlushFunc != nil {
		return f.FlushFunc(ctx)
	}
	return f.Store.Flush(ctx)
}
