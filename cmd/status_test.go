package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/kitia/cli/internal/modules"
	"github.com/kitia/cli/pkg/kvstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_Operational(t *testing.T) {
	setupStdoutCapture(t)

	c := StatusCmd{
		favorites: newTestStore(t, kvstore.NewMemory(), "gpt-pitch"),
		loader: &FakeModuleService{StatusValue: modules.Status{
			Cached:     []string{"favorites", "storage"},
			Registered: []string{"catalog", "favorites", "storage"},
		}},
		storage: "memory",
	}
	require.NoError(t, c.Run(context.Background(), StatusInput{Output: "json"}))

	var resp statusResponse
	require.NoError(t, json.Unmarshal(outBuf.Bytes(), &resp))
	assert.Equal(t, "operational", resp.Status)
	assert.Equal(t, "memory", resp.Storage)
	require.Len(t, resp.Components, 4)
	assert.Equal(t, statusComponent{Name: "Favorites", Status: "operational", Detail: "1 of 100"}, resp.Components[0])
	assert.Equal(t, statusComponent{Name: "Module catalog", Status: "unknown", Detail: "not loaded"}, resp.Components[1])
	assert.Equal(t, "cached", resp.Components[2].Detail)
}

func TestStatus_PendingSaveIsBusy(t *testing.T) {
	setupStdoutCapture(t)

	store := newTestStore(t, kvstore.NewMemory())
	_, err := store.Add("gpt-pitch")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Flush(context.Background()) })

	c := StatusCmd{favorites: store, loader: &FakeModuleService{}}
	resp := c.build()
	require.Len(t, resp.Components, 1)
	assert.Equal(t, "maintenance", resp.Components[0].Status)
	assert.Equal(t, "1 of 100, saving", resp.Components[0].Detail)
}

func TestStatus_FavoritesUnavailable(t *testing.T) {
	setupStdoutCapture(t)

	c := StatusCmd{
		favoritesErr: errors.New("storage offline"),
		loader:       &FakeModuleService{},
		storage:      "keyring",
	}
	require.NoError(t, c.Run(context.Background(), StatusInput{}))

	out := outBuf.String()
	assert.Contains(t, out, "Kit Status: Degraded")
	assert.Contains(t, out, "Unavailable")
	assert.Contains(t, out, "storage offline")
}
