// Package kvstore defines the asynchronous key-value store the favorites
// store persists into, along with memory, file and keyring backends.
package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
)

// Store is a key-value store holding JSON-compatible values.
// Keys missing from the store are absent from the map returned by Get.
type Store interface {
	Get(ctx context.Context, keys ...string) (map[string]any, error)
	Set(ctx context.Context, items map[string]any) error
	Remove(ctx context.Context, keys ...string) error
}

// normalize round-trips v through JSON so every backend hands back the same
// shapes ([]any, map[string]any, float64, ...) regardless of what was stored.
func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode value: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode value: %w", err)
	}
	return out, nil
}
