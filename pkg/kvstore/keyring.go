package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// DefaultKeyringService is the keyring service name entries are stored under.
const DefaultKeyringService = "kit-ia-emprendedor"

// Keyring is a Store backed by the OS keychain. Each key is one keyring entry
// holding the JSON-encoded value.
type Keyring struct {
	Service string
}

// NewKeyring returns a keyring store for service, or DefaultKeyringService
// when service is empty.
func NewKeyring(service string) *Keyring {
	if service == "" {
		service = DefaultKeyringService
	}
	return &Keyring{Service: service}
}

func (k *Keyring) Get(ctx context.Context, keys ...string) (map[string]any, error) {
	out := make(map[string]any, len(keys))
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, err := keyring.Get(k.Service, key)
		if errors.Is(err, keyring.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read keyring entry %q: %w", key, err)
		}

		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("failed to parse keyring entry %q: %w", key, err)
		}
		out[key] = v
	}
	return out, nil
}

func (k *Keyring) Set(ctx context.Context, items map[string]any) error {
	for key, v := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode keyring entry %q: %w", key, err)
		}
		if err := keyring.Set(k.Service, key, string(data)); err != nil {
			return fmt.Errorf("failed to write keyring entry %q: %w", key, err)
		}
	}
	return nil
}

func (k *Keyring) Remove(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := keyring.Delete(k.Service, key)
		if err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("failed to delete keyring entry %q: %w", key, err)
		}
	}
	return nil
}
