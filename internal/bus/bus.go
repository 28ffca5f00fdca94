// Package bus routes {type, data} request envelopes to handlers and wraps
// their results in {success, data|error} replies.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/pterm/pterm"
	"github.com/samber/lo"
)

// Envelope is an incoming request.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Reply is the response to an Envelope.
type Reply struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HandlerFunc handles one message type. data is the raw envelope payload.
type HandlerFunc func(ctx context.Context, data json.RawMessage) (any, error)

// Router dispatches envelopes by type.
type Router struct {
	logger *pterm.Logger

	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

// NewRouter returns an empty router. A nil logger disables logging.
func NewRouter(logger *pterm.Logger) *Router {
	if logger == nil {
		logger = pterm.DefaultLogger.WithLevel(pterm.LogLevelDisabled)
	}
	return &Router{logger: logger, handlers: make(map[string]HandlerFunc)}
}

// Handle registers h for msgType, replacing any previous handler.
func (r *Router) Handle(msgType string, h HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[msgType] = h
}

// Types lists the registered message types, sorted.
func (r *Router) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := lo.Keys(r.handlers)
	slices.Sort(types)
	return types
}

// Dispatch runs the handler for env and never returns an error: failures
// and handler panics become unsuccessful replies.
func (r *Router) Dispatch(ctx context.Context, env Envelope) (reply Reply) {
	r.mu.RLock()
	h, ok := r.handlers[env.Type]
	r.mu.RUnlock()
	if !ok {
		return Reply{Error: fmt.Sprintf("unknown message type: %s", env.Type)}
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("message handler panicked", r.logger.Args("type", env.Type, "panic", fmt.Sprintf("%v", rec)))
			reply = Reply{Error: fmt.Sprintf("internal error handling %s", env.Type)}
		}
	}()

	data, err := h(ctx, env.Data)
	if err != nil {
		r.logger.Debug("message handler failed", r.logger.Args("type", env.Type, "error", err))
		return Reply{Error: err.Error()}
	}
	return Reply{Success: true, Data: data}
}

// Decode unmarshals a handler payload into T. An empty payload yields the
// zero value.
func Decode[T any](data json.RawMessage) (T, error) {
	var v T
	if len(data) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("invalid message data: %w", err)
	}
	return v, nil
}
