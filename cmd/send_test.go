package cmd

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/kitia/cli/internal/app"
	"github.com/kitia/cli/internal/bus"
	"github.com/kitia/cli/internal/config"
	"github.com/kitia/cli/internal/modules"
	"github.com/kitia/cli/pkg/kvstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) *app.App {
	t.Helper()
	a, err := app.New(config.Config{Storage: config.StorageMemory}, nil,
		app.WithBackend(kvstore.NewMemory()),
		app.WithLoaderOptions(modules.WithRetry(1, time.Millisecond)),
	)
	require.NoError(t, err)
	return a
}

func decodeReply(t *testing.T) bus.Reply {
	t.Helper()
	var reply bus.Reply
	require.NoError(t, json.Unmarshal(outBuf.Bytes(), &reply))
	return reply
}

func TestSend_ToggleThenGet(t *testing.T) {
	setupStdoutCapture(t)
	c := SendCmd{router: newTestApp(t).Router()}
	ctx := context.Background()

	require.NoError(t, c.Send(ctx, SendInput{Type: app.MsgToggleFavorite, Data: `{"id":"gpt-pitch"}`}))
	reply := decodeReply(t)
	assert.True(t, reply.Success)
	assert.Equal(t, map[string]any{"id": "gpt-pitch", "favorite": true, "changed": true}, reply.Data)

	outBuf.Reset()
	require.NoError(t, c.Send(ctx, SendInput{Type: app.MsgGetFavorites}))
	assert.Equal(t, []any{"gpt-pitch"}, decodeReply(t).Data)
}

func TestSend_FailedReplyIsPrintedAndReturned(t *testing.T) {
	setupStdoutCapture(t)
	c := SendCmd{router: newTestApp(t).Router()}

	err := c.Send(context.Background(), SendInput{Type: "bogus"})
	assert.EqualError(t, err, "unknown message type: bogus")

	reply := decodeReply(t)
	assert.False(t, reply.Success)
	assert.Equal(t, "unknown message type: bogus", reply.Error)
}

func TestSend_InvalidJSON(t *testing.T) {
	setupStdoutCapture(t)
	c := SendCmd{router: newTestApp(t).Router()}

	err := c.Send(context.Background(), SendInput{Type: app.MsgAddFavorite, Data: `{id:`})
	assert.EqualError(t, err, "message data is not valid JSON")
	assert.Empty(t, outBuf.String())
}
