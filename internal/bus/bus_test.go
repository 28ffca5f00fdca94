package bus

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatch(t *testing.T) {
	r := NewRouter(nil)
	r.Handle("echo", func(ctx context.Context, data json.RawMessage) (any, error) {
		in, err := Decode[struct {
			ID string `json:"id"`
		}](data)
		if err != nil {
			return nil, err
		}
		return in.ID, nil
	})
	r.Handle("fail", func(ctx context.Context, data json.RawMessage) (any, error) {
		return nil, errors.New("nope")
	})
	r.Handle("panic", func(ctx context.Context, data json.RawMessage) (any, error) {
		panic("bug")
	})
	ctx := context.Background()

	assert.Equal(t, []string{"echo", "fail", "panic"}, r.Types())

	reply := r.Dispatch(ctx, Envelope{Type: "echo", Data: json.RawMessage(`{"id":"gpt-1"}`)})
	assert.Equal(t, Reply{Success: true, Data: "gpt-1"}, reply)

	reply = r.Dispatch(ctx, Envelope{Type: "echo", Data: json.RawMessage(`[1]`)})
	assert.False(t, reply.Success)
	assert.Contains(t, reply.Error, "invalid message data")

	reply = r.Dispatch(ctx, Envelope{Type: "fail"})
	assert.Equal(t, Reply{Error: "nope"}, reply)

	reply = r.Dispatch(ctx, Envelope{Type: "panic"})
	assert.False(t, reply.Success)
	assert.Contains(t, reply.Error, "internal error")

	reply = r.Dispatch(ctx, Envelope{Type: "missing"})
	assert.Equal(t, "unknown message type: missing", reply.Error)
}

func TestReplyJSONShape(t *testing.T) {
	out, err := json.Marshal(Reply{Success: true, Data: []string{"a"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"data":["a"]}`, string(out))

	out, err = json.Marshal(Reply{Error: "boom"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"error":"boom"}`, string(out))
}

func TestDecodeEmpty(t *testing.T) {
	v, err := Decode[[]string](nil)
	require.NoError(t, err)
	assert.Nil(t, v)
}
