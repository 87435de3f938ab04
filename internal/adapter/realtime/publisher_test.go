package realtime

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"easel-ai/internal/domain"
)

func newTestPublisher(t *testing.T) (*Publisher, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	p := NewWithClient(client, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return p, client
}

func TestChannelName(t *testing.T) {
	assert.Equal(t, "canvas.1", Channel(1))
	assert.Equal(t, "canvas.42", Channel(42))
}

func TestPublishBroadcastsToCanvasChannel(t *testing.T) {
	p, client := newTestPublisher(t)
	ctx := context.Background()

	sub := client.Subscribe(ctx, Channel(1))
	t.Cleanup(func() { sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	p.Publish(ctx, 1, domain.ObjectEvent{
		Type: "object_created",
		Object: &domain.ObjectRef{
			ID:       7,
			CanvasID: 1,
			Type:     "rect",
		},
	})

	select {
	case msg := <-sub.Channel():
		var event domain.ObjectEvent
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
		assert.Equal(t, "object_created", event.Type)
		require.NotNil(t, event.Object)
		assert.Equal(t, int64(7), event.Object.ID)
		assert.Equal(t, "rect", event.Object.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("no message received on canvas channel")
	}
}

func TestPublishScopedToCanvas(t *testing.T) {
	p, client := newTestPublisher(t)
	ctx := context.Background()

	sub := client.Subscribe(ctx, Channel(2))
	t.Cleanup(func() { sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	p.Publish(ctx, 1, domain.ObjectEvent{Type: "object_deleted", Object: &domain.ObjectRef{ID: 3}})

	select {
	case msg := <-sub.Channel():
		t.Fatalf("unexpected message on other canvas channel: %s", msg.Payload)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestPublishSurvivesBrokenConnection(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	p := NewWithClient(client, slog.New(slog.NewTextHandler(io.Discard, nil)))
	mr.Close()

	// Fire-and-forget: a dead broker must not panic or block.
	p.Publish(context.Background(), 1, domain.ObjectEvent{Type: "object_updated"})
	p.Close()
}
