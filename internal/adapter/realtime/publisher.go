// Package realtime broadcasts object mutations to collaborators over Redis
// pub/sub. Each canvas has its own channel; clients subscribe to the canvases
// they have open.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"easel-ai/internal/domain"
	"easel-ai/internal/infra/config"
)

// Publisher implements domain.Publisher on Redis pub/sub. Publishing is
// fire-and-forget: delivery failures are logged and never surfaced to the
// command path.
type Publisher struct {
	client *redis.Client
	logger *slog.Logger
}

// New connects to Redis and verifies the connection with a ping.
func New(cfg config.RealtimeConfig, logger *slog.Logger) (*Publisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return &Publisher{client: client, logger: logger}, nil
}

// NewWithClient wraps an existing client. Used by tests.
func NewWithClient(client *redis.Client, logger *slog.Logger) *Publisher {
	return &Publisher{client: client, logger: logger}
}

// Channel returns the pub/sub channel name for a canvas.
func Channel(canvasID int64) string {
	return fmt.Sprintf("canvas.%d", canvasID)
}

// Publish broadcasts one object event to the canvas's channel.
func (p *Publisher) Publish(ctx context.Context, canvasID int64, event domain.ObjectEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("marshal object event", "canvas_id", canvasID, "error", err)
		return
	}
	if err := p.client.Publish(ctx, Channel(canvasID), payload).Err(); err != nil {
		p.logger.Warn("broadcast object event",
			"canvas_id", canvasID,
			"event", event.Type,
			"error", err,
		)
	}
}

// Close releases the underlying Redis connection.
func (p *Publisher) Close() error {
	return p.client.Close()
}
