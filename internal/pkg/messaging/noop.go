package messaging

import (
	"context"
	"log/slog"
	"time"
)

// Noop accepts and drops every message.
type Noop struct{}

// NewNoop returns a publisher that drops messages.
func NewNoop() *Noop { return &Noop{} }

// Publish logs the destination at debug level and discards msg.
func (*Noop) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}

	slog.DebugContext(ctx, "message dropped by noop publisher", "destination", destination, "size", len(msg.Body))
	return PublishResult{Topic: destination, Timestamp: time.Now()}, nil
}

// Close is a no-op.
func (*Noop) Close() error { return nil }
