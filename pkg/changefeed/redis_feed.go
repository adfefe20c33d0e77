package changefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.uber.org/zap"
)

// PubSub is the subset of the Redis client the feed needs.
type PubSub interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, io.Closer, error)
}

// RedisFeed distributes events over a Redis pub/sub channel so every
// instance of the service sees writes made by the others.
type RedisFeed struct {
	ps      PubSub
	channel string
	logger  *zap.Logger
}

// NewRedisFeed creates a feed on channel.
func NewRedisFeed(ps PubSub, channel string, logger *zap.Logger) *RedisFeed {
	return &RedisFeed{ps: ps, channel: channel, logger: logger}
}

// Publish encodes evt as JSON and publishes it.
func (f *RedisFeed) Publish(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode change event: %w", err)
	}
	return f.ps.Publish(ctx, f.channel, payload)
}

// Subscribe decodes events from the channel until ctx is done.
// Undecodable payloads are logged and skipped.
func (f *RedisFeed) Subscribe(ctx context.Context) (<-chan Event, error) {
	raw, closer, err := f.ps.Subscribe(ctx, f.channel)
	if err != nil {
		return nil, err
	}

	out := make(chan Event)
	go func() {
		defer close(out)
		defer closer.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case payload, ok := <-raw:
				if !ok {
					return
				}
				var evt Event
				if err := json.Unmarshal(payload, &evt); err != nil {
					f.logger.Warn("discarding malformed change event",
						zap.String("channel", f.channel), zap.Error(err))
					continue
				}
				select {
				case out <- evt:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
