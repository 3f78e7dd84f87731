package messaging

import (
	"context"
	"strings"
)

// ChannelPrefix namespaces every channel the outbox relay publishes to.
const ChannelPrefix = "bloodbank."

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	// Subscribe delivers payloads until ctx is cancelled, then closes the channel.
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// ChannelFor maps an outbox event type to its pub/sub channel, for example
// BLOOD_REQUEST_EMERGENCY to bloodbank.blood_request_emergency.
func ChannelFor(eventType string) string {
	return ChannelPrefix + strings.ToLower(eventType)
}

// Consume calls handler for every message on channel until ctx is done.
// Handler errors go to onError and do not stop consumption.
func Consume(ctx context.Context, b Broker, channel string, handler func([]byte) error, onError func(error)) error {
	msgs, err := b.Subscribe(ctx, channel)
	if err != nil {
		return err
	}
	for msg := range msgs {
		if err := handler(msg); err != nil && onError != nil {
			onError(err)
		}
	}
	return ctx.Err()
}
