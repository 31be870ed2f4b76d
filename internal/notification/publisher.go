package notification

import "context"

// Publisher defines the interface for publishing notification payloads.
// retained payloads replace the previous value on the topic, which is how
// indicator updates re-issue without duplicating.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte, retained bool) error
	Close() error
}
