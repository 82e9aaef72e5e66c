package messaging

import "context"

// Broker is the queue transport for asynchronous notification jobs.
// Publish marshals the message and pushes it onto the named channel;
// Subscribe streams raw payloads until the context is cancelled.
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}
