package transport

import (
	"context"

	"qscope/pkg/models"
)

// Transport is the read-only view of a queue service the inspection engine
// needs. Receive never deletes or acknowledges messages, but received
// messages stay invisible to other consumers until their visibility timeout
// expires.
type Transport interface {
	Receive(ctx context.Context, endpoint string, maxMessages, waitSeconds int) ([]models.RawMessage, error)
	Depth(ctx context.Context, endpoint string) (int, error)
	Ping(ctx context.Context) error
}
