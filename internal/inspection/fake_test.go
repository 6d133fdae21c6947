package inspection

import (
	"context"
	"fmt"

	"qscope/pkg/models"
)

// fakeTransport serves preloaded messages per endpoint, popping them like a
// queue would hide received messages.
type fakeTransport struct {
	queues  map[string][]models.RawMessage
	calls   map[string][]int
	failAt  map[string]int
	failErr error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		queues: make(map[string][]models.RawMessage),
		calls:  make(map[string][]int),
		failAt: make(map[string]int),
	}
}

func (f *fakeTransport) load(endpoint string, bodies ...string) {
	for _, b := range bodies {
		n := len(f.queues[endpoint])
		f.queues[endpoint] = append(f.queues[endpoint], models.RawMessage{
			ID:           fmt.Sprintf("%s-%d", endpoint, n),
			ReceiptToken: fmt.Sprintf("receipt-%d", n),
			Body:         b,
		})
	}
}

func (f *fakeTransport) Receive(_ context.Context, endpoint string, maxMessages, _ int) ([]models.RawMessage, error) {
	f.calls[endpoint] = append(f.calls[endpoint], maxMessages)
	if at, ok := f.failAt[endpoint]; ok && len(f.calls[endpoint]) == at {
		err := f.failErr
		if err == nil {
			err = fmt.Errorf("connection reset")
		}
		return nil, err
	}

	pending := f.queues[endpoint]
	n := maxMessages
	if n > len(pending) {
		n = len(pending)
	}
	batch := pending[:n]
	f.queues[endpoint] = pending[n:]
	return batch, nil
}

func (f *fakeTransport) Depth(_ context.Context, endpoint string) (int, error) {
	return len(f.queues[endpoint]), nil
}

func (f *fakeTransport) Ping(context.Context) error {
	return nil
}

func repeat(body string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = body
	}
	return out
}
