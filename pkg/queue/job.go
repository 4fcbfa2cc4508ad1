package queue

import (
	"context"
	"encoding/json"
)

// Job handles every message of one type.
type Job interface {
	// Name identifies the job in logs.
	Name() string

	// Type is the message type routed to this job.
	Type() string

	// Handle processes one message payload. Returning an error schedules a retry.
	Handle(ctx context.Context, payload json.RawMessage) error
}
