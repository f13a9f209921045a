// Package publisher announces finished runs to downstream consumers.
package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Notice is the completion message published after a document is persisted.
type Notice struct {
	RunID        uuid.UUID       `json:"run_id"`
	Object       string          `json:"object"`
	StartedAt    time.Time       `json:"started_at"`
	FinishedAt   time.Time       `json:"finished_at"`
	Records      int64           `json:"records"`
	Unclassified int64           `json:"unclassified"`
	Aggregate    json.RawMessage `json:"aggregate"`
}

// Publisher sends notices and returns the broker-assigned message ID.
type Publisher interface {
	Publish(ctx context.Context, notice Notice) (string, error)
}
