package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound signals that the requested run does not exist.
var ErrNotFound = errors.New("run not found")

// Run is one finished aggregation pass as kept in the history table.
type Run struct {
	ID         uuid.UUID
	StartedAt  time.Time
	FinishedAt time.Time
	// Files and Bytes describe the input that was read.
	Files        int
	Bytes        int64
	Records      int64
	Unclassified int64
	// Object is where the document was written.
	Object string
	// Document is the aggregate JSON exactly as persisted.
	Document json.RawMessage
}

// RunRepository persists and serves run history.
type RunRepository interface {
	// SaveRun inserts a finished run. Saving the same ID twice is a no-op.
	SaveRun(ctx context.Context, run Run) error
	// GetRun loads one run or returns ErrNotFound.
	GetRun(ctx context.Context, id uuid.UUID) (Run, error)
	// ListRuns returns runs newest first.
	ListRuns(ctx context.Context, limit, offset int) ([]Run, error)
}
