package progress

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/JakeFAU/survey-trends/internal/aggregate"
)

// Progress is raised once per chunk read from the input files.
type Progress struct {
	ProcessedBytes int64 `json:"processedBytes"`
	TotalBytes     int64 `json:"totalBytes"`
}

// Percent returns ceil(processed/total*100). An empty input counts as done.
func (p Progress) Percent() int {
	return Percent(p.ProcessedBytes, p.TotalBytes)
}

// Percent computes the rounded-up completion percentage.
func Percent(processed, total int64) int {
	if total <= 0 {
		return 100
	}
	return int(math.Ceil(float64(processed) / float64(total) * 100))
}

// Kind labels what an Event reports.
type Kind string

// Supported event kinds.
const (
	KindStart     Kind = "RUN_START"
	KindProgress  Kind = "PROGRESS"
	KindAggregate Kind = "AGGREGATE"
	KindDone      Kind = "RUN_DONE"
	KindError     Kind = "RUN_ERROR"
)

// Event is the envelope relayed through the Hub to asynchronous sinks.
type Event struct {
	// RunID identifies the pipeline run that raised the event.
	RunID uuid.UUID
	// TS is when the event was raised.
	TS   time.Time
	Kind Kind
	// Progress is set for KindProgress, and for KindDone with the final counts.
	Progress Progress
	// Aggregate is a read-only snapshot, set for KindAggregate only.
	Aggregate *aggregate.Table
	// Records is the number of records folded, set for KindDone.
	Records int64
	// Dur is the run's wall time, set for KindDone and KindError.
	Dur time.Duration
	// Note carries low-volume context such as the error text.
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.RunID == uuid.Nil {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Kind {
	case KindStart, KindDone, KindError:
	case KindProgress:
		if e.Progress.ProcessedBytes < 0 || e.Progress.TotalBytes < 0 {
			return errors.New("progress byte counts must be >= 0")
		}
	case KindAggregate:
		if e.Aggregate == nil {
			return errors.New("aggregate event requires a snapshot")
		}
	default:
		return fmt.Errorf("unknown kind %q", e.Kind)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}
