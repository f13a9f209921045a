package api

import (
	"context"
	"sync"
	"time"

	"github.com/JakeFAU/survey-trends/internal/aggregate"
	"github.com/JakeFAU/survey-trends/internal/progress"
)

// RunStatus describes where the latest run is in its lifecycle.
type RunStatus string

// Run statuses reported by /v1/progress.
const (
	StatusIdle    RunStatus = "idle"
	StatusRunning RunStatus = "running"
	StatusDone    RunStatus = "done"
	StatusFailed  RunStatus = "failed"
)

// Snapshot is the progress view of the latest run.
type Snapshot struct {
	RunID          string    `json:"runId,omitempty"`
	Status         RunStatus `json:"status"`
	ProcessedBytes int64     `json:"processedBytes"`
	TotalBytes     int64     `json:"totalBytes"`
	Percent        int       `json:"percent"`
	Records        int64     `json:"records,omitempty"`
	Error          string    `json:"error,omitempty"`
	UpdatedAt      time.Time `json:"updatedAt,omitzero"`
}

// State is a progress.Sink that keeps the latest run's view for the HTTP
// handlers and forwards every event to the websocket feed.
type State struct {
	mu    sync.RWMutex
	snap  Snapshot
	table *aggregate.Table
	feed  *Feed
}

var _ progress.Sink = (*State)(nil)

// NewState returns an idle State. feed may be nil.
func NewState(feed *Feed) *State {
	return &State{snap: Snapshot{Status: StatusIdle}, feed: feed}
}

// Consume applies the batch in order.
func (s *State) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		s.apply(evt)
		if s.feed != nil {
			s.feed.Broadcast(newEventMessage(evt))
		}
	}
	return nil
}

func (s *State) apply(evt progress.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runID := evt.RunID.String()
	if evt.Kind != progress.KindStart && s.snap.RunID != "" && s.snap.RunID != runID {
		// Late event from a superseded run.
		return
	}
	switch evt.Kind {
	case progress.KindStart:
		s.snap = Snapshot{RunID: runID, Status: StatusRunning, TotalBytes: evt.Progress.TotalBytes}
		s.table = nil
	case progress.KindProgress:
		s.snap.ProcessedBytes = evt.Progress.ProcessedBytes
		s.snap.TotalBytes = evt.Progress.TotalBytes
	case progress.KindAggregate:
		s.table = evt.Aggregate
	case progress.KindDone:
		s.snap.Status = StatusDone
		s.snap.ProcessedBytes = evt.Progress.ProcessedBytes
		s.snap.TotalBytes = evt.Progress.TotalBytes
		s.snap.Records = evt.Records
	case progress.KindError:
		s.snap.Status = StatusFailed
		s.snap.Error = evt.Note
	}
	s.snap.RunID = runID
	s.snap.Percent = progress.Percent(s.snap.ProcessedBytes, s.snap.TotalBytes)
	s.snap.UpdatedAt = evt.TS
}

// Progress returns the current snapshot.
func (s *State) Progress() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Aggregate returns the latest completed aggregate, or nil before the first
// run completes. The table is shared and must not be modified.
func (s *State) Aggregate() *aggregate.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table
}

// Close disconnects websocket clients.
func (s *State) Close(context.Context) error {
	if s.feed != nil {
		s.feed.Close()
	}
	return nil
}

type eventMessage struct {
	Type      progress.Kind    `json:"type"`
	RunID     string           `json:"runId"`
	TS        time.Time        `json:"ts"`
	Progress  *progressPayload `json:"progress,omitempty"`
	Aggregate *aggregate.Table `json:"aggregate,omitempty"`
	Records   int64            `json:"records,omitempty"`
	Error     string           `json:"error,omitempty"`
}

type progressPayload struct {
	progress.Progress
	Percent int `json:"percent"`
}

func newEventMessage(evt progress.Event) eventMessage {
	msg := eventMessage{
		Type:      evt.Kind,
		RunID:     evt.RunID.String(),
		TS:        evt.TS,
		Aggregate: evt.Aggregate,
		Records:   evt.Records,
	}
	switch evt.Kind {
	case progress.KindStart, progress.KindProgress, progress.KindDone:
		msg.Progress = &progressPayload{Progress: evt.Progress, Percent: evt.Progress.Percent()}
	case progress.KindError:
		msg.Error = evt.Note
	}
	return msg
}
