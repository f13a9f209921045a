package aggregate

import (
	"encoding/json"
	"fmt"
	"iter"

	"go.uber.org/zap"

	"github.com/JakeFAU/survey-trends/internal/survey"
)

// Aggregator owns the Table for one pipeline run.
type Aggregator struct {
	table        *Table
	onComplete   func(*Table)
	logger       *zap.Logger
	records      int64
	unclassified int64
}

// Option customises an Aggregator.
type Option func(*Aggregator)

// WithLogger attaches a logger used for unclassified records.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Aggregator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// OnComplete registers the callback invoked once with a read-only snapshot
// after the record stream is exhausted.
func OnComplete(fn func(*Table)) Option {
	return func(a *Aggregator) {
		a.onComplete = fn
	}
}

// New returns an Aggregator whose table is pre-populated with zero counts.
func New(years, techs []string, opts ...Option) *Aggregator {
	a := &Aggregator{
		table:  NewTable(years, techs),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Add folds one reduced record into the table. It reports false when the
// record's year is not configured; such records are skipped.
func (a *Aggregator) Add(rec survey.Reduced) bool {
	a.records++
	year := rec.Year.String()
	if _, ok := a.table.rows[year]; !ok {
		a.unclassified++
		a.logger.Debug("skipping record outside configured years", zap.String("year", year))
		return false
	}
	for _, tech := range a.table.techs {
		if rec.Votes[tech] {
			a.table.add(year, tech, 1)
		}
	}
	return true
}

// Records is the number of records folded so far, classified or not.
func (a *Aggregator) Records() int64 { return a.records }

// Unclassified is the number of records whose year was not configured.
func (a *Aggregator) Unclassified() int64 { return a.unclassified }

// Snapshot returns a deep copy of the current table.
func (a *Aggregator) Snapshot() *Table {
	return a.table.Clone()
}

// Fold drains src into the table. When src ends cleanly it fires the
// completion callback once and returns the serialized table. On an upstream
// error nothing is emitted and the error is returned unchanged.
func (a *Aggregator) Fold(src iter.Seq2[survey.Reduced, error]) ([]byte, error) {
	for rec, err := range src {
		if err != nil {
			return nil, err
		}
		a.Add(rec)
	}
	snapshot := a.Snapshot()
	if a.onComplete != nil {
		a.onComplete(snapshot.Clone())
	}
	doc, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("encode aggregate: %w", err)
	}
	return doc, nil
}
