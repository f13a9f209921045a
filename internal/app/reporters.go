package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/survey-trends/internal/pipeline"
	"github.com/JakeFAU/survey-trends/internal/publisher"
	"github.com/JakeFAU/survey-trends/internal/store"
)

// HistoryReporter records finished runs in a RunRepository.
type HistoryReporter struct {
	Repo store.RunRepository
}

// Report saves res as a history row.
func (r HistoryReporter) Report(ctx context.Context, res pipeline.Result) error {
	run := store.Run{
		ID:           res.RunID,
		StartedAt:    res.StartedAt,
		FinishedAt:   res.FinishedAt,
		Files:        res.Files,
		Bytes:        res.Bytes,
		Records:      res.Records,
		Unclassified: res.Unclassified,
		Object:       res.Object,
		Document:     res.Document,
	}
	if err := r.Repo.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("record run history: %w", err)
	}
	return nil
}

// NoticeReporter announces finished runs through a Publisher.
type NoticeReporter struct {
	Publisher publisher.Publisher
	Logger    *zap.Logger
}

// Report publishes a completion notice for res.
func (r NoticeReporter) Report(ctx context.Context, res pipeline.Result) error {
	id, err := r.Publisher.Publish(ctx, publisher.Notice{
		RunID:        res.RunID,
		Object:       res.Object,
		StartedAt:    res.StartedAt,
		FinishedAt:   res.FinishedAt,
		Records:      res.Records,
		Unclassified: res.Unclassified,
		Aggregate:    res.Document,
	})
	if err != nil {
		return fmt.Errorf("publish completion notice: %w", err)
	}
	if r.Logger != nil {
		r.Logger.Debug("completion notice published", zap.String("message_id", id))
	}
	return nil
}
