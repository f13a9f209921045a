package sinks

import (
	"context"

	"go.uber.org/zap"

	"github.com/JakeFAU/survey-trends/internal/progress"
)

// LogSink writes run milestones as structured logs. Progress events are only
// logged when the rounded percentage changes, so per-chunk events do not
// flood the output.
type LogSink struct {
	logger      *zap.Logger
	lastPercent map[string]int
}

// NewLogSink wires a zap logger to the sink interface.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger, lastPercent: make(map[string]int)}
}

// Consume logs the batch. The Hub calls it from a single goroutine.
func (s *LogSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		run := evt.RunID.String()
		switch evt.Kind {
		case progress.KindStart:
			s.logger.Info("run started", zap.String("run_id", run), zap.Int64("total_bytes", evt.Progress.TotalBytes))
		case progress.KindProgress:
			pct := evt.Progress.Percent()
			if last, ok := s.lastPercent[run]; ok && last == pct {
				continue
			}
			s.lastPercent[run] = pct
			s.logger.Info("processing",
				zap.String("run_id", run),
				zap.Int("percent", pct),
				zap.Int64("processed_bytes", evt.Progress.ProcessedBytes),
				zap.Int64("total_bytes", evt.Progress.TotalBytes),
			)
		case progress.KindAggregate:
			for _, y := range evt.Aggregate.Years() {
				s.logger.Info("aggregate", zap.String("run_id", run), zap.String("year", y),
					zap.Int("total", evt.Aggregate.Total(y)))
			}
		case progress.KindDone:
			delete(s.lastPercent, run)
			s.logger.Info("run finished",
				zap.String("run_id", run),
				zap.Int64("records", evt.Records),
				zap.Duration("dur", evt.Dur),
			)
		case progress.KindError:
			delete(s.lastPercent, run)
			s.logger.Error("run failed", zap.String("run_id", run), zap.String("note", evt.Note), zap.Duration("dur", evt.Dur))
		}
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *LogSink) Close(context.Context) error {
	return nil
}
