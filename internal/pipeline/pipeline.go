// Package pipeline runs one aggregation pass: it streams the listed survey
// files through the byte, record and aggregate stages and writes the final
// document once the input is exhausted.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/JakeFAU/survey-trends/internal/aggregate"
	"github.com/JakeFAU/survey-trends/internal/clock"
	"github.com/JakeFAU/survey-trends/internal/clock/system"
	idgen "github.com/JakeFAU/survey-trends/internal/id/uuid"
	"github.com/JakeFAU/survey-trends/internal/lister"
	"github.com/JakeFAU/survey-trends/internal/progress"
	"github.com/JakeFAU/survey-trends/internal/storage"
	"github.com/JakeFAU/survey-trends/internal/stream"
	"github.com/JakeFAU/survey-trends/internal/survey"
)

// Lister enumerates the input files of a run.
type Lister interface {
	List(dir string) (lister.Listing, error)
	Opener(dir string) func(name string) (io.ReadCloser, error)
}

// Reporter is told about a successful run after the document is persisted.
type Reporter interface {
	Report(ctx context.Context, result Result) error
}

// Config describes what a run reads, how it classifies and where it writes.
type Config struct {
	InputDir     string
	OutputObject string
	Years        []string
	Technologies []survey.Technology
	Likes        []string
	ChunkSize    int
}

// Result summarises a finished run.
type Result struct {
	RunID        uuid.UUID
	StartedAt    time.Time
	FinishedAt   time.Time
	Files        int
	Bytes        int64
	Records      int64
	Unclassified int64
	Aggregate    *aggregate.Table
	Document     []byte
	Object       string
}

// Runner owns the notifiers listeners subscribe to. Each call to Run is an
// independent pass with its own aggregate and progress state.
type Runner struct {
	cfg       Config
	lister    Lister
	sink      storage.Provider
	reporters []Reporter
	logger    *zap.Logger

	clock clock.Clock
	ids   IDGenerator

	progress  progress.Notifier[progress.Progress]
	aggregate progress.Notifier[*aggregate.Table]
	emitter   progress.Emitter
}

// IDGenerator mints run identifiers.
type IDGenerator interface {
	NewRunID() (uuid.UUID, error)
}

// Option customises a Runner.
type Option func(*Runner)

// WithLogger sets the runner's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock sets the clock used for run and event timestamps.
func WithClock(c clock.Clock) Option {
	return func(r *Runner) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithIDGenerator sets how run IDs are minted.
func WithIDGenerator(g IDGenerator) Option {
	return func(r *Runner) {
		if g != nil {
			r.ids = g
		}
	}
}

// WithReporters adds reporters invoked after a successful write.
func WithReporters(reporters ...Reporter) Option {
	return func(r *Runner) {
		r.reporters = append(r.reporters, reporters...)
	}
}

// WithEmitter relays run lifecycle, progress and aggregate events to an
// asynchronous emitter such as progress.Hub.
func WithEmitter(emitter progress.Emitter) Option {
	return func(r *Runner) {
		r.emitter = emitter
	}
}

// New builds a Runner.
func New(cfg Config, l Lister, sink storage.Provider, opts ...Option) *Runner {
	r := &Runner{
		cfg:    cfg,
		lister: l,
		sink:   sink,
		logger: zap.NewNop(),
		clock:  system.New(),
		ids:    idgen.NewGenerator(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OnProgress registers a listener called synchronously for every chunk read.
func (r *Runner) OnProgress(fn func(progress.Progress)) (unsubscribe func()) {
	return r.progress.Subscribe(fn)
}

// OnAggregate registers a listener called once per run with the final
// snapshot. Listeners must treat the table as read-only.
func (r *Runner) OnAggregate(fn func(*aggregate.Table)) (unsubscribe func()) {
	return r.aggregate.Subscribe(fn)
}

// Run executes one pass. The output document is written only after every
// record has been read; any failure before that leaves the destination
// untouched.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	ctx, span := otel.Tracer("github.com/JakeFAU/survey-trends/internal/pipeline").Start(ctx, "pipeline.run")
	defer span.End()

	runID, err := r.ids.NewRunID()
	if err != nil {
		return Result{}, fmt.Errorf("mint run id: %w", err)
	}
	res := Result{RunID: runID, StartedAt: r.clock.Now(), Object: r.cfg.OutputObject}
	logger := r.logger.With(zap.String("run_id", res.RunID.String()))
	span.SetAttributes(attribute.String("run.id", res.RunID.String()))

	err = r.run(ctx, &res, logger)
	res.FinishedAt = r.clock.Now()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.emit(res.RunID, progress.Event{Kind: progress.KindError, Dur: res.FinishedAt.Sub(res.StartedAt), Note: err.Error()})
		return res, err
	}
	r.emit(res.RunID, progress.Event{
		Kind:     progress.KindDone,
		Progress: progress.Progress{ProcessedBytes: res.Bytes, TotalBytes: res.Bytes},
		Records:  res.Records,
		Dur:      res.FinishedAt.Sub(res.StartedAt),
	})
	logger.Info("aggregation finished",
		zap.Int("files", res.Files),
		zap.Int64("bytes", res.Bytes),
		zap.Int64("records", res.Records),
		zap.Int64("unclassified", res.Unclassified),
		zap.String("object", res.Object),
	)

	for _, rep := range r.reporters {
		if rerr := rep.Report(ctx, res); rerr != nil {
			logger.Warn("run reporter failed", zap.Error(rerr))
		}
	}
	return res, nil
}

func (r *Runner) run(ctx context.Context, res *Result, logger *zap.Logger) error {
	listing, err := r.lister.List(r.cfg.InputDir)
	if err != nil {
		return err
	}
	res.Files = len(listing.Files)
	total := listing.TotalBytes()
	logger.Info("aggregation started",
		zap.String("input_dir", listing.Dir),
		zap.Int("files", res.Files),
		zap.Int64("total_bytes", total),
	)
	r.emit(res.RunID, progress.Event{Kind: progress.KindStart, Progress: progress.Progress{TotalBytes: total}})

	src := stream.NewConcat(ctx, r.lister.Opener(listing.Dir), listing.Names())
	defer func() {
		if cerr := src.Close(); cerr != nil {
			logger.Warn("failed to close input", zap.Error(cerr))
		}
	}()

	tracked := stream.NewProgressReader(src, total, func(p progress.Progress) {
		r.progress.Notify(p)
		r.emit(res.RunID, progress.Event{Kind: progress.KindProgress, Progress: p})
	})
	records := stream.NewSplitter[survey.Record](tracked, r.cfg.ChunkSize).Records()
	reduced := survey.NewClassifier(r.cfg.Technologies, r.cfg.Likes).Reduce(records)

	agg := aggregate.New(r.cfg.Years, survey.Keys(r.cfg.Technologies),
		aggregate.WithLogger(logger),
		aggregate.OnComplete(func(tbl *aggregate.Table) {
			r.aggregate.Notify(tbl)
			r.emit(res.RunID, progress.Event{Kind: progress.KindAggregate, Aggregate: tbl.Clone()})
		}),
	)
	doc, err := agg.Fold(reduced)
	res.Bytes = tracked.State().ProcessedBytes
	res.Records = agg.Records()
	res.Unclassified = agg.Unclassified()
	if err != nil {
		return fmt.Errorf("aggregate surveys: %w", err)
	}
	res.Aggregate = agg.Snapshot()
	res.Document = doc

	if err := r.sink.Save(ctx, r.cfg.OutputObject, doc); err != nil {
		return &SinkWriteError{Object: r.cfg.OutputObject, Err: err}
	}
	return nil
}

func (r *Runner) emit(runID uuid.UUID, evt progress.Event) {
	if r.emitter == nil {
		return
	}
	evt.RunID = runID
	evt.TS = r.clock.Now()
	r.emitter.Emit(evt)
}

// IsFatal reports whether err is one of the pipeline's terminal failures.
func IsFatal(err error) bool {
	var (
		srcErr   *stream.SourceReadError
		parseErr *stream.ParseError
		sinkErr  *SinkWriteError
	)
	return errors.As(err, &srcErr) || errors.As(err, &parseErr) || errors.As(err, &sinkErr)
}
