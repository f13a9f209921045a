// Package app builds the long-lived services of an aggregation run and holds
// them for the command layer, acting as a dependency injection container.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/JakeFAU/survey-trends/internal/api"
	"github.com/JakeFAU/survey-trends/internal/config"
	"github.com/JakeFAU/survey-trends/internal/lister"
	"github.com/JakeFAU/survey-trends/internal/logging"
	"github.com/JakeFAU/survey-trends/internal/metrics"
	"github.com/JakeFAU/survey-trends/internal/pipeline"
	"github.com/JakeFAU/survey-trends/internal/progress"
	progresssinks "github.com/JakeFAU/survey-trends/internal/progress/sinks"
	gcppublisher "github.com/JakeFAU/survey-trends/internal/publisher/pubsub"
	"github.com/JakeFAU/survey-trends/internal/storage"
	gcsstorage "github.com/JakeFAU/survey-trends/internal/storage/gcs"
	localstorage "github.com/JakeFAU/survey-trends/internal/storage/local"
	memorystorage "github.com/JakeFAU/survey-trends/internal/storage/memory"
	pgstore "github.com/JakeFAU/survey-trends/internal/store/postgres"
	"github.com/JakeFAU/survey-trends/internal/telemetry"
)

// Version is stamped at build time.
var Version = "dev"

const closeTimeout = 10 * time.Second

// App contains the dependencies of one aggregation process.
type App struct {
	cfg      config.Config
	logger   *zap.Logger
	fs       afero.Fs
	registry *prometheus.Registry

	sink      storage.Provider
	hub       *progress.Hub
	state     *api.State
	apiServer *api.Server
	runner    *pipeline.Runner

	gcsClient      *gcs.Client
	runStore       *pgstore.RunStore
	notices        *gcppublisher.Publisher
	tracerShutdown func(context.Context) error
}

// Option customises Build, mostly for tests.
type Option func(*App)

// WithLogger replaces the logger built from the logging config.
func WithLogger(logger *zap.Logger) Option {
	return func(a *App) { a.logger = logger }
}

// WithFs reads input from fs instead of the OS file system.
func WithFs(fs afero.Fs) Option {
	return func(a *App) { a.fs = fs }
}

// WithSink writes the document to sink instead of the configured backend.
func WithSink(sink storage.Provider) Option {
	return func(a *App) { a.sink = sink }
}

// Build creates the application's dependencies.
func Build(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	app := &App{cfg: cfg, fs: afero.NewOsFs(), registry: prometheus.NewRegistry()}
	for _, opt := range opts {
		opt(app)
	}
	if app.logger == nil {
		logger, err := logging.New(logging.Options{
			Development: cfg.Logging.Development,
			Level:       cfg.Logging.Level,
		})
		if err != nil {
			return nil, fmt.Errorf("logger init failed: %w", err)
		}
		app.logger = logger
		zap.ReplaceGlobals(logger)
	}

	tp, err := telemetry.InitTracerProvider(ctx, "survey-trends", Version)
	if err != nil {
		return nil, fmt.Errorf("tracer init failed: %w", err)
	}
	app.tracerShutdown = tp.Shutdown

	app.logger.Info("building application dependencies", zap.String("version", Version))
	if err := app.registry.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("register go collector: %w", err)
	}

	if err := app.build(ctx); err != nil {
		_ = app.Close(ctx)
		return nil, err
	}
	return app, nil
}

func (a *App) build(ctx context.Context) error {
	if a.sink == nil {
		sink, err := a.setupStorage(ctx)
		if err != nil {
			return err
		}
		a.sink = sink
	}

	reporters, err := a.setupReporters(ctx)
	if err != nil {
		return err
	}

	hub, err := a.setupProgress()
	if err != nil {
		return err
	}
	a.hub = hub

	if err := a.setupServer(); err != nil {
		return err
	}

	_, object := a.cfg.OutputLocation()
	a.runner = pipeline.New(pipeline.Config{
		InputDir:     a.cfg.Input.Dir,
		OutputObject: object,
		Years:        a.cfg.Survey.Years,
		Technologies: a.cfg.Survey.Technologies,
		Likes:        a.cfg.Survey.Likes,
		ChunkSize:    a.cfg.Input.ChunkSize,
	}, lister.New(a.fs), a.sink,
		pipeline.WithLogger(a.logger.Named("pipeline")),
		pipeline.WithEmitter(a.hub),
		pipeline.WithReporters(reporters...),
	)
	return nil
}

func (a *App) setupStorage(ctx context.Context) (storage.Provider, error) {
	dir, _ := a.cfg.OutputLocation()
	switch a.cfg.Output.Backend {
	case "gcs":
		a.logger.Info("using GCS storage backend", zap.String("bucket", a.cfg.Output.GCSBucket))
		client, err := gcs.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("gcs client init failed: %w", err)
		}
		a.gcsClient = client
		store, err := gcsstorage.New(client, gcsstorage.Config{
			Bucket:      a.cfg.Output.GCSBucket,
			ContentType: a.cfg.Output.ContentType,
		})
		if err != nil {
			return nil, fmt.Errorf("gcs blob store init failed: %w", err)
		}
		return store, nil
	case "local":
		a.logger.Info("using local storage backend", zap.String("path", a.cfg.Output.Path))
		store, err := localstorage.New(localstorage.Config{BaseDir: dir})
		if err != nil {
			return nil, fmt.Errorf("local blob store init failed: %w", err)
		}
		return store, nil
	case "memory":
		a.logger.Info("using in-memory storage backend")
		return memorystorage.NewBlobStore(), nil
	default:
		a.logger.Warn("output backend is none, the document will be discarded")
		return &storage.NoOpProvider{}, nil
	}
}

func (a *App) setupReporters(ctx context.Context) ([]pipeline.Reporter, error) {
	var reporters []pipeline.Reporter
	if a.cfg.DB.DSN == "" {
		a.logger.Debug("no db.dsn configured, run history disabled")
	} else {
		runStore, err := pgstore.New(ctx, pgstore.Config{
			DSN:      a.cfg.DB.DSN,
			Table:    a.cfg.DB.Table,
			MaxConns: a.cfg.DB.MaxConns,
		})
		if err != nil {
			return nil, fmt.Errorf("run store init failed: %w", err)
		}
		a.runStore = runStore
		if err := runStore.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("run store schema: %w", err)
		}
		a.logger.Info("run history enabled", zap.String("table", a.cfg.DB.Table))
		reporters = append(reporters, HistoryReporter{Repo: runStore})
	}

	if a.cfg.PubSub.TopicName == "" {
		a.logger.Debug("no pubsub topic configured, completion notices disabled")
	} else {
		pub, err := gcppublisher.Dial(ctx, a.cfg.PubSub.ProjectID, a.cfg.PubSub.TopicName)
		if err != nil {
			return nil, fmt.Errorf("pubsub publisher init failed: %w", err)
		}
		a.notices = pub
		a.logger.Info("completion notices enabled", zap.String("topic", a.cfg.PubSub.TopicName))
		reporters = append(reporters, NoticeReporter{Publisher: pub, Logger: a.logger.Named("notice")})
	}
	return reporters, nil
}

func (a *App) setupProgress() (*progress.Hub, error) {
	promSink, err := progresssinks.NewPrometheusSink(a.registry)
	if err != nil {
		return nil, fmt.Errorf("prometheus sink init failed: %w", err)
	}
	sinks := []progress.Sink{
		progresssinks.NewLogSink(a.logger.Named("progress")),
		promSink,
	}
	if a.cfg.Server.Enabled {
		a.state = api.NewState(api.NewFeed(a.logger.Named("feed")))
		sinks = append(sinks, a.state)
	}
	return progress.NewHub(progress.HubConfig{
		BufferSize:     a.cfg.Progress.BufferSize,
		MaxBatchEvents: a.cfg.Progress.MaxBatchEvents,
		MaxBatchWait:   a.cfg.MaxBatchWait(),
		Logger:         a.logger.Named("hub"),
	}, sinks...), nil
}

func (a *App) setupServer() error {
	if !a.cfg.Server.Enabled {
		return nil
	}
	httpMetrics, err := metrics.NewHTTP(a.registry)
	if err != nil {
		return fmt.Errorf("http metrics init failed: %w", err)
	}
	opts := api.Options{
		State:        a.state,
		Technologies: a.cfg.Survey.Technologies,
		Years:        a.cfg.Survey.Years,
		Logger:       a.logger.Named("api"),
		Gatherer:     a.registry,
		Metrics:      httpMetrics,
	}
	if a.runStore != nil {
		opts.Runs = a.runStore
	}
	a.apiServer = api.NewServer(opts)
	return nil
}

// Runner exposes the pipeline so callers can subscribe to its notifiers.
func (a *App) Runner() *pipeline.Runner {
	return a.runner
}

// Logger returns the application logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Sink returns the document destination.
func (a *App) Sink() storage.Provider {
	return a.sink
}

// Run performs one aggregation pass. With the server enabled the API is up
// for the duration of the run and, when linger is set, until ctx is
// cancelled or the process is signalled.
func (a *App) Run(ctx context.Context) (pipeline.Result, error) {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if a.apiServer == nil {
		return a.runner.Run(ctx)
	}
	ln, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(a.cfg.Server.Port)))
	if err != nil {
		return pipeline.Result{}, fmt.Errorf("listen: %w", err)
	}
	return a.runWithServer(ctx, ln)
}

func (a *App) runWithServer(ctx context.Context, ln net.Listener) (pipeline.Result, error) {
	srvCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	srvErr := make(chan error, 1)
	go func() { srvErr <- a.apiServer.Serve(srvCtx, ln) }()

	res, err := a.runner.Run(ctx)
	if err == nil && a.cfg.Server.Linger {
		a.logger.Info("run finished, serving results until interrupted",
			zap.String("addr", ln.Addr().String()))
		select {
		case <-ctx.Done():
		case serr := <-srvErr:
			return res, serr
		}
	}
	cancel()
	if serr := <-srvErr; serr != nil {
		a.logger.Warn("http server stopped with error", zap.Error(serr))
	}
	return res, err
}

// Close gracefully shuts down the application.
func (a *App) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
	defer cancel()

	var errs []error
	if a.hub != nil {
		if err := a.hub.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("progress hub close: %w", err))
		}
	}
	a.closeInfrastructure(ctx)
	if a.tracerShutdown != nil {
		if err := a.tracerShutdown(ctx); err != nil {
			a.logger.Warn("tracer shutdown failed", zap.Error(err))
		}
	}
	a.logger.Info("shutdown complete")
	_ = a.logger.Sync()
	return errors.Join(errs...)
}

func (a *App) closeInfrastructure(_ context.Context) {
	if a.notices != nil {
		if err := a.notices.Close(); err != nil {
			a.logger.Warn("pubsub publisher close failed", zap.Error(err))
		}
		a.notices = nil
	}
	if a.runStore != nil {
		a.runStore.Close()
		a.runStore = nil
	}
	if a.gcsClient != nil {
		if err := a.gcsClient.Close(); err != nil {
			a.logger.Warn("gcs client close failed", zap.Error(err))
		}
		a.gcsClient = nil
	}
}
