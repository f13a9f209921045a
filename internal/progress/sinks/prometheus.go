package sinks

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JakeFAU/survey-trends/internal/progress"
)

// PrometheusSink exports run progress and the latest aggregate as metrics.
type PrometheusSink struct {
	runsStarted    prometheus.Counter
	runsCompleted  *prometheus.CounterVec
	processedBytes prometheus.Gauge
	totalBytes     prometheus.Gauge
	records        prometheus.Counter
	runDuration    *prometheus.HistogramVec
	wouldUse       *prometheus.GaugeVec
}

// NewPrometheusSink registers the collectors against the provided registry.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		runsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "survey_runs_started_total",
			Help: "Total aggregation runs that have started.",
		}),
		runsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "survey_runs_completed_total",
			Help: "Total aggregation runs completed partitioned by result.",
		}, []string{"result"}),
		processedBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "survey_processed_bytes",
			Help: "Bytes read so far by the current run.",
		}),
		totalBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "survey_input_bytes",
			Help: "Total input bytes of the current run.",
		}),
		records: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "survey_records_total",
			Help: "Survey records folded into aggregates.",
		}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "survey_run_duration_seconds",
			Help:    "Wall time per run.",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		}, []string{"result"}),
		wouldUse: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "survey_would_use",
			Help: "Respondents who would use a technology, by survey year.",
		}, []string{"year", "technology"}),
	}
	for _, collector := range []prometheus.Collector{
		s.runsStarted,
		s.runsCompleted,
		s.processedBytes,
		s.totalBytes,
		s.records,
		s.runDuration,
		s.wouldUse,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the collectors from the batch.
func (s *PrometheusSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		switch evt.Kind {
		case progress.KindStart:
			s.runsStarted.Inc()
			s.processedBytes.Set(0)
			s.totalBytes.Set(float64(evt.Progress.TotalBytes))
		case progress.KindProgress:
			s.processedBytes.Set(float64(evt.Progress.ProcessedBytes))
			s.totalBytes.Set(float64(evt.Progress.TotalBytes))
		case progress.KindAggregate:
			for _, y := range evt.Aggregate.Years() {
				for _, tech := range evt.Aggregate.Technologies() {
					s.wouldUse.WithLabelValues(y, tech).Set(float64(evt.Aggregate.Count(y, tech)))
				}
			}
		case progress.KindDone:
			s.runsCompleted.WithLabelValues("success").Inc()
			s.records.Add(float64(evt.Records))
			s.observeDuration(evt, "success")
		case progress.KindError:
			s.runsCompleted.WithLabelValues("error").Inc()
			s.observeDuration(evt, "error")
		}
	}
	return nil
}

func (s *PrometheusSink) observeDuration(evt progress.Event, label string) {
	if evt.Dur > 0 {
		s.runDuration.WithLabelValues(label).Observe(evt.Dur.Seconds())
	}
}

// Close implements the Sink interface; it performs no action.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}
