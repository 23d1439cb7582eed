// Package metrics exports the outcome of a run to Prometheus. goalwatch is a
// short-lived batch job, so collectors live on a private registry and are
// pushed to a Pushgateway instead of being scraped.
package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/albapepper/scoracle-goalwatch/internal/monitor"
)

const jobName = "goalwatch"

// RunSink records run results on its own registry.
type RunSink struct {
	registry *prometheus.Registry
	games    *prometheus.GaugeVec
	failures *prometheus.GaugeVec
	duration prometheus.Gauge
	lastRun  prometheus.Gauge
	logger   *slog.Logger
}

// NewRunSink creates a sink with every collector registered.
func NewRunSink(logger *slog.Logger) *RunSink {
	if logger == nil {
		logger = slog.Default()
	}
	s := &RunSink{
		registry: prometheus.NewRegistry(),
		logger:   logger,
	}
	s.games = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "goalwatch_run_games",
		Help: "Games counted at each pipeline stage in the last run.",
	}, []string{"stage"})
	s.failures = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "goalwatch_run_failures",
		Help: "Recoverable failures by kind in the last run.",
	}, []string{"kind"})
	s.duration = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "goalwatch_run_duration_seconds",
		Help: "Wall time of the last run in seconds.",
	})
	s.lastRun = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "goalwatch_last_run_timestamp_seconds",
		Help: "Unix time the last run completed.",
	})

	s.register(s.games, "goalwatch_run_games")
	s.register(s.failures, "goalwatch_run_failures")
	s.register(s.duration, "goalwatch_run_duration_seconds")
	s.register(s.lastRun, "goalwatch_last_run_timestamp_seconds")
	return s
}

// register logs registration errors without propagating them.
func (s *RunSink) register(c prometheus.Collector, name string) {
	if err := s.registry.Register(c); err != nil {
		s.logger.Warn("metrics: failed to register collector", "name", name, "error", err)
	}
}

// Registry exposes the gatherer, mainly for tests.
func (s *RunSink) Registry() *prometheus.Registry {
	return s.registry
}

// Observe sets every collector from r.
func (s *RunSink) Observe(r monitor.Result) {
	s.games.WithLabelValues("examined").Set(float64(r.GamesExamined))
	s.games.WithLabelValues("qualifying").Set(float64(r.GamesQualifying))
	s.games.WithLabelValues("goal_detected").Set(float64(r.GoalsDetected))
	s.games.WithLabelValues("already_notified").Set(float64(r.AlreadyNotified))
	s.games.WithLabelValues("notified").Set(float64(r.NotificationsSent))

	s.failures.WithLabelValues("fetch").Set(float64(r.FetchErrors))
	s.failures.WithLabelValues("data_quality").Set(float64(r.DataQualityIssues))
	s.failures.WithLabelValues("notify").Set(float64(r.NotifyFailures))
	s.failures.WithLabelValues("ledger_lookup").Set(float64(r.LedgerLookupErrors))
	s.failures.WithLabelValues("ledger_write").Set(float64(r.LedgerWriteErrors))
	s.failures.WithLabelValues("concurrent_record").Set(float64(r.ConcurrentRecords))

	s.duration.Set(r.Duration.Seconds())
	s.lastRun.SetToCurrentTime()
}

// Push sends the registry to the Pushgateway at url, grouped by team.
func (s *RunSink) Push(ctx context.Context, url string, teamID int) error {
	err := push.New(url, jobName).
		Gatherer(s.registry).
		Grouping("team_id", strconv.Itoa(teamID)).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
