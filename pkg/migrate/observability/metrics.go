package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MigrationMetrics holds all Prometheus metrics for the migration
// pipeline. Runs are batch jobs, so these are typically scraped via a
// push gateway or inspected in tests; the orchestrator records them
// either way.
type MigrationMetrics struct {
	RecordsTotal      *prometheus.CounterVec
	StageSeconds      *prometheus.HistogramVec
	FuzzyMatchesTotal *prometheus.CounterVec
	CollisionsTotal   *prometheus.CounterVec
	RunsTotal         *prometheus.CounterVec
}

// NewMigrationMetrics creates a new set of migration metrics.
func NewMigrationMetrics(reg prometheus.Registerer) *MigrationMetrics {
	factory := promauto.With(reg)

	return &MigrationMetrics{
		RecordsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fpmigrate_records_total",
				Help: "Legacy records processed per stage, by outcome",
			},
			[]string{"stage", "outcome"},
		),
		StageSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fpmigrate_stage_seconds",
				Help:    "Wall time per migration stage",
				Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 600, 1800},
			},
			[]string{"stage"},
		),
		FuzzyMatchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fpmigrate_fuzzy_matches_total",
				Help: "Matches made via the relaxed last-name+date fallback",
			},
			[]string{"stage"},
		),
		CollisionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fpmigrate_index_collisions_total",
				Help: "Distinct target records contending for one composite key",
			},
			[]string{"stage"},
		),
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fpmigrate_runs_total",
				Help: "Migration runs by final status",
			},
			[]string{"status", "dry_run"},
		),
	}
}

// Outcome labels for RecordsTotal.
const (
	OutcomeCreated = "created"
	OutcomeExisted = "existed"
	OutcomeSkipped = "skipped"
	OutcomeError   = "error"
)

// RecordStage records the aggregate counts of one finished stage.
func (m *MigrationMetrics) RecordStage(stage string, created, existed, skipped, errors int, seconds float64) {
	m.RecordsTotal.WithLabelValues(stage, OutcomeCreated).Add(float64(created))
	m.RecordsTotal.WithLabelValues(stage, OutcomeExisted).Add(float64(existed))
	m.RecordsTotal.WithLabelValues(stage, OutcomeSkipped).Add(float64(skipped))
	m.RecordsTotal.WithLabelValues(stage, OutcomeError).Add(float64(errors))
	m.StageSeconds.WithLabelValues(stage).Observe(seconds)
}

// RecordMatching records the matching-specific counters for a stage.
func (m *MigrationMetrics) RecordMatching(stage string, fuzzy, collisions int) {
	m.FuzzyMatchesTotal.WithLabelValues(stage).Add(float64(fuzzy))
	m.CollisionsTotal.WithLabelValues(stage).Add(float64(collisions))
}

// RecordRun records the final status of a run.
func (m *MigrationMetrics) RecordRun(status string, dryRun bool) {
	label := "false"
	if dryRun {
		label = "true"
	}
	m.RunsTotal.WithLabelValues(status, label).Inc()
}
