// Package metrics records run statistics as Prometheus collectors and dumps
// them in textfile-collector format, the usual scrape path for cron jobs.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder owns a private registry so repeated runs in tests never collide
// with the default registry.
type Recorder struct {
	registry *prometheus.Registry

	runsTotal       *prometheus.CounterVec
	pagesTotal      *prometheus.CounterVec
	recordsByClass  *prometheus.GaugeVec
	collectedTotal  prometheus.Gauge
	runDurationSecs prometheus.Gauge
}

// NewRecorder builds the collectors.
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Recorder{
		registry: registry,
		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "collector_runs_total",
			Help: "Collection runs, labeled by outcome.",
		}, []string{"outcome"}),
		pagesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "collector_detail_pages_total",
			Help: "Detail pages processed, labeled by result.",
		}, []string{"result"}),
		recordsByClass: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "collector_diff_records",
			Help: "Records classified by the last run's diff.",
		}, []string{"class"}),
		collectedTotal: factory.NewGauge(prometheus.GaugeOpts{
			Name: "collector_records_collected",
			Help: "Canonical records collected by the last run.",
		}),
		runDurationSecs: factory.NewGauge(prometheus.GaugeOpts{
			Name: "collector_run_duration_seconds",
			Help: "Wall-clock duration of the last run.",
		}),
	}
}

// RecordPage counts one detail page, result "ok" or "skipped".
func (r *Recorder) RecordPage(result string) {
	r.pagesTotal.WithLabelValues(result).Inc()
}

// RecordRun captures the run outcome and duration.
func (r *Recorder) RecordRun(success bool, elapsed time.Duration) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	r.runsTotal.WithLabelValues(outcome).Inc()
	r.runDurationSecs.Set(elapsed.Seconds())
}

// RecordDiff captures the classification counts of the run.
func (r *Recorder) RecordDiff(total, added, updated, deleted int) {
	r.collectedTotal.Set(float64(total))
	r.recordsByClass.WithLabelValues("new").Set(float64(added))
	r.recordsByClass.WithLabelValues("updated").Set(float64(updated))
	r.recordsByClass.WithLabelValues("deleted").Set(float64(deleted))
}

// WriteTextfile atomically dumps the registry to path for the node-exporter
// textfile collector. An empty path disables the dump.
func (r *Recorder) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}
