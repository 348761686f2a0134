package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"s3purge/internal/domain"
	"s3purge/internal/purge"
)

const namespace = "s3purge"

// Metrics holds the collectors for a single purge run on a private registry.
type Metrics struct {
	reg *prometheus.Registry

	batches        *prometheus.CounterVec
	deleted        *prometheus.CounterVec
	simulated      *prometheus.CounterVec
	visibleObjects prometheus.Gauge
	totalVersions  prometheus.Gauge
	lastRun        prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		reg: reg,
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Deletion batches processed, by traversal mode and dry-run flag.",
		}, []string{"mode", "dry_run"}),
		deleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deleted_total",
			Help:      "Objects or object versions accepted for deletion by the store.",
		}, []string{"mode"}),
		simulated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulated_total",
			Help:      "Objects or object versions a dry run would have deleted.",
		}, []string{"mode"}),
		visibleObjects: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "visible_objects",
			Help:      "Live objects under the target prefix before deletion.",
		}),
		totalVersions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "total_versions",
			Help:      "Versions and delete markers under the target prefix before deletion.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
	}
	reg.MustRegister(m.batches, m.deleted, m.simulated, m.visibleObjects, m.totalVersions, m.lastRun)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// ObserveCounts records the pre-deletion totals.
func (m *Metrics) ObserveCounts(c domain.Counts) {
	m.visibleObjects.Set(float64(c.VisibleObjects))
	m.totalVersions.Set(float64(c.TotalVersions))
}

// ObserveBatch implements purge.Observer.
func (m *Metrics) ObserveBatch(mode purge.Mode, size int, dryRun bool) {
	m.batches.WithLabelValues(string(mode), strconv.FormatBool(dryRun)).Inc()
	if dryRun {
		m.simulated.WithLabelValues(string(mode)).Add(float64(size))
		return
	}
	m.deleted.WithLabelValues(string(mode)).Add(float64(size))
}

// MarkFinished stamps the run completion time.
func (m *Metrics) MarkFinished(t time.Time) {
	m.lastRun.Set(float64(t.Unix()))
}

// WriteTextfile dumps the registry in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

var _ purge.Observer = (*Metrics)(nil)
