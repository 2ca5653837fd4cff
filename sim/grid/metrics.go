package grid

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "wellrandom"
	metricsSubsystem = "grid"
)

// Metrics instruments grid execution. A nil *Metrics records nothing.
//
// Thread-safety: all operations are safe for concurrent use.
type Metrics struct {
	// CellsTotal counts finished cells. Labels: status (ok, error).
	CellsTotal *prometheus.CounterVec

	// CellDurationSeconds measures the wall time of one cell.
	CellDurationSeconds prometheus.Histogram

	// CellsInFlight tracks cells currently executing.
	CellsInFlight prometheus.Gauge

	// WorkersRecycledTotal counts workers retired after reaching their task cap.
	WorkersRecycledTotal prometheus.Counter
}

// NewMetrics creates the grid metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CellsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "cells_total",
			Help:      "Grid cells finished, by status",
		}, []string{"status"}),
		CellDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "cell_duration_seconds",
			Help:      "Wall time of one grid cell in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		CellsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "cells_in_flight",
			Help:      "Grid cells currently executing",
		}),
		WorkersRecycledTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "workers_recycled_total",
			Help:      "Workers retired after serving their maximum number of cells",
		}),
	}
}

func (m *Metrics) cellStarted() {
	if m == nil {
		return
	}
	m.CellsInFlight.Inc()
}

func (m *Metrics) cellFinished(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.CellsInFlight.Dec()
	m.CellDurationSeconds.Observe(d.Seconds())
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.CellsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) workerRecycled() {
	if m == nil {
		return
	}
	m.WorkersRecycledTotal.Inc()
}
