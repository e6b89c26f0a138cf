// Package metrics provides Prometheus metrics for the timestore service
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nainya/timestore/pkg/history"
	"github.com/nainya/timestore/pkg/timeline"
	"github.com/nainya/timestore/pkg/workspace"
)

// Metrics holds all Prometheus metrics for timestore
type Metrics struct {
	// gRPC request metrics
	GrpcRequestsTotal    *prometheus.CounterVec
	GrpcRequestDuration  *prometheus.HistogramVec
	GrpcRequestsInFlight prometheus.Gauge

	// Timeline metrics
	MarksTotal       prometheus.Counter
	RollsTotal       *prometheus.CounterVec
	CurrentMarker    prometheus.Gauge
	ObjectsTotal     *prometheus.GaugeVec
	OperationLatency *prometheus.HistogramVec

	// Server metrics
	ServerUptimeSeconds prometheus.Gauge
	ServerStartTime     time.Time
}

// NewMetrics creates all metrics and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{
		ServerStartTime: time.Now(),
	}

	m.GrpcRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timestore_grpc_requests_total",
			Help: "Total number of gRPC requests",
		},
		[]string{"method", "status"},
	)

	m.GrpcRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "timestore_grpc_request_duration_seconds",
			Help:    "Duration of gRPC requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	m.GrpcRequestsInFlight = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "timestore_grpc_requests_in_flight",
			Help: "Number of gRPC requests currently being processed",
		},
	)

	m.MarksTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "timestore_marks_total",
			Help: "Total number of marks recorded",
		},
	)

	m.RollsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timestore_rolls_total",
			Help: "Total number of roll requests by direction and outcome",
		},
		[]string{"direction", "status"},
	)

	m.CurrentMarker = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "timestore_current_marker",
			Help: "Position of the marker the timeline is at",
		},
	)

	m.ObjectsTotal = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "timestore_objects",
			Help: "Number of timeline objects by state",
		},
		[]string{"state"},
	)

	m.OperationLatency = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "timestore_timeline_operation_duration_seconds",
			Help:    "Duration of timeline operations in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"operation"},
	)

	m.ServerUptimeSeconds = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "timestore_server_uptime_seconds",
			Help: "Server uptime in seconds",
		},
	)

	return m
}

// RunUptime updates the uptime gauge every interval until ctx is done
func (m *Metrics) RunUptime(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		m.ServerUptimeSeconds.Set(time.Since(m.ServerStartTime).Seconds())
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RecordGrpcRequest records a gRPC request with its status
func (m *Metrics) RecordGrpcRequest(method string, status string, duration time.Duration) {
	m.GrpcRequestsTotal.WithLabelValues(method, status).Inc()
	m.GrpcRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordTimelineOperation records the latency of a mark or roll
func (m *Metrics) RecordTimelineOperation(operation string, duration time.Duration) {
	m.OperationLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveMark implements workspace.Observer
func (m *Metrics) ObserveMark(marker history.Marker) {
	m.MarksTotal.Inc()
	m.CurrentMarker.Set(float64(marker.Position()))
}

// ObserveRoll implements workspace.Observer
func (m *Metrics) ObserveRoll(dir workspace.Direction, err error) {
	m.RollsTotal.WithLabelValues(string(dir), rollStatus(err)).Inc()
}

// ObserveObjects implements workspace.Observer
func (m *Metrics) ObserveObjects(alive, pending int) {
	m.ObjectsTotal.WithLabelValues("alive").Set(float64(alive))
	m.ObjectsTotal.WithLabelValues("pending").Set(float64(pending))
}

// SetCurrentMarker records the marker the timeline moved to
func (m *Metrics) SetCurrentMarker(marker history.Marker) {
	m.CurrentMarker.Set(float64(marker.Position()))
}

func rollStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, timeline.ErrRollBackBlocked), errors.Is(err, timeline.ErrRollForwardBlocked):
		return "blocked"
	default:
		return "error"
	}
}
