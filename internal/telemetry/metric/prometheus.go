package metric

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/common/expfmt"

	"github.com/yndnr/rawhttpd/internal/infra/buildinfo"
)

const namespace = "rawhttpd"

// ContentType is the media type of the text exposition format.
const ContentType = "text/plain; version=0.0.4; charset=utf-8"

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	// Session metrics
	SessionsCreatedTotal prometheus.Counter
	SessionsRemovedTotal *prometheus.CounterVec

	// Request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ParseErrors     *prometheus.CounterVec

	// Connection metrics
	ConnectionsActive   prometheus.Gauge
	ConnectionsAccepted prometheus.Counter
}

// NewRegistry creates a registry with the application metrics plus the Go
// runtime and process collectors.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),

		SessionsCreatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "created_total",
			Help:      "Sessions issued",
		}),
		SessionsRemovedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "removed_total",
			Help:      "Sessions removed, by reason (expired, invalidated)",
		}, []string{"reason"}),

		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Requests answered, by surface and status code",
		}, []string{"surface", "code"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Time from parsed request to finalized response, by surface",
			Buckets:   prometheus.DefBuckets,
		}, []string{"surface"}),
		ParseErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "parse_errors_total",
			Help:      "Requests rejected by the parser, by kind",
		}, []string{"kind"}),

		ConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "connections_active",
			Help:      "Connections currently being served",
		}),
		ConnectionsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "connections_accepted_total",
			Help:      "Connections accepted",
		}),
	}

	r.registry.MustRegister(
		r.SessionsCreatedTotal,
		r.SessionsRemovedTotal,
		r.RequestsTotal,
		r.RequestDuration,
		r.ParseErrors,
		r.ConnectionsActive,
		r.ConnectionsAccepted,
		buildInfoGauge(),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

// buildInfoGauge is a constant 1 carrying the build identity as labels.
func buildInfoGauge() prometheus.Collector {
	info := buildinfo.Get()
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "build_info",
		Help:      "Build information of the running binary",
		ConstLabels: prometheus.Labels{
			"version":    info.Version,
			"commit":     info.Commit,
			"go_version": info.GoVersion,
		},
	})
	g.Set(1)
	return g
}

// Registerer exposes the underlying registry for other components.
func (r *Registry) Registerer() prometheus.Registerer {
	return r.registry
}

// Gatherer exposes the underlying registry for reads.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// SessionCreated counts an issued session.
func (r *Registry) SessionCreated() {
	r.SessionsCreatedTotal.Inc()
}

// SessionsRemoved counts n removed sessions.
func (r *Registry) SessionsRemoved(reason string, n int) {
	r.SessionsRemovedTotal.WithLabelValues(reason).Add(float64(n))
}

// ObserveRequest records one answered request.
func (r *Registry) ObserveRequest(surface string, code int, elapsed time.Duration) {
	r.RequestsTotal.WithLabelValues(surface, strconv.Itoa(code)).Inc()
	r.RequestDuration.WithLabelValues(surface).Observe(elapsed.Seconds())
}

// ObserveParseError records one parser rejection.
func (r *Registry) ObserveParseError(kind string) {
	r.ParseErrors.WithLabelValues(kind).Inc()
}

// ConnOpened records an accepted connection.
func (r *Registry) ConnOpened() {
	r.ConnectionsAccepted.Inc()
	r.ConnectionsActive.Inc()
}

// ConnClosed records a finished connection.
func (r *Registry) ConnClosed() {
	r.ConnectionsActive.Dec()
}

// WriteText gathers every metric and writes it in the Prometheus text
// exposition format.
func (r *Registry) WriteText(w io.Writer) error {
	families, err := r.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("encode metric family %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
