// Package metrics exposes Prometheus collectors for the image gateway.
//
// Collectors are fed from gateway and poll event channels, so the
// orchestration code never imports Prometheus directly.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spetersoncode/imagegate/gateway"
	"github.com/spetersoncode/imagegate/poll"
)

// GenerationBuckets covers image generation latencies from 250ms to 5m.
var GenerationBuckets = []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120, 300}

// Metrics holds the gateway collectors and the registry they live in.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	AttemptsTotal    *prometheus.CounterVec
	AttemptDuration  *prometheus.HistogramVec
	GenerationsTotal *prometheus.CounterVec
	ImagesTotal      *prometheus.CounterVec
	PollChecksTotal  *prometheus.CounterVec
	PollJobsTotal    *prometheus.CounterVec
}

// New creates the collectors and registers them, together with the Go and
// process collectors, in a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "imagegate_requests_total",
				Help: "HTTP requests by method, route and status class",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "imagegate_request_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: GenerationBuckets,
			},
			[]string{"method", "route"},
		),
		AttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "imagegate_provider_attempts_total",
				Help: "Provider attempts by outcome",
			},
			[]string{"provider", "outcome"},
		),
		AttemptDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "imagegate_provider_attempt_duration_seconds",
				Help:    "Provider call latency",
				Buckets: GenerationBuckets,
			},
			[]string{"provider"},
		),
		GenerationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "imagegate_generations_total",
				Help: "Completed generations by selection mode and result",
			},
			[]string{"mode", "result"},
		),
		ImagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "imagegate_images_total",
				Help: "Images produced by provider and model",
			},
			[]string{"provider", "model"},
		),
		PollChecksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "imagegate_poll_checks_total",
				Help: "Job status checks by outcome",
			},
			[]string{"outcome"},
		),
		PollJobsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "imagegate_poll_jobs_total",
				Help: "Polled jobs by terminal state",
			},
			[]string{"state"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RequestsTotal,
		m.RequestDuration,
		m.AttemptsTotal,
		m.AttemptDuration,
		m.GenerationsTotal,
		m.ImagesTotal,
		m.PollChecksTotal,
		m.PollJobsTotal,
	)
	return m
}

// Registry returns the registry holding every collector.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveGateway records one orchestration event.
func (m *Metrics) ObserveGateway(e gateway.Event) {
	provider := string(e.Provider)
	switch e.Type {
	case gateway.EventAttemptFailed:
		m.AttemptsTotal.WithLabelValues(provider, "error").Inc()
		m.AttemptDuration.WithLabelValues(provider).Observe(e.Duration.Seconds())
		// A targeted attempt is the whole generation.
		if e.Mode == gateway.ModeTargeted {
			m.GenerationsTotal.WithLabelValues(string(e.Mode), "failure").Inc()
		}
	case gateway.EventSuccess:
		m.AttemptsTotal.WithLabelValues(provider, "success").Inc()
		m.AttemptDuration.WithLabelValues(provider).Observe(e.Duration.Seconds())
		m.GenerationsTotal.WithLabelValues(string(e.Mode), "success").Inc()
		m.ImagesTotal.WithLabelValues(provider, e.Model).Inc()
	case gateway.EventExhausted:
		m.GenerationsTotal.WithLabelValues(string(e.Mode), "failure").Inc()
	}
}

// ObservePoll records one poller event.
func (m *Metrics) ObservePoll(e poll.Event) {
	switch e.Type {
	case poll.EventTick:
		outcome := "ok"
		if e.Error != nil {
			outcome = "error"
		}
		m.PollChecksTotal.WithLabelValues(outcome).Inc()
	case poll.EventCompleted, poll.EventFailed, poll.EventTimedOut, poll.EventCancelled:
		m.PollJobsTotal.WithLabelValues(string(e.Type)).Inc()
	}
}

// Consume observes events from both channels until ctx is done or both
// channels are closed. Either channel may be nil.
func (m *Metrics) Consume(ctx context.Context, gw <-chan gateway.Event, pl <-chan poll.Event) {
	for gw != nil || pl != nil {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-gw:
			if !ok {
				gw = nil
				continue
			}
			m.ObserveGateway(e)
		case e, ok := <-pl:
			if !ok {
				pl = nil
				continue
			}
			m.ObservePoll(e)
		}
	}
}
