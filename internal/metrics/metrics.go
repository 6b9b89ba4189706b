// Package metrics holds the Prometheus collectors of the bot and serves
// them over HTTP.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Commands        *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec
	GatewayRequests *prometheus.CounterVec
	GatewayQueue    prometheus.Gauge
}

func New() *Metrics {
	return &Metrics{
		Commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cyborgian",
				Name:      "commands_total",
				Help:      "Number of executed commands by outcome.",
			},
			[]string{"command", "status"},
		),
		CommandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "cyborgian",
				Name:      "command_duration_seconds",
				Help:      "Time spent executing commands.",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"command"},
		),
		GatewayRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cyborgian",
				Name:      "gateway_requests_total",
				Help:      "Number of finished gateway requests by outcome.",
			},
			[]string{"status"},
		),
		GatewayQueue: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "cyborgian",
				Name:      "gateway_queue_depth",
				Help:      "Requests waiting for the gateway.",
			},
		),
	}
}

func (m *Metrics) Collectors() []prometheus.Collector {
	if m == nil {
		return nil
	}
	return []prometheus.Collector{
		m.Commands,
		m.CommandDuration,
		m.GatewayRequests,
		m.GatewayQueue,
	}
}

// ObserveCommand records one command execution.
func (m *Metrics) ObserveCommand(command, status string, took time.Duration) {
	if m == nil {
		return
	}
	m.Commands.WithLabelValues(command, status).Inc()
	m.CommandDuration.WithLabelValues(command).Observe(took.Seconds())
}

// ObserveGateway records one finished gateway request.
func (m *Metrics) ObserveGateway(status string) {
	if m == nil {
		return
	}
	m.GatewayRequests.WithLabelValues(status).Inc()
}

func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.GatewayQueue.Set(float64(n))
}
