// Package metrics exposes the bridge's Prometheus instrumentation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all collectors for one bridge instance, registered on a
// dedicated registry so tests can create instances freely.
type Metrics struct {
	registry *prometheus.Registry

	DatagramsReceived prometheus.Counter
	BytesReceived     prometheus.Counter
	DatagramsDropped  prometheus.Counter
	DecodeFailures    prometheus.Counter
	SubjectsKnown     prometheus.Gauge
	StaticPushes      *prometheus.CounterVec
	FramePushes       *prometheus.CounterVec
	PublishErrors     prometheus.Counter
	ListenerUp        prometheus.Gauge
}

// New creates and registers all bridge metrics.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		DatagramsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "poselink_datagrams_received_total",
			Help: "UDP datagrams handed off to the decode pipeline",
		}),
		BytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "poselink_bytes_received_total",
			Help: "Payload bytes handed off to the decode pipeline",
		}),
		DatagramsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "poselink_datagrams_dropped_total",
			Help: "Datagrams dropped because the dispatch queue was full",
		}),
		DecodeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "poselink_decode_failures_total",
			Help: "Datagrams aborted due to malformed JSON or schema violations",
		}),
		SubjectsKnown: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "poselink_subjects_known",
			Help: "Distinct subject names seen since startup",
		}),
		StaticPushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "poselink_static_pushes_total",
			Help: "Skeleton static descriptions pushed to the publisher",
		}, []string{"subject"}),
		FramePushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "poselink_frame_pushes_total",
			Help: "Animation frames pushed to the publisher",
		}, []string{"subject"}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "poselink_publish_errors_total",
			Help: "Publisher push calls that returned an error",
		}),
		ListenerUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "poselink_listener_up",
			Help: "1 while the UDP listener is receiving, 0 otherwise",
		}),
	}

	m.registry.MustRegister(
		m.DatagramsReceived,
		m.BytesReceived,
		m.DatagramsDropped,
		m.DecodeFailures,
		m.SubjectsKnown,
		m.StaticPushes,
		m.FramePushes,
		m.PublishErrors,
		m.ListenerUp,
	)
	return m
}

// Handler returns the HTTP handler serving this instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
