package protolite

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "protolite"

// Result label values
const (
	resultOK    = "ok"
	resultError = "error"
)

// Metrics holds the Prometheus collectors of a client
type Metrics struct {
	EncodeTotal  *prometheus.CounterVec
	DecodeTotal  *prometheus.CounterVec
	PayloadBytes *prometheus.HistogramVec
}

// NewMetrics creates the client collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		EncodeTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "encode_total",
				Help:      "Total number of encode calls",
			},
			[]string{"type", "result"},
		),
		DecodeTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "decode_total",
				Help:      "Total number of decode calls",
			},
			[]string{"type", "result"},
		),
		PayloadBytes: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "payload_bytes",
				Help:      "Size of encoded and decoded payloads in bytes",
				Buckets:   prometheus.ExponentialBuckets(16, 4, 8),
			},
			[]string{"type", "direction"},
		),
	}
}

func (m *Metrics) observeEncode(typeName string, size int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.EncodeTotal.WithLabelValues(typeName, resultError).Inc()
		return
	}
	m.EncodeTotal.WithLabelValues(typeName, resultOK).Inc()
	m.PayloadBytes.WithLabelValues(typeName, "encode").Observe(float64(size))
}

func (m *Metrics) observeDecode(typeName string, size int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.DecodeTotal.WithLabelValues(typeName, resultError).Inc()
		return
	}
	m.DecodeTotal.WithLabelValues(typeName, resultOK).Inc()
	m.PayloadBytes.WithLabelValues(typeName, "decode").Observe(float64(size))
}
