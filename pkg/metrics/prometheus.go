package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain repository.Metrics using Prometheus.
type Recorder struct {
	ticksTotal    prometheus.Counter
	candlesTotal  *prometheus.CounterVec
	findingsTotal prometheus.Counter
	errorsTotal   *prometheus.CounterVec
	reconnects    *prometheus.CounterVec
	streamUp      *prometheus.GaugeVec
	lastPrice     *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		ticksTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "blueprintscan_ticks_total",
				Help: "Total ticker updates applied to the symbol store",
			},
		),
		candlesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blueprintscan_candles_closed_total",
				Help: "Total closed candles applied, by interval",
			},
			[]string{"interval"},
		),
		findingsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "blueprintscan_findings_total",
				Help: "Total blueprint findings delivered to subscribers",
			},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blueprintscan_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		reconnects: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blueprintscan_stream_reconnects_total",
				Help: "Total reconnect attempts, by stream",
			},
			[]string{"stream"},
		),
		streamUp: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "blueprintscan_stream_up",
				Help: "Whether a stream is currently connected (1/0)",
			},
			[]string{"stream"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "blueprintscan_last_price",
				Help: "Last recorded price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "blueprintscan_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordTicks counts ticker updates applied.
func (r *Recorder) RecordTicks(n int) {
	r.ticksTotal.Add(float64(n))
}

// RecordCandle counts a closed candle for an interval.
func (r *Recorder) RecordCandle(interval string) {
	r.candlesTotal.WithLabelValues(interval).Inc()
}

// RecordFindings counts delivered findings.
func (r *Recorder) RecordFindings(n int) {
	r.findingsTotal.Add(float64(n))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordReconnect counts a reconnect attempt for a stream.
func (r *Recorder) RecordReconnect(stream string) {
	r.reconnects.WithLabelValues(stream).Inc()
}

// SetStreamUp flags a stream as connected or not.
func (r *Recorder) SetStreamUp(stream string, up bool) {
	v := 0.0
	if up {
		v = 1.0
	}
	r.streamUp.WithLabelValues(stream).Set(v)
}
