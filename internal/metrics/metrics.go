package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	linesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "serialfan",
		Name:      "lines_total",
		Help:      "Total number of complete lines framed from the serial stream.",
	})
	bytesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "serialfan",
		Name:      "bytes_total",
		Help:      "Total number of bytes read from the serial source.",
	})
	invalidTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "serialfan",
		Name:      "invalid_total",
		Help:      "Total number of lines dropped because they were not valid JSON.",
	})
	decodeReplacementsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "serialfan",
		Name:      "decode_replacements_total",
		Help:      "Total number of invalid UTF-8 bytes replaced during decoding.",
	})
	readErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "serialfan",
		Name:      "read_errors_total",
		Help:      "Total number of fatal read errors on the serial source.",
	})
	forwardedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "serialfan",
		Name:      "forwarded_total",
		Help:      "Total number of messages delivered, per consumer.",
	}, []string{"consumer"})
	forwardErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "serialfan",
		Name:      "forward_errors_total",
		Help:      "Total number of failed writes, per consumer.",
	}, []string{"consumer"})
	droppedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "serialfan",
		Name:      "dropped_total",
		Help:      "Total number of messages skipped while a consumer was disconnected.",
	}, []string{"consumer"})
	reconnectsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "serialfan",
		Name:      "reconnects_total",
		Help:      "Total number of successful reconnects, per consumer.",
	}, []string{"consumer"})
)

// Register registers all serialfan metrics to the provided Prometheus
// registerer. Safe to call multiple times; AlreadyRegistered is ignored.
func Register(r prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		linesTotal, bytesTotal, invalidTotal, decodeReplacementsTotal,
		readErrorsTotal, forwardedTotal, forwardErrorsTotal, droppedTotal,
		reconnectsTotal,
	}
	for _, c := range collectors {
		if err := r.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return err
		}
	}
	return nil
}

// IncLines increments the framed lines counter by n.
func IncLines(n int) {
	if n > 0 {
		linesTotal.Add(float64(n))
	}
}

// AddBytes adds n to the serial bytes counter.
func AddBytes(n int) {
	if n > 0 {
		bytesTotal.Add(float64(n))
	}
}

// AddDecodeReplacements adds n to the lossy-decode replacement counter.
func AddDecodeReplacements(n int64) {
	if n > 0 {
		decodeReplacementsTotal.Add(float64(n))
	}
}

// IncInvalid increments the invalid payload counter by 1.
func IncInvalid() { invalidTotal.Inc() }

// IncReadErrors increments the fatal read error counter by 1.
func IncReadErrors() { readErrorsTotal.Inc() }

// IncForwarded increments the delivered counter for a consumer.
func IncForwarded(consumer string) { forwardedTotal.WithLabelValues(consumer).Inc() }

// IncForwardErrors increments the failed write counter for a consumer.
func IncForwardErrors(consumer string) { forwardErrorsTotal.WithLabelValues(consumer).Inc() }

// IncDropped increments the skipped-while-disconnected counter for a consumer.
func IncDropped(consumer string) { droppedTotal.WithLabelValues(consumer).Inc() }

// IncReconnects increments the reconnect counter for a consumer.
func IncReconnects(consumer string) { reconnectsTotal.WithLabelValues(consumer).Inc() }
