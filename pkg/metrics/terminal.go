package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TerminalMetrics records counters for one running POS terminal.
type TerminalMetrics struct {
	salesSubmitted  *prometheus.CounterVec
	salesFailed     *prometheus.CounterVec
	scansDetected   prometheus.Counter
	scansUnmatched  prometheus.Counter
	requestDuration *prometheus.HistogramVec
}

// NewTerminalMetrics registers the terminal metrics on the provided registerer.
func NewTerminalMetrics(reg prometheus.Registerer) *TerminalMetrics {
	if reg == nil {
		return &TerminalMetrics{}
	}
	salesSubmitted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pdv_sales_submitted_total",
		Help: "Sales accepted by the backend, by payment method.",
	}, []string{"method"})
	salesFailed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pdv_sales_failed_total",
		Help: "Sale submissions rejected or failed, by failure code.",
	}, []string{"code"})
	scansDetected := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pdv_scans_detected_total",
		Help: "Barcode scans recognized by the scan detector.",
	})
	scansUnmatched := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pdv_scans_unmatched_total",
		Help: "Scans whose barcode matched no catalog product.",
	})
	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pdv_backend_request_duration_seconds",
		Help:    "Duration of backend requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	reg.MustRegister(salesSubmitted, salesFailed, scansDetected, scansUnmatched, requestDuration)
	return &TerminalMetrics{
		salesSubmitted:  salesSubmitted,
		salesFailed:     salesFailed,
		scansDetected:   scansDetected,
		scansUnmatched:  scansUnmatched,
		requestDuration: requestDuration,
	}
}

// IncSaleSubmitted increments the accepted-sale counter for the method.
func (m *TerminalMetrics) IncSaleSubmitted(method string) {
	if m == nil || m.salesSubmitted == nil {
		return
	}
	m.salesSubmitted.WithLabelValues(normalizeLabel(method)).Inc()
}

// IncSaleFailed increments the failed-sale counter for the failure code.
func (m *TerminalMetrics) IncSaleFailed(code string) {
	if m == nil || m.salesFailed == nil {
		return
	}
	m.salesFailed.WithLabelValues(normalizeLabel(code)).Inc()
}

// IncScanDetected increments the recognized-scan counter.
func (m *TerminalMetrics) IncScanDetected() {
	if m == nil || m.scansDetected == nil {
		return
	}
	m.scansDetected.Inc()
}

// IncScanUnmatched increments the unmatched-scan counter.
func (m *TerminalMetrics) IncScanUnmatched() {
	if m == nil || m.scansUnmatched == nil {
		return
	}
	m.scansUnmatched.Inc()
}

// ObserveRequest records the duration of a named backend operation.
func (m *TerminalMetrics) ObserveRequest(operation string, duration time.Duration) {
	if m == nil || m.requestDuration == nil {
		return
	}
	m.requestDuration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
