package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	apiRequestsTotal     *prometheus.CounterVec
	apiLatencySeconds    *prometheus.HistogramVec
	apiErrorsTotal       *prometheus.CounterVec
	scansAcceptedTotal   prometheus.Counter
	scansRejectedTotal   *prometheus.CounterVec
	shiftsOpenedTotal    prometheus.Counter
	shiftsClosedTotal    prometheus.Counter
	monitorClientsActive prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "unibus_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "unibus_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "unibus_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		scansAcceptedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "unibus_scans_accepted_total",
			Help: "Total number of QR scans recorded as attendance.",
		})

		scansRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "unibus_scans_rejected_total",
			Help: "Total number of QR scans rejected, by reason.",
		}, []string{"reason"})

		shiftsOpenedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "unibus_shifts_opened_total",
			Help: "Total number of supervisor shifts opened.",
		})

		shiftsClosedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "unibus_shifts_closed_total",
			Help: "Total number of supervisor shifts closed.",
		})

		monitorClientsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "unibus_monitor_clients_active",
			Help: "Number of live monitor websocket clients currently connected.",
		})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			scansAcceptedTotal,
			scansRejectedTotal,
			shiftsOpenedTotal,
			shiftsClosedTotal,
			monitorClientsActive,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// ScansAcceptedTotal exposes the accepted scan counter.
func ScansAcceptedTotal() prometheus.Counter {
	RegisterMetrics()
	return scansAcceptedTotal
}

// ScansRejectedTotal exposes the rejected scan counter.
func ScansRejectedTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return scansRejectedTotal
}

// ShiftsOpenedTotal exposes the opened shift counter.
func ShiftsOpenedTotal() prometheus.Counter {
	RegisterMetrics()
	return shiftsOpenedTotal
}

// ShiftsClosedTotal exposes the closed shift counter.
func ShiftsClosedTotal() prometheus.Counter {
	RegisterMetrics()
	return shiftsClosedTotal
}

// MonitorClientsActive exposes the live monitor connection gauge.
func MonitorClientsActive() prometheus.Gauge {
	RegisterMetrics()
	return monitorClientsActive
}
