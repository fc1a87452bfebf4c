package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements the Collector interface using Prometheus metrics.
type PrometheusCollector struct {
	// Connection metrics
	connectionsTotal  prometheus.Counter
	connectionsActive prometheus.Gauge

	// Authentication metrics
	authAttemptsTotal   *prometheus.CounterVec
	lockContentionTotal prometheus.Counter

	// Command metrics
	commandsTotal *prometheus.CounterVec

	// Message metrics
	messagesRetrievedTotal prometheus.Counter
	messagesDeletedTotal   prometheus.Counter
	messagesListedTotal    prometheus.Counter
	messagesSizeBytes      prometheus.Histogram
}

// NewPrometheusCollector creates a new PrometheusCollector with all metrics registered.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	c := &PrometheusCollector{
		connectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "popd_connections_total",
			Help: "Total number of POP3 connections opened.",
		}),
		connectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "popd_connections_active",
			Help: "Number of currently active POP3 connections.",
		}),

		authAttemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "popd_auth_attempts_total",
			Help: "Total number of authentication attempts.",
		}, []string{"result"}),
		lockContentionTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "popd_mailbox_lock_contention_total",
			Help: "Total number of logins refused because the mailbox was in use.",
		}),

		commandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "popd_commands_total",
			Help: "Total number of POP3 commands processed.",
		}, []string{"command"}),

		messagesRetrievedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "popd_messages_retrieved_total",
			Help: "Total number of messages retrieved.",
		}),
		messagesDeletedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "popd_messages_deleted_total",
			Help: "Total number of messages marked for deletion.",
		}),
		messagesListedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "popd_messages_listed_total",
			Help: "Total number of message list operations.",
		}),
		messagesSizeBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "popd_messages_size_bytes",
			Help:    "Size of retrieved messages in bytes.",
			Buckets: []float64{1024, 10240, 102400, 1048576, 10485760, 26214400, 52428800},
		}),
	}

	reg.MustRegister(
		c.connectionsTotal,
		c.connectionsActive,
		c.authAttemptsTotal,
		c.lockContentionTotal,
		c.commandsTotal,
		c.messagesRetrievedTotal,
		c.messagesDeletedTotal,
		c.messagesListedTotal,
		c.messagesSizeBytes,
	)

	return c
}

// ConnectionOpened increments the connection counter and active gauge.
func (c *PrometheusCollector) ConnectionOpened() {
	c.connectionsTotal.Inc()
	c.connectionsActive.Inc()
}

// ConnectionClosed decrements the active connections gauge.
func (c *PrometheusCollector) ConnectionClosed() {
	c.connectionsActive.Dec()
}

// AuthAttempt increments the authentication attempts counter.
func (c *PrometheusCollector) AuthAttempt(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.authAttemptsTotal.WithLabelValues(result).Inc()
}

// LockContention increments the mailbox lock contention counter.
func (c *PrometheusCollector) LockContention() {
	c.lockContentionTotal.Inc()
}

// CommandProcessed increments the command counter.
func (c *PrometheusCollector) CommandProcessed(command string) {
	c.commandsTotal.WithLabelValues(command).Inc()
}

// MessageRetrieved increments the message retrieved counter and observes message size.
func (c *PrometheusCollector) MessageRetrieved(sizeBytes int64) {
	c.messagesRetrievedTotal.Inc()
	c.messagesSizeBytes.Observe(float64(sizeBytes))
}

// MessageDeleted increments the message deleted counter.
func (c *PrometheusCollector) MessageDeleted() {
	c.messagesDeletedTotal.Inc()
}

// MessageListed increments the message listed counter.
func (c *PrometheusCollector) MessageListed() {
	c.messagesListedTotal.Inc()
}
