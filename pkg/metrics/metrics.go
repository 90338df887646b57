package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "tibacare"

// BookingMetrics counts queue workflow outcomes.
type BookingMetrics struct {
	admissions  *prometheus.CounterVec
	transitions *prometheus.CounterVec
	promotions  *prometheus.CounterVec
	conflicts   prometheus.Counter
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		admissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bookings",
			Name:      "admissions_total",
			Help:      "Bookings admitted, by computed status",
		}, []string{"status"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bookings",
			Name:      "transitions_total",
			Help:      "Consultation status transitions",
		}, []string{"to"}),
		promotions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bookings",
			Name:      "promotions_total",
			Help:      "Promotion step outcomes after a consultation ends",
		}, []string{"scope", "outcome"}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bookings",
			Name:      "active_slot_conflicts_total",
			Help:      "Start attempts rejected because the provider slot was held",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.admissions, m.transitions, m.promotions, m.conflicts)
	return m
}

func (m *BookingMetrics) ObserveAdmission(status string) {
	if m == nil {
		return
	}
	m.admissions.WithLabelValues(status).Inc()
}

func (m *BookingMetrics) ObserveTransition(to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(to).Inc()
}

// ObservePromotion outcome is one of promoted, empty, exhausted, error.
func (m *BookingMetrics) ObservePromotion(scope, outcome string) {
	if m == nil {
		return
	}
	m.promotions.WithLabelValues(scope, outcome).Inc()
}

func (m *BookingMetrics) ObserveSlotConflict() {
	if m == nil {
		return
	}
	m.conflicts.Inc()
}

// KafkaMetrics instruments producer and consumer middleware.
type KafkaMetrics struct {
	published *prometheus.CounterVec
	consumed  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

func NewKafkaMetrics(reg prometheus.Registerer) *KafkaMetrics {
	m := &KafkaMetrics{
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "kafka",
			Name:      "messages_published_total",
			Help:      "Kafka messages published",
		}, []string{"topic", "status"}),
		consumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "kafka",
			Name:      "messages_consumed_total",
			Help:      "Kafka messages handled by consumers",
		}, []string{"topic", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "kafka",
			Name:      "operation_duration_seconds",
			Help:      "Duration of publish and handle operations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "topic"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.published, m.consumed, m.duration)
	return m
}

func (m *KafkaMetrics) ObservePublish(topic string, err error, seconds float64) {
	if m == nil {
		return
	}
	m.published.WithLabelValues(topic, statusLabel(err)).Inc()
	m.duration.WithLabelValues("publish", topic).Observe(seconds)
}

func (m *KafkaMetrics) ObserveConsume(topic string, err error, seconds float64) {
	if m == nil {
		return
	}
	m.consumed.WithLabelValues(topic, statusLabel(err)).Inc()
	m.duration.WithLabelValues("consume", topic).Observe(seconds)
}

// IntegrationMetrics covers outbound calls to payment and messaging providers.
type IntegrationMetrics struct {
	calls   *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

func NewIntegrationMetrics(reg prometheus.Registerer) *IntegrationMetrics {
	m := &IntegrationMetrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "integrations",
			Name:      "calls_total",
			Help:      "Outbound integration calls",
		}, []string{"integration", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "integrations",
			Name:      "call_duration_seconds",
			Help:      "Latency of outbound integration calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"integration"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.calls, m.latency)
	return m
}

func (m *IntegrationMetrics) ObserveCall(integration string, err error, seconds float64) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(integration, statusLabel(err)).Inc()
	m.latency.WithLabelValues(integration).Observe(seconds)
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
