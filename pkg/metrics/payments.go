package metrics

import "github.com/prometheus/client_golang/prometheus"

// PaymentMetrics counts gateway orders, verifications, webhook deliveries and the
// subscription transitions they cause.
type PaymentMetrics struct {
	orders        *prometheus.CounterVec
	verifications *prometheus.CounterVec
	webhooks      *prometheus.CounterVec
	transitions   *prometheus.CounterVec
}

// NewPaymentMetrics registers the payment metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	orders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_orders_total",
		Help: "Gateway orders requested, by result.",
	}, []string{"result"})
	verifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_verifications_total",
		Help: "Client payment verifications, by result.",
	}, []string{"result"})
	webhooks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhook_events_total",
		Help: "Gateway webhook events, by event type and outcome.",
	}, []string{"event", "outcome"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "subscription_transitions_total",
		Help: "Subscription state transitions.",
	}, []string{"transition"})
	reg.MustRegister(orders, verifications, webhooks, transitions)
	return &PaymentMetrics{
		orders:        orders,
		verifications: verifications,
		webhooks:      webhooks,
		transitions:   transitions,
	}
}

func (p *PaymentMetrics) IncOrder(result string) {
	if p == nil || p.orders == nil {
		return
	}
	p.orders.WithLabelValues(normalizeLabel(result)).Inc()
}

func (p *PaymentMetrics) IncVerification(result string) {
	if p == nil || p.verifications == nil {
		return
	}
	p.verifications.WithLabelValues(normalizeLabel(result)).Inc()
}

func (p *PaymentMetrics) IncWebhook(event, outcome string) {
	if p == nil || p.webhooks == nil {
		return
	}
	p.webhooks.WithLabelValues(normalizeLabel(event), normalizeLabel(outcome)).Inc()
}

// AddTransition records n rows moving through the named transition, e.g. "expired".
func (p *PaymentMetrics) AddTransition(transition string, n int) {
	if p == nil || p.transitions == nil || n <= 0 {
		return
	}
	p.transitions.WithLabelValues(normalizeLabel(transition)).Add(float64(n))
}
