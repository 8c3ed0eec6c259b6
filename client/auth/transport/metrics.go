package transport

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeSuccess  = "success"
	outcomeRejected = "rejected"
	outcomeMissing  = "missing"
	outcomeError    = "error"
)

// Metrics counts authentication events of the transport; a nil *Metrics is a no-op
type Metrics struct {
	Unauthorized prometheus.Counter
	Refreshes    *prometheus.CounterVec
	Retries      prometheus.Counter
}

// NewMetrics creates and registers transport collectors
func NewMetrics(registerer prometheus.Registerer) (*Metrics, error) {
	ret := &Metrics{
		Unauthorized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "brokerage",
			Subsystem: "auth",
			Name:      "unauthorized_responses_total",
			Help:      "Number of 401 responses received for authenticated requests.",
		}),
		Refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "brokerage",
			Subsystem: "auth",
			Name:      "token_refreshes_total",
			Help:      "Number of access token refresh attempts by outcome.",
		}, []string{"outcome"}),
		Retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "brokerage",
			Subsystem: "auth",
			Name:      "retried_requests_total",
			Help:      "Number of requests replayed with a refreshed access token.",
		}),
	}
	if registerer == nil {
		return ret, nil
	}
	for _, collector := range []prometheus.Collector{ret.Unauthorized, ret.Refreshes, ret.Retries} {
		if err := registerer.Register(collector); err != nil {
			return nil, err
		}
	}
	return ret, nil
}

func (m *Metrics) unauthorized() {
	if m != nil {
		m.Unauthorized.Inc()
	}
}

func (m *Metrics) retried() {
	if m != nil {
		m.Retries.Inc()
	}
}

func (m *Metrics) refreshed(outcome string) {
	if m != nil {
		m.Refreshes.WithLabelValues(outcome).Inc()
	}
}
