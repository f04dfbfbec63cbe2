package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const promNamespace = "etf_arb_bot"

type promCounter struct {
	counter prometheus.Counter
}

func (p promCounter) Inc() {
	p.counter.Inc()
}

type Prometheus struct {
	Metrics *Metrics

	registry *prometheus.Registry
}

func NewPrometheus() *Prometheus {
	registry := prometheus.NewRegistry()
	ordersInserted := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "orders_inserted_total",
		Help:      "Total number of resting orders sent to the exchange.",
	})
	ordersCancelled := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "orders_cancelled_total",
		Help:      "Total number of cancel commands sent.",
	})
	ordersRejected := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "orders_rejected_total",
		Help:      "Total number of orders rejected or failed to send.",
	})
	fills := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "fills_total",
		Help:      "Total number of fill notifications for resting orders.",
	})
	hedges := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "hedge_orders_total",
		Help:      "Total number of hedge orders sent.",
	})
	disconnects := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "disconnects_total",
		Help:      "Total number of execution session disconnects.",
	})

	registry.MustRegister(ordersInserted, ordersCancelled, ordersRejected, fills, hedges, disconnects)

	m := &Metrics{
		OrdersInserted:  promCounter{ordersInserted},
		OrdersCancelled: promCounter{ordersCancelled},
		OrdersRejected:  promCounter{ordersRejected},
		Fills:           promCounter{fills},
		Hedges:          promCounter{hedges},
		Disconnects:     promCounter{disconnects},
	}

	return &Prometheus{
		Metrics:  m,
		registry: registry,
	}
}

func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
