package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CartMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "cart_mutations_total",
		Help:      "Cart mutations by operation and result.",
	}, []string{"op", "result"})

	CartConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "cart_revision_conflicts_total",
		Help:      "Cart writes rejected because the revision moved.",
	})

	Checkout = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "checkout_total",
		Help:      "Checkout steps by stage and result.",
	}, []string{"stage", "result"})

	GatewayLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "storefront",
		Name:      "payment_gateway_request_seconds",
		Help:      "Latency of payment gateway calls.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op", "result"})

	OrdersReconciled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "orders_reconciled_total",
		Help:      "Pending orders cancelled by the reconciliation sweep.",
	})
)

func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
