package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ResourceTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marketplace",
		Name:      "resource_transitions_total",
		Help:      "Resource state transitions by offering type.",
	}, []string{"offering_type", "from", "to"})

	OrdersFinished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marketplace",
		Name:      "orders_finished_total",
		Help:      "Orders that reached DONE or ERRED.",
	}, []string{"type", "state"})

	OrdersSubmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marketplace",
		Name:      "orders_submitted_total",
		Help:      "Orders accepted by the submission API.",
	}, []string{"type"})

	IgnoredCallbacks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marketplace",
		Name:      "ignored_callbacks_total",
		Help:      "Callbacks dropped because the resource was not in the expected state.",
	}, []string{"operation"})

	BackendCalls = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "marketplace",
		Name:      "backend_call_seconds",
		Help:      "Latency of processor invocations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"processor", "action", "outcome"})

	SweptResources = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "marketplace",
		Name:      "swept_resources_total",
		Help:      "Resources forced to ERRED after staying in a transitional state too long.",
	})

	PulledResources = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marketplace",
		Name:      "pulled_resources_total",
		Help:      "Outcome of backend pulls.",
	}, []string{"outcome"})
)

// Register adds every marketplace collector to reg.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		ResourceTransitions,
		OrdersFinished,
		OrdersSubmitted,
		IgnoredCallbacks,
		BackendCalls,
		SweptResources,
		PulledResources,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
