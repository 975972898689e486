package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
)

var PanicCounterVec = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "http_panic_total",
	Help: "panic total counter.",
}, []string{"method", "path"})
