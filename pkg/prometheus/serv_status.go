package prometheus

import (
	"sort"

	"github.com/prometheus/client_golang/prometheus"
)

// Service Status
const (
	StatusOK       = 0 // dependency answers
	StatusUnhealth = 1 // dependency is unreachable
)

// StatusCollector exports one dependency_status gauge per named check.
type StatusCollector struct {
	desc   *prometheus.Desc
	checks map[string]func() bool
}

func NewStatusCollector(checks map[string]func() bool) *StatusCollector {
	return &StatusCollector{
		desc:   prometheus.NewDesc("dependency_status", "status of a dependency, 0 when healthy", []string{"name"}, nil),
		checks: checks,
	}
}

func (s *StatusCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- s.desc
}

func (s *StatusCollector) Collect(ch chan<- prometheus.Metric) {
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		status := StatusOK
		if !s.checks[name]() {
			status = StatusUnhealth
		}
		ch <- prometheus.MustNewConstMetric(s.desc, prometheus.GaugeValue, float64(status), name)
	}
}

// Register adds the process level collectors to reg.
func Register(reg prometheus.Registerer, serviceName string, checks map[string]func() bool) error {
	for _, c := range []prometheus.Collector{
		PanicCounterVec,
		NewConnectionMetricHandler(serviceName),
		NewCpuMemoryMetricsHandler(serviceName),
		NewStatusCollector(checks),
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
