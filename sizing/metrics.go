package sizing

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 计算器的 prometheus 指标
type Metrics struct {
	calculations *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	reynolds     prometheus.Histogram
}

func NewMetrics(name string, registerer prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		calculations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: name + "_calculations_total",
				Help: "Total number of pipe sizing operations",
			},
			[]string{"operation", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    name + "_calculation_duration_seconds",
				Help:    "Duration of pipe sizing operations in seconds",
				Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1},
			},
			[]string{"operation"},
		),
		reynolds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    name + "_reynolds_number",
				Help:    "Reynolds number of successful calculations",
				Buckets: []float64{2300, 4000, 1e4, 1e5, 1e6, 1e7},
			},
		),
	}

	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	var err error
	if m.calculations, err = register(registerer, m.calculations); err != nil {
		return nil, err
	}
	if m.duration, err = register(registerer, m.duration); err != nil {
		return nil, err
	}
	if m.reynolds, err = register(registerer, m.reynolds); err != nil {
		return nil, err
	}
	return m, nil
}

// register 同名指标已注册时复用已有的 collector
func register[C prometheus.Collector](registerer prometheus.Registerer, c C) (C, error) {
	if err := registerer.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		var zero C
		return zero, errors.Wrap(err, "register collector failed")
	}
	return c, nil
}
