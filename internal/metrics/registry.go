package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// register регистрирует коллектор. Если коллектор с тем же описанием уже есть,
// возвращается существующий: сервисы могут создаваться в одном процессе несколько раз.
func register[T prometheus.Collector](registerer prometheus.Registerer, name string, collector T) T {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	err := registerer.Register(collector)
	if err == nil {
		return collector
	}
	if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
		existing, ok := alreadyRegistered.ExistingCollector.(T)
		if !ok {
			panic(fmt.Sprintf("collector %q already registered with unexpected type", name))
		}
		return existing
	}
	panic(fmt.Sprintf("register collector %q: %v", name, err))
}

// Counter создаёт и регистрирует счётчик.
func Counter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	return register[prometheus.Counter](registerer, opts.Name, prometheus.NewCounter(opts))
}

// CounterVec создаёт и регистрирует счётчик с метками.
func CounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	return register(registerer, opts.Name, prometheus.NewCounterVec(opts, labels))
}

// Gauge создаёт и регистрирует gauge.
func Gauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	return register[prometheus.Gauge](registerer, opts.Name, prometheus.NewGauge(opts))
}

// HistogramVec создаёт и регистрирует гистограмму с метками.
func HistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	return register(registerer, opts.Name, prometheus.NewHistogramVec(opts, labels))
}

// Collector регистрирует готовый коллектор, например метрики gRPC-сервера.
func Collector[T prometheus.Collector](registerer prometheus.Registerer, name string, collector T) T {
	return register(registerer, name, collector)
}
