package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PlacementMetrics содержит метрики размещения заказов и заявок на перевозку.
// Все методы безопасны для nil-получателя.
type PlacementMetrics struct {
	ordersPlaced        prometheus.Counter
	transportsRequested prometheus.Counter
	rejected            *prometheus.CounterVec
	stockConflicts      prometheus.Counter
	statusChanges       *prometheus.CounterVec
	duration            *prometheus.HistogramVec

	timelineEvents prometheus.Counter
	outboxEvents   prometheus.Counter

	inFlight prometheus.Gauge
}

// NewPlacementMetrics регистрирует метрики в prometheus.DefaultRegisterer.
func NewPlacementMetrics() *PlacementMetrics {
	return NewPlacementMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewPlacementMetricsWithRegisterer регистрирует метрики в переданном registerer.
func NewPlacementMetricsWithRegisterer(registerer prometheus.Registerer) *PlacementMetrics {
	return &PlacementMetrics{
		ordersPlaced: Counter(registerer, prometheus.CounterOpts{
			Name: "greenlogist_orders_placed_total",
			Help: "Total number of orders placed successfully",
		}),
		transportsRequested: Counter(registerer, prometheus.CounterOpts{
			Name: "greenlogist_transports_requested_total",
			Help: "Total number of transport requests created",
		}),
		rejected: CounterVec(registerer, prometheus.CounterOpts{
			Name: "greenlogist_placement_rejected_total",
			Help: "Total number of rejected placement operations grouped by operation and error code",
		}, []string{"operation", "code"}),
		stockConflicts: Counter(registerer, prometheus.CounterOpts{
			Name: "greenlogist_stock_conflicts_total",
			Help: "Total number of concurrent stock conflicts that triggered a retry",
		}),
		statusChanges: CounterVec(registerer, prometheus.CounterOpts{
			Name: "greenlogist_status_changes_total",
			Help: "Total number of status changes grouped by aggregate and new status",
		}, []string{"aggregate", "status"}),
		duration: HistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "greenlogist_placement_duration_seconds",
			Help:    "Duration of placement operations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"operation"}),
		timelineEvents: Counter(registerer, prometheus.CounterOpts{
			Name: "greenlogist_timeline_events_total",
			Help: "Total number of timeline events recorded",
		}),
		outboxEvents: Counter(registerer, prometheus.CounterOpts{
			Name: "greenlogist_outbox_events_total",
			Help: "Total number of events enqueued to the outbox",
		}),
		inFlight: Gauge(registerer, prometheus.GaugeOpts{
			Name: "greenlogist_placements_in_flight",
			Help: "Number of placement operations currently being processed",
		}),
	}
}

// RecordOrderPlaced увеличивает счётчик размещённых заказов.
func (m *PlacementMetrics) RecordOrderPlaced() {
	if m == nil {
		return
	}
	m.ordersPlaced.Inc()
}

// RecordTransportRequested увеличивает счётчик заявок на перевозку.
func (m *PlacementMetrics) RecordTransportRequested() {
	if m == nil {
		return
	}
	m.transportsRequested.Inc()
}

// RecordRejected учитывает отказ с кодом ошибки предметной области.
func (m *PlacementMetrics) RecordRejected(operation, code string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(operation, code).Inc()
}

// RecordStockConflict учитывает проигранную гонку за остаток.
func (m *PlacementMetrics) RecordStockConflict() {
	if m == nil {
		return
	}
	m.stockConflicts.Inc()
}

// RecordStatusChange учитывает смену статуса заказа или заявки.
func (m *PlacementMetrics) RecordStatusChange(aggregate, status string) {
	if m == nil {
		return
	}
	m.statusChanges.WithLabelValues(aggregate, status).Inc()
}

// RecordDuration записывает время выполнения операции.
func (m *PlacementMetrics) RecordDuration(operation string, duration time.Duration) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordTimelineEvent увеличивает счётчик событий timeline.
func (m *PlacementMetrics) RecordTimelineEvent() {
	if m == nil {
		return
	}
	m.timelineEvents.Inc()
}

// RecordOutboxEvent увеличивает счётчик событий outbox.
func (m *PlacementMetrics) RecordOutboxEvent() {
	if m == nil {
		return
	}
	m.outboxEvents.Inc()
}

// InFlightStarted увеличивает количество выполняющихся операций.
func (m *PlacementMetrics) InFlightStarted() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

// InFlightFinished уменьшает количество выполняющихся операций.
func (m *PlacementMetrics) InFlightFinished() {
	if m == nil {
		return
	}
	m.inFlight.Dec()
}
