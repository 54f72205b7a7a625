package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg             *prometheus.Registry
	OrdersCreated   *prometheus.CounterVec
	FulfillAttempts *prometheus.CounterVec
	OrdersCanceled  prometheus.Counter
	UnitsAllocated  prometheus.Counter
	Sales           prometheus.Counter
	SalesValue      prometheus.Counter

	// restock feed
	restockApplied prometheus.Counter
	restockFailed  prometheus.Counter

	// projection
	EventsProjected *prometheus.CounterVec
	ProjectionLag   prometheus.Histogram
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	created := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "retailhub_orders_created_total",
		Help: "Orders created, by status right after reservation.",
	}, []string{"status"})
	fulfill := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "retailhub_fulfill_attempts_total",
		Help: "Fulfillment attempts, by result.",
	}, []string{"result"})
	canceled := prometheus.NewCounter(prometheus.CounterOpts{Name: "retailhub_orders_canceled_total"})
	allocated := prometheus.NewCounter(prometheus.CounterOpts{Name: "retailhub_backorder_units_allocated_total"})
	sales := prometheus.NewCounter(prometheus.CounterOpts{Name: "retailhub_sales_total"})
	salesValue := prometheus.NewCounter(prometheus.CounterOpts{Name: "retailhub_sales_value_total"})

	restockApplied := prometheus.NewCounter(prometheus.CounterOpts{Name: "retailhub_restock_applied_total"})
	restockFailed := prometheus.NewCounter(prometheus.CounterOpts{Name: "retailhub_restock_failed_total"})

	projected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "retailhub_events_projected_total",
	}, []string{"type"})
	lag := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "retailhub_projection_lag_seconds",
		Buckets: prometheus.DefBuckets,
	})

	r.MustRegister(created, fulfill, canceled, allocated, sales, salesValue, restockApplied, restockFailed, projected, lag)
	return &Registry{
		reg:             r,
		OrdersCreated:   created,
		FulfillAttempts: fulfill,
		OrdersCanceled:  canceled,
		UnitsAllocated:  allocated,
		Sales:           sales,
		SalesValue:      salesValue,
		restockApplied:  restockApplied,
		restockFailed:   restockFailed,
		EventsProjected: projected,
		ProjectionLag:   lag,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

func (r *Registry) OrderCreated(status string)     { r.OrdersCreated.WithLabelValues(status).Inc() }
func (r *Registry) FulfillAttempted(result string) { r.FulfillAttempts.WithLabelValues(result).Inc() }
func (r *Registry) OrderCanceled()                 { r.OrdersCanceled.Inc() }

func (r *Registry) BackorderAllocated(units int) {
	r.UnitsAllocated.Add(float64(units))
}

func (r *Registry) SaleRecorded(total float64) {
	r.Sales.Inc()
	r.SalesValue.Add(total)
}

func (r *Registry) RestockApplied(units int) { r.restockApplied.Add(float64(units)) }
func (r *Registry) RestockRejected()         { r.restockFailed.Inc() }

// EventProjected counts one projected event and how long after it happened
// the projection caught up.
func (r *Registry) EventProjected(eventType string, lagSeconds float64) {
	r.EventsProjected.WithLabelValues(eventType).Inc()
	if lagSeconds >= 0 {
		r.ProjectionLag.Observe(lagSeconds)
	}
}
