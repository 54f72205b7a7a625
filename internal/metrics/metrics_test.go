package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Counters(t *testing.T) {
	r := NewRegistry()

	r.OrderCreated("PENDING")
	r.OrderCreated("PENDING")
	r.FulfillAttempted("ready")
	r.BackorderAllocated(5)
	r.SaleRecorded(12.5)
	r.OrderCanceled()

	assert.Equal(t, 2.0, testutil.ToFloat64(r.OrdersCreated.WithLabelValues("PENDING")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.FulfillAttempts.WithLabelValues("ready")))
	assert.Equal(t, 5.0, testutil.ToFloat64(r.UnitsAllocated))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Sales))
	assert.Equal(t, 12.5, testutil.ToFloat64(r.SalesValue))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.OrdersCanceled))
}

func TestRegistry_Handler(t *testing.T) {
	r := NewRegistry()
	r.OrderCreated("READY_TO_BE_DELIVERED")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), `retailhub_orders_created_total{status="READY_TO_BE_DELIVERED"} 1`)
}

func TestRegistry_RestockAndProjection(t *testing.T) {
	r := NewRegistry()

	r.RestockApplied(4)
	r.RestockApplied(6)
	r.RestockRejected()
	r.EventProjected("order.created", 0.2)
	r.EventProjected("order.created", -1)

	assert.Equal(t, 10.0, testutil.ToFloat64(r.restockApplied))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.restockFailed))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.EventsProjected.WithLabelValues("order.created")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.ProjectionLag))
}
