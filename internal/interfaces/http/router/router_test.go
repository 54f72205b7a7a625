package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appcustomer "retailhub/internal/application/customer"
	appinventory "retailhub/internal/application/inventory"
	apporder "retailhub/internal/application/order"
	"retailhub/internal/application/sales"
	"retailhub/internal/interfaces/http/handler"
	"retailhub/internal/metrics"
	"retailhub/pkg/logger"
)

type api struct {
	engine *gin.Engine
}

func newAPI(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.NewNop()
	reg := metrics.NewRegistry()
	catalog := appinventory.NewCatalog(log)
	customers := appcustomer.NewDirectory(log)
	history := sales.NewHistory()
	manager := apporder.NewManager(apporder.Dependencies{
		Products: catalog,
		Sales:    history,
		Metrics:  reg,
		Logger:   log,
	})

	r := gin.New()
	RegisterRoutes(r, Handlers{
		Products:  handler.NewProductHandler(catalog, manager, customers),
		Orders:    handler.NewOrderHandler(manager, catalog, customers, true),
		Customers: handler.NewCustomerHandler(customers, manager, history),
		Sales:     handler.NewSaleHandler(history),
		Metrics:   reg.Handler(),
	})
	return &api{engine: r}
}

func (a *api) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.engine.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (a *api) seed(t *testing.T) {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/products", map[string]interface{}{
		"code": 101, "name": "Laptop", "price": "1200", "quantity": 10,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = a.do(t, http.MethodPost, "/api/customers", map[string]interface{}{
		"id": 1, "name": "Alice", "email": "alice@example.com",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestHealthAndMetrics(t *testing.T) {
	a := newAPI(t)

	assert.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/healthz", nil).Code)
	rec := a.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProducts(t *testing.T) {
	a := newAPI(t)
	a.seed(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		want   int
	}{
		{name: "duplicate code", method: http.MethodPost, path: "/api/products", body: map[string]interface{}{"code": 101, "name": "Again"}, want: http.StatusConflict},
		{name: "missing name", method: http.MethodPost, path: "/api/products", body: map[string]interface{}{"code": 102}, want: http.StatusBadRequest},
		{name: "get", method: http.MethodGet, path: "/api/products/101", want: http.StatusOK},
		{name: "get unknown", method: http.MethodGet, path: "/api/products/999", want: http.StatusNotFound},
		{name: "bad code", method: http.MethodGet, path: "/api/products/abc", want: http.StatusBadRequest},
		{name: "increase", method: http.MethodPost, path: "/api/products/101/stock", body: map[string]int{"quantity": 5}, want: http.StatusOK},
		{name: "decrease too much", method: http.MethodDelete, path: "/api/products/101/stock", body: map[string]int{"quantity": 50}, want: http.StatusConflict},
		{name: "decrease", method: http.MethodDelete, path: "/api/products/101/stock", body: map[string]int{"quantity": 3}, want: http.StatusOK},
		{name: "allocate", method: http.MethodPost, path: "/api/products/101/allocate", want: http.StatusOK},
		{name: "direct sale walk-in", method: http.MethodPost, path: "/api/products/101/direct-sale", body: map[string]int{"quantity": 2}, want: http.StatusCreated},
		{name: "direct sale unknown customer", method: http.MethodPost, path: "/api/products/101/direct-sale", body: map[string]int{"quantity": 1, "customer_id": 77}, want: http.StatusNotFound},
		{name: "direct sale too many", method: http.MethodPost, path: "/api/products/101/direct-sale", body: map[string]int{"quantity": 100}, want: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}

	rec := a.do(t, http.MethodGet, "/api/products/101", nil)
	p := decode(t, rec)
	assert.Equal(t, 10.0, p["quantity"], "10 + 5 - 3 - 2")

	rec = a.do(t, http.MethodGet, "/api/products/search?q=lap", nil)
	var found []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &found))
	assert.Len(t, found, 1)

	assert.Equal(t, http.StatusNoContent, a.do(t, http.MethodDelete, "/api/products/101", nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodDelete, "/api/products/101", nil).Code)
}

func TestOrderLifecycle(t *testing.T) {
	a := newAPI(t)
	a.seed(t)

	rec := a.do(t, http.MethodPost, "/api/orders", map[string]interface{}{
		"customer_id": 1,
		"items":       []map[string]int{{"product_code": 101, "quantity": 15}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	o := decode(t, rec)
	assert.Equal(t, "PARTIALLY_FULFILLED", o["status"])
	id := int(o["id"].(float64))
	base := "/api/orders/" + itoa(id)

	assert.Equal(t, http.StatusConflict, a.do(t, http.MethodPost, base+"/deliver", nil).Code)

	rec = a.do(t, http.MethodPost, "/api/products/101/stock", map[string]int{"quantity": 5})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = a.do(t, http.MethodPost, "/api/products/101/allocate", nil)
	assert.Equal(t, 5.0, decode(t, rec)["allocated"])

	rec = a.do(t, http.MethodGet, base, nil)
	assert.Equal(t, "READY_TO_BE_DELIVERED", decode(t, rec)["status"])

	rec = a.do(t, http.MethodPost, base+"/deliver", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "18000", decode(t, rec)["total"])

	rec = a.do(t, http.MethodPost, base+"/fulfill", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "closed", decode(t, rec)["result"])
	assert.Equal(t, http.StatusConflict, a.do(t, http.MethodPost, base+"/cancel", nil).Code)

	rec = a.do(t, http.MethodGet, "/api/customers/1/sales", nil)
	var sold []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sold))
	assert.Len(t, sold, 1)

	rec = a.do(t, http.MethodGet, "/api/sales?customer_id=1", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sold))
	assert.Len(t, sold, 1)
}

func TestOrders_Errors(t *testing.T) {
	a := newAPI(t)
	a.seed(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		want   int
	}{
		{name: "no items", method: http.MethodPost, path: "/api/orders", body: map[string]interface{}{"customer_id": 1, "items": []int{}}, want: http.StatusBadRequest},
		{name: "unknown customer", method: http.MethodPost, path: "/api/orders", body: map[string]interface{}{"customer_id": 5, "items": []map[string]int{{"product_code": 101, "quantity": 1}}}, want: http.StatusNotFound},
		{name: "unknown product", method: http.MethodPost, path: "/api/orders", body: map[string]interface{}{"customer_id": 1, "items": []map[string]int{{"product_code": 999, "quantity": 1}}}, want: http.StatusNotFound},
		{name: "negative quantity", method: http.MethodPost, path: "/api/orders", body: map[string]interface{}{"customer_id": 1, "items": []map[string]int{{"product_code": 101, "quantity": -2}}}, want: http.StatusBadRequest},
		{name: "get unknown", method: http.MethodGet, path: "/api/orders/4242", want: http.StatusNotFound},
		{name: "fulfill unknown", method: http.MethodPost, path: "/api/orders/4242/fulfill", want: http.StatusNotFound},
		{name: "cancel bad id", method: http.MethodPost, path: "/api/orders/x/cancel", want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestOrders_NoBackorderAndFulfill(t *testing.T) {
	a := newAPI(t)
	a.seed(t)

	rec := a.do(t, http.MethodPost, "/api/orders", map[string]interface{}{
		"customer_id":     1,
		"allow_backorder": false,
		"items":           []map[string]int{{"product_code": 101, "quantity": 12}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	o := decode(t, rec)
	assert.Equal(t, "PENDING", o["status"])
	line := o["items"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, 2.0, line["unmet_qty"])
	base := "/api/orders/" + itoa(int(o["id"].(float64)))

	rec = a.do(t, http.MethodPost, base+"/fulfill", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	a.do(t, http.MethodPost, "/api/products/101/stock", map[string]int{"quantity": 2})
	rec = a.do(t, http.MethodPost, base+"/fulfill", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", decode(t, rec)["result"])

	rec = a.do(t, http.MethodPost, base+"/cancel", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CANCELED", decode(t, rec)["status"])
}

func TestCustomers(t *testing.T) {
	a := newAPI(t)
	a.seed(t)

	assert.Equal(t, http.StatusConflict, a.do(t, http.MethodPost, "/api/customers", map[string]interface{}{"id": 1, "name": "Dup"}).Code)
	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodPost, "/api/customers", map[string]interface{}{"name": "Eve", "email": "not-an-email"}).Code)
	assert.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/api/customers/1", nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, "/api/customers/2", nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, "/api/customers/2/orders", nil).Code)

	rec := a.do(t, http.MethodGet, "/api/customers?email=ALICE@example.com", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Alice", decode(t, rec)["name"])

	rec = a.do(t, http.MethodGet, "/api/customers", nil)
	var all []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Len(t, all, 2, "Alice and the walk-in customer")
}

func itoa(n int) string { return strconv.Itoa(n) }
