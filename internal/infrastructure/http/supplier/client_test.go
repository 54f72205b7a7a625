package supplier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailhub/internal/config"
	"retailhub/pkg/logger"
)

func testConfig(url string) config.SupplierConfig {
	return config.SupplierConfig{
		BaseURL:    url + "/api/v1",
		APIKey:     "secret",
		Warehouse:  "main",
		PageSize:   2,
		SleepMS:    1,
		MaxRetries: 2,
	}
}

func TestClient_FetchDeliveries_Pages(t *testing.T) {
	day := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	pages := map[string][]map[string]interface{}{
		"1": {
			{"id": "d-1", "product_code": 101, "quantity": 5, "supplier": "Acme", "received_at": day},
			{"id": "", "product_code": 102, "quantity": 2, "received_at": day.Add(time.Hour)},
		},
		"2": {
			{"id": "d-3", "product_code": 103, "quantity": 0, "received_at": day.Add(3 * time.Hour)},
			{"id": "d-4", "product_code": 101, "quantity": 1, "received_at": day.Add(2 * time.Hour)},
		},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/warehouses/main/deliveries", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))
		assert.Equal(t, "2", r.URL.Query().Get("page_size"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data":        pages[r.URL.Query().Get("page_number")],
			"total_pages": 2,
		})
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), logger.NewNop())

	got, cursor, err := client.FetchDeliveries(context.Background(), time.Time{})

	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "d-1", got[0].ID)
	assert.NotEmpty(t, got[1].ID, "missing ids are generated")
	assert.Equal(t, "d-4", got[2].ID)
	assert.Equal(t, day.Add(2*time.Hour), cursor, "invalid deliveries do not move the cursor")
}

func TestClient_FetchDeliveries_SendsCursor(t *testing.T) {
	since := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1769904000000", r.URL.Query().Get("received_after"))
		_, _ = w.Write([]byte(`{"data": [], "total_pages": 0}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), logger.NewNop())

	got, cursor, err := client.FetchDeliveries(context.Background(), since)

	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, since, cursor)
}

func TestClient_FetchDeliveries_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantCalls int32
	}{
		{name: "server error is retried", status: http.StatusBadGateway, wantCalls: 3},
		{name: "client error is not retried", status: http.StatusUnauthorized, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				http.Error(w, "nope", tt.status)
			}))
			defer server.Close()

			client := NewClient(testConfig(server.URL), logger.NewNop())

			_, _, err := client.FetchDeliveries(context.Background(), time.Time{})

			assert.Error(t, err)
			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(&calls))
		})
	}
}

func TestClient_FetchDeliveries_RecoversAfterRetry(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"data": [{"id": "d-1", "product_code": 101, "quantity": 3, "received_at": "2026-02-01T00:00:00Z"}], "total_pages": 1}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), logger.NewNop())

	got, _, err := client.FetchDeliveries(context.Background(), time.Time{})

	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestClient_FetchDeliveries_MissingCredentials(t *testing.T) {
	cfg := testConfig("http://localhost")
	cfg.APIKey = ""
	client := NewClient(cfg, logger.NewNop())

	_, _, err := client.FetchDeliveries(context.Background(), time.Time{})

	assert.ErrorContains(t, err, "api_key")
}
