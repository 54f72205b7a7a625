package supplier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"retailhub/internal/config"
	"retailhub/internal/domain/restock"
	"retailhub/pkg/logger"
)

type Client struct {
	httpClient *http.Client
	cfg        config.SupplierConfig
	log        logger.Logger
}

func NewClient(cfg config.SupplierConfig, log logger.Logger) *Client {
	return &Client{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
			},
		},
	}
}

type deliveryDTO struct {
	ID          string    `json:"id"`
	ProductCode int       `json:"product_code"`
	Quantity    int       `json:"quantity"`
	Supplier    string    `json:"supplier"`
	ReceivedAt  time.Time `json:"received_at"`
}

type deliveriesResponse struct {
	Data       []deliveryDTO `json:"data"`
	TotalPages int           `json:"total_pages"`
}

// statusError is a non-2xx answer from the supplier API.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("supplier api status %d: %s", e.code, e.body)
}

// FetchDeliveries pages through deliveries received after since. It returns
// the valid deliveries and the newest received_at seen, which the caller
// passes back on the next poll.
func (c *Client) FetchDeliveries(ctx context.Context, since time.Time) ([]restock.Delivery, time.Time, error) {
	if c.cfg.APIKey == "" || c.cfg.Warehouse == "" {
		return nil, since, fmt.Errorf("supplier api_key or warehouse is empty")
	}

	base, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return nil, since, fmt.Errorf("invalid supplier base url: %w", err)
	}

	pageSize := c.cfg.PageSize
	if pageSize <= 0 {
		pageSize = 200
	}
	sleep := time.Duration(c.cfg.SleepMS) * time.Millisecond

	out := make([]restock.Delivery, 0)
	cursor := since
	page, totalPages := 1, 1

	for page <= totalPages {
		u := *base
		u.Path = fmt.Sprintf("%s/warehouses/%s/deliveries", strings.TrimSuffix(base.Path, "/"), c.cfg.Warehouse)

		q := u.Query()
		q.Set("page_size", strconv.Itoa(pageSize))
		q.Set("page_number", strconv.Itoa(page))
		if !since.IsZero() {
			q.Set("received_after", strconv.FormatInt(since.UnixMilli(), 10))
		}
		u.RawQuery = q.Encode()

		var body deliveriesResponse
		if err := c.getJSON(ctx, u.String(), &body); err != nil {
			return out, cursor, err
		}
		if len(body.Data) == 0 {
			break
		}

		for _, dto := range body.Data {
			d := restock.Delivery{
				ID:          dto.ID,
				ProductCode: dto.ProductCode,
				Quantity:    dto.Quantity,
				Supplier:    dto.Supplier,
				ReceivedAt:  dto.ReceivedAt.UTC(),
			}
			if d.ID == "" {
				d.ID = uuid.NewString()
			}
			if err := d.Validate(); err != nil {
				c.log.Warn("skipping supplier delivery", logger.String("id", d.ID), logger.Error(err))
				continue
			}
			if d.ReceivedAt.After(cursor) {
				cursor = d.ReceivedAt
			}
			out = append(out, d)
		}

		if body.TotalPages > 0 {
			totalPages = body.TotalPages
		}
		page++

		if page <= totalPages && sleep > 0 {
			select {
			case <-ctx.Done():
				return out, cursor, ctx.Err()
			case <-time.After(sleep):
			}
		}
	}

	c.log.Info("fetched supplier deliveries",
		logger.Int("count", len(out)),
		logger.Int("pages", page-1),
	)
	return out, cursor, nil
}

// getJSON retries network errors and 5xx answers with a linear backoff.
func (c *Client) getJSON(ctx context.Context, rawURL string, into interface{}) error {
	retries := c.cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	backoff := time.Duration(c.cfg.SleepMS) * time.Millisecond
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * backoff):
			}
		}

		err := c.get(ctx, rawURL, into)
		if err == nil {
			return nil
		}
		lastErr = err

		var se *statusError
		if errors.As(err, &se) && se.code < 500 {
			return err
		}
		c.log.Warn("supplier request failed",
			logger.Int("attempt", attempt+1),
			logger.Error(err),
		)
	}
	return fmt.Errorf("supplier request failed after %d attempts: %w", retries+1, lastErr)
}

func (c *Client) get(ctx context.Context, rawURL string, into interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-API-Key", c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call supplier api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(snippet))}
	}

	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
