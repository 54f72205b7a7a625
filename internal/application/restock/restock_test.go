package restock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"retailhub/internal/domain/inventory"
	domain "retailhub/internal/domain/restock"
	"retailhub/pkg/logger"
)

type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) FetchDeliveries(ctx context.Context, since time.Time) ([]domain.Delivery, time.Time, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Get(1).(time.Time), args.Error(2)
	}
	return args.Get(0).([]domain.Delivery), args.Get(1).(time.Time), args.Error(2)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishDelivery(ctx context.Context, d domain.Delivery) error {
	return m.Called(ctx, d).Error(0)
}

type MockStock struct {
	mock.Mock
}

func (m *MockStock) IncreaseStock(ctx context.Context, code, qty int) (inventory.View, error) {
	args := m.Called(ctx, code, qty)
	return args.Get(0).(inventory.View), args.Error(1)
}

func (m *MockStock) AllocateBackorderedItems(ctx context.Context, code int) (int, error) {
	args := m.Called(ctx, code)
	return args.Int(0), args.Error(1)
}

type MockMetrics struct {
	mock.Mock
}

func (m *MockMetrics) RestockApplied(units int) { m.Called(units) }
func (m *MockMetrics) RestockRejected()         { m.Called() }

var t0 = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

func deliveries() []domain.Delivery {
	return []domain.Delivery{
		{ID: "d-1", ProductCode: 101, Quantity: 5, ReceivedAt: t0},
		{ID: "d-2", ProductCode: 102, Quantity: 1, ReceivedAt: t0.Add(time.Minute)},
	}
}

func TestSyncer_SyncOnce_Success(t *testing.T) {
	fetcher := new(MockFetcher)
	publisher := new(MockPublisher)
	s := NewSyncer(fetcher, publisher, time.Time{}, logger.NewNop())
	ctx := context.Background()

	fetcher.On("FetchDeliveries", ctx, time.Time{}).Return(deliveries(), t0.Add(time.Minute), nil).Once()
	publisher.On("PublishDelivery", ctx, mock.Anything).Return(nil).Twice()

	count, err := s.SyncOnce(ctx)

	assert.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, t0.Add(time.Minute), s.Cursor())
	fetcher.AssertExpectations(t)
	publisher.AssertExpectations(t)

	fetcher.On("FetchDeliveries", ctx, t0.Add(time.Minute)).Return([]domain.Delivery{}, t0.Add(time.Minute), nil).Once()
	count, err = s.SyncOnce(ctx)
	assert.NoError(t, err)
	assert.Zero(t, count)
}

func TestSyncer_OnAdvance(t *testing.T) {
	fetcher := new(MockFetcher)
	publisher := new(MockPublisher)
	s := NewSyncer(fetcher, publisher, time.Time{}, logger.NewNop())
	ctx := context.Background()
	var saved []time.Time
	s.OnAdvance(func(at time.Time) error {
		saved = append(saved, at)
		return errors.New("disk full")
	})

	fetcher.On("FetchDeliveries", ctx, time.Time{}).Return(deliveries(), t0.Add(time.Minute), nil).Once()
	fetcher.On("FetchDeliveries", ctx, t0.Add(time.Minute)).Return([]domain.Delivery{}, t0.Add(time.Minute), nil).Once()
	publisher.On("PublishDelivery", ctx, mock.Anything).Return(nil)

	_, err := s.SyncOnce(ctx)
	require.NoError(t, err, "a failed save does not fail the round")
	_, err = s.SyncOnce(ctx)
	require.NoError(t, err)

	assert.Equal(t, []time.Time{t0.Add(time.Minute)}, saved)
}

func TestSyncer_SyncOnce_FetchError(t *testing.T) {
	fetcher := new(MockFetcher)
	publisher := new(MockPublisher)
	s := NewSyncer(fetcher, publisher, t0, logger.NewNop())
	ctx := context.Background()

	fetcher.On("FetchDeliveries", ctx, t0).Return(nil, t0, errors.New("fetch failed"))

	count, err := s.SyncOnce(ctx)

	assert.ErrorContains(t, err, "fetch deliveries")
	assert.Zero(t, count)
	publisher.AssertNotCalled(t, "PublishDelivery", mock.Anything, mock.Anything)
}

func TestSyncer_SyncOnce_PublishErrorKeepsCursor(t *testing.T) {
	fetcher := new(MockFetcher)
	publisher := new(MockPublisher)
	s := NewSyncer(fetcher, publisher, time.Time{}, logger.NewNop())
	ctx := context.Background()
	ds := deliveries()

	fetcher.On("FetchDeliveries", ctx, time.Time{}).Return(ds, t0.Add(time.Minute), nil)
	publisher.On("PublishDelivery", ctx, ds[0]).Return(nil).Once()
	publisher.On("PublishDelivery", ctx, ds[1]).Return(errors.New("broker down")).Once()

	count, err := s.SyncOnce(ctx)

	assert.Error(t, err)
	assert.Equal(t, 1, count)
	assert.True(t, s.Cursor().IsZero())
}

func TestSyncer_Run_StopsOnCancel(t *testing.T) {
	fetcher := new(MockFetcher)
	publisher := new(MockPublisher)
	s := NewSyncer(fetcher, publisher, time.Time{}, logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	fetcher.On("FetchDeliveries", mock.Anything, mock.Anything).Return([]domain.Delivery{}, time.Time{}, nil).Run(func(mock.Arguments) {
		cancel()
	})

	assert.NoError(t, s.Run(ctx, time.Hour))
	fetcher.AssertNumberOfCalls(t, "FetchDeliveries", 1)
}

func newReceiver() (*Receiver, *MockStock, *MockMetrics) {
	stock := new(MockStock)
	metrics := new(MockMetrics)
	return NewReceiver(stock, stock, metrics, logger.NewNop()), stock, metrics
}

func TestReceiver_ApplyDelivery(t *testing.T) {
	r, stock, metrics := newReceiver()
	ctx := context.Background()
	d := deliveries()[0]

	stock.On("IncreaseStock", ctx, 101, 5).Return(inventory.View{Code: 101, Quantity: 5, Available: 5}, nil).Once()
	stock.On("AllocateBackorderedItems", ctx, 101).Return(3, nil).Once()
	metrics.On("RestockApplied", 5).Once()

	require.NoError(t, r.ApplyDelivery(ctx, d))
	require.NoError(t, r.ApplyDelivery(ctx, d), "redelivery is a no-op")

	stock.AssertExpectations(t)
	metrics.AssertExpectations(t)
}

func TestReceiver_ApplyDelivery_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid delivery", func(t *testing.T) {
		r, stock, metrics := newReceiver()
		metrics.On("RestockRejected").Once()

		assert.NoError(t, r.ApplyDelivery(ctx, domain.Delivery{ID: "d-9", ProductCode: 101}))
		stock.AssertNotCalled(t, "IncreaseStock", mock.Anything, mock.Anything, mock.Anything)
		metrics.AssertExpectations(t)
	})

	t.Run("unknown product", func(t *testing.T) {
		r, stock, metrics := newReceiver()
		stock.On("IncreaseStock", ctx, 101, 5).Return(inventory.View{}, inventory.ErrProductNotFound)
		metrics.On("RestockRejected").Once()

		assert.NoError(t, r.ApplyDelivery(ctx, deliveries()[0]))
		stock.AssertNotCalled(t, "AllocateBackorderedItems", mock.Anything, mock.Anything)
		metrics.AssertExpectations(t)
	})

	t.Run("stock failure is retryable", func(t *testing.T) {
		r, stock, metrics := newReceiver()
		d := deliveries()[0]
		stock.On("IncreaseStock", ctx, 101, 5).Return(inventory.View{}, errors.New("boom")).Once()
		stock.On("IncreaseStock", ctx, 101, 5).Return(inventory.View{Code: 101, Quantity: 5, Available: 5}, nil).Once()
		stock.On("AllocateBackorderedItems", ctx, 101).Return(0, nil).Once()
		metrics.On("RestockApplied", 5).Once()

		assert.Error(t, r.ApplyDelivery(ctx, d))
		assert.NoError(t, r.ApplyDelivery(ctx, d))
		stock.AssertExpectations(t)
	})
}
