package restock

import (
	"context"
	"fmt"
	"sync"
	"time"

	domain "retailhub/internal/domain/restock"
	"retailhub/pkg/logger"
)

// DeliveryFetcher abstracts the supplier client for tests.
type DeliveryFetcher interface {
	FetchDeliveries(ctx context.Context, since time.Time) ([]domain.Delivery, time.Time, error)
}

type DeliveryPublisher interface {
	PublishDelivery(ctx context.Context, d domain.Delivery) error
}

// Syncer moves supplier deliveries onto the restock topic. It remembers the
// newest delivery time it has published and asks only for later ones.
type Syncer struct {
	fetcher   DeliveryFetcher
	publisher DeliveryPublisher
	log       logger.Logger

	mu        sync.Mutex
	cursor    time.Time
	onAdvance func(time.Time) error
}

func NewSyncer(fetcher DeliveryFetcher, publisher DeliveryPublisher, since time.Time, log logger.Logger) *Syncer {
	return &Syncer{
		fetcher:   fetcher,
		publisher: publisher,
		log:       log,
		cursor:    since,
	}
}

// OnAdvance registers a hook that persists the cursor each time it moves.
func (s *Syncer) OnAdvance(fn func(time.Time) error) {
	s.mu.Lock()
	s.onAdvance = fn
	s.mu.Unlock()
}

func (s *Syncer) Cursor() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// SyncOnce fetches and publishes one batch. On a publish failure the cursor
// stays where it was, so the batch is fetched again next time.
func (s *Syncer) SyncOnce(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deliveries, next, err := s.fetcher.FetchDeliveries(ctx, s.cursor)
	if err != nil {
		return 0, fmt.Errorf("fetch deliveries: %w", err)
	}

	count := 0
	for _, d := range deliveries {
		if err := s.publisher.PublishDelivery(ctx, d); err != nil {
			return count, fmt.Errorf("publish delivery %s: %w", d.ID, err)
		}
		count++
	}
	if next.After(s.cursor) {
		s.cursor = next
		if s.onAdvance != nil {
			if err := s.onAdvance(next); err != nil {
				s.log.Warn("save restock cursor failed", logger.Error(err))
			}
		}
	}
	return count, nil
}

// Run calls SyncOnce every interval until ctx ends. Failed rounds are logged
// and retried on the next tick.
func (s *Syncer) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		start := time.Now()
		n, err := s.SyncOnce(ctx)
		if err != nil {
			s.log.Error("restock sync failed", logger.Int("published", n), logger.Error(err))
		} else {
			s.log.Info("restock sync done",
				logger.Int("published", n),
				logger.Duration("took", time.Since(start)),
			)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
