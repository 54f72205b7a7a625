package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"retailhub/internal/application/restock"
	"retailhub/internal/config"
	"retailhub/internal/infrastructure/http/supplier"
	kafkainfra "retailhub/internal/infrastructure/messaging/kafka"
	"retailhub/internal/infrastructure/persistence/pebblestore"
	"retailhub/pkg/logger"
)

const checkpointName = "supplier-deliveries"

// Polls the supplier deliveries API and publishes each delivery to the
// restock topic. With -once it runs a single round and exits.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	if len(cfg.Kafka.Brokers) == 0 || cfg.Kafka.RestockTopic == "" {
		log.Fatal("KAFKA_BOOTSTRAP_SERVERS and KAFKA_RESTOCK_TOPIC are required")
	}

	lg, err := logger.NewZapLogger(cfg.App.Env)
	if err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	lg.Info("restock ingest starting",
		logger.Any("brokers", cfg.Kafka.Brokers),
		logger.String("topic", cfg.Kafka.RestockTopic),
		logger.String("warehouse", cfg.Supplier.Warehouse),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	producer, err := kafkainfra.NewRestockProducer(cfg.Kafka, lg)
	if err != nil {
		lg.Fatal("kafka producer failed", logger.Error(err))
	}
	defer producer.Close(ctx)

	// Without a store the first round looks back one hour.
	since := time.Now().UTC().Add(-1 * time.Hour)
	var store *pebblestore.Store
	if cfg.Inventory.SequenceDir != "" {
		store, err = pebblestore.NewStore(cfg.Inventory.SequenceDir)
		if err != nil {
			lg.Fatal("open checkpoint store failed", logger.Error(err))
		}
		defer store.Close()
		saved, err := store.Checkpoint(checkpointName)
		if err != nil {
			lg.Fatal("read checkpoint failed", logger.Error(err))
		}
		if !saved.IsZero() {
			since = saved
		}
	}

	syncer := restock.NewSyncer(supplier.NewClient(cfg.Supplier, lg), producer, since, lg)
	if store != nil {
		syncer.OnAdvance(func(at time.Time) error { return store.SaveCheckpoint(checkpointName, at) })
	}

	if len(os.Args) > 1 && os.Args[1] == "-once" {
		n, err := syncer.SyncOnce(ctx)
		if err != nil {
			lg.Fatal("restock sync failed", logger.Int("published", n), logger.Error(err))
		}
		lg.Info("restock sync done", logger.Int("published", n), logger.Any("cursor", syncer.Cursor()))
		return
	}

	if err := syncer.Run(ctx, cfg.Supplier.Interval); err != nil {
		lg.Error("restock ingest stopped", logger.Error(err))
	}
}
