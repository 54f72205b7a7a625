package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	appcustomer "retailhub/internal/application/customer"
	appinventory "retailhub/internal/application/inventory"
	"retailhub/internal/application/order"
	"retailhub/internal/application/projection"
	"retailhub/internal/application/restock"
	"retailhub/internal/application/sales"
	"retailhub/internal/config"
	ginserver "retailhub/internal/infrastructure/http/gin"
	kafkainfra "retailhub/internal/infrastructure/messaging/kafka"
	"retailhub/internal/infrastructure/persistence/pebblestore"
	"retailhub/internal/infrastructure/persistence/postgres"
	"retailhub/internal/interfaces/http/handler"
	"retailhub/internal/interfaces/http/router"
	"retailhub/internal/metrics"
	"retailhub/internal/platform/observability"
	"retailhub/pkg/idgen"
	"retailhub/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	lg, err := logger.NewZapLogger(cfg.App.Env)
	if err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.App, cfg.Telemetry)
	if err != nil {
		lg.Fatal("tracing setup failed", logger.Error(err))
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	reg := metrics.NewRegistry()
	catalog := appinventory.NewCatalog(lg)
	customers := appcustomer.NewDirectory(lg)
	history := sales.NewHistory()

	deps := order.Dependencies{
		Products: catalog,
		Sales:    history,
		Metrics:  reg,
		Tracer:   observability.Tracer("retailhub/order"),
		Logger:   lg,
	}

	if cfg.Inventory.SequenceDir != "" {
		store, err := pebblestore.NewStore(cfg.Inventory.SequenceDir)
		if err != nil {
			lg.Fatal("open sequence store failed", logger.Error(err))
		}
		defer store.Close()

		orderIDs, err := store.Sequence("orders", cfg.Inventory.OrderIDStart)
		if err != nil {
			lg.Fatal("open order sequence failed", logger.Error(err))
		}
		saleIDs, err := store.Sequence("sales", cfg.Inventory.SaleIDStart)
		if err != nil {
			lg.Fatal("open sale sequence failed", logger.Error(err))
		}
		deps.OrderIDs, deps.SaleIDs = orderIDs, saleIDs
	} else {
		deps.OrderIDs = idgen.NewCounter(cfg.Inventory.OrderIDStart)
		deps.SaleIDs = idgen.NewCounter(cfg.Inventory.SaleIDStart)
	}

	var projector *projection.Service
	if cfg.DB.Enabled {
		pool, err := postgres.NewPool(cfg.DB)
		if err != nil {
			lg.Fatal("postgres connection failed", logger.Error(err))
		}
		defer pool.Close()

		projector = projection.NewService(
			postgres.NewOrderRepository(pool),
			postgres.NewSaleRepository(pool),
			postgres.NewProductRepository(pool),
			reg,
			lg,
		)
		catalog.SetObserver(projector)
	}

	if cfg.Kafka.Enabled {
		producer, err := kafkainfra.NewEventProducer(cfg.Kafka, lg)
		if err != nil {
			lg.Fatal("kafka producer failed", logger.Error(err))
		}
		defer producer.Close(ctx)
		deps.Publisher = producer
	} else if projector != nil {
		deps.Publisher = projector
	}

	manager := order.NewManager(deps)

	if cfg.Kafka.Enabled {
		receiver := restock.NewReceiver(catalog, manager, reg, lg)
		restockConsumer, err := kafkainfra.NewRestockConsumer(cfg.Kafka, receiver, lg)
		if err != nil {
			lg.Fatal("restock consumer failed", logger.Error(err))
		}
		defer restockConsumer.Close()
		go func() {
			if err := restockConsumer.Start(ctx); err != nil {
				lg.Error("restock consumer stopped", logger.Error(err))
			}
		}()

		if projector != nil {
			eventConsumer, err := kafkainfra.NewEventConsumer(cfg.Kafka, projector, lg)
			if err != nil {
				lg.Fatal("event consumer failed", logger.Error(err))
			}
			defer eventConsumer.Close()
			go func() {
				if err := eventConsumer.Start(ctx); err != nil {
					lg.Error("event consumer stopped", logger.Error(err))
				}
			}()
		}
	}

	engine := ginserver.NewEngine(lg)
	router.RegisterRoutes(engine, router.Handlers{
		Products:  handler.NewProductHandler(catalog, manager, customers),
		Orders:    handler.NewOrderHandler(manager, catalog, customers, cfg.Inventory.AllowBackorder),
		Customers: handler.NewCustomerHandler(customers, manager, history),
		Sales:     handler.NewSaleHandler(history),
		Metrics:   reg.Handler(),
	})

	server := ginserver.NewServer(cfg.Server, engine)
	go func() {
		lg.Info("http server listening", logger.String("addr", cfg.Server.Address()))
		if err := server.Run(); err != nil {
			lg.Error("server run failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	lg.Info("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(sctx); err != nil {
		lg.Error("server shutdown failed", logger.Error(err))
	}
}
