package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/airreserve/config"
	"github.com/Domenick1991/airreserve/internal/bootstrap"
	"github.com/Domenick1991/airreserve/internal/cache"
	"github.com/Domenick1991/airreserve/internal/expiry"
	"github.com/Domenick1991/airreserve/internal/inventory"
	"github.com/Domenick1991/airreserve/internal/kafka"
	"github.com/Domenick1991/airreserve/internal/logger"
	"github.com/Domenick1991/airreserve/internal/repository"
	"github.com/Domenick1991/airreserve/internal/service/flights"
	"github.com/Domenick1991/airreserve/internal/service/reservations"
	"github.com/Domenick1991/airreserve/internal/service/seatchange"
	"github.com/Domenick1991/airreserve/internal/telemetry"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	lg, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		lg.Fatal("init tracing", zap.Error(err))
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	pool, err := repository.NewPool(ctx, cfg.Database.DSN(), cfg.Telemetry.Enabled)
	if err != nil {
		lg.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	store := repository.NewPGStore(pool)
	if cfg.Database.Migrate {
		if err := store.Migrate(ctx); err != nil {
			lg.Fatal("migrate", zap.Error(err))
		}
	}

	graph, zones, err := bootstrap.LoadReferenceData(cfg, lg)
	if err != nil {
		lg.Fatal("load reference data", zap.Error(err))
	}

	redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.FlightsTTL(), cfg.Booking.SeatMapTTL())
	defer redisCache.Close()
	if err := redisCache.Ping(ctx); err != nil {
		lg.Warn("redis unavailable, caches will miss", zap.Error(err))
	}

	producer := kafka.NewProducer(cfg.Kafka.Brokers, lg)
	defer producer.Close()

	inventoryService := inventory.NewService(store, inventory.WithCache(redisCache), inventory.WithLogger(lg))
	flightService := flights.NewFlightService(store, graph, zones, flights.WithCache(redisCache), flights.WithLogger(lg))

	reservationOpts := []reservations.Option{
		reservations.WithEvents(producer, cfg.Kafka.ReservationEventsTopic),
		reservations.WithSeatMapInvalidator(inventoryService),
		reservations.WithLogger(lg),
		reservations.WithSweepBatch(cfg.Worker.SweepBatchSize),
	}
	if cfg.Temporal.Enabled {
		temporalClient, err := client.Dial(client.Options{
			HostPort:  cfg.Temporal.HostPort,
			Namespace: cfg.Temporal.Namespace,
		})
		if err != nil {
			lg.Fatal("connect temporal", zap.Error(err))
		}
		defer temporalClient.Close()
		reservationOpts = append(reservationOpts, reservations.WithExpiryScheduler(expiry.NewScheduler(temporalClient, cfg.Temporal.TaskQueue)))
	}
	reservationService := reservations.NewService(store, zones, reservationOpts...)

	seatChangeService := seatchange.NewService(store, zones,
		seatchange.WithEvents(producer, cfg.Kafka.ReservationEventsTopic),
		seatchange.WithSeatMapInvalidator(inventoryService),
		seatchange.WithLogger(lg),
	)

	err = bootstrap.Run(ctx, cfg, bootstrap.Services{
		Flights:      flightService,
		Inventory:    inventoryService,
		Reservations: reservationService,
		SeatChange:   seatChangeService,
	}, lg)
	if err != nil {
		lg.Fatal("server error", zap.Error(err))
	}
}
