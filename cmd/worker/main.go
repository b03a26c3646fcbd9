package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/airreserve/config"
	"github.com/Domenick1991/airreserve/internal/bootstrap"
	"github.com/Domenick1991/airreserve/internal/cache"
	"github.com/Domenick1991/airreserve/internal/email"
	"github.com/Domenick1991/airreserve/internal/expiry"
	"github.com/Domenick1991/airreserve/internal/inventory"
	"github.com/Domenick1991/airreserve/internal/kafka"
	"github.com/Domenick1991/airreserve/internal/logger"
	"github.com/Domenick1991/airreserve/internal/repository"
	"github.com/Domenick1991/airreserve/internal/service/reservations"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
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

	pool, err := repository.NewPool(ctx, cfg.Database.DSN(), cfg.Telemetry.Enabled)
	if err != nil {
		lg.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()
	store := repository.NewPGStore(pool)

	_, zones, err := bootstrap.LoadReferenceData(cfg, lg)
	if err != nil {
		lg.Fatal("load reference data", zap.Error(err))
	}

	redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.FlightsTTL(), cfg.Booking.SeatMapTTL())
	defer redisCache.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers, lg)
	defer producer.Close()
	if err := producer.CheckConnection(ctx); err != nil {
		lg.Warn("kafka unavailable, events will be dropped", zap.Error(err))
	}

	inventoryService := inventory.NewService(store, inventory.WithCache(redisCache), inventory.WithLogger(lg))
	reservationService := reservations.NewService(store, zones,
		reservations.WithEvents(producer, cfg.Kafka.ReservationEventsTopic),
		reservations.WithSeatMapInvalidator(inventoryService),
		reservations.WithLogger(lg),
		reservations.WithSweepBatch(cfg.Worker.SweepBatchSize),
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return sweep(ctx, reservationService, time.Duration(cfg.Worker.ExpirationSweepMinutes)*time.Minute, lg)
	})

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.PaymentConfirmedTopic, lg)
	defer consumer.Close()
	g.Go(func() error {
		err := consumer.Consume(ctx, kafka.PaymentHandler(reservationService, lg))
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	if cfg.Email.Enabled {
		sender := email.NewSender(cfg.Email.From, reservationService, lg)
		notices := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.NotifyGroupID, cfg.Kafka.ReservationEventsTopic, lg)
		defer notices.Close()
		g.Go(func() error {
			err := notices.Consume(ctx, email.Handler(sender, lg))
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
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

		w := worker.New(temporalClient, cfg.Temporal.TaskQueue, worker.Options{})
		expiry.Register(w, reservationService)
		if err := w.Start(); err != nil {
			lg.Fatal("start temporal worker", zap.Error(err))
		}
		defer w.Stop()
		lg.Info("temporal worker started", zap.String("task_queue", cfg.Temporal.TaskQueue))
	}

	if err := g.Wait(); err != nil {
		lg.Error("worker stopped", zap.Error(err))
	}
	lg.Info("worker shut down")
}

// sweep expires overdue holds on every tick. It is the backstop for the
// per-reservation Temporal timers.
func sweep(ctx context.Context, svc reservations.ReservationUseCase, every time.Duration, lg *zap.Logger) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			expired, err := svc.ExpireReservations(ctx)
			if err != nil {
				lg.Error("expire reservations", zap.Error(err))
			}
			if len(expired) > 0 {
				lg.Info("expired reservations", zap.Int("count", len(expired)), zap.Int64s("ids", expired))
			}
		case <-ctx.Done():
			return nil
		}
	}
}
