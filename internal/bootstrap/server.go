package bootstrap

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Domenick1991/airreserve/api"
	"github.com/Domenick1991/airreserve/config"
	"github.com/Domenick1991/airreserve/internal/api/flights_service_api"
	"github.com/Domenick1991/airreserve/internal/api/grpcapi"
	"github.com/Domenick1991/airreserve/internal/api/reservations_service_api"
	"github.com/Domenick1991/airreserve/internal/inventory"
	"github.com/Domenick1991/airreserve/internal/middleware"
	"github.com/Domenick1991/airreserve/internal/service/flights"
	"github.com/Domenick1991/airreserve/internal/service/reservations"
	"github.com/Domenick1991/airreserve/internal/service/seatchange"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

//go:embed openapi.json
var openAPIDoc []byte

type Services struct {
	Flights      flights.FlightUseCase
	Inventory    inventory.InventoryUseCase
	Reservations reservations.ReservationUseCase
	SeatChange   seatchange.SeatChangeUseCase
}

type Servers struct {
	grpcServer *grpc.Server
	httpServer *http.Server
}

// Run starts the gRPC and HTTP servers and blocks until ctx is cancelled or a server fails.
func Run(ctx context.Context, cfg *config.Config, svc Services, logger *zap.Logger) error {
	s := newServers(cfg, svc, logger)

	lis, err := net.Listen("tcp", cfg.GRPC.Address)
	if err != nil {
		return fmt.Errorf("listen gRPC %s: %w", cfg.GRPC.Address, err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("grpc server listening", zap.String("address", cfg.GRPC.Address))
		return s.grpcServer.Serve(lis)
	})
	g.Go(func() error {
		logger.Info("http server listening", zap.String("address", cfg.HTTP.Address))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.grpcServer.GracefulStop()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func newServers(cfg *config.Config, svc Services, logger *zap.Logger) *Servers {
	grpcSrv := grpc.NewServer(grpc.ChainUnaryInterceptor(grpcapi.AuthInterceptor(cfg.Auth.JWTSecret)))
	flights_service_api.Register(grpcSrv, flights_service_api.NewServer(svc.Flights, svc.Inventory))
	reservations_service_api.Register(grpcSrv, reservations_service_api.NewServer(svc.Reservations, svc.SeatChange))

	return &Servers{
		grpcServer: grpcSrv,
		httpServer: &http.Server{
			Addr:              cfg.HTTP.Address,
			Handler:           NewRouter(cfg, svc, logger),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// NewRouter wires every HTTP handler. Everything under /api/v1 requires a bearer token.
func NewRouter(cfg *config.Config, svc Services, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(logger))
	if len(cfg.HTTP.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:  cfg.HTTP.CORSOrigins,
			AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
			ExposeHeaders: []string{middleware.RequestIDHeader},
			MaxAge:        12 * time.Hour,
		}))
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.HTTP.Swagger {
		router.GET("/openapi.json", func(c *gin.Context) {
			c.Data(http.StatusOK, "application/json", openAPIDoc)
		})
		router.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/openapi.json"))))
	}

	v1 := router.Group("/api/v1", middleware.Auth(cfg.Auth.JWTSecret))

	flightHandler := api.NewFlightHandler(svc.Flights, svc.Inventory)
	flightHandler.Register(v1.Group("/flights"))
	flightHandler.RegisterRoutes(v1.Group("/routes"))

	reservationHandler := api.NewReservationHandler(svc.Reservations)
	reservationHandler.Register(v1.Group("/reservations"))
	reservationHandler.RegisterBookings(v1.Group("/bookings"))

	api.NewSeatChangeHandler(svc.SeatChange).Register(v1.Group("/segments"))

	return router
}
