package api

import (
	"context"
	"net/http"
	"time"

	"github.com/Domenick1991/airreserve/internal/domain"
	"github.com/Domenick1991/airreserve/internal/service/flights"
	"github.com/gin-gonic/gin"
)

type SeatMapReader interface {
	SeatMap(ctx context.Context, flightID int64) ([]domain.Seat, error)
}

type FlightHandler struct {
	service flights.FlightUseCase
	seats   SeatMapReader
}

func NewFlightHandler(service flights.FlightUseCase, seats SeatMapReader) *FlightHandler {
	return &FlightHandler{service: service, seats: seats}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.GET("/", h.list)
	router.GET("/:id", h.get)
	router.GET("/:id/schedule", h.schedule)
	router.GET("/:id/local-times", h.localTimes)
	router.GET("/:id/seats", h.seatMap)
}

// RegisterRoutes serves route-level queries that are not tied to a flight.
func (h *FlightHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/duration", h.routeDuration)
}

func (h *FlightHandler) list(c *gin.Context) {
	flights, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, flights)
}

func (h *FlightHandler) get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	flight, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, flight)
}

func (h *FlightHandler) schedule(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	schedule, err := h.service.Schedule(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, schedule)
}

// localTimes renders ?at= (RFC 3339, default now) at both ends of the flight.
func (h *FlightHandler) localTimes(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	at := time.Now()
	if raw := c.Query("at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			badRequest(c, "at must be an RFC 3339 timestamp")
			return
		}
		at = parsed
	}
	times, err := h.service.LocalTimes(c.Request.Context(), id, at)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, times)
}

func (h *FlightHandler) seatMap(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	seats, err := h.seats.SeatMap(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"flight_id": id, "seats": seats})
}

func (h *FlightHandler) routeDuration(c *gin.Context) {
	origin, dest := c.Query("origin"), c.Query("destination")
	if origin == "" || dest == "" {
		badRequest(c, "origin and destination are required")
		return
	}
	duration, err := h.service.RouteDuration(c.Request.Context(), origin, dest)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, duration)
}
