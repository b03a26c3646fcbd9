package api

import (
	"net/http"
	"time"

	"github.com/Domenick1991/airreserve/internal/domain"
	"github.com/Domenick1991/airreserve/internal/middleware"
	"github.com/Domenick1991/airreserve/internal/service/reservations"
	"github.com/gin-gonic/gin"
)

type ReservationHandler struct {
	service reservations.ReservationUseCase
}

type addSegmentRequest struct {
	Leg      domain.Leg                 `json:"leg"`
	FlightID int64                      `json:"flight_id"`
	SeatID   *int64                     `json:"seat_id"`
	Traveler reservations.TravelerInput `json:"traveler"`
}

type paymentRequest struct {
	AmountCents int64  `json:"amount_cents" binding:"required"`
	PaymentRef  string `json:"payment_ref"`
}

type holdResponse struct {
	ID         int64  `json:"id"`
	Code       string `json:"code"`
	Status     string `json:"status"`
	ExpiresAt  string `json:"expires_at"`
	TotalCents int64  `json:"total_price_cents"`
}

func NewReservationHandler(service reservations.ReservationUseCase) *ReservationHandler {
	return &ReservationHandler{service: service}
}

func (h *ReservationHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.create)
	router.GET("/:id", h.get)
	router.POST("/:id/segments", h.addSegment)
	router.POST("/:id/payment", h.pay)
	router.DELETE("/:id", h.cancel)
}

// RegisterBookings serves one-shot bookings.
func (h *ReservationHandler) RegisterBookings(router *gin.RouterGroup) {
	router.POST("/", h.book)
}

func (h *ReservationHandler) create(c *gin.Context) {
	var input reservations.CreateReservationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}
	input.UserID = middleware.UserID(c)

	res, err := h.service.CreateReservation(c.Request.Context(), input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toHoldResponse(res))
}

func (h *ReservationHandler) book(c *gin.Context) {
	var input reservations.BookInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}
	input.UserID = middleware.UserID(c)

	details, err := h.service.Book(c.Request.Context(), input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, details)
}

func (h *ReservationHandler) get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	details, err := h.service.GetForUser(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

func (h *ReservationHandler) addSegment(c *gin.Context) {
	id, ok := h.owned(c)
	if !ok {
		return
	}
	var req addSegmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	result, err := h.service.AddSegment(c.Request.Context(), reservations.AddSegmentInput{
		ReservationID: id,
		Leg:           req.Leg,
		FlightID:      req.FlightID,
		SeatID:        req.SeatID,
		Traveler:      req.Traveler,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *ReservationHandler) pay(c *gin.Context) {
	id, ok := h.owned(c)
	if !ok {
		return
	}
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	res, err := h.service.MarkPaid(c.Request.Context(), id, req.AmountCents)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ReservationHandler) cancel(c *gin.Context) {
	id, ok := h.owned(c)
	if !ok {
		return
	}
	res, err := h.service.Cancel(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// owned parses :id and checks that the caller owns the reservation.
func (h *ReservationHandler) owned(c *gin.Context) (int64, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return 0, false
	}
	if _, err := h.service.GetForUser(c.Request.Context(), id, middleware.UserID(c)); err != nil {
		writeError(c, err)
		return 0, false
	}
	return id, true
}

func toHoldResponse(res *domain.Reservation) holdResponse {
	return holdResponse{
		ID:         res.ID,
		Code:       res.Code,
		Status:     string(res.Status),
		ExpiresAt:  res.ExpiresAt.UTC().Format(time.RFC3339),
		TotalCents: res.TotalPriceCents,
	}
}
