package api

import (
	"net/http"
	"strconv"

	"github.com/Domenick1991/airreserve/internal/middleware"
	"github.com/Domenick1991/airreserve/internal/service/seatchange"
	"github.com/gin-gonic/gin"
)

type SeatChangeHandler struct {
	service seatchange.SeatChangeUseCase
}

type changeSeatRequest struct {
	NewSeatID int64 `json:"new_seat_id" binding:"required"`
}

func NewSeatChangeHandler(service seatchange.SeatChangeUseCase) *SeatChangeHandler {
	return &SeatChangeHandler{service: service}
}

func (h *SeatChangeHandler) Register(router *gin.RouterGroup) {
	router.GET("/:id/seat-change", h.check)
	router.PUT("/:id/seat", h.change)
}

// check answers whether the segment may move, optionally to ?new_seat_id=.
func (h *SeatChangeHandler) check(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var newSeatID int64
	if raw := c.Query("new_seat_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			badRequest(c, "invalid new_seat_id")
			return
		}
		newSeatID = parsed
	}

	decision, err := h.service.CanChangeSeat(c.Request.Context(), seatchange.Request{
		UserID:    middleware.UserID(c),
		SegmentID: id,
		NewSeatID: newSeatID,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, decision)
}

func (h *SeatChangeHandler) change(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req changeSeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	result, err := h.service.ChangeSeat(c.Request.Context(), seatchange.Request{
		UserID:    middleware.UserID(c),
		SegmentID: id,
		NewSeatID: req.NewSeatID,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
