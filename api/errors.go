package api

import (
	"net/http"
	"strconv"

	"github.com/Domenick1991/airreserve/internal/domain"
	"github.com/gin-gonic/gin"
)

var kindStatus = map[domain.Kind]int{
	domain.KindValidation: http.StatusBadRequest,
	domain.KindInventory:  http.StatusConflict,
	domain.KindDuplicate:  http.StatusConflict,
	domain.KindState:      http.StatusConflict,
	domain.KindDataGap:    http.StatusUnprocessableEntity,
	domain.KindNotFound:   http.StatusNotFound,
}

// writeError renders err as {"error", "code"} with a status chosen by its kind.
func writeError(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	status, ok := kindStatus[kind]
	if !ok {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "code": string(domain.KindInternal)})
		return
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": domain.CodeOf(err)})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "code": string(domain.KindValidation)})
}

func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}
