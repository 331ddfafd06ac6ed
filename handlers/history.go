package handlers

import (
	"net/http"
	"strconv"

	"meetsy/config"
	"meetsy/database/repository/records"
	"meetsy/utils"

	"github.com/gin-gonic/gin"
)

// HistoryHandler serves the booking history kept in Mongo.
type HistoryHandler struct {
	Records records.Repository
}

func NewHistoryHandler(repo records.Repository) *HistoryHandler {
	return &HistoryHandler{Records: repo}
}

// ListBookings returns the requester's bookings, newest first.
func (h *HistoryHandler) ListBookings(c *gin.Context) {
	if h.Records == nil {
		utils.JSONError(c, http.StatusNotImplemented, "booking history is not enabled", "")
		return
	}

	requester := c.Query("requesterId")
	if requester == "" {
		requester = config.AppConfig.RequesterID
	}

	limit := int64(20)
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 || parsed > 100 {
			utils.JSONError(c, http.StatusBadRequest, "invalid limit", "limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	bookings, err := h.Records.ListByRequester(c.Request.Context(), requester, limit)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to fetch bookings", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}
