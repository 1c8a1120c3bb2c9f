package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/uni-dcs/records-api/internal/service"
	"github.com/uni-dcs/records-api/pkg/response"
)

// StatisticsHandler exposes session-wide aggregate endpoints.
type StatisticsHandler struct {
	statistics *service.StatisticsService
}

// NewStatisticsHandler constructs handler.
func NewStatisticsHandler(statistics *service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{statistics: statistics}
}

// Session godoc
// @Summary Result statistics for a session
// @Description Grade distribution, pass rate and GPA extremes, cached per session
// @Tags Statistics
// @Produce json
// @Param session query string false "Session token, defaults to current"
// @Success 200 {object} response.Envelope
// @Router /statistics/session [get]
func (h *StatisticsHandler) Session(c *gin.Context) {
	stats, err := h.statistics.SessionStatistics(c.Request.Context(), c.Query("session"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}
