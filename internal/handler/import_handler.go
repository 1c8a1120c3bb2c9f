package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/uni-dcs/records-api/internal/dto"
	"github.com/uni-dcs/records-api/internal/service"
	appErrors "github.com/uni-dcs/records-api/pkg/errors"
	"github.com/uni-dcs/records-api/pkg/response"
)

// ImportHandler exposes bulk import endpoints.
type ImportHandler struct {
	imports    *service.ImportService
	statistics *service.StatisticsService
	metrics    *service.MetricsService
}

// NewImportHandler constructs handler.
func NewImportHandler(imports *service.ImportService, statistics *service.StatisticsService, metrics *service.MetricsService) *ImportHandler {
	return &ImportHandler{imports: imports, statistics: statistics, metrics: metrics}
}

// Results godoc
// @Summary Bulk import graded results for a course
// @Description Rows are processed independently, failed rows are reported with their reason
// @Tags Imports
// @Accept json
// @Produce json
// @Param payload body dto.ImportResultsRequest true "Import payload"
// @Success 200 {object} response.Envelope
// @Router /imports/results [post]
func (h *ImportHandler) Results(c *gin.Context) {
	var req dto.ImportResultsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	report, err := h.imports.ImportResults(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.CountImportRows(report.Created(), report.Updated(), len(report.Failed))
	if req.Session != "" {
		h.statistics.InvalidateSession(c.Request.Context(), req.Session)
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Students godoc
// @Summary Bulk import student accounts
// @Tags Imports
// @Accept json
// @Produce json
// @Param payload body dto.ImportStudentsRequest true "Import payload"
// @Success 200 {object} response.Envelope
// @Router /imports/students [post]
func (h *ImportHandler) Students(c *gin.Context) {
	var req dto.ImportStudentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	report, err := h.imports.ImportStudents(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.CountImportRows(len(report.Success), 0, len(report.Failed))
	response.JSON(c, http.StatusOK, report, nil)
}
