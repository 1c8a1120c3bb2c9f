package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/uni-dcs/records-api/internal/dto"
	"github.com/uni-dcs/records-api/internal/models"
	"github.com/uni-dcs/records-api/internal/service"
	appErrors "github.com/uni-dcs/records-api/pkg/errors"
	"github.com/uni-dcs/records-api/pkg/response"
)

// ResultHandler exposes graded result endpoints.
type ResultHandler struct {
	results    *service.ResultService
	statistics *service.StatisticsService
	metrics    *service.MetricsService
}

// NewResultHandler constructs handler.
func NewResultHandler(results *service.ResultService, statistics *service.StatisticsService, metrics *service.MetricsService) *ResultHandler {
	return &ResultHandler{results: results, statistics: statistics, metrics: metrics}
}

// List godoc
// @Summary List graded results
// @Description Students see their own results, lecturers the ones they uploaded
// @Tags Results
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param courseId query string false "Filter by course"
// @Param session query string false "Filter by session token"
// @Param semester query string false "Filter by semester"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /results [get]
func (h *ResultHandler) List(c *gin.Context) {
	var filter models.ResultFilter
	filter.StudentID = c.Query("studentId")
	filter.CourseID = c.Query("courseId")
	filter.SessionToken = c.Query("session")
	filter.Semester = models.Semester(c.Query("semester"))
	filter.Page, filter.PageSize = queryPage(c)

	results, pagination, err := h.results.List(c.Request.Context(), filter, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, pagination)
}

// Get godoc
// @Summary Get result detail
// @Tags Results
// @Produce json
// @Param id path string true "Result ID"
// @Success 200 {object} response.Envelope
// @Router /results/{id} [get]
func (h *ResultHandler) Get(c *gin.Context) {
	result, err := h.results.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Create godoc
// @Summary Record a graded result
// @Description Total and letter grade are derived from CA and exam scores
// @Tags Results
// @Accept json
// @Produce json
// @Param payload body dto.CreateResultRequest true "Result payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /results [post]
func (h *ResultHandler) Create(c *gin.Context) {
	var req dto.CreateResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.results.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.CountGrade(string(result.Grade))
	h.statistics.InvalidateSession(c.Request.Context(), result.SessionToken)
	response.Created(c, result)
}

// Update godoc
// @Summary Update scores of a graded result
// @Tags Results
// @Accept json
// @Produce json
// @Param id path string true "Result ID"
// @Param payload body dto.UpdateResultRequest true "Result payload"
// @Success 200 {object} response.Envelope
// @Router /results/{id} [put]
func (h *ResultHandler) Update(c *gin.Context) {
	var req dto.UpdateResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.results.Update(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.statistics.InvalidateSession(c.Request.Context(), result.SessionToken)
	response.JSON(c, http.StatusOK, result, nil)
}

// Delete godoc
// @Summary Delete a graded result
// @Tags Results
// @Produce json
// @Param id path string true "Result ID"
// @Success 204 {object} response.Envelope
// @Router /results/{id} [delete]
func (h *ResultHandler) Delete(c *gin.Context) {
	if err := h.results.Delete(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
