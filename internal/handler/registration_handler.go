package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/uni-dcs/records-api/internal/dto"
	"github.com/uni-dcs/records-api/internal/service"
	appErrors "github.com/uni-dcs/records-api/pkg/errors"
	"github.com/uni-dcs/records-api/pkg/response"
)

// RegistrationHandler exposes course registration endpoints.
type RegistrationHandler struct {
	registrations *service.RegistrationService
	metrics       *service.MetricsService
}

// NewRegistrationHandler constructs handler.
func NewRegistrationHandler(registrations *service.RegistrationService, metrics *service.MetricsService) *RegistrationHandler {
	return &RegistrationHandler{registrations: registrations, metrics: metrics}
}

// Status godoc
// @Summary Registration status for a course
// @Description Window state, roster membership and capacity for the current student
// @Tags Registration
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/registration [get]
func (h *RegistrationHandler) Status(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	status, err := h.registrations.Status(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Register godoc
// @Summary Register current student for a course
// @Tags Registration
// @Produce json
// @Param id path string true "Course ID"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /courses/{id}/register [post]
func (h *RegistrationHandler) Register(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.registrations.Register(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		h.metrics.CountRegistration("refused")
		response.Error(c, err)
		return
	}
	h.metrics.CountRegistration("registered")
	response.Created(c, gin.H{"status": "registered"})
}

// Unregister godoc
// @Summary Drop current student from a course
// @Tags Registration
// @Produce json
// @Param id path string true "Course ID"
// @Success 204 {object} response.Envelope
// @Router /courses/{id}/register [delete]
func (h *RegistrationHandler) Unregister(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.registrations.Unregister(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.CountRegistration("dropped")
	response.NoContent(c)
}

// Available godoc
// @Summary Courses the current student can browse for registration
// @Tags Registration
// @Produce json
// @Param session query string false "Session token, defaults to current"
// @Success 200 {object} response.Envelope
// @Router /registration/available [get]
func (h *RegistrationHandler) Available(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	courses, err := h.registrations.Available(c.Request.Context(), claims.UserID, c.Query("session"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// Registered godoc
// @Summary Courses the current student is registered for
// @Tags Registration
// @Produce json
// @Param session query string false "Session token, defaults to current"
// @Success 200 {object} response.Envelope
// @Router /registration/mine [get]
func (h *RegistrationHandler) Registered(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	courses, err := h.registrations.Registered(c.Request.Context(), claims.UserID, c.Query("session"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// UpdateSettings godoc
// @Summary Update registration window settings for a course
// @Tags Registration
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body dto.RegistrationSettingsRequest true "Settings payload"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/registration/settings [put]
func (h *RegistrationHandler) UpdateSettings(c *gin.Context) {
	var req dto.RegistrationSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	course, err := h.registrations.UpdateSettings(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Open godoc
// @Summary Open registration for a course
// @Tags Registration
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/registration/open [post]
func (h *RegistrationHandler) Open(c *gin.Context) {
	h.setOpen(c, true)
}

// Close godoc
// @Summary Close registration for a course
// @Tags Registration
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/registration/close [post]
func (h *RegistrationHandler) Close(c *gin.Context) {
	h.setOpen(c, false)
}

func (h *RegistrationHandler) setOpen(c *gin.Context, open bool) {
	course, err := h.registrations.SetOpen(c.Request.Context(), c.Param("id"), open, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// BulkDeadlines godoc
// @Summary Set registration deadline for all courses in a session
// @Tags Registration
// @Accept json
// @Produce json
// @Param payload body dto.BulkDeadlineRequest true "Deadline payload"
// @Success 200 {object} response.Envelope
// @Router /registration/deadlines [post]
func (h *RegistrationHandler) BulkDeadlines(c *gin.Context) {
	var req dto.BulkDeadlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	report, err := h.registrations.BulkDeadlines(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Statistics godoc
// @Summary Registration statistics for a session
// @Tags Registration
// @Produce json
// @Param session query string false "Session token, defaults to current"
// @Success 200 {object} response.Envelope
// @Router /registration/statistics [get]
func (h *RegistrationHandler) Statistics(c *gin.Context) {
	stats, err := h.registrations.Statistics(c.Request.Context(), c.Query("session"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}
