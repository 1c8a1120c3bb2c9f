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

// ExamHandler exposes exam and question endpoints.
type ExamHandler struct {
	exams *service.ExamService
}

// NewExamHandler constructs handler.
func NewExamHandler(exams *service.ExamService) *ExamHandler {
	return &ExamHandler{exams: exams}
}

// List godoc
// @Summary List exams
// @Description Students only see active exams, lecturers their own
// @Tags Exams
// @Produce json
// @Param courseId query string false "Filter by course"
// @Param session query string false "Filter by session token"
// @Param semester query string false "Filter by semester"
// @Param active query bool false "Filter by active state"
// @Success 200 {object} response.Envelope
// @Router /exams [get]
func (h *ExamHandler) List(c *gin.Context) {
	var filter models.ExamFilter
	filter.CourseID = c.Query("courseId")
	filter.SessionToken = c.Query("session")
	filter.Semester = models.Semester(c.Query("semester"))
	filter.IsActive = queryBool(c, "active")

	exams, err := h.exams.List(c.Request.Context(), filter, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exams, nil)
}

// Get godoc
// @Summary Get exam with questions
// @Description Answer keys are stripped for students
// @Tags Exams
// @Produce json
// @Param id path string true "Exam ID"
// @Success 200 {object} response.Envelope
// @Router /exams/{id} [get]
func (h *ExamHandler) Get(c *gin.Context) {
	exam, err := h.exams.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exam, nil)
}

// Create godoc
// @Summary Create exam
// @Tags Exams
// @Accept json
// @Produce json
// @Param payload body dto.CreateExamRequest true "Exam payload"
// @Success 201 {object} response.Envelope
// @Router /exams [post]
func (h *ExamHandler) Create(c *gin.Context) {
	var req dto.CreateExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	exam, err := h.exams.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, exam)
}

// Update godoc
// @Summary Update exam metadata
// @Tags Exams
// @Accept json
// @Produce json
// @Param id path string true "Exam ID"
// @Param payload body dto.UpdateExamRequest true "Exam payload"
// @Success 200 {object} response.Envelope
// @Router /exams/{id} [put]
func (h *ExamHandler) Update(c *gin.Context) {
	var req dto.UpdateExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	exam, err := h.exams.Update(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exam, nil)
}

// Delete godoc
// @Summary Delete exam and its questions
// @Tags Exams
// @Produce json
// @Param id path string true "Exam ID"
// @Success 204 {object} response.Envelope
// @Router /exams/{id} [delete]
func (h *ExamHandler) Delete(c *gin.Context) {
	if err := h.exams.Delete(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AddQuestion godoc
// @Summary Append question to exam
// @Description Exam total marks are recomputed
// @Tags Exams
// @Accept json
// @Produce json
// @Param id path string true "Exam ID"
// @Param payload body dto.ExamQuestionInput true "Question payload"
// @Success 201 {object} response.Envelope
// @Router /exams/{id}/questions [post]
func (h *ExamHandler) AddQuestion(c *gin.Context) {
	var input dto.ExamQuestionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	exam, err := h.exams.AddQuestion(c.Request.Context(), c.Param("id"), input, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, exam)
}

// UpdateQuestion godoc
// @Summary Update exam question
// @Tags Exams
// @Accept json
// @Produce json
// @Param id path string true "Exam ID"
// @Param questionId path string true "Question ID"
// @Param payload body dto.ExamQuestionInput true "Question payload"
// @Success 200 {object} response.Envelope
// @Router /exams/{id}/questions/{questionId} [put]
func (h *ExamHandler) UpdateQuestion(c *gin.Context) {
	var input dto.ExamQuestionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	exam, err := h.exams.UpdateQuestion(c.Request.Context(), c.Param("id"), c.Param("questionId"), input, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exam, nil)
}

// DeleteQuestion godoc
// @Summary Remove exam question
// @Tags Exams
// @Produce json
// @Param id path string true "Exam ID"
// @Param questionId path string true "Question ID"
// @Success 200 {object} response.Envelope
// @Router /exams/{id}/questions/{questionId} [delete]
func (h *ExamHandler) DeleteQuestion(c *gin.Context) {
	exam, err := h.exams.DeleteQuestion(c.Request.Context(), c.Param("id"), c.Param("questionId"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exam, nil)
}
