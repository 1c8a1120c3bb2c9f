package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/uni-dcs/records-api/internal/service"
	"github.com/uni-dcs/records-api/pkg/config"
	appErrors "github.com/uni-dcs/records-api/pkg/errors"
	"github.com/uni-dcs/records-api/pkg/export"
	"github.com/uni-dcs/records-api/pkg/response"
)

// TranscriptHandler exposes GPA, CGPA and transcript endpoints.
type TranscriptHandler struct {
	transcripts *service.TranscriptService
	cfg         config.TranscriptsConfig
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
}

// NewTranscriptHandler constructs handler.
func NewTranscriptHandler(transcripts *service.TranscriptService, cfg config.TranscriptsConfig) *TranscriptHandler {
	return &TranscriptHandler{
		transcripts: transcripts,
		cfg:         cfg,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
	}
}

// SessionGPA godoc
// @Summary GPA for one student in one session
// @Tags Transcripts
// @Produce json
// @Param id path string true "Student ID"
// @Param session query string true "Session token"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/gpa [get]
func (h *TranscriptHandler) SessionGPA(c *gin.Context) {
	session := c.Query("session")
	if session == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "session required"))
		return
	}
	gpa, err := h.transcripts.SessionGPA(c.Request.Context(), c.Param("id"), session, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gpa, nil)
}

// CGPA godoc
// @Summary Cumulative GPA across all sessions
// @Tags Transcripts
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/cgpa [get]
func (h *TranscriptHandler) CGPA(c *gin.Context) {
	cgpa, err := h.transcripts.CGPA(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cgpa, nil)
}

// Transcript godoc
// @Summary Full academic transcript
// @Tags Transcripts
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/transcript [get]
func (h *TranscriptHandler) Transcript(c *gin.Context) {
	transcript, err := h.transcripts.Transcript(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, transcript, nil)
}

// Export godoc
// @Summary Download transcript as CSV or PDF
// @Tags Transcripts
// @Produce octet-stream
// @Param id path string true "Student ID"
// @Param format query string false "csv or pdf" default(pdf)
// @Success 200 {file} binary
// @Router /students/{id}/transcript/export [get]
func (h *TranscriptHandler) Export(c *gin.Context) {
	transcript, err := h.transcripts.Transcript(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	doc := service.BuildTranscriptDocument(transcript, h.cfg)

	ref := transcript.Student.ID
	if transcript.Student.Student != nil && transcript.Student.Student.MatricNo != "" {
		ref = strings.ReplaceAll(transcript.Student.Student.MatricNo, "/", "-")
	}

	switch strings.ToLower(c.DefaultQuery("format", "pdf")) {
	case "csv":
		data, err := h.csv.Render(doc)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=transcript-%s.csv", ref))
		c.Data(http.StatusOK, "text/csv", data)
	case "pdf":
		data, err := h.pdf.Render(doc)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=transcript-%s.pdf", ref))
		c.Data(http.StatusOK, "application/pdf", data)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
	}
}
