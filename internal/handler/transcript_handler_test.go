package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uni-dcs/records-api/internal/middleware"
	"github.com/uni-dcs/records-api/internal/models"
	"github.com/uni-dcs/records-api/internal/service"
	"github.com/uni-dcs/records-api/pkg/config"
)

type transcriptResultsMock struct {
	results []models.ResultDetail
}

func (m *transcriptResultsMock) ListForAggregation(ctx context.Context, studentID, sessionToken string) ([]models.ResultDetail, error) {
	return m.results, nil
}

type transcriptUsersMock struct {
	user *models.User
}

func (m *transcriptUsersMock) FindByID(ctx context.Context, id string) (*models.User, error) {
	return m.user, nil
}

func newTranscriptFixture() *TranscriptHandler {
	matric := "CSC/2021/041"
	dept := "dept-1"
	level := 300
	results := &transcriptResultsMock{results: []models.ResultDetail{
		{
			Result: models.Result{
				StudentID:    "stu-1",
				SessionToken: "2023/2024",
				Semester:     models.SemesterFirst,
				CA:           25,
				Exam:         60,
				Total:        85,
				Grade:        models.GradeA,
			},
			CourseCode:  "CSC301",
			CourseTitle: "Data Structures",
			CreditUnit:  3,
			Level:       300,
		},
	}}
	users := &transcriptUsersMock{user: &models.User{
		ID:           "stu-1",
		Email:        "ada@uni.edu",
		FullName:     "Ada Obi",
		Role:         models.RoleStudent,
		Active:       true,
		MatricNo:     &matric,
		DepartmentID: &dept,
		Level:        &level,
	}}
	svc := service.NewTranscriptService(results, users, nil)
	cfg := config.TranscriptsConfig{Institution: "Test University", Department: "Department of Computing"}
	return NewTranscriptHandler(svc, cfg)
}

func TestTranscriptHandlerExportCSV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTranscriptFixture()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/students/stu-1/transcript/export?format=csv", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "stu-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent})

	handler.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "transcript-CSC-2021-041.csv")
	assert.Contains(t, w.Body.String(), "CSC301")
	assert.Contains(t, w.Body.String(), "2023/2024")
}

func TestTranscriptHandlerExportPDF(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTranscriptFixture()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/students/stu-1/transcript/export", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "stu-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent})

	handler.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, len(w.Body.Bytes()) > 0)
}

func TestTranscriptHandlerExportUnknownFormat(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTranscriptFixture()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/students/stu-1/transcript/export?format=xlsx", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "stu-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent})

	handler.Export(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTranscriptHandlerForeignStudentForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTranscriptFixture()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/students/stu-1/transcript", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "stu-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "stu-2", Role: models.RoleStudent})

	handler.Transcript(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}
