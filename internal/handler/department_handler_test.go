package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uni-dcs/records-api/internal/dto"
	"github.com/uni-dcs/records-api/internal/models"
	"github.com/uni-dcs/records-api/internal/repository"
	"github.com/uni-dcs/records-api/internal/service"
)

type departmentStoreMock struct {
	departments map[string]*models.Department
	courses     map[string]int
	createErr   error
}

func (m *departmentStoreMock) List(ctx context.Context) ([]models.Department, error) {
	out := make([]models.Department, 0, len(m.departments))
	for _, d := range m.departments {
		out = append(out, *d)
	}
	return out, nil
}

func (m *departmentStoreMock) FindByID(ctx context.Context, id string) (*models.Department, error) {
	if d, ok := m.departments[id]; ok {
		return d, nil
	}
	return nil, sql.ErrNoRows
}

func (m *departmentStoreMock) Create(ctx context.Context, department *models.Department) error {
	if m.createErr != nil {
		return m.createErr
	}
	department.ID = "dept-new"
	if m.departments == nil {
		m.departments = map[string]*models.Department{}
	}
	m.departments[department.ID] = department
	return nil
}

func (m *departmentStoreMock) Update(ctx context.Context, department *models.Department) error {
	m.departments[department.ID] = department
	return nil
}

func (m *departmentStoreMock) CountCourses(ctx context.Context, id string) (int, error) {
	return m.courses[id], nil
}

func (m *departmentStoreMock) Delete(ctx context.Context, id string) error {
	delete(m.departments, id)
	return nil
}

func newDepartmentFixture(store *departmentStoreMock) *DepartmentHandler {
	return NewDepartmentHandler(service.NewDepartmentService(store, nil, nil))
}

func TestDepartmentHandlerList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &departmentStoreMock{departments: map[string]*models.Department{
		"dept-1": {ID: "dept-1", Name: "Computer Science", Code: "CSC"},
	}}
	handler := newDepartmentFixture(store)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/departments", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "CSC")
}

func TestDepartmentHandlerCreateUppercasesCode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &departmentStoreMock{}
	handler := newDepartmentFixture(store)

	payload, _ := json.Marshal(dto.CreateDepartmentRequest{Name: "Mathematics", Code: "MTH"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/departments", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Contains(t, store.departments, "dept-new")
	assert.Equal(t, "MTH", store.departments["dept-new"].Code)
}

func TestDepartmentHandlerCreateDuplicate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newDepartmentFixture(&departmentStoreMock{createErr: repository.ErrDuplicate})

	payload, _ := json.Marshal(dto.CreateDepartmentRequest{Name: "Mathematics", Code: "MTH"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/departments", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestDepartmentHandlerDeleteWithCourses(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &departmentStoreMock{
		departments: map[string]*models.Department{"dept-1": {ID: "dept-1", Name: "Physics", Code: "PHY"}},
		courses:     map[string]int{"dept-1": 4},
	}
	handler := newDepartmentFixture(store)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/departments/dept-1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "dept-1"}}

	handler.Delete(c)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, store.departments, "dept-1")
}
