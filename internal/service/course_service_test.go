package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uni-dcs/records-api/internal/dto"
	"github.com/uni-dcs/records-api/internal/models"
	appErrors "github.com/uni-dcs/records-api/pkg/errors"
)

const (
	testLecturerID   = "22222222-2222-2222-2222-222222222222"
	testDepartmentID = "33333333-3333-3333-3333-333333333333"
)

type catalogStoreStub struct {
	courses map[string]*models.Course
	created *models.Course
	updated *models.Course
	results int
	deleted []string
	roster  []models.User
}

func (s *catalogStoreStub) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error) {
	return nil, 0, nil
}

func (s *catalogStoreStub) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if course, ok := s.courses[id]; ok {
		return course, nil
	}
	return nil, sql.ErrNoRows
}

func (s *catalogStoreStub) FindDetailByID(ctx context.Context, id string) (*models.CourseDetail, error) {
	course, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.CourseDetail{Course: *course}, nil
}

func (s *catalogStoreStub) Create(ctx context.Context, course *models.Course) error {
	course.ID = "crs-new"
	s.created = course
	return nil
}

func (s *catalogStoreStub) Update(ctx context.Context, course *models.Course) error {
	s.updated = course
	return nil
}

func (s *catalogStoreStub) Delete(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *catalogStoreStub) CountResults(ctx context.Context, id string) (int, error) {
	return s.results, nil
}

func (s *catalogStoreStub) ListRoster(ctx context.Context, courseID string) ([]models.User, error) {
	return s.roster, nil
}

type departmentReaderStub struct{}

func (departmentReaderStub) FindByID(ctx context.Context, id string) (*models.Department, error) {
	return &models.Department{ID: id, Name: "Computing"}, nil
}

func courseServiceFixture(store *catalogStoreStub) *CourseService {
	users := userReaderStub{users: map[string]*models.User{
		testLecturerID: {ID: testLecturerID, Role: models.RoleLecturer, Active: true},
	}}
	return NewCourseService(store, users, departmentReaderStub{}, sessionResolverStub{token: "2024/2025"}, nil, nil)
}

func createCourseReq() dto.CreateCourseRequest {
	return dto.CreateCourseRequest{
		Code:         "CSC101",
		Title:        "Introduction to Computing",
		LecturerID:   testLecturerID,
		DepartmentID: testDepartmentID,
		Level:        100,
		CreditUnit:   3,
		Semester:     models.SemesterFirst,
	}
}

func TestCreateCourseNormalizesCode(t *testing.T) {
	store := &catalogStoreStub{}
	svc := courseServiceFixture(store)

	req := createCourseReq()
	req.Code = " csc101 "
	course, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "CSC101", course.Code)
	assert.Equal(t, "2024/2025", course.SessionToken)
	assert.True(t, course.IsActive)
}

func TestCreateCourseRejectsMalformedCode(t *testing.T) {
	store := &catalogStoreStub{}
	svc := courseServiceFixture(store)

	for _, code := range []string{"computer science 1", "CS101", "CSC1011", "101CSC"} {
		req := createCourseReq()
		req.Code = code
		_, err := svc.Create(context.Background(), req)
		require.Error(t, err, code)
		assert.True(t, appErrors.Is(err, appErrors.ErrValidation), code)
	}
	assert.Nil(t, store.created)
}

func TestCreateCourseRejectsOutOfRangeLevel(t *testing.T) {
	store := &catalogStoreStub{}
	svc := courseServiceFixture(store)

	for _, level := range []int{900, 150, 600} {
		req := createCourseReq()
		req.Level = level
		_, err := svc.Create(context.Background(), req)
		require.Error(t, err)
		assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	}
	assert.Nil(t, store.created)
}

func TestCreateCourseRejectsOutOfRangeCreditUnit(t *testing.T) {
	store := &catalogStoreStub{}
	svc := courseServiceFixture(store)

	for _, units := range []int{0, 7, 12} {
		req := createCourseReq()
		req.CreditUnit = units
		_, err := svc.Create(context.Background(), req)
		require.Error(t, err)
		assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	}
	assert.Nil(t, store.created)
}

func TestUpdateCourseRejectsOutOfRangeFields(t *testing.T) {
	store := &catalogStoreStub{courses: map[string]*models.Course{
		"crs-1": {ID: "crs-1", Code: "CSC101", Level: 100, CreditUnit: 3},
	}}
	svc := courseServiceFixture(store)

	level := 250
	_, err := svc.Update(context.Background(), "crs-1", dto.UpdateCourseRequest{Level: &level})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	units := 9
	_, err = svc.Update(context.Background(), "crs-1", dto.UpdateCourseRequest{CreditUnit: &units})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	assert.Nil(t, store.updated)
}

func TestDeleteCourseBlockedByResults(t *testing.T) {
	store := &catalogStoreStub{
		courses: map[string]*models.Course{"crs-1": {ID: "crs-1", Code: "CSC101"}},
		results: 4,
	}
	svc := courseServiceFixture(store)

	err := svc.Delete(context.Background(), "crs-1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
	assert.Empty(t, store.deleted)
}
