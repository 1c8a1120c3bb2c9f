package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uni-dcs/records-api/internal/dto"
	"github.com/uni-dcs/records-api/internal/models"
	"github.com/uni-dcs/records-api/internal/repository"
	appErrors "github.com/uni-dcs/records-api/pkg/errors"
)

func bulkDeadlineReq(deadline time.Time) dto.BulkDeadlineRequest {
	return dto.BulkDeadlineRequest{Deadline: deadline, Session: "2024/2025"}
}

type courseStoreStub struct {
	courses       map[string]*models.Course
	rosterCount   int
	registered    bool
	appendOK      bool
	appendErr     error
	appendCalls   int
	removeOK      bool
	availability  []repository.CourseAvailability
	sessionList   []models.CourseDetail
	bulkAffected  int64
	updatedCourse *models.Course
}

func (s *courseStoreStub) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if course, ok := s.courses[id]; ok {
		return course, nil
	}
	return nil, sql.ErrNoRows
}

func (s *courseStoreStub) FindDetailByID(ctx context.Context, id string) (*models.CourseDetail, error) {
	course, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.CourseDetail{Course: *course, RosterCount: s.rosterCount}, nil
}

func (s *courseStoreStub) Update(ctx context.Context, course *models.Course) error {
	s.updatedCourse = course
	return nil
}

func (s *courseStoreStub) RosterCount(ctx context.Context, courseID string) (int, error) {
	return s.rosterCount, nil
}

func (s *courseStoreStub) IsRegistered(ctx context.Context, courseID, studentID string) (bool, error) {
	return s.registered, nil
}

func (s *courseStoreStub) AppendToRoster(ctx context.Context, courseID, studentID string, maxStudents *int) (bool, error) {
	s.appendCalls++
	if s.appendErr != nil {
		return false, s.appendErr
	}
	return s.appendOK, nil
}

func (s *courseStoreStub) RemoveFromRoster(ctx context.Context, courseID, studentID string) (bool, error) {
	return s.removeOK, nil
}

func (s *courseStoreStub) ListAvailability(ctx context.Context, studentID, departmentID string, level int, sessionToken string) ([]repository.CourseAvailability, error) {
	return s.availability, nil
}

func (s *courseStoreStub) ListRegistered(ctx context.Context, studentID, sessionToken string) ([]models.CourseDetail, error) {
	return s.sessionList, nil
}

func (s *courseStoreStub) ListBySession(ctx context.Context, sessionToken string) ([]models.CourseDetail, error) {
	return s.sessionList, nil
}

func (s *courseStoreStub) BulkSetDeadline(ctx context.Context, sessionToken, departmentID string, deadline time.Time) (int64, error) {
	return s.bulkAffected, nil
}

type userReaderStub struct {
	users map[string]*models.User
}

func (s userReaderStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := s.users[id]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

type sessionResolverStub struct {
	token   string
	current *models.AcademicSession
}

func (s sessionResolverStub) ResolveToken(ctx context.Context, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	return s.token, nil
}

func (s sessionResolverStub) Current(ctx context.Context) (*models.AcademicSession, error) {
	if s.current == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no current session is set")
	}
	return s.current, nil
}

func ptrTime(t time.Time) *time.Time { return &t }
func ptrInt(v int) *int              { return &v }

func openCourse() *models.Course {
	now := time.Now().UTC()
	return &models.Course{
		ID:                   "crs-1",
		Code:                 "CSC101",
		LecturerID:           "lec-1",
		DepartmentID:         "dep-1",
		Level:                100,
		IsActive:             true,
		RegistrationOpen:     true,
		RegistrationOpenDate: ptrTime(now.Add(-24 * time.Hour)),
		RegistrationDeadline: ptrTime(now.Add(24 * time.Hour)),
	}
}

func studentUser(id string) *models.User {
	dept := "dep-1"
	level := 100
	return &models.User{ID: id, Role: models.RoleStudent, Active: true, DepartmentID: &dept, Level: &level}
}

func TestIsRegistrationOpenGates(t *testing.T) {
	now := time.Now().UTC()

	course := openCourse()
	assert.True(t, IsRegistrationOpen(course, 0, now))

	flagged := openCourse()
	flagged.RegistrationOpen = false
	assert.False(t, IsRegistrationOpen(flagged, 0, now))

	expired := openCourse()
	expired.RegistrationDeadline = ptrTime(now.Add(-time.Hour))
	assert.False(t, IsRegistrationOpen(expired, 0, now))

	notYetOpen := openCourse()
	notYetOpen.RegistrationOpenDate = ptrTime(now.Add(time.Hour))
	assert.False(t, IsRegistrationOpen(notYetOpen, 0, now))

	full := openCourse()
	full.MaxStudents = ptrInt(2)
	assert.False(t, IsRegistrationOpen(full, 2, now))
	assert.True(t, IsRegistrationOpen(full, 1, now))

	unbounded := openCourse()
	unbounded.RegistrationDeadline = nil
	unbounded.RegistrationOpenDate = nil
	assert.True(t, IsRegistrationOpen(unbounded, 0, now))
}

func TestRegisterSucceedsInsideWindow(t *testing.T) {
	store := &courseStoreStub{courses: map[string]*models.Course{"crs-1": openCourse()}, appendOK: true}
	users := userReaderStub{users: map[string]*models.User{"stu-1": studentUser("stu-1")}}
	svc := NewRegistrationService(store, users, sessionResolverStub{token: "2024/2025"}, nil, nil)

	err := svc.Register(context.Background(), "crs-1", "stu-1")
	require.NoError(t, err)
	assert.Equal(t, 1, store.appendCalls)
}

func TestRegisterRefusedWhenWindowClosed(t *testing.T) {
	course := openCourse()
	course.RegistrationOpen = false
	store := &courseStoreStub{courses: map[string]*models.Course{"crs-1": course}}
	users := userReaderStub{users: map[string]*models.User{"stu-1": studentUser("stu-1")}}
	svc := NewRegistrationService(store, users, sessionResolverStub{token: "2024/2025"}, nil, nil)

	err := svc.Register(context.Background(), "crs-1", "stu-1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrRegistrationClosed))
	assert.Zero(t, store.appendCalls)
}

func TestRegisterRefusedWhenFull(t *testing.T) {
	course := openCourse()
	course.MaxStudents = ptrInt(30)
	store := &courseStoreStub{courses: map[string]*models.Course{"crs-1": course}, appendOK: false}
	users := userReaderStub{users: map[string]*models.User{"stu-1": studentUser("stu-1")}}
	svc := NewRegistrationService(store, users, sessionResolverStub{token: "2024/2025"}, nil, nil)

	err := svc.Register(context.Background(), "crs-1", "stu-1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrRegistrationClosed))
}

func TestRegisterDuplicateIsConflict(t *testing.T) {
	store := &courseStoreStub{
		courses:   map[string]*models.Course{"crs-1": openCourse()},
		appendErr: repository.ErrDuplicate,
	}
	users := userReaderStub{users: map[string]*models.User{"stu-1": studentUser("stu-1")}}
	svc := NewRegistrationService(store, users, sessionResolverStub{token: "2024/2025"}, nil, nil)

	err := svc.Register(context.Background(), "crs-1", "stu-1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
}

func TestRegisterDepartmentMismatch(t *testing.T) {
	store := &courseStoreStub{courses: map[string]*models.Course{"crs-1": openCourse()}, appendOK: true}
	foreign := studentUser("stu-1")
	dept := "dep-2"
	foreign.DepartmentID = &dept
	users := userReaderStub{users: map[string]*models.User{"stu-1": foreign}}
	svc := NewRegistrationService(store, users, sessionResolverStub{token: "2024/2025"}, nil, nil)

	err := svc.Register(context.Background(), "crs-1", "stu-1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
	assert.Zero(t, store.appendCalls)
}

func TestRegisterLevelMismatch(t *testing.T) {
	store := &courseStoreStub{courses: map[string]*models.Course{"crs-1": openCourse()}, appendOK: true}
	junior := studentUser("stu-1")
	level := 200
	junior.Level = &level
	users := userReaderStub{users: map[string]*models.User{"stu-1": junior}}
	svc := NewRegistrationService(store, users, sessionResolverStub{token: "2024/2025"}, nil, nil)

	err := svc.Register(context.Background(), "crs-1", "stu-1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
	assert.Zero(t, store.appendCalls)
}

func TestRegisterAlreadyRegistered(t *testing.T) {
	store := &courseStoreStub{courses: map[string]*models.Course{"crs-1": openCourse()}, registered: true, appendOK: true}
	users := userReaderStub{users: map[string]*models.User{"stu-1": studentUser("stu-1")}}
	svc := NewRegistrationService(store, users, sessionResolverStub{token: "2024/2025"}, nil, nil)

	err := svc.Register(context.Background(), "crs-1", "stu-1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
	assert.Zero(t, store.appendCalls)
}

func TestRegisterRejectsNonStudents(t *testing.T) {
	store := &courseStoreStub{courses: map[string]*models.Course{"crs-1": openCourse()}}
	users := userReaderStub{users: map[string]*models.User{"lec-1": {ID: "lec-1", Role: models.RoleLecturer}}}
	svc := NewRegistrationService(store, users, sessionResolverStub{token: "2024/2025"}, nil, nil)

	err := svc.Register(context.Background(), "crs-1", "lec-1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}

func TestUnregisterRefusedAfterClose(t *testing.T) {
	course := openCourse()
	course.RegistrationDeadline = ptrTime(time.Now().UTC().Add(-time.Hour))
	store := &courseStoreStub{courses: map[string]*models.Course{"crs-1": course}, registered: true, removeOK: true}
	svc := NewRegistrationService(store, userReaderStub{}, sessionResolverStub{token: "2024/2025"}, nil, nil)

	err := svc.Unregister(context.Background(), "crs-1", "stu-1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrRegistrationClosed))
}

func TestUnregisterNotRegistered(t *testing.T) {
	store := &courseStoreStub{courses: map[string]*models.Course{"crs-1": openCourse()}, removeOK: false}
	svc := NewRegistrationService(store, userReaderStub{}, sessionResolverStub{token: "2024/2025"}, nil, nil)

	err := svc.Unregister(context.Background(), "crs-1", "stu-1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestUnregisterChecksMembershipBeforeWindow(t *testing.T) {
	course := openCourse()
	course.RegistrationDeadline = ptrTime(time.Now().UTC().Add(-time.Hour))
	store := &courseStoreStub{courses: map[string]*models.Course{"crs-1": course}, registered: false}
	svc := NewRegistrationService(store, userReaderStub{}, sessionResolverStub{token: "2024/2025"}, nil, nil)

	err := svc.Unregister(context.Background(), "crs-1", "stu-1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound), "a student who never enrolled gets not-registered, not a window refusal")
}

func TestStatusCompositeCanRegister(t *testing.T) {
	course := openCourse()
	course.MaxStudents = ptrInt(2)
	store := &courseStoreStub{
		courses:     map[string]*models.Course{"crs-1": course},
		rosterCount: 2,
		registered:  false,
	}
	svc := NewRegistrationService(store, userReaderStub{}, sessionResolverStub{token: "2024/2025"}, nil, nil)

	status, err := svc.Status(context.Background(), "crs-1", "stu-1")
	require.NoError(t, err)
	assert.False(t, status.IsRegistrationOpen, "capacity gate must close the window even while the flag is set")
	assert.False(t, status.CanRegister)
}

func TestBulkDeadlinesAdminOnly(t *testing.T) {
	store := &courseStoreStub{bulkAffected: 4}
	svc := NewRegistrationService(store, userReaderStub{}, sessionResolverStub{token: "2024/2025"}, nil, nil)

	deadline := time.Now().UTC().Add(72 * time.Hour)
	_, err := svc.BulkDeadlines(context.Background(), bulkDeadlineReq(deadline), &models.JWTClaims{UserID: "lec-1", Role: models.RoleLecturer})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	report, err := svc.BulkDeadlines(context.Background(), bulkDeadlineReq(deadline), &models.JWTClaims{UserID: "adm-1", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.EqualValues(t, 4, report.CoursesUpdated)
}

func TestStatisticsRecomputesWindowPerCourse(t *testing.T) {
	now := time.Now().UTC()
	open := models.CourseDetail{Course: *openCourse(), DepartmentName: "Computing", RosterCount: 10}
	closed := models.CourseDetail{Course: *openCourse(), DepartmentName: "Computing", RosterCount: 6}
	closed.RegistrationDeadline = ptrTime(now.Add(-time.Hour))
	closed.RegistrationOpen = true

	store := &courseStoreStub{sessionList: []models.CourseDetail{open, closed}}
	svc := NewRegistrationService(store, userReaderStub{}, sessionResolverStub{token: "2024/2025"}, nil, nil)

	stats, err := svc.Statistics(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalCourses)
	assert.Equal(t, 1, stats.OpenRegistration)
	assert.Equal(t, 1, stats.ClosedRegistration)
	assert.Equal(t, 16, stats.TotalStudentsRegistered)
	assert.Equal(t, 8.0, stats.AverageStudentsPerCourse)
	assert.Equal(t, 2, stats.ByDepartment["Computing"].TotalCourses)
}
