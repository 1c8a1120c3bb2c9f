package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/uni-dcs/records-api/internal/dto"
	"github.com/uni-dcs/records-api/internal/models"
	"github.com/uni-dcs/records-api/internal/repository"
	appErrors "github.com/uni-dcs/records-api/pkg/errors"
)

type registrationCourseStore interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	FindDetailByID(ctx context.Context, id string) (*models.CourseDetail, error)
	Update(ctx context.Context, course *models.Course) error
	RosterCount(ctx context.Context, courseID string) (int, error)
	IsRegistered(ctx context.Context, courseID, studentID string) (bool, error)
	AppendToRoster(ctx context.Context, courseID, studentID string, maxStudents *int) (bool, error)
	RemoveFromRoster(ctx context.Context, courseID, studentID string) (bool, error)
	ListAvailability(ctx context.Context, studentID, departmentID string, level int, sessionToken string) ([]repository.CourseAvailability, error)
	ListRegistered(ctx context.Context, studentID, sessionToken string) ([]models.CourseDetail, error)
	ListBySession(ctx context.Context, sessionToken string) ([]models.CourseDetail, error)
	BulkSetDeadline(ctx context.Context, sessionToken, departmentID string, deadline time.Time) (int64, error)
}

type registrationUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type sessionResolver interface {
	ResolveToken(ctx context.Context, explicit string) (string, error)
	Current(ctx context.Context) (*models.AcademicSession, error)
}

// RegistrationService evaluates the registration window policy and
// manages course rosters.
type RegistrationService struct {
	courses   registrationCourseStore
	users     registrationUserReader
	sessions  sessionResolver
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRegistrationService builds a RegistrationService with sane defaults.
func NewRegistrationService(
	courses registrationCourseStore,
	users registrationUserReader,
	sessions sessionResolver,
	validate *validator.Validate,
	logger *zap.Logger,
) *RegistrationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{
		courses:   courses,
		users:     users,
		sessions:  sessions,
		validator: validate,
		logger:    logger,
	}
}

// IsRegistrationOpen evaluates the window gates for a course at a point
// in time: the open flag, the deadline, the opening date and the
// capacity must all allow it. A full roster closes the window even while
// the flag is still set.
func IsRegistrationOpen(course *models.Course, rosterCount int, now time.Time) bool {
	if !course.RegistrationOpen {
		return false
	}
	if course.RegistrationDeadline != nil && now.After(*course.RegistrationDeadline) {
		return false
	}
	if course.RegistrationOpenDate != nil && now.Before(*course.RegistrationOpenDate) {
		return false
	}
	if course.MaxStudents != nil && rosterCount >= *course.MaxStudents {
		return false
	}
	return true
}

// Status reports the live registration state of one course for a student.
func (s *RegistrationService) Status(ctx context.Context, courseID, studentID string) (*models.CourseRegistrationStatus, error) {
	detail, err := s.courses.FindDetailByID(ctx, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	registered, err := s.courses.IsRegistered(ctx, courseID, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check registration")
	}

	open := IsRegistrationOpen(&detail.Course, detail.RosterCount, time.Now().UTC())

	return &models.CourseRegistrationStatus{
		CourseDetail:       *detail,
		IsRegistered:       registered,
		IsRegistrationOpen: open,
		CanRegister:        open && !registered,
	}, nil
}

// Register enrolls the student in the course. Department and level must
// match the offering, the window policy must pass, and the capacity
// check is atomic with the roster insert so racing registrations cannot
// oversubscribe.
func (s *RegistrationService) Register(ctx context.Context, courseID, studentID string) error {
	student, err := s.users.FindByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.Role != models.RoleStudent {
		return appErrors.Clone(appErrors.ErrForbidden, "only students can register for courses")
	}
	if student.DepartmentID == nil || student.Level == nil {
		return appErrors.Clone(appErrors.ErrValidation, "user has no student profile")
	}

	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if !course.IsActive {
		return appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}

	if *student.DepartmentID != course.DepartmentID {
		return appErrors.Clone(appErrors.ErrConflict, "course belongs to another department")
	}
	if *student.Level != course.Level {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("course is offered at level %d", course.Level))
	}

	registered, err := s.courses.IsRegistered(ctx, courseID, studentID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check registration")
	}
	if registered {
		return appErrors.Clone(appErrors.ErrConflict, "already registered for this course")
	}

	count, err := s.courses.RosterCount(ctx, courseID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count roster")
	}
	if !IsRegistrationOpen(course, count, time.Now().UTC()) {
		return appErrors.Clone(appErrors.ErrRegistrationClosed, "")
	}

	added, err := s.courses.AppendToRoster(ctx, courseID, studentID, course.MaxStudents)
	if err != nil {
		if isDuplicate(err) {
			return appErrors.Clone(appErrors.ErrConflict, "already registered for this course")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register")
	}
	if !added {
		return appErrors.Clone(appErrors.ErrRegistrationClosed, "course has reached maximum capacity")
	}

	s.logger.Info("student registered",
		zap.String("course_id", courseID),
		zap.String("student_id", studentID))
	return nil
}

// Unregister removes the student from the roster. Dropping is bound by
// the same window as joining: once registration closes the roster is
// frozen in both directions.
func (s *RegistrationService) Unregister(ctx context.Context, courseID, studentID string) error {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	registered, err := s.courses.IsRegistered(ctx, courseID, studentID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check registration")
	}
	if !registered {
		return appErrors.Clone(appErrors.ErrNotFound, "not registered for this course")
	}

	count, err := s.courses.RosterCount(ctx, courseID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count roster")
	}
	if !IsRegistrationOpen(course, count, time.Now().UTC()) {
		return appErrors.Clone(appErrors.ErrRegistrationClosed, "registration is closed, roster changes are frozen")
	}

	removed, err := s.courses.RemoveFromRoster(ctx, courseID, studentID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unregister")
	}
	if !removed {
		return appErrors.Clone(appErrors.ErrNotFound, "not registered for this course")
	}

	s.logger.Info("student unregistered",
		zap.String("course_id", courseID),
		zap.String("student_id", studentID))
	return nil
}

// Available lists the courses a student may see for their department and
// level in a session, each annotated with live window state.
func (s *RegistrationService) Available(ctx context.Context, studentID, sessionRef string) ([]models.CourseRegistrationStatus, error) {
	student, err := s.users.FindByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.Role != models.RoleStudent || student.DepartmentID == nil || student.Level == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "user has no student profile")
	}

	token, err := s.sessions.ResolveToken(ctx, sessionRef)
	if err != nil {
		return nil, err
	}

	rows, err := s.courses.ListAvailability(ctx, studentID, *student.DepartmentID, *student.Level, token)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list available courses")
	}

	now := time.Now().UTC()
	statuses := make([]models.CourseRegistrationStatus, 0, len(rows))
	for _, row := range rows {
		open := IsRegistrationOpen(&row.Course, row.RosterCount, now)
		statuses = append(statuses, models.CourseRegistrationStatus{
			CourseDetail:       row.CourseDetail,
			IsRegistered:       row.IsRegistered,
			IsRegistrationOpen: open,
			CanRegister:        open && !row.IsRegistered,
		})
	}
	return statuses, nil
}

// Registered lists the courses the student is enrolled in for a session.
func (s *RegistrationService) Registered(ctx context.Context, studentID, sessionRef string) ([]models.CourseDetail, error) {
	token, err := s.sessions.ResolveToken(ctx, sessionRef)
	if err != nil {
		return nil, err
	}
	courses, err := s.courses.ListRegistered(ctx, studentID, token)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registered courses")
	}
	return courses, nil
}

// UpdateSettings adjusts a course's registration window. Lecturers may
// only touch their own courses; admins may touch any.
func (s *RegistrationService) UpdateSettings(ctx context.Context, courseID string, req dto.RegistrationSettingsRequest, claims *models.JWTClaims) (*models.Course, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if claims.Role == models.RoleLecturer && course.LecturerID != claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "course belongs to another lecturer")
	}

	if req.RegistrationOpen != nil {
		course.RegistrationOpen = *req.RegistrationOpen
	}
	if req.RegistrationDeadline != nil {
		course.RegistrationDeadline = req.RegistrationDeadline
	}
	if req.RegistrationOpenDate != nil {
		course.RegistrationOpenDate = req.RegistrationOpenDate
	}
	if req.MaxStudents != nil {
		course.MaxStudents = req.MaxStudents
	}

	if err := s.courses.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update registration settings")
	}
	return course, nil
}

// SetOpen flips just the registration flag on a course.
func (s *RegistrationService) SetOpen(ctx context.Context, courseID string, open bool, claims *models.JWTClaims) (*models.Course, error) {
	return s.UpdateSettings(ctx, courseID, dto.RegistrationSettingsRequest{RegistrationOpen: &open}, claims)
}

// BulkDeadlines stamps a registration deadline across a session,
// optionally scoped to one department. Admin only.
func (s *RegistrationService) BulkDeadlines(ctx context.Context, req dto.BulkDeadlineRequest, claims *models.JWTClaims) (*models.BulkUpdateReport, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if claims.Role != models.RoleAdmin {
		return nil, appErrors.ErrForbidden
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	token, err := s.sessions.ResolveToken(ctx, req.Session)
	if err != nil {
		return nil, err
	}

	affected, err := s.courses.BulkSetDeadline(ctx, token, req.DepartmentID, req.Deadline.UTC())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to set deadlines")
	}

	s.logger.Info("bulk deadline applied",
		zap.String("session", token),
		zap.String("department_id", req.DepartmentID),
		zap.Int64("courses", affected))
	return &models.BulkUpdateReport{
		Message:        fmt.Sprintf("registration deadline set on %d courses", affected),
		CoursesUpdated: affected,
	}, nil
}

// Statistics recomputes registration state across a session. Open and
// closed counts come from the window policy per course, not the stored
// flag alone.
func (s *RegistrationService) Statistics(ctx context.Context, sessionRef string) (*models.RegistrationStatistics, error) {
	token, err := s.sessions.ResolveToken(ctx, sessionRef)
	if err != nil {
		return nil, err
	}

	courses, err := s.courses.ListBySession(ctx, token)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list session courses")
	}

	now := time.Now().UTC()
	stats := &models.RegistrationStatistics{
		Session:      token,
		TotalCourses: len(courses),
		ByDepartment: make(map[string]models.DepartmentRegistrationStats),
	}
	totalRegistered := 0
	for _, course := range courses {
		open := IsRegistrationOpen(&course.Course, course.RosterCount, now)
		if open {
			stats.OpenRegistration++
		} else {
			stats.ClosedRegistration++
		}
		totalRegistered += course.RosterCount

		dept := stats.ByDepartment[course.DepartmentName]
		dept.TotalCourses++
		if open {
			dept.OpenRegistration++
		}
		dept.TotalStudents += course.RosterCount
		stats.ByDepartment[course.DepartmentName] = dept
	}
	stats.TotalStudentsRegistered = totalRegistered
	if len(courses) > 0 {
		stats.AverageStudentsPerCourse = round2(float64(totalRegistered) / float64(len(courses)))
	}
	return stats, nil
}
