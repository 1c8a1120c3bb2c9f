package service

import (
	"context"
	"database/sql"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/uni-dcs/records-api/internal/dto"
	"github.com/uni-dcs/records-api/internal/models"
	appErrors "github.com/uni-dcs/records-api/pkg/errors"
)

// Course codes are a three-letter subject prefix followed by a
// three-digit number, e.g. CSC101.
var courseCodePattern = regexp.MustCompile(`^[A-Z]{3}\d{3}$`)

type courseStore interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	FindDetailByID(ctx context.Context, id string) (*models.CourseDetail, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
	CountResults(ctx context.Context, id string) (int, error)
	ListRoster(ctx context.Context, courseID string) ([]models.User, error)
}

type courseUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type courseDepartmentReader interface {
	FindByID(ctx context.Context, id string) (*models.Department, error)
}

// CourseService manages course offerings.
type CourseService struct {
	repo        courseStore
	users       courseUserReader
	departments courseDepartmentReader
	sessions    sessionResolver
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewCourseService builds a CourseService with sane defaults.
func NewCourseService(
	repo courseStore,
	users courseUserReader,
	departments courseDepartmentReader,
	sessions sessionResolver,
	validate *validator.Validate,
	logger *zap.Logger,
) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{
		repo:        repo,
		users:       users,
		departments: departments,
		sessions:    sessions,
		validator:   validate,
		logger:      logger,
	}
}

// List returns courses matching the filter with pagination metadata.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, *models.Pagination, error) {
	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return courses, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get loads one course with display fields and roster count.
func (s *CourseService) Get(ctx context.Context, id string) (*models.CourseDetail, error) {
	course, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// Create registers a new course offering in the resolved session.
func (s *CourseService) Create(ctx context.Context, req dto.CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if !courseCodePattern.MatchString(code) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course code must match the pattern CSC101")
	}

	lecturer, err := s.users.FindByID(ctx, req.LecturerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lecturer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecturer")
	}
	if lecturer.Role != models.RoleLecturer {
		return nil, appErrors.Clone(appErrors.ErrValidation, "lecturer_id must reference a lecturer account")
	}

	if _, err := s.departments.FindByID(ctx, req.DepartmentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
	}

	token, err := s.sessions.ResolveToken(ctx, req.Session)
	if err != nil {
		return nil, err
	}

	course := &models.Course{
		Code:         code,
		Title:        req.Title,
		Description:  req.Description,
		LecturerID:   req.LecturerID,
		DepartmentID: req.DepartmentID,
		Level:        req.Level,
		CreditUnit:   req.CreditUnit,
		Semester:     req.Semester,
		SessionToken: token,
		IsActive:     true,
		MaxStudents:  req.MaxStudents,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		if isDuplicate(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "course code already exists in this session")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}

	s.logger.Info("course created",
		zap.String("course_id", course.ID),
		zap.String("code", course.Code),
		zap.String("session", course.SessionToken))
	return course, nil
}

// Update modifies an existing course.
func (s *CourseService) Update(ctx context.Context, id string, req dto.UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	if req.LecturerID != nil {
		lecturer, err := s.users.FindByID(ctx, *req.LecturerID)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "lecturer not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecturer")
		}
		if lecturer.Role != models.RoleLecturer {
			return nil, appErrors.Clone(appErrors.ErrValidation, "lecturer_id must reference a lecturer account")
		}
		course.LecturerID = *req.LecturerID
	}
	if req.Title != nil {
		course.Title = *req.Title
	}
	if req.Description != nil {
		course.Description = req.Description
	}
	if req.Level != nil {
		course.Level = *req.Level
	}
	if req.CreditUnit != nil {
		course.CreditUnit = *req.CreditUnit
	}
	if req.IsActive != nil {
		course.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, course); err != nil {
		if isDuplicate(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "course code already exists in this session")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	return course, nil
}

// Delete removes a course. Courses with graded results are kept; delete
// is refused rather than cascading into the academic record.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	count, err := s.repo.CountResults(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count course results")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "course has recorded results and cannot be deleted")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	s.logger.Info("course deleted", zap.String("course_id", id))
	return nil
}

// Roster lists the students enrolled in a course. Lecturers may only
// view rosters for their own courses.
func (s *CourseService) Roster(ctx context.Context, id string, claims *models.JWTClaims) ([]models.UserDetail, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if claims.Role == models.RoleLecturer && course.LecturerID != claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "course belongs to another lecturer")
	}
	if claims.Role == models.RoleStudent {
		return nil, appErrors.ErrForbidden
	}

	students, err := s.repo.ListRoster(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list roster")
	}
	details := make([]models.UserDetail, 0, len(students))
	for i := range students {
		details = append(details, students[i].Detail())
	}
	return details, nil
}
