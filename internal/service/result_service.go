package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/uni-dcs/records-api/internal/dto"
	"github.com/uni-dcs/records-api/internal/models"
	appErrors "github.com/uni-dcs/records-api/pkg/errors"
)

type resultStore interface {
	List(ctx context.Context, filter models.ResultFilter) ([]models.ResultDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Result, error)
	FindDetailByID(ctx context.Context, id string) (*models.ResultDetail, error)
	Create(ctx context.Context, result *models.Result) error
	Update(ctx context.Context, result *models.Result) error
	Delete(ctx context.Context, id string) error
}

type resultCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type resultUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type sessionGuard interface {
	ResolveToken(ctx context.Context, explicit string) (string, error)
	EnsureMutable(ctx context.Context, sessionRef string, role models.UserRole) error
}

// ResultService manages graded results. Totals and letter grades are
// derived server-side on every write; client-supplied grades are ignored.
type ResultService struct {
	repo      resultStore
	courses   resultCourseReader
	users     resultUserReader
	sessions  sessionGuard
	validator *validator.Validate
	logger    *zap.Logger
}

// NewResultService builds a ResultService with sane defaults.
func NewResultService(
	repo resultStore,
	courses resultCourseReader,
	users resultUserReader,
	sessions sessionGuard,
	validate *validator.Validate,
	logger *zap.Logger,
) *ResultService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultService{
		repo:      repo,
		courses:   courses,
		users:     users,
		sessions:  sessions,
		validator: validate,
		logger:    logger,
	}
}

// List returns results visible to the caller. Students only ever see
// their own rows; lecturers see rows they uploaded unless an admin.
func (s *ResultService) List(ctx context.Context, filter models.ResultFilter, claims *models.JWTClaims) ([]models.ResultDetail, *models.Pagination, error) {
	if claims == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	switch claims.Role {
	case models.RoleStudent:
		filter.StudentID = claims.UserID
	case models.RoleLecturer:
		filter.UploadedBy = claims.UserID
	}

	results, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list results")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return results, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get loads one result with display fields, enforcing visibility.
func (s *ResultService) Get(ctx context.Context, id string, claims *models.JWTClaims) (*models.ResultDetail, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	result, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "result not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load result")
	}
	if claims.Role == models.RoleStudent && result.StudentID != claims.UserID {
		return nil, appErrors.ErrForbidden
	}
	return result, nil
}

// Create records a student's scores for a course. The write lands in
// the resolved session and is gated on that session being open.
func (s *ResultService) Create(ctx context.Context, req dto.CreateResultRequest, claims *models.JWTClaims) (*models.Result, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if claims.Role == models.RoleLecturer && course.LecturerID != claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "course belongs to another lecturer")
	}

	student, err := s.users.FindByID(ctx, req.StudentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrValidation, "results can only be recorded for students")
	}

	sessionRef := req.Session
	if sessionRef == "" {
		sessionRef = course.SessionToken
	}
	token, err := s.sessions.ResolveToken(ctx, sessionRef)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.EnsureMutable(ctx, token, claims.Role); err != nil {
		return nil, err
	}

	total := req.CA + req.Exam
	result := &models.Result{
		StudentID:    req.StudentID,
		CourseID:     req.CourseID,
		SessionToken: token,
		Semester:     req.Semester,
		CA:           req.CA,
		Exam:         req.Exam,
		Total:        total,
		Grade:        ComputeGrade(total),
		UploadedBy:   claims.UserID,
	}
	if err := s.repo.Create(ctx, result); err != nil {
		if isDuplicate(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "result already exists for this student, course and session")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create result")
	}

	s.logger.Info("result recorded",
		zap.String("result_id", result.ID),
		zap.String("course_id", result.CourseID),
		zap.String("grade", string(result.Grade)))
	return result, nil
}

// Update rewrites the scores on an existing result. Total and grade are
// rederived from the effective CA and exam scores.
func (s *ResultService) Update(ctx context.Context, id string, req dto.UpdateResultRequest, claims *models.JWTClaims) (*models.Result, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	result, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "result not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load result")
	}
	if claims.Role == models.RoleLecturer && result.UploadedBy != claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "result was uploaded by another lecturer")
	}

	if err := s.sessions.EnsureMutable(ctx, result.SessionToken, claims.Role); err != nil {
		return nil, err
	}

	if req.CA != nil {
		result.CA = *req.CA
	}
	if req.Exam != nil {
		result.Exam = *req.Exam
	}
	result.Total = result.CA + result.Exam
	result.Grade = ComputeGrade(result.Total)

	if err := s.repo.Update(ctx, result); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update result")
	}
	return result, nil
}

// Delete removes a result. Admin only, still gated on the session.
func (s *ResultService) Delete(ctx context.Context, id string, claims *models.JWTClaims) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	if claims.Role != models.RoleAdmin {
		return appErrors.ErrForbidden
	}

	result, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "result not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load result")
	}
	if err := s.sessions.EnsureMutable(ctx, result.SessionToken, claims.Role); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, result.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete result")
	}
	s.logger.Info("result deleted", zap.String("result_id", id))
	return nil
}
