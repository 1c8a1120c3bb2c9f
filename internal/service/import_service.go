package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/uni-dcs/records-api/internal/dto"
	"github.com/uni-dcs/records-api/internal/models"
	appErrors "github.com/uni-dcs/records-api/pkg/errors"
)

type importResultWriter interface {
	Upsert(ctx context.Context, result *models.Result) (bool, error)
}

type importCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	IsRegistered(ctx context.Context, courseID, studentID string) (bool, error)
}

type importUserStore interface {
	FindStudentByMatricNo(ctx context.Context, matricNo string) (*models.User, error)
	ExistsByMatricNo(ctx context.Context, matricNo string) (bool, error)
	Create(ctx context.Context, user *models.User) error
}

// ImportService reconciles bulk uploads row by row. A bad row is
// reported and skipped; it never aborts the rows around it.
type ImportService struct {
	results   importResultWriter
	users     importUserStore
	courses   importCourseReader
	sessions  sessionGuard
	validator *validator.Validate
	logger    *zap.Logger
}

// NewImportService builds an ImportService with sane defaults.
func NewImportService(
	results importResultWriter,
	users importUserStore,
	courses importCourseReader,
	sessions sessionGuard,
	validate *validator.Validate,
	logger *zap.Logger,
) *ImportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{
		results:   results,
		users:     users,
		courses:   courses,
		sessions:  sessions,
		validator: validate,
		logger:    logger,
	}
}

// ImportResults loads a sheet of scores for one course. Each row is
// matched to a student by matric number, cross-checked against the
// course's department and roster, and upserted, so re-uploading a
// corrected sheet replaces the earlier scores in place.
func (s *ImportService) ImportResults(ctx context.Context, req dto.ImportResultsRequest, claims *models.JWTClaims) (*dto.ImportReport, error) {
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

	started := time.Now()
	report := &dto.ImportReport{
		Success: []dto.ImportRowSuccess{},
		Failed:  []dto.ImportRowError{},
	}

	for i, row := range req.Rows {
		rowNum := i + 1
		if err := s.validator.Struct(row); err != nil {
			report.Failed = append(report.Failed, dto.ImportRowError{Row: rowNum, MatricNo: row.MatricNo, Reason: err.Error()})
			continue
		}

		student, err := s.users.FindStudentByMatricNo(ctx, row.MatricNo)
		if err != nil {
			reason := "failed to look up student"
			if err == sql.ErrNoRows {
				reason = "no student with this matric number"
			}
			report.Failed = append(report.Failed, dto.ImportRowError{Row: rowNum, MatricNo: row.MatricNo, Reason: reason})
			continue
		}

		if student.DepartmentID == nil || *student.DepartmentID != course.DepartmentID {
			report.Failed = append(report.Failed, dto.ImportRowError{Row: rowNum, MatricNo: row.MatricNo, Reason: "student belongs to another department"})
			continue
		}

		registered, err := s.courses.IsRegistered(ctx, course.ID, student.ID)
		if err != nil {
			report.Failed = append(report.Failed, dto.ImportRowError{Row: rowNum, MatricNo: row.MatricNo, Reason: "failed to check registration"})
			continue
		}
		if !registered {
			report.Failed = append(report.Failed, dto.ImportRowError{Row: rowNum, MatricNo: row.MatricNo, Reason: "student is not registered for this course"})
			continue
		}

		total := row.CA + row.Exam
		result := &models.Result{
			StudentID:    student.ID,
			CourseID:     course.ID,
			SessionToken: token,
			Semester:     req.Semester,
			CA:           row.CA,
			Exam:         row.Exam,
			Total:        total,
			Grade:        ComputeGrade(total),
			UploadedBy:   claims.UserID,
		}
		inserted, err := s.results.Upsert(ctx, result)
		if err != nil {
			report.Failed = append(report.Failed, dto.ImportRowError{Row: rowNum, MatricNo: row.MatricNo, Reason: "failed to save result"})
			s.logger.Warn("import row failed",
				zap.Int("row", rowNum),
				zap.String("matric_no", row.MatricNo),
				zap.Error(err))
			continue
		}
		report.Success = append(report.Success, dto.ImportRowSuccess{
			Row:      rowNum,
			MatricNo: row.MatricNo,
			Total:    result.Total,
			Grade:    result.Grade,
			Updated:  !inserted,
		})
	}

	report.Duration = time.Since(started).Round(time.Millisecond).String()
	s.logger.Info("results imported",
		zap.String("course_id", course.ID),
		zap.String("session", token),
		zap.Int("created", report.Created()),
		zap.Int("updated", report.Updated()),
		zap.Int("failed", len(report.Failed)))
	return report, nil
}

// ImportStudents provisions student accounts in bulk. Rows with a matric
// number already on file are skipped and reported, not overwritten. New
// accounts start with the matric number as the password.
func (s *ImportService) ImportStudents(ctx context.Context, req dto.ImportStudentsRequest, claims *models.JWTClaims) (*dto.StudentImportReport, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if claims.Role != models.RoleAdmin {
		return nil, appErrors.ErrForbidden
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	started := time.Now()
	report := &dto.StudentImportReport{
		Success: []dto.ImportStudentSuccess{},
		Failed:  []dto.ImportRowError{},
	}

	for i, row := range req.Rows {
		rowNum := i + 1
		if err := s.validator.Struct(row); err != nil {
			report.Failed = append(report.Failed, dto.ImportRowError{Row: rowNum, MatricNo: row.MatricNo, Reason: err.Error()})
			continue
		}

		exists, err := s.users.ExistsByMatricNo(ctx, row.MatricNo)
		if err != nil {
			report.Failed = append(report.Failed, dto.ImportRowError{Row: rowNum, MatricNo: row.MatricNo, Reason: "failed to check matric number"})
			continue
		}
		if exists {
			report.Failed = append(report.Failed, dto.ImportRowError{Row: rowNum, MatricNo: row.MatricNo, Reason: "matric number already registered"})
			continue
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(row.MatricNo), bcrypt.DefaultCost)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
		}

		matricNo := row.MatricNo
		level := row.Level
		departmentID := req.DepartmentID
		user := &models.User{
			Email:        row.Email,
			PasswordHash: string(hash),
			FullName:     row.FullName,
			Role:         models.RoleStudent,
			Active:       true,
			MatricNo:     &matricNo,
			DepartmentID: &departmentID,
			Level:        &level,
		}
		if row.Program != "" {
			program := row.Program
			user.Program = &program
		}
		if err := s.users.Create(ctx, user); err != nil {
			reason := "failed to create student"
			if isDuplicate(err) {
				reason = "email or matric number already registered"
			}
			report.Failed = append(report.Failed, dto.ImportRowError{Row: rowNum, MatricNo: row.MatricNo, Reason: reason})
			continue
		}
		report.Success = append(report.Success, dto.ImportStudentSuccess{
			Row:       rowNum,
			MatricNo:  row.MatricNo,
			StudentID: user.ID,
			Email:     user.Email,
		})
	}

	report.Duration = time.Since(started).Round(time.Millisecond).String()
	s.logger.Info("students imported",
		zap.String("department_id", req.DepartmentID),
		zap.Int("created", len(report.Success)),
		zap.Int("failed", len(report.Failed)))
	return report, nil
}
