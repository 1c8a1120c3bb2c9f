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

type examStore interface {
	List(ctx context.Context, filter models.ExamFilter) ([]models.Exam, error)
	FindByID(ctx context.Context, id string) (*models.Exam, error)
	Create(ctx context.Context, exam *models.Exam) error
	Update(ctx context.Context, exam *models.Exam) error
	Delete(ctx context.Context, id string) error
	AddQuestion(ctx context.Context, examID string, question *models.ExamQuestion) error
	UpdateQuestion(ctx context.Context, question *models.ExamQuestion) error
	DeleteQuestion(ctx context.Context, examID, questionID string) error
}

// ExamService manages structured assessments. Total marks always equal
// the sum of the question marks; the repository recomputes them inside
// every question write.
type ExamService struct {
	repo      examStore
	courses   resultCourseReader
	sessions  sessionGuard
	validator *validator.Validate
	logger    *zap.Logger
}

// NewExamService builds an ExamService with sane defaults.
func NewExamService(
	repo examStore,
	courses resultCourseReader,
	sessions sessionGuard,
	validate *validator.Validate,
	logger *zap.Logger,
) *ExamService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExamService{
		repo:      repo,
		courses:   courses,
		sessions:  sessions,
		validator: validate,
		logger:    logger,
	}
}

// List returns exams visible to the caller. Students only see active
// exams; lecturers see their own unless an admin.
func (s *ExamService) List(ctx context.Context, filter models.ExamFilter, claims *models.JWTClaims) ([]models.Exam, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	switch claims.Role {
	case models.RoleStudent:
		active := true
		filter.IsActive = &active
	case models.RoleLecturer:
		filter.CreatedBy = claims.UserID
	}

	exams, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list exams")
	}
	return exams, nil
}

// Get loads one exam with its questions. Answer keys are stripped for
// students.
func (s *ExamService) Get(ctx context.Context, id string, claims *models.JWTClaims) (*models.Exam, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	exam, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam")
	}

	if claims.Role == models.RoleStudent {
		if !exam.IsActive {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		for i := range exam.Questions {
			exam.Questions[i].CorrectAnswer = nil
			exam.Questions[i].ModelAnswer = nil
		}
	}
	return exam, nil
}

// Create builds an exam with optional initial questions. The write is
// gated on the session being open.
func (s *ExamService) Create(ctx context.Context, req dto.CreateExamRequest, claims *models.JWTClaims) (*models.Exam, error) {
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

	questions := make([]models.ExamQuestion, 0, len(req.Questions))
	for _, q := range req.Questions {
		question, err := buildQuestion(q)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *question)
	}

	exam := &models.Exam{
		CourseID:     course.ID,
		Title:        req.Title,
		ExamType:     req.ExamType,
		Duration:     req.Duration,
		PassingMarks: req.PassingMarks,
		Instructions: req.Instructions,
		SessionToken: token,
		Semester:     req.Semester,
		IsActive:     false,
		StartAt:      req.StartAt,
		EndAt:        req.EndAt,
		CreatedBy:    claims.UserID,
		Questions:    questions,
	}
	if err := s.repo.Create(ctx, exam); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create exam")
	}

	s.logger.Info("exam created",
		zap.String("exam_id", exam.ID),
		zap.String("course_id", exam.CourseID),
		zap.Int("questions", len(exam.Questions)))
	return exam, nil
}

// Update modifies exam metadata.
func (s *ExamService) Update(ctx context.Context, id string, req dto.UpdateExamRequest, claims *models.JWTClaims) (*models.Exam, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	exam, err := s.loadOwned(ctx, id, claims)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		exam.Title = *req.Title
	}
	if req.Duration != nil {
		exam.Duration = *req.Duration
	}
	if req.PassingMarks != nil {
		exam.PassingMarks = *req.PassingMarks
	}
	if req.Instructions != nil {
		exam.Instructions = *req.Instructions
	}
	if req.IsActive != nil {
		exam.IsActive = *req.IsActive
	}
	if req.StartAt != nil {
		exam.StartAt = req.StartAt
	}
	if req.EndAt != nil {
		exam.EndAt = req.EndAt
	}

	if err := s.repo.Update(ctx, exam); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update exam")
	}
	return exam, nil
}

// Delete removes an exam and its questions.
func (s *ExamService) Delete(ctx context.Context, id string, claims *models.JWTClaims) error {
	exam, err := s.loadOwned(ctx, id, claims)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, exam.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete exam")
	}
	s.logger.Info("exam deleted", zap.String("exam_id", id))
	return nil
}

// AddQuestion appends a question to the exam and lifts the total marks.
func (s *ExamService) AddQuestion(ctx context.Context, examID string, input dto.ExamQuestionInput, claims *models.JWTClaims) (*models.Exam, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	exam, err := s.loadOwned(ctx, examID, claims)
	if err != nil {
		return nil, err
	}

	question, err := buildQuestion(input)
	if err != nil {
		return nil, err
	}
	if err := s.repo.AddQuestion(ctx, exam.ID, question); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add question")
	}
	return s.reload(ctx, exam.ID)
}

// UpdateQuestion rewrites a question and rederives the total marks.
func (s *ExamService) UpdateQuestion(ctx context.Context, examID, questionID string, input dto.ExamQuestionInput, claims *models.JWTClaims) (*models.Exam, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	exam, err := s.loadOwned(ctx, examID, claims)
	if err != nil {
		return nil, err
	}

	question, err := buildQuestion(input)
	if err != nil {
		return nil, err
	}
	question.ID = questionID
	question.ExamID = exam.ID
	if err := s.repo.UpdateQuestion(ctx, question); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "question not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update question")
	}
	return s.reload(ctx, exam.ID)
}

// DeleteQuestion removes a question and drops the total marks.
func (s *ExamService) DeleteQuestion(ctx context.Context, examID, questionID string, claims *models.JWTClaims) (*models.Exam, error) {
	exam, err := s.loadOwned(ctx, examID, claims)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteQuestion(ctx, exam.ID, questionID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "question not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete question")
	}
	return s.reload(ctx, exam.ID)
}

func (s *ExamService) loadOwned(ctx context.Context, id string, claims *models.JWTClaims) (*models.Exam, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if claims.Role == models.RoleStudent {
		return nil, appErrors.ErrForbidden
	}

	exam, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam")
	}
	if claims.Role == models.RoleLecturer && exam.CreatedBy != claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "exam belongs to another lecturer")
	}
	if err := s.sessions.EnsureMutable(ctx, exam.SessionToken, claims.Role); err != nil {
		return nil, err
	}
	return exam, nil
}

func (s *ExamService) reload(ctx context.Context, id string) (*models.Exam, error) {
	exam, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload exam")
	}
	return exam, nil
}

func buildQuestion(input dto.ExamQuestionInput) (*models.ExamQuestion, error) {
	switch input.QuestionType {
	case models.QuestionObjective:
		if len(input.Options) < 2 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "objective questions need at least two options")
		}
		if input.CorrectAnswer == nil || *input.CorrectAnswer == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "objective questions need a correct answer")
		}
		found := false
		for _, opt := range input.Options {
			if opt == *input.CorrectAnswer {
				found = true
				break
			}
		}
		if !found {
			return nil, appErrors.Clone(appErrors.ErrValidation, "correct answer must be one of the options")
		}
	case models.QuestionTheory:
		if len(input.Options) > 0 || input.CorrectAnswer != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "theory questions take a model answer, not options")
		}
	}

	return &models.ExamQuestion{
		QuestionType:  input.QuestionType,
		Text:          input.Text,
		Marks:         input.Marks,
		Options:       input.Options,
		CorrectAnswer: input.CorrectAnswer,
		ModelAnswer:   input.ModelAnswer,
	}, nil
}
