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

type examStoreStub struct {
	exams   map[string]*models.Exam
	created *models.Exam
}

func (s *examStoreStub) List(ctx context.Context, filter models.ExamFilter) ([]models.Exam, error) {
	out := make([]models.Exam, 0, len(s.exams))
	for _, exam := range s.exams {
		out = append(out, *exam)
	}
	return out, nil
}

func (s *examStoreStub) FindByID(ctx context.Context, id string) (*models.Exam, error) {
	if exam, ok := s.exams[id]; ok {
		copied := *exam
		copied.Questions = append([]models.ExamQuestion(nil), exam.Questions...)
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *examStoreStub) Create(ctx context.Context, exam *models.Exam) error {
	exam.ID = "exm-new"
	total := 0
	for _, q := range exam.Questions {
		total += q.Marks
	}
	exam.TotalMarks = total
	s.created = exam
	if s.exams == nil {
		s.exams = map[string]*models.Exam{}
	}
	s.exams[exam.ID] = exam
	return nil
}

func (s *examStoreStub) Update(ctx context.Context, exam *models.Exam) error {
	s.exams[exam.ID] = exam
	return nil
}

func (s *examStoreStub) Delete(ctx context.Context, id string) error {
	delete(s.exams, id)
	return nil
}

func (s *examStoreStub) AddQuestion(ctx context.Context, examID string, question *models.ExamQuestion) error {
	exam := s.exams[examID]
	question.Position = len(exam.Questions) + 1
	exam.Questions = append(exam.Questions, *question)
	s.recompute(exam)
	return nil
}

func (s *examStoreStub) UpdateQuestion(ctx context.Context, question *models.ExamQuestion) error {
	exam := s.exams[question.ExamID]
	for i := range exam.Questions {
		if exam.Questions[i].ID == question.ID {
			question.Position = exam.Questions[i].Position
			exam.Questions[i] = *question
			s.recompute(exam)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *examStoreStub) DeleteQuestion(ctx context.Context, examID, questionID string) error {
	exam := s.exams[examID]
	for i := range exam.Questions {
		if exam.Questions[i].ID == questionID {
			exam.Questions = append(exam.Questions[:i], exam.Questions[i+1:]...)
			s.recompute(exam)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *examStoreStub) recompute(exam *models.Exam) {
	total := 0
	for _, q := range exam.Questions {
		total += q.Marks
	}
	exam.TotalMarks = total
}

func strPtr(v string) *string { return &v }

func examServiceFixture(store *examStoreStub) *ExamService {
	courses := &courseStoreStub{courses: map[string]*models.Course{
		"cccccccc-cccc-cccc-cccc-cccccccccccc": {ID: "cccccccc-cccc-cccc-cccc-cccccccccccc", LecturerID: "lec-1", SessionToken: "2024/2025", IsActive: true},
	}}
	return NewExamService(store, courses, sessionGuardStub{token: "2024/2025"}, nil, nil)
}

func objectiveQuestion(marks int) dto.ExamQuestionInput {
	return dto.ExamQuestionInput{
		QuestionType:  models.QuestionObjective,
		Text:          "Pick one",
		Marks:         marks,
		Options:       []string{"a", "b", "c"},
		CorrectAnswer: strPtr("b"),
	}
}

func TestExamCreateSumsTotalMarks(t *testing.T) {
	store := &examStoreStub{}
	svc := examServiceFixture(store)

	exam, err := svc.Create(context.Background(), dto.CreateExamRequest{
		CourseID: "cccccccc-cccc-cccc-cccc-cccccccccccc",
		Title:    "Midterm",
		ExamType: models.ExamTypeObjective,
		Duration: 60,
		Semester: models.SemesterFirst,
		Questions: []dto.ExamQuestionInput{
			objectiveQuestion(10),
			objectiveQuestion(15),
		},
	}, lecturerClaims("lec-1"))
	require.NoError(t, err)
	assert.Equal(t, 25, exam.TotalMarks)
	assert.False(t, exam.IsActive, "new exams start as drafts")
	assert.Equal(t, "2024/2025", exam.SessionToken)
}

func TestExamQuestionLifecycleKeepsTotalInSync(t *testing.T) {
	store := &examStoreStub{exams: map[string]*models.Exam{
		"exm-1": {
			ID: "exm-1", CourseID: "cccccccc-cccc-cccc-cccc-cccccccccccc", CreatedBy: "lec-1", SessionToken: "2024/2025",
			TotalMarks: 10,
			Questions:  []models.ExamQuestion{{ID: "q-1", ExamID: "exm-1", Position: 1, QuestionType: models.QuestionTheory, Text: "Discuss", Marks: 10}},
		},
	}}
	svc := examServiceFixture(store)
	claims := lecturerClaims("lec-1")

	exam, err := svc.AddQuestion(context.Background(), "exm-1", objectiveQuestion(5), claims)
	require.NoError(t, err)
	assert.Equal(t, 15, exam.TotalMarks)

	exam, err = svc.DeleteQuestion(context.Background(), "exm-1", "q-1", claims)
	require.NoError(t, err)
	assert.Equal(t, 5, exam.TotalMarks)
}

func TestExamObjectiveQuestionNeedsValidAnswer(t *testing.T) {
	svc := examServiceFixture(&examStoreStub{})

	bad := objectiveQuestion(5)
	bad.CorrectAnswer = strPtr("z")
	_, err := svc.Create(context.Background(), dto.CreateExamRequest{
		CourseID:  "cccccccc-cccc-cccc-cccc-cccccccccccc",
		Title:     "Midterm",
		ExamType:  models.ExamTypeObjective,
		Duration:  60,
		Semester:  models.SemesterFirst,
		Questions: []dto.ExamQuestionInput{bad},
	}, lecturerClaims("lec-1"))
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestExamGetStripsAnswersForStudents(t *testing.T) {
	store := &examStoreStub{exams: map[string]*models.Exam{
		"exm-1": {
			ID: "exm-1", CourseID: "cccccccc-cccc-cccc-cccc-cccccccccccc", CreatedBy: "lec-1", SessionToken: "2024/2025", IsActive: true,
			Questions: []models.ExamQuestion{{
				ID: "q-1", ExamID: "exm-1", QuestionType: models.QuestionObjective,
				Options: []string{"a", "b"}, CorrectAnswer: strPtr("a"),
			}},
		},
	}}
	svc := examServiceFixture(store)

	exam, err := svc.Get(context.Background(), "exm-1", &models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent})
	require.NoError(t, err)
	require.Len(t, exam.Questions, 1)
	assert.Nil(t, exam.Questions[0].CorrectAnswer)
}

func TestExamMutationsRejectForeignLecturer(t *testing.T) {
	store := &examStoreStub{exams: map[string]*models.Exam{
		"exm-1": {ID: "exm-1", CourseID: "cccccccc-cccc-cccc-cccc-cccccccccccc", CreatedBy: "lec-1", SessionToken: "2024/2025"},
	}}
	svc := examServiceFixture(store)

	_, err := svc.AddQuestion(context.Background(), "exm-1", objectiveQuestion(5), lecturerClaims("lec-2"))
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}

func TestExamMutationsGatedOnClosedSession(t *testing.T) {
	store := &examStoreStub{exams: map[string]*models.Exam{
		"exm-1": {ID: "exm-1", CourseID: "cccccccc-cccc-cccc-cccc-cccccccccccc", CreatedBy: "lec-1", SessionToken: "2023/2024"},
	}}
	courses := &courseStoreStub{courses: map[string]*models.Course{
		"cccccccc-cccc-cccc-cccc-cccccccccccc": {ID: "cccccccc-cccc-cccc-cccc-cccccccccccc", LecturerID: "lec-1", SessionToken: "2023/2024", IsActive: true},
	}}
	guard := sessionGuardStub{token: "2023/2024", closedFor: map[models.UserRole]bool{models.RoleLecturer: true}}
	svc := NewExamService(store, courses, guard, nil, nil)

	_, err := svc.AddQuestion(context.Background(), "exm-1", objectiveQuestion(5), lecturerClaims("lec-1"))
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrSessionClosed))
}
