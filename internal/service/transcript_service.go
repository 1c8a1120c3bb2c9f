package service

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/uni-dcs/records-api/internal/models"
	appErrors "github.com/uni-dcs/records-api/pkg/errors"
)

type aggregationResultReader interface {
	ListForAggregation(ctx context.Context, studentID, sessionToken string) ([]models.ResultDetail, error)
}

type transcriptUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// TranscriptService computes GPA, CGPA and full transcripts from the
// graded results on file.
type TranscriptService struct {
	results aggregationResultReader
	users   transcriptUserReader
	logger  *zap.Logger
}

// NewTranscriptService builds a TranscriptService with sane defaults.
func NewTranscriptService(results aggregationResultReader, users transcriptUserReader, logger *zap.Logger) *TranscriptService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TranscriptService{results: results, users: users, logger: logger}
}

// SessionGPA computes a student's GPA for one session.
func (s *TranscriptService) SessionGPA(ctx context.Context, studentID, sessionToken string, claims *models.JWTClaims) (*models.StudentGPA, error) {
	student, err := s.loadStudent(ctx, studentID, claims)
	if err != nil {
		return nil, err
	}

	results, err := s.results.ListForAggregation(ctx, studentID, sessionToken)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load results")
	}

	gpa, credits := ComputeGPA(results)
	return &models.StudentGPA{
		StudentID:    student.ID,
		StudentName:  student.FullName,
		GPA:          gpa,
		TotalCredits: credits,
	}, nil
}

// CGPA computes a student's cumulative GPA across every session.
func (s *TranscriptService) CGPA(ctx context.Context, studentID string, claims *models.JWTClaims) (*models.StudentGPA, error) {
	return s.SessionGPA(ctx, studentID, "", claims)
}

// Transcript assembles a student's full record grouped by session, with
// per-session GPA, overall CGPA and the honours classification.
func (s *TranscriptService) Transcript(ctx context.Context, studentID string, claims *models.JWTClaims) (*models.Transcript, error) {
	student, err := s.loadStudent(ctx, studentID, claims)
	if err != nil {
		return nil, err
	}

	results, err := s.results.ListForAggregation(ctx, studentID, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load results")
	}

	bySession := make(map[string][]models.ResultDetail)
	for _, r := range results {
		bySession[r.SessionToken] = append(bySession[r.SessionToken], r)
	}
	tokens := make([]string, 0, len(bySession))
	for token := range bySession {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)

	transcript := &models.Transcript{
		Student:     student.Detail(),
		Sessions:    make([]models.TranscriptSession, 0, len(tokens)),
		GeneratedAt: time.Now().UTC(),
	}
	for _, token := range tokens {
		sessionResults := bySession[token]
		gpa, credits := ComputeGPA(sessionResults)

		entries := make([]models.TranscriptEntry, 0, len(sessionResults))
		level := 0
		for _, r := range sessionResults {
			if r.Level > level {
				level = r.Level
			}
			entries = append(entries, models.TranscriptEntry{
				CourseCode:  r.CourseCode,
				CourseTitle: r.CourseTitle,
				CreditUnit:  r.CreditUnit,
				Semester:    r.Semester,
				CA:          r.CA,
				Exam:        r.Exam,
				Total:       r.Total,
				Grade:       r.Grade,
				GradePoint:  GradePoint(r.Grade),
			})
		}
		transcript.Sessions = append(transcript.Sessions, models.TranscriptSession{
			Session:      token,
			Level:        level,
			Entries:      entries,
			GPA:          gpa,
			TotalCredits: credits,
		})
	}

	cgpa, _ := ComputeGPA(results)
	transcript.CGPA = cgpa
	transcript.Classification = Classify(cgpa)
	return transcript, nil
}

func (s *TranscriptService) loadStudent(ctx context.Context, studentID string, claims *models.JWTClaims) (*models.User, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if claims.Role == models.RoleStudent && claims.UserID != studentID {
		return nil, appErrors.ErrForbidden
	}

	student, err := s.users.FindByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return student, nil
}
