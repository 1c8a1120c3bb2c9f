package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uni-dcs/records-api/internal/models"
	appErrors "github.com/uni-dcs/records-api/pkg/errors"
)

type aggregationReaderStub struct {
	results []models.ResultDetail
}

func (s aggregationReaderStub) ListForAggregation(ctx context.Context, studentID, sessionToken string) ([]models.ResultDetail, error) {
	if sessionToken == "" {
		return s.results, nil
	}
	var filtered []models.ResultDetail
	for _, r := range s.results {
		if r.SessionToken == sessionToken {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

func gradedResult(session string, grade models.LetterGrade, credits, level int) models.ResultDetail {
	return models.ResultDetail{
		Result:     models.Result{StudentID: "stu-1", SessionToken: session, Grade: grade, Semester: models.SemesterFirst},
		CreditUnit: credits,
		Level:      level,
	}
}

func transcriptFixture(results []models.ResultDetail) *TranscriptService {
	users := userReaderStub{users: map[string]*models.User{"stu-1": studentUser("stu-1")}}
	return NewTranscriptService(aggregationReaderStub{results: results}, users, nil)
}

func TestSessionGPA(t *testing.T) {
	svc := transcriptFixture([]models.ResultDetail{
		gradedResult("2024/2025", models.GradeA, 3, 100),
		gradedResult("2024/2025", models.GradeC, 2, 100),
		gradedResult("2023/2024", models.GradeF, 4, 100),
	})

	gpa, err := svc.SessionGPA(context.Background(), "stu-1", "2024/2025", &models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent})
	require.NoError(t, err)
	assert.Equal(t, 4.2, gpa.GPA)
	assert.Equal(t, 5, gpa.TotalCredits)
}

func TestSessionGPANoResultsIsZero(t *testing.T) {
	svc := transcriptFixture(nil)

	gpa, err := svc.SessionGPA(context.Background(), "stu-1", "2024/2025", &models.JWTClaims{UserID: "adm-1", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, 0.0, gpa.GPA)
	assert.Zero(t, gpa.TotalCredits)
}

func TestCGPASpansSessions(t *testing.T) {
	svc := transcriptFixture([]models.ResultDetail{
		gradedResult("2023/2024", models.GradeA, 3, 100),
		gradedResult("2024/2025", models.GradeB, 3, 200),
	})

	cgpa, err := svc.CGPA(context.Background(), "stu-1", &models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent})
	require.NoError(t, err)
	assert.Equal(t, 4.5, cgpa.GPA)
	assert.Equal(t, 6, cgpa.TotalCredits)
}

func TestTranscriptGroupsBySessionInOrder(t *testing.T) {
	svc := transcriptFixture([]models.ResultDetail{
		gradedResult("2024/2025", models.GradeB, 3, 200),
		gradedResult("2023/2024", models.GradeA, 3, 100),
		gradedResult("2023/2024", models.GradeC, 2, 100),
	})

	transcript, err := svc.Transcript(context.Background(), "stu-1", &models.JWTClaims{UserID: "adm-1", Role: models.RoleAdmin})
	require.NoError(t, err)
	require.Len(t, transcript.Sessions, 2)
	assert.Equal(t, "2023/2024", transcript.Sessions[0].Session)
	assert.Equal(t, 100, transcript.Sessions[0].Level)
	assert.Equal(t, 4.2, transcript.Sessions[0].GPA)
	assert.Equal(t, "2024/2025", transcript.Sessions[1].Session)
	assert.Equal(t, 4.0, transcript.Sessions[1].GPA)

	// (5*3 + 3*2 + 4*3) / 8 = 4.125 -> 4.13
	assert.Equal(t, 4.13, transcript.CGPA)
	assert.Equal(t, models.HonoursSecondClassUpper, transcript.Classification)
	assert.NotNil(t, transcript.Student.Student)
}

func TestTranscriptStudentsOnlySeeTheirOwn(t *testing.T) {
	svc := transcriptFixture(nil)

	_, err := svc.Transcript(context.Background(), "stu-1", &models.JWTClaims{UserID: "stu-2", Role: models.RoleStudent})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}

func TestTranscriptUnknownStudent(t *testing.T) {
	users := userReaderStub{users: map[string]*models.User{}}
	svc := NewTranscriptService(aggregationReaderStub{}, users, nil)

	_, err := svc.Transcript(context.Background(), "stu-9", &models.JWTClaims{UserID: "adm-1", Role: models.RoleAdmin})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
