package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/uni-dcs/records-api/internal/models"
	"github.com/uni-dcs/records-api/pkg/cache"
	appErrors "github.com/uni-dcs/records-api/pkg/errors"
)

type statisticsResultReader interface {
	ListBySession(ctx context.Context, sessionToken string) ([]models.ResultDetail, error)
}

// StatisticsService aggregates session-wide grade statistics. Computed
// snapshots are cached under a short TTL and dropped whenever a result
// in the session changes.
type StatisticsService struct {
	results  statisticsResultReader
	sessions sessionResolver
	cache    *cache.Snapshot
	logger   *zap.Logger
}

// NewStatisticsService builds a StatisticsService with sane defaults.
func NewStatisticsService(results statisticsResultReader, sessions sessionResolver, snapshots *cache.Snapshot, logger *zap.Logger) *StatisticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatisticsService{results: results, sessions: sessions, cache: snapshots, logger: logger}
}

func sessionStatsKey(token string) string {
	return fmt.Sprintf("stats:session:%s", token)
}

// SessionStatistics computes grade distribution, pass rate and GPA
// extremes across every student with results in the session.
func (s *StatisticsService) SessionStatistics(ctx context.Context, sessionRef string) (*models.SessionStatistics, error) {
	token, err := s.sessions.ResolveToken(ctx, sessionRef)
	if err != nil {
		return nil, err
	}

	var cached models.SessionStatistics
	hit, err := s.cache.Get(ctx, sessionStatsKey(token), &cached)
	if err != nil {
		s.logger.Warn("statistics cache read failed", zap.String("session", token), zap.Error(err))
	}
	if hit {
		return &cached, nil
	}

	results, err := s.results.ListBySession(ctx, token)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session results")
	}

	stats := computeSessionStatistics(token, results)
	if err := s.cache.Set(ctx, sessionStatsKey(token), stats); err != nil {
		s.logger.Warn("statistics cache write failed", zap.String("session", token), zap.Error(err))
	}
	return stats, nil
}

// InvalidateSession drops the cached snapshot after a result write.
func (s *StatisticsService) InvalidateSession(ctx context.Context, token string) {
	if err := s.cache.Invalidate(ctx, sessionStatsKey(token)); err != nil {
		s.logger.Warn("statistics cache invalidate failed", zap.String("session", token), zap.Error(err))
	}
}

func computeSessionStatistics(token string, results []models.ResultDetail) *models.SessionStatistics {
	stats := &models.SessionStatistics{
		Session:           token,
		TotalResults:      len(results),
		GradeDistribution: make(map[models.LetterGrade]int),
	}

	byStudent := make(map[string][]models.ResultDetail)
	names := make(map[string]string)
	passed := 0
	for _, r := range results {
		stats.GradeDistribution[r.Grade]++
		stats.TotalCreditUnits += r.CreditUnit
		if r.Grade != models.GradeF {
			passed++
		}
		byStudent[r.StudentID] = append(byStudent[r.StudentID], r)
		names[r.StudentID] = r.StudentName
	}
	stats.Students = len(byStudent)
	if len(results) > 0 {
		stats.PassRate = round2(float64(passed) / float64(len(results)) * 100)
	}

	gpaSum := 0.0
	for studentID, studentResults := range byStudent {
		gpa, credits := ComputeGPA(studentResults)
		gpaSum += gpa
		entry := &models.StudentGPA{
			StudentID:    studentID,
			StudentName:  names[studentID],
			GPA:          gpa,
			TotalCredits: credits,
		}
		if stats.HighestGPA == nil || gpa > stats.HighestGPA.GPA {
			stats.HighestGPA = entry
		}
		if stats.LowestGPA == nil || gpa < stats.LowestGPA.GPA {
			stats.LowestGPA = entry
		}
	}
	if stats.Students > 0 {
		stats.AverageGPA = round2(gpaSum / float64(stats.Students))
	}
	return stats
}
