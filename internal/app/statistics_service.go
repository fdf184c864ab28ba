package app

import (
	"context"
	"fmt"

	"classroom-quiz-service/internal/domain"
	"classroom-quiz-service/internal/stats"
)

// StatisticsSource produces the statistics report for one teacher's quizzes.
type StatisticsSource interface {
	Report(ctx context.Context, ownerID string) (domain.Report, error)
}

// StatisticsService exposes teacher statistics.
type StatisticsService struct {
	source StatisticsSource
}

func NewStatisticsService(source StatisticsSource) *StatisticsService {
	return &StatisticsService{source: source}
}

func (s *StatisticsService) Report(ctx context.Context, teacher domain.Identity) (domain.Report, error) {
	if !teacher.IsTeacher() {
		return domain.Report{}, fmt.Errorf("%w: only teachers can read statistics", domain.ErrForbidden)
	}
	return s.source.Report(ctx, teacher.ID)
}

// AttemptAggregator computes statistics on demand from the raw attempts.
type AttemptAggregator struct {
	quizzes  QuizRepository
	attempts AttemptRepository
}

func NewAttemptAggregator(quizzes QuizRepository, attempts AttemptRepository) *AttemptAggregator {
	return &AttemptAggregator{quizzes: quizzes, attempts: attempts}
}

func (a *AttemptAggregator) Report(ctx context.Context, ownerID string) (domain.Report, error) {
	quizzes, err := a.quizzes.ListQuizzesByOwner(ctx, ownerID)
	if err != nil {
		return domain.Report{}, err
	}
	ids := make([]string, 0, len(quizzes))
	for _, q := range quizzes {
		ids = append(ids, q.ID)
	}

	attempts, err := a.attempts.ListCompletedAttempts(ctx, ids)
	if err != nil {
		return domain.Report{}, err
	}
	return domain.Report{
		Quizzes:  stats.ByQuiz(quizzes, attempts),
		Students: stats.ByStudent(attempts),
	}, nil
}
