package postgres

import (
	"context"
	"time"

	"classroom-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// StatisticsViews reads the precomputed quiz_statistics and quiz_attempt_summary views.
// It implements app.StatisticsSource.
type StatisticsViews struct {
	pool *pgxpool.Pool
}

func NewStatisticsViews(pool *pgxpool.Pool) *StatisticsViews {
	return &StatisticsViews{pool: pool}
}

func (v *StatisticsViews) Report(ctx context.Context, ownerID string) (domain.Report, error) {
	quizzes, err := v.quizStatistics(ctx, ownerID)
	if err != nil {
		return domain.Report{}, err
	}
	students, err := v.studentSummaries(ctx, ownerID)
	if err != nil {
		return domain.Report{}, err
	}
	return domain.Report{Quizzes: quizzes, Students: students}, nil
}

func (v *StatisticsViews) quizStatistics(ctx context.Context, ownerID string) ([]domain.QuizStatistics, error) {
	rows, err := v.pool.Query(ctx, `
		SELECT quiz_id, title, total_students, average_score, total_attempts, first_attempt_date, last_attempt_date
		FROM quiz_statistics
		WHERE created_by = $1
		ORDER BY quiz_id`, ownerID)
	if err != nil {
		return nil, storageErr("query quiz statistics", err)
	}
	defer rows.Close()

	out := []domain.QuizStatistics{}
	for rows.Next() {
		var row domain.QuizStatistics
		if err := rows.Scan(&row.QuizID, &row.Title, &row.TotalStudents, &row.AverageScore,
			&row.TotalAttempts, &row.FirstAttemptAt, &row.LastAttemptAt); err != nil {
			return nil, storageErr("scan quiz statistics", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("read quiz statistics", err)
	}
	return out, nil
}

func (v *StatisticsViews) studentSummaries(ctx context.Context, ownerID string) ([]domain.StudentSummary, error) {
	rows, err := v.pool.Query(ctx, `
		SELECT quiz_id, student_id, attempt_count, highest_score, first_attempt, last_attempt
		FROM quiz_attempt_summary
		WHERE created_by = $1
		ORDER BY quiz_id, student_id`, ownerID)
	if err != nil {
		return nil, storageErr("query attempt summary", err)
	}
	defer rows.Close()

	out := []domain.StudentSummary{}
	for rows.Next() {
		var (
			row         domain.StudentSummary
			first, last *time.Time
		)
		if err := rows.Scan(&row.QuizID, &row.StudentID, &row.AttemptCount, &row.HighestScore, &first, &last); err != nil {
			return nil, storageErr("scan attempt summary", err)
		}
		if first != nil {
			row.FirstAttemptAt = *first
		}
		if last != nil {
			row.LastAttemptAt = *last
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("read attempt summary", err)
	}
	return out, nil
}
