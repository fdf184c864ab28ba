package postgres

import (
	"context"
	"encoding/json"
	"time"

	"classroom-quiz-service/internal/domain"
	"github.com/uptrace/bun"
)

type attemptRow struct {
	bun.BaseModel `bun:"table:attempts,alias:at"`

	ID              string                   `bun:"id,pk"`
	QuizID          string                   `bun:"quiz_id,notnull"`
	StudentID       string                   `bun:"student_id,notnull"`
	SelectedAnswers map[string]domain.Answer `bun:"selected_answers,type:jsonb,notnull"`
	Score           int                      `bun:"score,notnull"`
	Completed       bool                     `bun:"completed,notnull"`
	StartedAt       time.Time                `bun:"started_at,notnull"`
	CompletedAt     *time.Time               `bun:"completed_at"`
}

// AttemptStore is the Postgres implementation of app.AttemptRepository.
type AttemptStore struct {
	db *bun.DB
}

func NewAttemptStore(db *bun.DB) *AttemptStore {
	return &AttemptStore{db: db}
}

func (s *AttemptStore) CreateAttempt(ctx context.Context, attempt domain.Attempt) error {
	row := attemptRow{
		ID:              attempt.ID,
		QuizID:          attempt.QuizID,
		StudentID:       attempt.StudentID,
		SelectedAnswers: attempt.Answers,
		StartedAt:       attempt.StartedAt,
	}
	if row.SelectedAnswers == nil {
		row.SelectedAnswers = map[string]domain.Answer{}
	}
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return storageErr("create attempt", err)
	}
	return nil
}

func (s *AttemptStore) GetAttempt(ctx context.Context, attemptID string) (domain.Attempt, error) {
	var row attemptRow
	err := s.db.NewSelect().Model(&row).Where("id = ?", attemptID).Scan(ctx)
	if isNoRows(err) {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.Attempt{}, storageErr("load attempt", err)
	}
	return toAttempt(row), nil
}

// UpsertAnswer merges a single key into the JSONB mapping so concurrent selections
// on different questions never overwrite each other.
func (s *AttemptStore) UpsertAnswer(ctx context.Context, attemptID, questionID string, answer domain.Answer) error {
	payload, err := json.Marshal(answer)
	if err != nil {
		return err
	}
	res, err := s.db.NewUpdate().Table("attempts").
		Set("selected_answers = selected_answers || jsonb_build_object(?::text, ?::jsonb)", questionID, string(payload)).
		Where("id = ?", attemptID).
		Where("NOT completed").
		Exec(ctx)
	if err != nil {
		return storageErr("save answer", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return s.explainNoUpdate(ctx, attemptID)
	}
	return nil
}

func (s *AttemptStore) CompleteAttempt(ctx context.Context, attemptID string, score int, completedAt time.Time) error {
	res, err := s.db.NewUpdate().Table("attempts").
		Set("completed = TRUE").
		Set("score = ?", score).
		Set("completed_at = ?", completedAt).
		Where("id = ?", attemptID).
		Where("NOT completed").
		Exec(ctx)
	if isUniqueViolation(err) {
		return domain.ErrDuplicateAttempt
	}
	if err != nil {
		return storageErr("complete attempt", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return s.explainNoUpdate(ctx, attemptID)
	}
	return nil
}

func (s *AttemptStore) HasCompletedAttempt(ctx context.Context, quizID, studentID string) (bool, error) {
	exists, err := s.db.NewSelect().Model((*attemptRow)(nil)).
		Where("quiz_id = ?", quizID).
		Where("student_id = ?", studentID).
		Where("completed").
		Exists(ctx)
	if err != nil {
		return false, storageErr("check completed attempt", err)
	}
	return exists, nil
}

func (s *AttemptStore) ListAttemptsByStudent(ctx context.Context, studentID string) ([]domain.Attempt, error) {
	var rows []attemptRow
	err := s.db.NewSelect().Model(&rows).
		Where("student_id = ?", studentID).
		Order("started_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, storageErr("list attempts", err)
	}
	return toAttempts(rows), nil
}

func (s *AttemptStore) ListCompletedAttempts(ctx context.Context, quizIDs []string) ([]domain.Attempt, error) {
	if len(quizIDs) == 0 {
		return nil, nil
	}
	var rows []attemptRow
	err := s.db.NewSelect().Model(&rows).
		Where("quiz_id IN (?)", bun.In(quizIDs)).
		Where("completed").
		Scan(ctx)
	if err != nil {
		return nil, storageErr("list completed attempts", err)
	}
	return toAttempts(rows), nil
}

// explainNoUpdate tells a missing attempt apart from one that already completed.
func (s *AttemptStore) explainNoUpdate(ctx context.Context, attemptID string) error {
	exists, err := s.db.NewSelect().Model((*attemptRow)(nil)).Where("id = ?", attemptID).Exists(ctx)
	if err != nil {
		return storageErr("load attempt", err)
	}
	if !exists {
		return domain.ErrAttemptNotFound
	}
	return domain.ErrAttemptCompleted
}

func toAttempt(row attemptRow) domain.Attempt {
	answers := row.SelectedAnswers
	if answers == nil {
		answers = map[string]domain.Answer{}
	}
	return domain.Attempt{
		ID:          row.ID,
		QuizID:      row.QuizID,
		StudentID:   row.StudentID,
		Answers:     answers,
		Completed:   row.Completed,
		Score:       row.Score,
		StartedAt:   row.StartedAt,
		CompletedAt: row.CompletedAt,
	}
}

func toAttempts(rows []attemptRow) []domain.Attempt {
	out := make([]domain.Attempt, 0, len(rows))
	for _, row := range rows {
		out = append(out, toAttempt(row))
	}
	return out
}
