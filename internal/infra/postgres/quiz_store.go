package postgres

import (
	"context"
	"fmt"
	"time"

	"classroom-quiz-service/internal/domain"
	"github.com/uptrace/bun"
)

type quizRow struct {
	bun.BaseModel `bun:"table:quizzes,alias:qz"`

	ID        string    `bun:"id,pk"`
	Title     string    `bun:"title,notnull"`
	CreatedBy string    `bun:"created_by,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

type questionRow struct {
	bun.BaseModel `bun:"table:questions,alias:qn"`

	ID            string   `bun:"id,pk"`
	QuizID        string   `bun:"quiz_id,notnull"`
	Position      int      `bun:"position,notnull"`
	Text          string   `bun:"text,notnull"`
	Type          string   `bun:"type,notnull"`
	Options       []string `bun:"options,type:jsonb,notnull"`
	CorrectAnswer int      `bun:"correct_answer,notnull"`
}

// QuizStore is the Postgres implementation of app.QuizRepository.
type QuizStore struct {
	db *bun.DB
}

func NewQuizStore(db *bun.DB) *QuizStore {
	return &QuizStore{db: db}
}

func (s *QuizStore) CreateQuiz(ctx context.Context, quiz domain.Quiz) error {
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row := quizRow{
			ID:        quiz.ID,
			Title:     quiz.Title,
			CreatedBy: quiz.OwnerID,
			CreatedAt: quiz.CreatedAt,
			UpdatedAt: quiz.UpdatedAt,
		}
		if _, err := tx.NewInsert().Model(&row).Exec(ctx); err != nil {
			return err
		}
		return insertQuestions(ctx, tx, quiz)
	})
	if err != nil {
		return storageErr("create quiz", err)
	}
	return nil
}

func (s *QuizStore) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var row quizRow
	err := s.db.NewSelect().Model(&row).Where("id = ?", quizID).Scan(ctx)
	if isNoRows(err) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, storageErr("load quiz", err)
	}

	var questions []questionRow
	err = s.db.NewSelect().Model(&questions).
		Where("quiz_id = ?", quizID).
		Order("position ASC").
		Scan(ctx)
	if err != nil {
		return domain.Quiz{}, storageErr("load questions", err)
	}
	return toQuiz(row, questions)
}

func (s *QuizStore) UpdateQuiz(ctx context.Context, quiz domain.Quiz) error {
	var missing bool
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().Table("quizzes").
			Set("title = ?", quiz.Title).
			Set("updated_at = ?", quiz.UpdatedAt).
			Where("id = ?", quiz.ID).
			Exec(ctx)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			missing = true
			return nil
		}
		if _, err := tx.NewDelete().Model((*questionRow)(nil)).Where("quiz_id = ?", quiz.ID).Exec(ctx); err != nil {
			return err
		}
		return insertQuestions(ctx, tx, quiz)
	})
	if err != nil {
		return storageErr("update quiz", err)
	}
	if missing {
		return domain.ErrQuizNotFound
	}
	return nil
}

// DeleteQuiz relies on ON DELETE CASCADE for questions and attempts.
func (s *QuizStore) DeleteQuiz(ctx context.Context, quizID string) error {
	res, err := s.db.NewDelete().Model((*quizRow)(nil)).Where("id = ?", quizID).Exec(ctx)
	if err != nil {
		return storageErr("delete quiz", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

func (s *QuizStore) ListQuizzesByOwner(ctx context.Context, ownerID string) ([]domain.Quiz, error) {
	var rows []quizRow
	err := s.db.NewSelect().Model(&rows).
		Where("created_by = ?", ownerID).
		Order("created_at DESC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, storageErr("list quizzes", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	var questions []questionRow
	err = s.db.NewSelect().Model(&questions).
		Where("quiz_id IN (?)", bun.In(ids)).
		Order("quiz_id ASC", "position ASC").
		Scan(ctx)
	if err != nil {
		return nil, storageErr("list questions", err)
	}
	byQuiz := make(map[string][]questionRow, len(rows))
	for _, q := range questions {
		byQuiz[q.QuizID] = append(byQuiz[q.QuizID], q)
	}

	quizzes := make([]domain.Quiz, 0, len(rows))
	for _, r := range rows {
		quiz, err := toQuiz(r, byQuiz[r.ID])
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, quiz)
	}
	return quizzes, nil
}

func insertQuestions(ctx context.Context, tx bun.Tx, quiz domain.Quiz) error {
	if len(quiz.Questions) == 0 {
		return nil
	}
	rows := make([]questionRow, 0, len(quiz.Questions))
	for i, q := range quiz.Questions {
		f := q.Fields()
		rows = append(rows, questionRow{
			ID:            f.ID,
			QuizID:        quiz.ID,
			Position:      i,
			Text:          f.Text,
			Type:          string(f.Type),
			Options:       f.Options,
			CorrectAnswer: f.CorrectAnswer,
		})
	}
	_, err := tx.NewInsert().Model(&rows).Exec(ctx)
	return err
}

func toQuiz(row quizRow, questions []questionRow) (domain.Quiz, error) {
	quiz := domain.Quiz{
		ID:        row.ID,
		Title:     row.Title,
		OwnerID:   row.CreatedBy,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
		Questions: make([]domain.Question, 0, len(questions)),
	}
	for _, q := range questions {
		question, err := domain.ParseQuestion(domain.QuestionFields{
			ID:            q.ID,
			Text:          q.Text,
			Type:          domain.QuestionType(q.Type),
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
		})
		if err != nil {
			return domain.Quiz{}, fmt.Errorf("%w: stored question %s: %w", domain.ErrInvariantViolation, q.ID, err)
		}
		quiz.Questions = append(quiz.Questions, question)
	}
	return quiz, nil
}
