package app

import (
	"context"
	"time"

	"classroom-quiz-service/internal/domain"
)

// QuizRepository abstracts how quizzes and their questions are stored (in-memory, Postgres, etc).
type QuizRepository interface {
	CreateQuiz(ctx context.Context, quiz domain.Quiz) error
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	// UpdateQuiz replaces the title and the full question list in one step.
	UpdateQuiz(ctx context.Context, quiz domain.Quiz) error
	// DeleteQuiz removes the quiz together with its questions and attempts.
	DeleteQuiz(ctx context.Context, quizID string) error
	ListQuizzesByOwner(ctx context.Context, ownerID string) ([]domain.Quiz, error)
}

// AttemptRepository persists attempts. Every method is a single atomic step.
type AttemptRepository interface {
	CreateAttempt(ctx context.Context, attempt domain.Attempt) error
	GetAttempt(ctx context.Context, attemptID string) (domain.Attempt, error)
	// UpsertAnswer sets one entry of the answer mapping of an in-progress attempt.
	// It fails with domain.ErrAttemptCompleted once the attempt is completed.
	UpsertAnswer(ctx context.Context, attemptID, questionID string, answer domain.Answer) error
	// CompleteAttempt stores the score and completion time and flips the completed flag.
	// It fails with domain.ErrAttemptCompleted if the attempt already completed and with
	// domain.ErrDuplicateAttempt if another attempt of the same pair completed first.
	CompleteAttempt(ctx context.Context, attemptID string, score int, completedAt time.Time) error
	HasCompletedAttempt(ctx context.Context, quizID, studentID string) (bool, error)
	ListAttemptsByStudent(ctx context.Context, studentID string) ([]domain.Attempt, error)
	ListCompletedAttempts(ctx context.Context, quizIDs []string) ([]domain.Attempt, error)
}
