package app

import (
	"context"
	"errors"
	"fmt"

	"classroom-quiz-service/internal/domain"
	"classroom-quiz-service/internal/grading"
	"classroom-quiz-service/internal/stats"
)

// AttemptService drives an attempt through NotStarted -> InProgress -> Completed.
// Callers must await each call before issuing the next one for the same attempt.
type AttemptService struct {
	quizzes  QuizRepository
	attempts AttemptRepository
	deps
}

func NewAttemptService(quizzes QuizRepository, attempts AttemptRepository, opts ...Option) *AttemptService {
	return &AttemptService{quizzes: quizzes, attempts: attempts, deps: applyOptions(opts)}
}

// Start persists a new in-progress attempt. It is rejected once the student has a
// completed attempt for the quiz; unfinished attempts do not block a new start.
func (s *AttemptService) Start(ctx context.Context, student domain.Identity, quizID string) (domain.Attempt, domain.PublicQuiz, error) {
	if !student.IsStudent() {
		return domain.Attempt{}, domain.PublicQuiz{}, fmt.Errorf("%w: only students can take quizzes", domain.ErrForbidden)
	}

	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Attempt{}, domain.PublicQuiz{}, err
	}

	done, err := s.attempts.HasCompletedAttempt(ctx, quiz.ID, student.ID)
	if err != nil {
		return domain.Attempt{}, domain.PublicQuiz{}, err
	}
	if done {
		return domain.Attempt{}, domain.PublicQuiz{}, domain.ErrDuplicateAttempt
	}

	attempt := domain.Attempt{
		ID:        s.newID(),
		QuizID:    quiz.ID,
		StudentID: student.ID,
		Answers:   map[string]domain.Answer{},
		StartedAt: s.now(),
	}
	if err := s.attempts.CreateAttempt(ctx, attempt); err != nil {
		return domain.Attempt{}, domain.PublicQuiz{}, err
	}
	return attempt, quiz.Public(), nil
}

// SelectAnswer records the student's current answer to one question (last write wins).
// Option ranges are not checked here; out-of-range options simply grade as wrong.
func (s *AttemptService) SelectAnswer(ctx context.Context, student domain.Identity, attemptID, questionID string, answer domain.Answer) error {
	attempt, err := s.owned(ctx, student, attemptID)
	if err != nil {
		return err
	}
	if attempt.Completed {
		return domain.ErrAttemptCompleted
	}

	quiz, err := s.quizzes.GetQuiz(ctx, attempt.QuizID)
	if err != nil {
		return err
	}
	if _, ok := quiz.Question(questionID); !ok {
		return fmt.Errorf("%w: %s", domain.ErrQuestionNotFound, questionID)
	}
	return s.attempts.UpsertAnswer(ctx, attempt.ID, questionID, answer)
}

// Submit grades a fully answered attempt and completes it. This is irreversible.
func (s *AttemptService) Submit(ctx context.Context, student domain.Identity, attemptID string) (domain.Result, error) {
	attempt, err := s.owned(ctx, student, attemptID)
	if err != nil {
		return domain.Result{}, err
	}
	if attempt.Completed {
		return domain.Result{}, domain.ErrAttemptCompleted
	}

	quiz, err := s.quizzes.GetQuiz(ctx, attempt.QuizID)
	if err != nil {
		return domain.Result{}, err
	}
	if missing := attempt.Unanswered(quiz); len(missing) > 0 {
		return domain.Result{}, fmt.Errorf("%w: %d of %d questions unanswered",
			domain.ErrIncompleteAttempt, len(missing), len(quiz.Questions))
	}

	result, err := grading.Grade(quiz.Questions, attempt.Answers)
	if err != nil {
		return domain.Result{}, fmt.Errorf("grade attempt %s: %w", attempt.ID, err)
	}
	result.AttemptID = attempt.ID

	if err := s.attempts.CompleteAttempt(ctx, attempt.ID, result.Score, s.now()); err != nil {
		return domain.Result{}, err
	}
	return result, nil
}

// Get re-reads an attempt and its quiz, e.g. to resume after an interruption.
func (s *AttemptService) Get(ctx context.Context, student domain.Identity, attemptID string) (domain.Attempt, domain.PublicQuiz, error) {
	attempt, err := s.owned(ctx, student, attemptID)
	if err != nil {
		return domain.Attempt{}, domain.PublicQuiz{}, err
	}
	quiz, err := s.quizzes.GetQuiz(ctx, attempt.QuizID)
	if err != nil {
		return domain.Attempt{}, domain.PublicQuiz{}, err
	}
	return attempt, quiz.Public(), nil
}

// History lists the student's attempts newest first with headline numbers.
func (s *AttemptService) History(ctx context.Context, student domain.Identity) ([]domain.AttemptSummary, domain.StudentOverview, error) {
	attempts, err := s.attempts.ListAttemptsByStudent(ctx, student.ID)
	if err != nil {
		return nil, domain.StudentOverview{}, err
	}
	domain.SortAttemptsNewestFirst(attempts)

	quizzes := make(map[string]domain.Quiz)
	summaries := make([]domain.AttemptSummary, 0, len(attempts))
	for _, attempt := range attempts {
		quiz, ok := quizzes[attempt.QuizID]
		if !ok {
			quiz, err = s.quizzes.GetQuiz(ctx, attempt.QuizID)
			if err != nil && !errors.Is(err, domain.ErrQuizNotFound) {
				return nil, domain.StudentOverview{}, err
			}
			quizzes[attempt.QuizID] = quiz
		}
		summaries = append(summaries, domain.AttemptSummary{
			Attempt:       attempt,
			QuizTitle:     quiz.Title,
			QuestionCount: len(quiz.Questions),
		})
	}
	return summaries, stats.Student(attempts), nil
}

func (s *AttemptService) owned(ctx context.Context, student domain.Identity, attemptID string) (domain.Attempt, error) {
	attempt, err := s.attempts.GetAttempt(ctx, attemptID)
	if err != nil {
		return domain.Attempt{}, err
	}
	if attempt.StudentID != student.ID {
		return domain.Attempt{}, fmt.Errorf("%w: attempt %s belongs to another student", domain.ErrForbidden, attemptID)
	}
	return attempt, nil
}
