package memory

import (
	"context"
	"sync"
	"time"

	"classroom-quiz-service/internal/domain"
)

// AttemptStore is an in-memory implementation of app.AttemptRepository.
type AttemptStore struct {
	mu       sync.RWMutex
	attempts map[string]domain.Attempt
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{
		attempts: make(map[string]domain.Attempt),
	}
}

func (s *AttemptStore) CreateAttempt(_ context.Context, attempt domain.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[attempt.ID] = attempt.Clone()
	return nil
}

func (s *AttemptStore) GetAttempt(_ context.Context, attemptID string) (domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempt, ok := s.attempts[attemptID]
	if !ok {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	return attempt.Clone(), nil
}

func (s *AttemptStore) UpsertAnswer(_ context.Context, attemptID, questionID string, answer domain.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	attempt, ok := s.attempts[attemptID]
	if !ok {
		return domain.ErrAttemptNotFound
	}
	if attempt.Completed {
		return domain.ErrAttemptCompleted
	}
	if attempt.Answers == nil {
		attempt.Answers = make(map[string]domain.Answer)
	}
	attempt.Answers[questionID] = answer
	s.attempts[attemptID] = attempt
	return nil
}

func (s *AttemptStore) CompleteAttempt(_ context.Context, attemptID string, score int, completedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	attempt, ok := s.attempts[attemptID]
	if !ok {
		return domain.ErrAttemptNotFound
	}
	if attempt.Completed {
		return domain.ErrAttemptCompleted
	}
	if s.hasCompletedLocked(attempt.QuizID, attempt.StudentID) {
		return domain.ErrDuplicateAttempt
	}
	attempt.Completed = true
	attempt.Score = score
	attempt.CompletedAt = &completedAt
	s.attempts[attemptID] = attempt
	return nil
}

func (s *AttemptStore) HasCompletedAttempt(_ context.Context, quizID, studentID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasCompletedLocked(quizID, studentID), nil
}

func (s *AttemptStore) ListAttemptsByStudent(_ context.Context, studentID string) ([]domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Attempt
	for _, attempt := range s.attempts {
		if attempt.StudentID == studentID {
			out = append(out, attempt.Clone())
		}
	}
	return out, nil
}

func (s *AttemptStore) ListCompletedAttempts(_ context.Context, quizIDs []string) ([]domain.Attempt, error) {
	wanted := make(map[string]struct{}, len(quizIDs))
	for _, id := range quizIDs {
		wanted[id] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Attempt
	for _, attempt := range s.attempts {
		if _, ok := wanted[attempt.QuizID]; ok && attempt.Completed {
			out = append(out, attempt.Clone())
		}
	}
	return out, nil
}

// deleteByQuiz drops every attempt of a quiz; used by QuizStore's cascade.
func (s *AttemptStore) deleteByQuiz(quizID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, attempt := range s.attempts {
		if attempt.QuizID == quizID {
			delete(s.attempts, id)
		}
	}
}

func (s *AttemptStore) hasCompletedLocked(quizID, studentID string) bool {
	for _, attempt := range s.attempts {
		if attempt.QuizID == quizID && attempt.StudentID == studentID && attempt.Completed {
			return true
		}
	}
	return false
}
