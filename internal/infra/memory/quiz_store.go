package memory

import (
	"context"
	"sort"
	"sync"

	"classroom-quiz-service/internal/domain"
)

// QuizStore is an in-memory implementation of app.QuizRepository. Deleting a quiz
// cascades to the attempts held by the linked AttemptStore.
type QuizStore struct {
	attempts *AttemptStore

	mu      sync.RWMutex
	quizzes map[string]domain.Quiz
}

func NewQuizStore(attempts *AttemptStore) *QuizStore {
	return &QuizStore{
		attempts: attempts,
		quizzes:  make(map[string]domain.Quiz),
	}
}

func (s *QuizStore) CreateQuiz(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizzes[quiz.ID] = copyQuiz(quiz)
	return nil
}

func (s *QuizStore) GetQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return copyQuiz(quiz), nil
}

func (s *QuizStore) UpdateQuiz(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.quizzes[quiz.ID]
	if !ok {
		return domain.ErrQuizNotFound
	}
	existing.Title = quiz.Title
	existing.Questions = copyQuiz(quiz).Questions
	existing.UpdatedAt = quiz.UpdatedAt
	s.quizzes[quiz.ID] = existing
	return nil
}

func (s *QuizStore) DeleteQuiz(_ context.Context, quizID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[quizID]; !ok {
		return domain.ErrQuizNotFound
	}
	delete(s.quizzes, quizID)
	if s.attempts != nil {
		s.attempts.deleteByQuiz(quizID)
	}
	return nil
}

func (s *QuizStore) ListQuizzesByOwner(_ context.Context, ownerID string) ([]domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Quiz
	for _, quiz := range s.quizzes {
		if quiz.OwnerID == ownerID {
			out = append(out, copyQuiz(quiz))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func copyQuiz(quiz domain.Quiz) domain.Quiz {
	quiz.Questions = append([]domain.Question(nil), quiz.Questions...)
	return quiz
}
