package app

import (
	"context"
	"fmt"
	"strings"

	"classroom-quiz-service/internal/domain"
)

// QuizDraft is the authored content of a quiz before validation.
type QuizDraft struct {
	Title     string
	Questions []domain.QuestionFields
}

// QuizService contains the teacher-side authoring use cases.
type QuizService struct {
	quizzes QuizRepository
	deps
}

func NewQuizService(quizzes QuizRepository, opts ...Option) *QuizService {
	return &QuizService{quizzes: quizzes, deps: applyOptions(opts)}
}

// Create validates the draft and persists a new quiz owned by the teacher.
func (s *QuizService) Create(ctx context.Context, teacher domain.Identity, draft QuizDraft) (domain.Quiz, error) {
	if !teacher.IsTeacher() {
		return domain.Quiz{}, fmt.Errorf("%w: only teachers can create quizzes", domain.ErrForbidden)
	}
	title, questions, err := s.build(draft)
	if err != nil {
		return domain.Quiz{}, err
	}

	now := s.now()
	quiz := domain.Quiz{
		ID:        s.newID(),
		Title:     title,
		OwnerID:   teacher.ID,
		Questions: questions,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.quizzes.CreateQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

// Update replaces the title and every question of an owned quiz.
func (s *QuizService) Update(ctx context.Context, teacher domain.Identity, quizID string, draft QuizDraft) (domain.Quiz, error) {
	quiz, err := s.Get(ctx, teacher, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	title, questions, err := s.build(draft)
	if err != nil {
		return domain.Quiz{}, err
	}

	quiz.Title = title
	quiz.Questions = questions
	quiz.UpdatedAt = s.now()
	if err := s.quizzes.UpdateQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

// Delete removes an owned quiz with its questions and attempts.
func (s *QuizService) Delete(ctx context.Context, teacher domain.Identity, quizID string) error {
	if _, err := s.Get(ctx, teacher, quizID); err != nil {
		return err
	}
	return s.quizzes.DeleteQuiz(ctx, quizID)
}

// Get returns a quiz including its answer key; only the owner may read it.
func (s *QuizService) Get(ctx context.Context, teacher domain.Identity, quizID string) (domain.Quiz, error) {
	if !teacher.IsTeacher() {
		return domain.Quiz{}, fmt.Errorf("%w: only teachers can manage quizzes", domain.ErrForbidden)
	}
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if quiz.OwnerID != teacher.ID {
		return domain.Quiz{}, fmt.Errorf("%w: quiz %s belongs to another teacher", domain.ErrForbidden, quizID)
	}
	return quiz, nil
}

func (s *QuizService) List(ctx context.Context, teacher domain.Identity) ([]domain.Quiz, error) {
	if !teacher.IsTeacher() {
		return nil, fmt.Errorf("%w: only teachers can manage quizzes", domain.ErrForbidden)
	}
	return s.quizzes.ListQuizzesByOwner(ctx, teacher.ID)
}

func (s *QuizService) build(draft QuizDraft) (string, []domain.Question, error) {
	title := strings.TrimSpace(draft.Title)
	if title == "" {
		return "", nil, fmt.Errorf("%w: quiz title is required", domain.ErrInvalidQuiz)
	}
	if len(draft.Questions) == 0 {
		return "", nil, fmt.Errorf("%w: a quiz needs at least one question", domain.ErrInvalidQuiz)
	}

	questions := make([]domain.Question, 0, len(draft.Questions))
	for i, fields := range draft.Questions {
		q, err := fields.Build()
		if err != nil {
			return "", nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		q.ID = s.newID()
		questions = append(questions, q)
	}
	return title, questions, nil
}
