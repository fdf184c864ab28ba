package app_test

import (
	"fmt"
	"time"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/domain"
	"classroom-quiz-service/internal/infra/memory"
)

var (
	teacher = domain.Identity{ID: "t1", Name: "Ms Frizzle", Role: domain.RoleTeacher}
	student = domain.Identity{ID: "s1", Name: "Arnold", Role: domain.RoleStudent}
	other   = domain.Identity{ID: "s2", Name: "Wanda", Role: domain.RoleStudent}
)

type fixture struct {
	quizzes  *app.QuizService
	attempts *app.AttemptService
	stats    *app.StatisticsService
	store    *memory.AttemptStore
	now      time.Time
}

func newFixture() *fixture {
	f := &fixture{now: time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)}
	seq := 0
	opts := []app.Option{
		app.WithClock(func() time.Time {
			f.now = f.now.Add(time.Second)
			return f.now
		}),
		app.WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		}),
	}

	f.store = memory.NewAttemptStore()
	quizStore := memory.NewQuizCache(memory.NewQuizStore(f.store), time.Minute)
	f.quizzes = app.NewQuizService(quizStore, opts...)
	f.attempts = app.NewAttemptService(quizStore, f.store, opts...)
	f.stats = app.NewStatisticsService(app.NewAttemptAggregator(quizStore, f.store))
	return f
}

func twoQuestionDraft() app.QuizDraft {
	return app.QuizDraft{
		Title: "Planets",
		Questions: []domain.QuestionFields{
			{Text: "Largest planet?", Type: domain.TypeMultipleChoice, Options: []string{"Mars", "Jupiter", "Venus", "Earth"}, CorrectAnswer: 1},
			{Text: "Red planet?", Type: domain.TypeMultipleChoice, Options: []string{"Venus", "Earth", "Saturn", "Mars"}, CorrectAnswer: 3},
		},
	}
}
