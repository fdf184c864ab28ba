package app_test

import (
	"context"
	"errors"
	"testing"

	"classroom-quiz-service/internal/domain"
)

func TestStatisticsReport(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	quiz, _ := f.quizzes.Create(ctx, teacher, twoQuestionDraft())
	untouched, _ := f.quizzes.Create(ctx, teacher, twoQuestionDraft())

	// student: 100, other: 50, plus an unfinished attempt that must not count
	a1, _, _ := f.attempts.Start(ctx, student, quiz.ID)
	answerAll(t, f, quiz, a1.ID)
	if _, err := f.attempts.Submit(ctx, student, a1.ID); err != nil {
		t.Fatalf("submit a1: %v", err)
	}
	a2, _, _ := f.attempts.Start(ctx, other, quiz.ID)
	_ = f.attempts.SelectAnswer(ctx, other, a2.ID, quiz.Questions[0].ID, domain.Answer{Option: 1})
	_ = f.attempts.SelectAnswer(ctx, other, a2.ID, quiz.Questions[1].ID, domain.Answer{Option: 0})
	if _, err := f.attempts.Submit(ctx, other, a2.ID); err != nil {
		t.Fatalf("submit a2: %v", err)
	}
	_, _, _ = f.attempts.Start(ctx, domain.Identity{ID: "s3", Role: domain.RoleStudent}, quiz.ID)

	report, err := f.stats.Report(ctx, teacher)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(report.Quizzes) != 2 {
		t.Fatalf("expected two quiz rows, got %+v", report.Quizzes)
	}
	for _, row := range report.Quizzes {
		switch row.QuizID {
		case quiz.ID:
			if row.TotalAttempts != 2 || row.TotalStudents != 2 || row.AverageScore != 75 {
				t.Fatalf("unexpected row %+v", row)
			}
		case untouched.ID:
			if row.TotalAttempts != 0 || row.AverageScore != 0 {
				t.Fatalf("expected zero row, got %+v", row)
			}
		}
	}
	if len(report.Students) != 2 || report.Students[0].StudentID != "s1" || report.Students[0].HighestScore != 100 {
		t.Fatalf("unexpected student rows %+v", report.Students)
	}

	if _, err := f.stats.Report(ctx, student); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden for students, got %v", err)
	}
}
