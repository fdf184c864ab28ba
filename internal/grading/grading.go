// Package grading scores completed attempts. Grading is all-or-nothing per question
// and has no side effects.
package grading

import (
	"fmt"

	"classroom-quiz-service/internal/domain"
)

// Grade scores answers against the quiz questions. Missing answers count as wrong.
// A quiz without questions cannot be graded and yields domain.ErrInvariantViolation.
func Grade(questions []domain.Question, answers map[string]domain.Answer) (domain.Result, error) {
	total := len(questions)
	if total == 0 {
		return domain.Result{}, fmt.Errorf("%w: cannot grade a quiz without questions", domain.ErrInvariantViolation)
	}

	correct := 0
	for _, q := range questions {
		answer, ok := answers[q.ID]
		if !ok {
			answer = domain.NoAnswer()
		}
		if q.IsCorrect(answer) {
			correct++
		}
	}

	return domain.Result{
		Correct: correct,
		Total:   total,
		Score:   Percentage(correct, total),
	}, nil
}

// Percentage returns round-half-up(correct / total * 100) without floating point.
func Percentage(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return (correct*200 + total) / (total * 2)
}
