// Package stats reduces attempt collections into per-quiz and per-student summaries.
// Only completed attempts are counted. Every function is a pure projection recomputed
// from its input.
package stats

import (
	"sort"
	"time"

	"classroom-quiz-service/internal/domain"
)

// ByQuiz returns one row per quiz, ordered by quiz ID. Quizzes without completed
// attempts get a zero row.
func ByQuiz(quizzes []domain.Quiz, attempts []domain.Attempt) []domain.QuizStatistics {
	type acc struct {
		row      domain.QuizStatistics
		sum      int
		students map[string]struct{}
	}

	byID := make(map[string]*acc, len(quizzes))
	for _, q := range quizzes {
		byID[q.ID] = &acc{
			row:      domain.QuizStatistics{QuizID: q.ID, Title: q.Title},
			students: make(map[string]struct{}),
		}
	}

	for _, a := range attempts {
		entry, ok := byID[a.QuizID]
		if !ok || !a.Completed {
			continue
		}
		at := completedAt(a)
		entry.row.TotalAttempts++
		entry.sum += a.Score
		entry.students[a.StudentID] = struct{}{}
		if entry.row.FirstAttemptAt == nil || at.Before(*entry.row.FirstAttemptAt) {
			first := at
			entry.row.FirstAttemptAt = &first
		}
		if entry.row.LastAttemptAt == nil || at.After(*entry.row.LastAttemptAt) {
			last := at
			entry.row.LastAttemptAt = &last
		}
	}

	rows := make([]domain.QuizStatistics, 0, len(byID))
	for _, entry := range byID {
		entry.row.TotalStudents = len(entry.students)
		if entry.row.TotalAttempts > 0 {
			entry.row.AverageScore = float64(entry.sum) / float64(entry.row.TotalAttempts)
		}
		rows = append(rows, entry.row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].QuizID < rows[j].QuizID })
	return rows
}

// ByStudent returns one row per (quiz, student) pair, ordered by quiz ID then student ID.
func ByStudent(attempts []domain.Attempt) []domain.StudentSummary {
	type key struct{ quizID, studentID string }

	byKey := make(map[key]*domain.StudentSummary)
	for _, a := range attempts {
		if !a.Completed {
			continue
		}
		at := completedAt(a)
		k := key{a.QuizID, a.StudentID}
		row, ok := byKey[k]
		if !ok {
			byKey[k] = &domain.StudentSummary{
				QuizID:         a.QuizID,
				StudentID:      a.StudentID,
				AttemptCount:   1,
				HighestScore:   a.Score,
				FirstAttemptAt: at,
				LastAttemptAt:  at,
			}
			continue
		}
		row.AttemptCount++
		if a.Score > row.HighestScore {
			row.HighestScore = a.Score
		}
		if at.Before(row.FirstAttemptAt) {
			row.FirstAttemptAt = at
		}
		if at.After(row.LastAttemptAt) {
			row.LastAttemptAt = at
		}
	}

	rows := make([]domain.StudentSummary, 0, len(byKey))
	for _, row := range byKey {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].QuizID != rows[j].QuizID {
			return rows[i].QuizID < rows[j].QuizID
		}
		return rows[i].StudentID < rows[j].StudentID
	})
	return rows
}

// Student summarizes a single student's own attempts.
func Student(attempts []domain.Attempt) domain.StudentOverview {
	overview := domain.StudentOverview{Attempts: len(attempts)}
	sum := 0
	for _, a := range attempts {
		if !a.Completed {
			continue
		}
		overview.Completed++
		sum += a.Score
		if a.Score > overview.BestScore {
			overview.BestScore = a.Score
		}
	}
	if overview.Completed > 0 {
		overview.AverageScore = (sum*2 + overview.Completed) / (overview.Completed * 2)
	}
	return overview
}

// completedAt falls back to the start time for records written without a completion time.
func completedAt(a domain.Attempt) time.Time {
	if a.CompletedAt != nil {
		return *a.CompletedAt
	}
	return a.StartedAt
}
