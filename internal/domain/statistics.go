package domain

import "time"

// QuizStatistics summarizes the completed attempts of one quiz.
type QuizStatistics struct {
	QuizID         string     `json:"quizId"`
	Title          string     `json:"title"`
	TotalStudents  int        `json:"total_students"`
	AverageScore   float64    `json:"average_score"`
	TotalAttempts  int        `json:"total_attempts"`
	FirstAttemptAt *time.Time `json:"first_attempt_date,omitempty"`
	LastAttemptAt  *time.Time `json:"last_attempt_date,omitempty"`
}

// StudentSummary summarizes one student's completed attempts on one quiz.
type StudentSummary struct {
	QuizID         string    `json:"quizId"`
	StudentID      string    `json:"studentId"`
	AttemptCount   int       `json:"attempt_count"`
	HighestScore   int       `json:"highest_score"`
	FirstAttemptAt time.Time `json:"first_attempt"`
	LastAttemptAt  time.Time `json:"last_attempt"`
}

// StudentOverview is the headline numbers of a student's own history.
type StudentOverview struct {
	Attempts     int `json:"attempts"`
	Completed    int `json:"completed"`
	AverageScore int `json:"averageScore"`
	BestScore    int `json:"bestScore"`
}

// Report is the teacher-facing statistics for all of a teacher's quizzes.
type Report struct {
	Quizzes  []QuizStatistics `json:"quizzes"`
	Students []StudentSummary `json:"students"`
}
