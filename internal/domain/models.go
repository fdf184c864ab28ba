package domain

import (
	"sort"
	"time"
)

// Quiz is an ordered collection of questions owned by a teacher.
type Quiz struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	OwnerID   string     `json:"ownerId"`
	Questions []Question `json:"questions"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Question looks up a question by ID.
func (q Quiz) Question(id string) (Question, bool) {
	for _, question := range q.Questions {
		if question.ID == id {
			return question, true
		}
	}
	return Question{}, false
}

// PublicQuiz is what a student sees while taking the quiz.
type PublicQuiz struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Questions []PublicQuestion `json:"questions"`
}

func (q Quiz) Public() PublicQuiz {
	questions := make([]PublicQuestion, 0, len(q.Questions))
	for _, question := range q.Questions {
		questions = append(questions, question.Public())
	}
	return PublicQuiz{ID: q.ID, Title: q.Title, Questions: questions}
}

// AttemptStatus is the lifecycle state of an attempt.
type AttemptStatus string

const (
	StatusNotStarted AttemptStatus = "not_started"
	StatusInProgress AttemptStatus = "in_progress"
	StatusCompleted  AttemptStatus = "completed"
)

// Attempt is one student's pass at a quiz. Score is meaningful only when Completed.
type Attempt struct {
	ID          string            `json:"id"`
	QuizID      string            `json:"quizId"`
	StudentID   string            `json:"studentId"`
	Answers     map[string]Answer `json:"answers"`
	Completed   bool              `json:"completed"`
	Score       int               `json:"score"`
	StartedAt   time.Time         `json:"startedAt"`
	CompletedAt *time.Time        `json:"completedAt,omitempty"`
}

func (a Attempt) Status() AttemptStatus {
	switch {
	case a.ID == "":
		return StatusNotStarted
	case a.Completed:
		return StatusCompleted
	default:
		return StatusInProgress
	}
}

// Unanswered returns the IDs of quiz questions missing from the answer mapping, in quiz order.
func (a Attempt) Unanswered(quiz Quiz) []string {
	var missing []string
	for _, q := range quiz.Questions {
		if _, ok := a.Answers[q.ID]; !ok {
			missing = append(missing, q.ID)
		}
	}
	return missing
}

// Clone returns a copy that shares no mutable state with a.
func (a Attempt) Clone() Attempt {
	out := a
	out.Answers = make(map[string]Answer, len(a.Answers))
	for k, v := range a.Answers {
		out.Answers[k] = v
	}
	if a.CompletedAt != nil {
		t := *a.CompletedAt
		out.CompletedAt = &t
	}
	return out
}

// Result is the outcome of grading a submitted attempt.
type Result struct {
	AttemptID string `json:"attemptId"`
	Correct   int    `json:"correct"`
	Total     int    `json:"total"`
	Score     int    `json:"score"`
}

// AttemptSummary is a row of a student's attempt history.
type AttemptSummary struct {
	Attempt
	QuizTitle     string `json:"quizTitle"`
	QuestionCount int    `json:"questionCount"`
}

// SortAttemptsNewestFirst orders attempts by start time descending, then ID.
func SortAttemptsNewestFirst(attempts []Attempt) {
	sort.Slice(attempts, func(i, j int) bool {
		if !attempts[i].StartedAt.Equal(attempts[j].StartedAt) {
			return attempts[i].StartedAt.After(attempts[j].StartedAt)
		}
		return attempts[i].ID < attempts[j].ID
	})
}
