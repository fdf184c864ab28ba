package domain

import "errors"

var (
	// ErrInvalidQuestion is returned when authored question content violates its variant rules.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrInvalidQuiz is returned when quiz-level content (title, question list) is invalid.
	ErrInvalidQuiz = errors.New("invalid quiz")
	// ErrDuplicateAttempt is returned when the student already completed the quiz.
	ErrDuplicateAttempt = errors.New("quiz already completed by student")
	// ErrIncompleteAttempt is returned on submit while some questions are unanswered.
	ErrIncompleteAttempt = errors.New("attempt has unanswered questions")
	// ErrAttemptCompleted is returned when mutating an attempt that already completed.
	ErrAttemptCompleted = errors.New("attempt already completed")
	// ErrQuizNotFound indicates the quiz could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrAttemptNotFound indicates the attempt could not be loaded.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrQuestionNotFound indicates a submitted question ID is not part of the quiz.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrInvariantViolation marks states the data model forbids, e.g. grading an empty quiz.
	ErrInvariantViolation = errors.New("invariant violation")
	// ErrStorageUnavailable wraps failures of the backing store.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrForbidden is returned when the caller does not own the resource or lacks the role.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthenticated is returned when no identity is attached to the request.
	ErrUnauthenticated = errors.New("unauthenticated")
)
