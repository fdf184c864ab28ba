package http

import (
	"net/http"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/auth"
	"classroom-quiz-service/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type startRequest struct {
	QuizID string `json:"quizId" validate:"required"`
}

// answerRequest carries an option index, a typed fill-in text, or both.
type answerRequest struct {
	Option *int   `json:"option" validate:"required_without=Text"`
	Text   string `json:"text" validate:"max=500"`
}

func (a answerRequest) answer() domain.Answer {
	answer := domain.NoAnswer()
	if a.Option != nil {
		answer.Option = *a.Option
	}
	answer.Text = a.Text
	return answer
}

// attemptView hides the score until the attempt is completed.
type attemptView struct {
	domain.Attempt
	Status domain.AttemptStatus `json:"status"`
	Score  *int                 `json:"score,omitempty"`
}

func newAttemptView(a domain.Attempt) attemptView {
	view := attemptView{Attempt: a, Status: a.Status()}
	if a.Completed {
		score := a.Score
		view.Score = &score
	}
	return view
}

type summaryView struct {
	attemptView
	QuizTitle     string `json:"quizTitle"`
	QuestionCount int    `json:"questionCount"`
}

type sessionView struct {
	Attempt attemptView       `json:"attempt"`
	Quiz    domain.PublicQuiz `json:"quiz"`
}

type attemptHandler struct {
	service *app.AttemptService
	log     zerolog.Logger
}

func (h *attemptHandler) start(w http.ResponseWriter, r *http.Request) {
	student, err := auth.FromContext(r.Context())
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	var req startRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	attempt, quiz, err := h.service.Start(r.Context(), student, req.QuizID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionView{Attempt: newAttemptView(attempt), Quiz: quiz})
}

func (h *attemptHandler) get(w http.ResponseWriter, r *http.Request) {
	student, err := auth.FromContext(r.Context())
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	attempt, quiz, err := h.service.Get(r.Context(), student, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionView{Attempt: newAttemptView(attempt), Quiz: quiz})
}

func (h *attemptHandler) selectAnswer(w http.ResponseWriter, r *http.Request) {
	student, err := auth.FromContext(r.Context())
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	var req answerRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	err = h.service.SelectAnswer(r.Context(), student, chi.URLParam(r, "id"), chi.URLParam(r, "questionId"), req.answer())
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *attemptHandler) submit(w http.ResponseWriter, r *http.Request) {
	student, err := auth.FromContext(r.Context())
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	result, err := h.service.Submit(r.Context(), student, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *attemptHandler) history(w http.ResponseWriter, r *http.Request) {
	student, err := auth.FromContext(r.Context())
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	summaries, overview, err := h.service.History(r.Context(), student)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	views := make([]summaryView, 0, len(summaries))
	for _, s := range summaries {
		views = append(views, summaryView{
			attemptView:   newAttemptView(s.Attempt),
			QuizTitle:     s.QuizTitle,
			QuestionCount: s.QuestionCount,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"attempts": views, "overview": overview})
}
