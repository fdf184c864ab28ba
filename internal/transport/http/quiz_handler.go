package http

import (
	"net/http"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/auth"
	"classroom-quiz-service/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type quizRequest struct {
	Title     string                  `json:"title" validate:"required,max=200"`
	Questions []domain.QuestionFields `json:"questions" validate:"required,min=1,dive"`
}

func (q quizRequest) draft() app.QuizDraft {
	return app.QuizDraft{Title: q.Title, Questions: q.Questions}
}

type quizHandler struct {
	service *app.QuizService
	log     zerolog.Logger
}

func (h *quizHandler) create(w http.ResponseWriter, r *http.Request) {
	teacher, err := auth.FromContext(r.Context())
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	var req quizRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	quiz, err := h.service.Create(r.Context(), teacher, req.draft())
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, quiz)
}

func (h *quizHandler) list(w http.ResponseWriter, r *http.Request) {
	teacher, err := auth.FromContext(r.Context())
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	quizzes, err := h.service.List(r.Context(), teacher)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if quizzes == nil {
		quizzes = []domain.Quiz{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"quizzes": quizzes})
}

func (h *quizHandler) get(w http.ResponseWriter, r *http.Request) {
	teacher, err := auth.FromContext(r.Context())
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	quiz, err := h.service.Get(r.Context(), teacher, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (h *quizHandler) update(w http.ResponseWriter, r *http.Request) {
	teacher, err := auth.FromContext(r.Context())
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	var req quizRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	quiz, err := h.service.Update(r.Context(), teacher, chi.URLParam(r, "id"), req.draft())
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (h *quizHandler) delete(w http.ResponseWriter, r *http.Request) {
	teacher, err := auth.FromContext(r.Context())
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if err := h.service.Delete(r.Context(), teacher, chi.URLParam(r, "id")); err != nil {
		writeError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type statisticsHandler struct {
	service *app.StatisticsService
	log     zerolog.Logger
}

func (h *statisticsHandler) report(w http.ResponseWriter, r *http.Request) {
	teacher, err := auth.FromContext(r.Context())
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	report, err := h.service.Report(r.Context(), teacher)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
