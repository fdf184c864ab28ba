package http

import (
	"net/http"
	"time"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// Services are the use cases exposed over HTTP.
type Services struct {
	Quizzes    *app.QuizService
	Attempts   *app.AttemptService
	Statistics *app.StatisticsService
}

// RouterConfig configures NewRouter.
type RouterConfig struct {
	Tokens      *auth.Tokens
	TokenTTL    time.Duration
	CORSOrigins []string
	Logger      zerolog.Logger
}

// NewRouter mounts the REST API, the attempt WebSocket and the health check.
func NewRouter(svc Services, cfg RouterConfig) http.Handler {
	log := cfg.Logger
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	quizzes := &quizHandler{service: svc.Quizzes, log: log}
	attempts := &attemptHandler{service: svc.Attempts, log: log}
	statistics := &statisticsHandler{service: svc.Statistics, log: log}
	identity := &identityHandler{tokens: cfg.Tokens, ttl: cfg.TokenTTL, log: log}
	ws := NewWSHandler(svc.Attempts, log)

	r.Group(func(r chi.Router) {
		r.Use(Authenticate(cfg.Tokens, log))

		r.Get("/ws", ws.ServeWS)

		r.Route("/api", func(r chi.Router) {
			r.Get("/me", identity.get)
			r.Patch("/me", identity.rename)

			r.Route("/quizzes", func(r chi.Router) {
				r.Post("/", quizzes.create)
				r.Get("/", quizzes.list)
				r.Get("/{id}", quizzes.get)
				r.Put("/{id}", quizzes.update)
				r.Delete("/{id}", quizzes.delete)
			})
			r.Get("/statistics", statistics.report)

			r.Route("/attempts", func(r chi.Router) {
				r.Post("/", attempts.start)
				r.Get("/", attempts.history)
				r.Get("/{id}", attempts.get)
				r.Put("/{id}/answers/{questionId}", attempts.selectAnswer)
				r.Post("/{id}/submit", attempts.submit)
			})
		})
	})
	return r
}
