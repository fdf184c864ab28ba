package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/auth"
	"classroom-quiz-service/internal/config"
	"classroom-quiz-service/internal/infra/memory"
	"classroom-quiz-service/internal/infra/postgres"
	rediscache "classroom-quiz-service/internal/infra/redis"
	"classroom-quiz-service/internal/logger"
	transport "classroom-quiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func tokenTTL(cfg config.Config) time.Duration {
	return config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour)
}

type stores struct {
	quizzes  app.QuizRepository
	attempts app.AttemptRepository
	stats    app.StatisticsSource
	closers  []func()
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openStores picks Postgres when configured and the in-memory stores otherwise,
// then layers the quiz cache (Redis when configured) on top.
func openStores(ctx context.Context, cfg config.Config, log zerolog.Logger) (*stores, error) {
	s := &stores{}
	if cfg.Postgres.URL != "" {
		db := postgres.OpenDB(cfg.Postgres.URL)
		s.closers = append(s.closers, func() { _ = db.Close() })
		if err := runMigrations(ctx, db, cfg); err != nil {
			s.close()
			return nil, err
		}
		s.quizzes = postgres.NewQuizStore(db)
		s.attempts = postgres.NewAttemptStore(db)

		if cfg.Statistics.UseViews {
			pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
			if err != nil {
				s.close()
				return nil, err
			}
			s.closers = append(s.closers, pool.Close)
			s.stats = postgres.NewStatisticsViews(pool)
			log.Info().Msg("statistics served from SQL views")
		}
		log.Info().Msg("using postgres storage")
	} else {
		attempts := memory.NewAttemptStore()
		s.quizzes = memory.NewQuizStore(attempts)
		s.attempts = attempts
		log.Warn().Msg("postgres not configured, using in-memory storage")
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		s.closers = append(s.closers, func() { _ = client.Close() })
		s.quizzes = rediscache.NewQuizCache(client, s.quizzes, quizTTL, log.With().Str("component", "quiz-cache").Logger())
	} else {
		s.quizzes = memory.NewQuizCache(s.quizzes, quizTTL)
	}

	if s.stats == nil {
		s.stats = app.NewAttemptAggregator(s.quizzes, s.attempts)
	}
	return s, nil
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logger.Setup(cfg.Log.Level, cfg.Log.Format)

	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret not configured")
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	services := transport.Services{
		Quizzes:    app.NewQuizService(st.quizzes),
		Attempts:   app.NewAttemptService(st.quizzes, st.attempts),
		Statistics: app.NewStatisticsService(st.stats),
	}
	handler := transport.NewRouter(services, transport.RouterConfig{
		Tokens:      auth.NewTokens(cfg.Auth.JWTSecret),
		TokenTTL:    tokenTTL(cfg),
		CORSOrigins: cfg.Server.CORSOrigins,
		Logger:      log.With().Str("component", "http").Logger(),
	})

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: it would cut long-lived websocket sessions.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("starting quiz service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info().Msg("shutting down server")
	case <-ctx.Done():
		log.Info().Msg("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
