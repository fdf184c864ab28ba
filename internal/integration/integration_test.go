package integration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/domain"
	"classroom-quiz-service/internal/infra/postgres"
	infraredis "classroom-quiz-service/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	teacher = domain.Identity{ID: "t1", Name: "Ms Frizzle", Role: domain.RoleTeacher}
	alice   = domain.Identity{ID: "s1", Name: "Alice", Role: domain.RoleStudent}
	bob     = domain.Identity{ID: "s2", Name: "Bob", Role: domain.RoleStudent}
)

func TestAttemptLifecycleOnPostgresAndRedis(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db := postgres.OpenDB(pgURL)
	defer db.Close()
	if _, err := postgres.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	attempts := postgres.NewAttemptStore(db)
	quizzes := infraredis.NewQuizCache(redisClient, postgres.NewQuizStore(db), 5*time.Minute, zerolog.Nop())
	quizService := app.NewQuizService(quizzes)
	attemptService := app.NewAttemptService(quizzes, attempts)

	quiz, err := quizService.Create(ctx, teacher, app.QuizDraft{
		Title: "Planets",
		Questions: []domain.QuestionFields{
			{Text: "Largest planet?", Type: domain.TypeMultipleChoice, Options: []string{"Mars", "Jupiter", "Venus", "Earth"}, CorrectAnswer: 1},
			{Text: "Pluto is a planet", Type: domain.TypeTrueFalse, Options: []string{"True", "False"}, CorrectAnswer: 1},
			{Text: "The red planet is ___", Type: domain.TypeFillBlank, Options: []string{"Mars"}},
		},
	})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}

	take := func(student domain.Identity, answers []domain.Answer) domain.Result {
		t.Helper()
		attempt, public, err := attemptService.Start(ctx, student, quiz.ID)
		if err != nil {
			t.Fatalf("start %s: %v", student.ID, err)
		}
		for i, q := range public.Questions {
			if err := attemptService.SelectAnswer(ctx, student, attempt.ID, q.ID, answers[i]); err != nil {
				t.Fatalf("select %s: %v", q.ID, err)
			}
		}
		result, err := attemptService.Submit(ctx, student, attempt.ID)
		if err != nil {
			t.Fatalf("submit %s: %v", student.ID, err)
		}
		return result
	}

	if r := take(alice, []domain.Answer{{Option: 1}, {Option: 1}, {Option: domain.NoOption, Text: "mars"}}); r.Score != 100 {
		t.Fatalf("expected alice to score 100, got %+v", r)
	}
	if r := take(bob, []domain.Answer{{Option: 1}, {Option: 0}, {Option: domain.NoOption, Text: "venus"}}); r.Score != 33 {
		t.Fatalf("expected bob to score 33, got %+v", r)
	}

	if _, _, err := attemptService.Start(ctx, alice, quiz.ID); !errors.Is(err, domain.ErrDuplicateAttempt) {
		t.Fatalf("expected duplicate attempt, got %v", err)
	}

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	fromViews, err := app.NewStatisticsService(postgres.NewStatisticsViews(pool)).Report(ctx, teacher)
	if err != nil {
		t.Fatalf("views report: %v", err)
	}
	aggregated, err := app.NewStatisticsService(app.NewAttemptAggregator(quizzes, attempts)).Report(ctx, teacher)
	if err != nil {
		t.Fatalf("aggregated report: %v", err)
	}
	for name, report := range map[string]domain.Report{"views": fromViews, "aggregated": aggregated} {
		if len(report.Quizzes) != 1 {
			t.Fatalf("%s: expected one quiz row, got %+v", name, report.Quizzes)
		}
		row := report.Quizzes[0]
		if row.TotalStudents != 2 || row.TotalAttempts != 2 || row.AverageScore != 66.5 {
			t.Fatalf("%s: unexpected quiz row %+v", name, row)
		}
		if len(report.Students) != 2 || report.Students[0].StudentID != "s1" || report.Students[0].HighestScore != 100 {
			t.Fatalf("%s: unexpected student rows %+v", name, report.Students)
		}
	}

	if err := quizService.Delete(ctx, teacher, quiz.ID); err != nil {
		t.Fatalf("delete quiz: %v", err)
	}
	if _, err := quizzes.GetQuiz(ctx, quiz.ID); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected deleted quiz to be gone from the cache, got %v", err)
	}
	history, _, err := attemptService.History(ctx, alice)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("expected attempts to cascade with the quiz, got %d", len(history))
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
