package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/auth"
	"classroom-quiz-service/internal/domain"
	"classroom-quiz-service/internal/infra/memory"
	"github.com/rs/zerolog"
)

var (
	teacher = domain.Identity{ID: "t1", Name: "Ms Frizzle", Role: domain.RoleTeacher}
	student = domain.Identity{ID: "s1", Name: "Arnold", Role: domain.RoleStudent}
)

type testEnv struct {
	server *httptest.Server
	tokens *auth.Tokens
	quiz   domain.Quiz
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	attempts := memory.NewAttemptStore()
	quizzes := memory.NewQuizCache(memory.NewQuizStore(attempts), time.Minute)
	svc := Services{
		Quizzes:    app.NewQuizService(quizzes),
		Attempts:   app.NewAttemptService(quizzes, attempts),
		Statistics: app.NewStatisticsService(app.NewAttemptAggregator(quizzes, attempts)),
	}

	quiz, err := svc.Quizzes.Create(context.Background(), teacher, app.QuizDraft{
		Title: "Planets",
		Questions: []domain.QuestionFields{
			{Text: "Largest planet?", Type: domain.TypeMultipleChoice, Options: []string{"Mars", "Jupiter", "Venus", "Earth"}, CorrectAnswer: 1},
			{Text: "The red planet is ___", Type: domain.TypeFillBlank, Options: []string{"Mars"}},
		},
	})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}

	tokens := auth.NewTokens("test-secret")
	server := httptest.NewServer(NewRouter(svc, RouterConfig{Tokens: tokens, TokenTTL: time.Hour, Logger: zerolog.Nop()}))
	t.Cleanup(server.Close)
	return &testEnv{server: server, tokens: tokens, quiz: quiz}
}

func (e *testEnv) token(t *testing.T, identity domain.Identity) string {
	t.Helper()
	raw, err := e.tokens.Issue(identity, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return raw
}

// do sends a JSON request as identity and decodes the response into out when non-nil.
func (e *testEnv) do(t *testing.T, identity domain.Identity, method, path string, body any, out any) int {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if identity.ID != "" {
		req.Header.Set("Authorization", "Bearer "+e.token(t, identity))
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}
