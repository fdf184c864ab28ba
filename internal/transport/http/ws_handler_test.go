package http

import (
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestWebSocketAttemptFlow(t *testing.T) {
	env := newTestEnv(t)

	q := url.Values{"quizId": {env.quiz.ID}, "access_token": {env.token(t, student)}}
	conn := dial(t, env, q)
	defer conn.Close()

	var started session
	readInto(t, conn, "started", &started)
	if started.Attempt.Status != "in_progress" {
		t.Fatalf("expected in_progress attempt, got %q", started.Attempt.Status)
	}
	q1, q2 := started.Quiz.Questions[0].ID, started.Quiz.Questions[1].ID

	send(t, conn, "submit", nil)
	readInto(t, conn, "error", nil)

	send(t, conn, "answer", map[string]any{"questionId": q1, "option": 1})
	var saved answerSaved
	readInto(t, conn, "answerSaved", &saved)
	if saved.QuestionID != q1 {
		t.Fatalf("expected answerSaved for %s, got %s", q1, saved.QuestionID)
	}
	send(t, conn, "answer", map[string]any{"questionId": q2, "text": " MARS "})
	readInto(t, conn, "answerSaved", nil)

	send(t, conn, "submit", nil)
	var result struct {
		Score int `json:"score"`
	}
	readInto(t, conn, "result", &result)
	if result.Score != 100 {
		t.Fatalf("expected score 100, got %d", result.Score)
	}

	// Resuming a completed attempt reports it and closes.
	resumed := dial(t, env, url.Values{"attemptId": {started.Attempt.ID}, "access_token": {env.token(t, student)}})
	defer resumed.Close()
	var again session
	readInto(t, resumed, "started", &again)
	if again.Attempt.Status != "completed" || again.Attempt.Score == nil || *again.Attempt.Score != 100 {
		t.Fatalf("unexpected resumed attempt %+v", again.Attempt)
	}
}

func TestWebSocketValidatesAnswers(t *testing.T) {
	env := newTestEnv(t)
	conn := dial(t, env, url.Values{"quizId": {env.quiz.ID}, "access_token": {env.token(t, student)}})
	defer conn.Close()

	var started session
	readInto(t, conn, "started", &started)
	q2 := started.Quiz.Questions[1].ID

	var failure errorPayload
	send(t, conn, "answer", map[string]any{"questionId": q2})
	readInto(t, conn, "error", &failure)
	if failure.Fields["option"] != "required_without" {
		t.Fatalf("expected option to be required without text, got %+v", failure)
	}

	failure = errorPayload{}
	send(t, conn, "answer", map[string]any{"questionId": q2, "text": strings.Repeat("a", 501)})
	readInto(t, conn, "error", &failure)
	if failure.Fields["text"] != "max" {
		t.Fatalf("expected text length error, got %+v", failure)
	}

	// The session keeps working after rejected input.
	send(t, conn, "answer", map[string]any{"questionId": q2, "text": "Mars"})
	readInto(t, conn, "answerSaved", nil)

	// Frames over the read limit end the session without saving anything.
	// The server may drop the connection mid-write, so the write error is not checked.
	_ = conn.WriteJSON(map[string]any{"type": "answer", "payload": map[string]any{"questionId": q2, "text": strings.Repeat("a", 100_000)}})
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg map[string]any
	if err := conn.ReadJSON(&msg); err == nil {
		t.Fatalf("expected oversized frame to close the session, got %v", msg)
	}
}

func TestWebSocketRequiresToken(t *testing.T) {
	env := newTestEnv(t)
	u := "ws" + env.server.URL[len("http"):] + "/ws?quizId=" + env.quiz.ID
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	if err == nil {
		t.Fatalf("expected dial to fail without token")
	}
	if resp == nil || resp.StatusCode != 401 {
		t.Fatalf("expected 401 response, got %+v", resp)
	}
}

func TestOutboxStopsAcceptingAfterWriteFailure(t *testing.T) {
	var failures int
	out := newOutbox(func(interface{}) error { return errors.New("broken pipe") }, func(error) { failures++ })

	finished := make(chan bool)
	go func() {
		accepted := true
		for i := 0; i < 100 && accepted; i++ {
			accepted = out.emit(errorMessage("ping"))
		}
		out.close()
		finished <- accepted
	}()

	select {
	case accepted := <-finished:
		if accepted {
			t.Fatalf("expected emit to report the stopped writer")
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("emit blocked after the writer stopped")
	}
	if failures != 1 {
		t.Fatalf("expected one reported write failure, got %d", failures)
	}
}

func dial(t *testing.T, env *testEnv, q url.Values) *websocket.Conn {
	t.Helper()
	u := "ws" + env.server.URL[len("http"):] + "/ws?" + q.Encode()
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": typ, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func readInto(t *testing.T, conn *websocket.Conn, expect string, out any) {
	t.Helper()
	var msg struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read %s: %v", expect, err)
	}
	if msg.Type != expect {
		t.Fatalf("expected %s message, got %s (%s)", expect, msg.Type, msg.Payload)
	}
	if out != nil {
		if err := json.Unmarshal(msg.Payload, out); err != nil {
			t.Fatalf("decode %s: %v", expect, err)
		}
	}
}
