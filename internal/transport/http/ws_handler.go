package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/auth"
	"classroom-quiz-service/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// WSHandler runs an attempt session over a websocket. It drives the same
// AttemptService as the REST endpoints.
type WSHandler struct {
	service  *app.AttemptService
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewWSHandler(service *app.AttemptService, log zerolog.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log.With().Str("component", "ws").Logger(),
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionID string `json:"questionId"`
	Option     *int   `json:"option"`
	Text       string `json:"text"`
}

type answerSaved struct {
	QuestionID string `json:"questionId"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// maxMessageSize caps inbound frames; answers are small.
const maxMessageSize = 8 << 10

// answer applies the same request contract as PUT /api/attempts/{id}/answers/{questionId}.
func (h *WSHandler) answer(ctx context.Context, student domain.Identity, attemptID string, raw json.RawMessage) outboundMessage[any] {
	var payload answerPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.QuestionID == "" {
		return errorMessage("invalid answer payload")
	}
	req := answerRequest{Option: payload.Option, Text: payload.Text}
	if err := check(req); err != nil {
		var br badRequest
		if errors.As(err, &br) {
			return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: br.msg, Fields: br.fields}}
		}
		return errorMessage(err.Error())
	}
	if err := h.service.SelectAnswer(ctx, student, attemptID, payload.QuestionID, req.answer()); err != nil {
		return errorMessage(err.Error())
	}
	return outboundMessage[any]{Type: "answerSaved", Payload: answerSaved{QuestionID: payload.QuestionID}}
}

func errorMessage(msg string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}
}

// outbox funnels messages to a single writer goroutine; gorilla connections do not
// support concurrent writes.
type outbox struct {
	send chan outboundMessage[any]
	done chan struct{}
}

func newOutbox(write func(v interface{}) error, onErr func(error)) *outbox {
	o := &outbox{send: make(chan outboundMessage[any], 16), done: make(chan struct{})}
	go func() {
		defer close(o.done)
		for msg := range o.send {
			if err := write(msg); err != nil {
				onErr(err)
				return
			}
		}
	}()
	return o
}

// emit queues msg and reports false once the writer has stopped.
func (o *outbox) emit(msg outboundMessage[any]) bool {
	select {
	case o.send <- msg:
		return true
	case <-o.done:
		return false
	}
}

// close flushes queued messages and waits for the writer to exit.
func (o *outbox) close() {
	close(o.send)
	<-o.done
}

// ServeWS starts a new attempt (?quizId=) or resumes one (?attemptId=), then accepts
// "answer" and "submit" messages until the attempt is submitted or the client leaves.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	student, err := auth.FromContext(r.Context())
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	quizID := r.URL.Query().Get("quizId")
	attemptID := r.URL.Query().Get("attemptId")
	if (quizID == "") == (attemptID == "") {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "exactly one of quizId or attemptId is required"})
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("upgrade failed")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)

	ctx := r.Context()
	var (
		attempt domain.Attempt
		quiz    domain.PublicQuiz
	)
	if attemptID != "" {
		attempt, quiz, err = h.service.Get(ctx, student, attemptID)
	} else {
		attempt, quiz, err = h.service.Start(ctx, student, quizID)
	}
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err.Error()))
		return
	}

	out := newOutbox(conn.WriteJSON, func(err error) {
		h.log.Debug().Err(err).Str("attempt", attempt.ID).Msg("write failed")
	})

	done := attempt.Completed
	if !out.emit(outboundMessage[any]{Type: "started", Payload: sessionView{Attempt: newAttemptView(attempt), Quiz: quiz}}) {
		done = true
	}

	for !done {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}

		var reply outboundMessage[any]
		switch inbound.Type {
		case "answer":
			reply = h.answer(ctx, student, attempt.ID, inbound.Payload)
		case "submit":
			result, err := h.service.Submit(ctx, student, attempt.ID)
			if err != nil {
				reply = errorMessage(err.Error())
				break
			}
			h.log.Info().Str("attempt", attempt.ID).Int("score", result.Score).Msg("attempt submitted")
			reply = outboundMessage[any]{Type: "result", Payload: result}
			done = true
		default:
			reply = errorMessage("unsupported message type")
		}
		if !out.emit(reply) {
			break
		}
	}

	out.close()
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
