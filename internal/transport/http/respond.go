package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"classroom-quiz-service/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report field errors by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}

// decode reads a JSON body into dst and validates it.
func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return badRequest{msg: fmt.Sprintf("invalid JSON body: %v", err)}
	}
	return check(dst)
}

// check validates a decoded request and reports failures per JSON field.
func check(req any) error {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fieldPath(fe)] = fe.Tag()
			}
			return badRequest{msg: "invalid request", fields: fields}
		}
		return badRequest{msg: err.Error()}
	}
	return nil
}

func fieldPath(fe validator.FieldError) string {
	// Namespace is "quizRequest.questions[0].text"; drop the struct name.
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

type badRequest struct {
	msg    string
	fields map[string]string
}

func (e badRequest) Error() string { return e.msg }

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidQuestion), errors.Is(err, domain.ErrInvalidQuiz):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrDuplicateAttempt),
		errors.Is(err, domain.ErrIncompleteAttempt),
		errors.Is(err, domain.ErrAttemptCompleted):
		return http.StatusConflict
	case errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrAttemptNotFound),
		errors.Is(err, domain.ErrQuestionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, log zerolog.Logger, err error) {
	var br badRequest
	if errors.As(err, &br) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: br.msg, Fields: br.fields})
		return
	}

	status := statusFor(err)
	msg := err.Error()
	switch {
	case status == http.StatusInternalServerError && !errors.Is(err, domain.ErrInvariantViolation):
		log.Error().Err(err).Msg("unhandled error")
		msg = "internal error"
	case status >= http.StatusInternalServerError:
		log.Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, errorBody{Error: msg})
}
