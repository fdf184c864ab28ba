package http

import (
	"net/http"
	"strings"
	"time"

	"classroom-quiz-service/internal/auth"
	"github.com/rs/zerolog"
)

type renameRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// identityHandler serves the caller's identity. Renaming produces a new identity and
// a fresh token for it; the identity in the old token is left untouched.
type identityHandler struct {
	tokens *auth.Tokens
	ttl    time.Duration
	log    zerolog.Logger
}

func (h *identityHandler) get(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.FromContext(r.Context())
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, identity)
}

func (h *identityHandler) rename(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.FromContext(r.Context())
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	var req renameRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, h.log, badRequest{msg: "invalid request", fields: map[string]string{"name": "required"}})
		return
	}
	renamed := identity.WithName(name)
	token, err := h.tokens.Issue(renamed, h.ttl)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"identity": renamed, "token": token})
}
