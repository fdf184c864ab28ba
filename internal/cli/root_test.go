package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"classroom-quiz-service/internal/auth"
	"classroom-quiz-service/internal/config"
	"classroom-quiz-service/internal/domain"
	"github.com/rs/zerolog"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestTokenCommandMintsParsableToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	path := writeConfig(t, "auth:\n  jwt_secret: s3cret\n  token_ttl: 1h\n")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"token", "--config", path, "--id", "t1", "--name", "Ms Frizzle", "--role", "teacher"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("token: %v", err)
	}

	identity, err := auth.NewTokens("s3cret").Parse(string(bytes.TrimSpace(out.Bytes())))
	if err != nil {
		t.Fatalf("parse minted token: %v", err)
	}
	want := domain.Identity{ID: "t1", Name: "Ms Frizzle", Role: domain.RoleTeacher}
	if identity != want {
		t.Fatalf("expected %+v, got %+v", want, identity)
	}
}

func TestOpenStoresDefaultsToMemory(t *testing.T) {
	st, err := openStores(context.Background(), config.Config{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("open stores: %v", err)
	}
	defer st.close()
	if st.quizzes == nil || st.attempts == nil || st.stats == nil {
		t.Fatalf("expected every store to be wired, got %+v", st)
	}
}
