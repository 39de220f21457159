package identity

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/go-playground/assert/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/wishlists/internal/auth"
	"github.com/mmynk/wishlists/internal/docstore/memstore"
	"github.com/mmynk/wishlists/internal/middleware"
	"github.com/mmynk/wishlists/internal/rpc"
	"github.com/mmynk/wishlists/internal/service"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLocalNotifiesSubscribers(t *testing.T) {
	l := NewLocal()

	if _, ok := l.Current(); ok {
		t.Fatal("new provider should be signed out")
	}

	var events []string
	unsubA := l.Subscribe(func(p Principal, ok bool) {
		events = append(events, "a:"+p.ID)
	})
	l.Subscribe(func(p Principal, ok bool) {
		// Callbacks may read the provider without deadlocking.
		cur, _ := l.Current()
		events = append(events, "b:"+cur.ID)
	})

	l.SignIn(Principal{ID: "alice"})
	l.SignOut()
	unsubA()
	unsubA()
	l.SignIn(Principal{ID: "bob"})

	assert.Equal(t, []string{"a:alice", "b:alice", "a:", "b:", "b:bob"}, events)

	p, ok := l.Current()
	assert.Equal(t, true, ok)
	assert.Equal(t, "bob", p.ID)
}

func TestStateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.toml")

	if _, err := LoadState(path); err != ErrNoState {
		t.Fatalf("expected ErrNoState, got %v", err)
	}

	expires := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	err := WriteState(path, State{
		ServerURL: "http://localhost:8080/ ",
		Token:     "tok",
		ExpiresAt: expires,
		User:      StateUser{ID: "u1", Email: "alice@example.com", DisplayName: "Alice"},
	})
	if err != nil {
		t.Fatalf("WriteState failed: %v", err)
	}

	s, err := LoadState(path)
	if err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}
	assert.Equal(t, 1, s.Version)
	assert.Equal(t, "http://localhost:8080", s.ServerURL)
	assert.Equal(t, "tok", s.Token)
	assert.Equal(t, true, s.ExpiresAt.Equal(expires))
	assert.Equal(t, "Alice", s.User.DisplayName)
	assert.Equal(t, false, s.Expired(expires.Add(-time.Second)))
	assert.Equal(t, true, s.Expired(expires))

	if err := RemoveState(path); err != nil {
		t.Fatalf("RemoveState failed: %v", err)
	}
	if err := RemoveState(path); err != nil {
		t.Fatalf("second RemoveState failed: %v", err)
	}
}

func setupAuthServer(t *testing.T) string {
	t.Helper()

	store := memstore.New()
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost)

	path, handler := rpc.NewAuthServiceHandler(
		service.NewAuthService(authenticator, jwtManager, discardLogger()),
		connect.WithInterceptors(middleware.OptionalAuth(jwtManager)),
	)
	mux := http.NewServeMux()
	mux.Handle(path, handler)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server.URL
}

func TestSessionLifecycle(t *testing.T) {
	url := setupAuthServer(t)
	statePath := filepath.Join(t.TempDir(), "session.toml")
	ctx := context.Background()

	s := NewSession(nil, url, statePath, discardLogger())
	var changes []bool
	s.Subscribe(func(_ Principal, ok bool) { changes = append(changes, ok) })

	if err := s.Register(ctx, "alice@example.com", "Alice", "correct-horse"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	p, ok := s.Current()
	assert.Equal(t, true, ok)
	assert.Equal(t, "Alice", p.DisplayName)
	if s.Token() == "" {
		t.Fatal("expected a token after Register")
	}

	// A second process picks the session up from disk.
	restored := NewSession(nil, url, statePath, discardLogger())
	if err := restored.Restore(ctx); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	rp, ok := restored.Current()
	assert.Equal(t, true, ok)
	assert.Equal(t, p.ID, rp.ID)

	if err := s.SignOut(ctx); err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}
	if _, ok := s.Current(); ok {
		t.Error("expected signed out")
	}
	if _, err := LoadState(statePath); err != ErrNoState {
		t.Errorf("expected state file removed, got %v", err)
	}

	if err := s.SignIn(ctx, "alice@example.com", "correct-horse"); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	assert.Equal(t, []bool{true, false, true}, changes)
}

func TestSessionSignInFailure(t *testing.T) {
	url := setupAuthServer(t)
	s := NewSession(nil, url, "", discardLogger())

	err := s.SignIn(context.Background(), "nobody@example.com", "correct-horse")
	if err == nil {
		t.Fatal("expected sign in to fail")
	}
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
	if _, ok := s.Current(); ok {
		t.Error("failed sign in must leave the session signed out")
	}
}

func TestSessionRestoreDiscardsStaleState(t *testing.T) {
	url := setupAuthServer(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		state State
	}{
		{
			name:  "expired",
			state: State{ServerURL: url, Token: "tok", ExpiresAt: time.Now().Add(-time.Hour)},
		},
		{
			name:  "other server",
			state: State{ServerURL: "http://elsewhere.invalid", Token: "tok"},
		},
		{
			name:  "rejected token",
			state: State{ServerURL: url, Token: "not-a-jwt", ExpiresAt: time.Now().Add(time.Hour)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			statePath := filepath.Join(t.TempDir(), "session.toml")
			if err := WriteState(statePath, tt.state); err != nil {
				t.Fatalf("WriteState failed: %v", err)
			}

			s := NewSession(nil, url, statePath, discardLogger())
			if err := s.Restore(ctx); err != nil {
				t.Fatalf("Restore failed: %v", err)
			}
			if _, ok := s.Current(); ok {
				t.Error("expected signed out")
			}
			assert.Equal(t, "", s.Token())
			if _, err := LoadState(statePath); err != ErrNoState {
				t.Errorf("expected stale state removed, got %v", err)
			}
		})
	}
}
