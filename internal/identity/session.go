package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/mmynk/wishlists/internal/middleware"
	"github.com/mmynk/wishlists/internal/rpc"
)

// Session is a Provider backed by the wishlists auth service. The bearer
// token is kept in memory and, when a state path is set, on disk.
type Session struct {
	client    *rpc.AuthServiceClient
	serverURL string
	statePath string
	logger    *slog.Logger
	now       func() time.Time

	mu        sync.RWMutex
	principal Principal
	token     string
	subs      subscribers
}

var _ Provider = (*Session)(nil)

// NewSession returns a signed-out session against serverURL. An empty
// statePath keeps the session in memory only.
func NewSession(httpClient connect.HTTPClient, serverURL, statePath string, logger *slog.Logger) *Session {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	s := &Session{
		serverURL: strings.TrimRight(serverURL, "/"),
		statePath: statePath,
		logger:    logger,
		now:       time.Now,
	}
	s.client = rpc.NewAuthServiceClient(httpClient, serverURL,
		connect.WithInterceptors(middleware.BearerToken(s.Token)),
	)
	return s
}

// Current implements Provider.
func (s *Session) Current() (Principal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.principal, s.principal.ID != ""
}

// Subscribe implements Provider.
func (s *Session) Subscribe(fn func(Principal, bool)) func() {
	return s.subs.add(fn)
}

// Token returns the bearer token, or "" when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Register creates an account and signs it in.
func (s *Session) Register(ctx context.Context, email, displayName, password string) error {
	resp, err := s.client.Register(ctx, connect.NewRequest(&rpc.RegisterRequest{
		Email:       email,
		DisplayName: displayName,
		Password:    password,
	}))
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	return s.adopt(resp.Msg)
}

// SignIn exchanges credentials for a token.
func (s *Session) SignIn(ctx context.Context, email, password string) error {
	resp, err := s.client.Login(ctx, connect.NewRequest(&rpc.LoginRequest{
		Email:    email,
		Password: password,
	}))
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	return s.adopt(resp.Msg)
}

// SignOut forgets the token locally. The server call is informational only,
// so its failure does not keep the session alive.
func (s *Session) SignOut(ctx context.Context) error {
	if s.Token() == "" {
		return nil
	}
	if _, err := s.client.Logout(ctx, connect.NewRequest(&emptypb.Empty{})); err != nil {
		s.logger.Warn("Logout request failed", "error", err)
	}
	return s.clear()
}

// Restore loads a saved session and checks it with the server. A missing,
// expired, or rejected session leaves the Session signed out.
func (s *Session) Restore(ctx context.Context) error {
	if s.statePath == "" {
		return nil
	}

	state, err := LoadState(s.statePath)
	if errors.Is(err, ErrNoState) {
		return nil
	}
	if err != nil {
		return err
	}
	if state.Token == "" || state.ServerURL != s.serverURL || state.Expired(s.now()) {
		s.logger.Debug("Discarding saved session", "server_url", state.ServerURL)
		return RemoveState(s.statePath)
	}

	s.mu.Lock()
	s.token = state.Token
	s.mu.Unlock()

	resp, err := s.client.WhoAmI(ctx, connect.NewRequest(&emptypb.Empty{}))
	if connect.CodeOf(err) == connect.CodeUnauthenticated {
		s.logger.Debug("Saved session rejected by server")
		return s.clear()
	}
	if err != nil {
		s.mu.Lock()
		s.token = ""
		s.mu.Unlock()
		return fmt.Errorf("restore session: %w", err)
	}

	p := Principal{ID: resp.Msg.ID, Email: resp.Msg.Email, DisplayName: resp.Msg.DisplayName}
	s.mu.Lock()
	s.principal = p
	s.mu.Unlock()

	s.subs.notify(p, true)
	return nil
}

func (s *Session) adopt(resp *rpc.SessionResponse) error {
	p := Principal{ID: resp.User.ID, Email: resp.User.Email, DisplayName: resp.User.DisplayName}

	s.mu.Lock()
	s.principal = p
	s.token = resp.Token
	s.mu.Unlock()

	if s.statePath != "" {
		err := WriteState(s.statePath, State{
			ServerURL: s.serverURL,
			Token:     resp.Token,
			ExpiresAt: resp.ExpiresAt,
			User:      StateUser{ID: p.ID, Email: p.Email, DisplayName: p.DisplayName},
		})
		if err != nil {
			s.logger.Warn("Failed to save session", "path", s.statePath, "error", err)
		}
	}

	s.subs.notify(p, true)
	return nil
}

func (s *Session) clear() error {
	s.mu.Lock()
	s.principal = Principal{}
	s.token = ""
	s.mu.Unlock()

	var err error
	if s.statePath != "" {
		err = RemoveState(s.statePath)
	}
	s.subs.notify(Principal{}, false)
	return err
}
