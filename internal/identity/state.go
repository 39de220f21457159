package identity

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// ErrNoState is returned by LoadState when no session has been saved.
var ErrNoState = errors.New("no saved session")

// State is the session persisted between CLI runs.
type State struct {
	Version   int       `toml:"version"`
	ServerURL string    `toml:"server_url"`
	Token     string    `toml:"token,omitempty"`
	ExpiresAt time.Time `toml:"expires_at,omitempty"`
	User      StateUser `toml:"user"`
}

// StateUser is the principal recorded with the token.
type StateUser struct {
	ID          string `toml:"id,omitempty"`
	Email       string `toml:"email,omitempty"`
	DisplayName string `toml:"display_name,omitempty"`
}

// Expired reports whether the token is past its expiry at now.
func (s State) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// DefaultStatePath returns the per-user session file location.
func DefaultStatePath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "wishlists", "session.toml"), nil
}

// LoadState reads the session file at path.
func LoadState(path string) (State, error) {
	var s State
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return State{}, ErrNoState
		}
		return State{}, err
	}
	if _, err := toml.DecodeFile(path, &s); err != nil {
		return State{}, fmt.Errorf("failed to read session %s: %w", path, err)
	}
	if s.Version == 0 {
		s.Version = 1
	}
	s.ServerURL = strings.TrimRight(strings.TrimSpace(s.ServerURL), "/")
	return s, nil
}

// WriteState saves s to path, readable only by the current user.
func WriteState(path string, s State) error {
	if s.Version == 0 {
		s.Version = 1
	}
	s.ServerURL = strings.TrimRight(strings.TrimSpace(s.ServerURL), "/")
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(s)
}

// RemoveState deletes the session file. A missing file is not an error.
func RemoveState(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
