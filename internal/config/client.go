package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// DefaultServerURL is used when nothing else names a server.
const DefaultServerURL = "http://localhost:8080"

// Client is the CLI configuration file.
type Client struct {
	ServerURL string `toml:"server_url"`
	StatePath string `toml:"state_path"`
}

// DefaultClientPath returns ~/.config/wishlists/config.toml or its
// platform equivalent.
func DefaultClientPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "wishlists", "config.toml"), nil
}

// LoadClient reads the client config at path. A missing file yields the
// defaults. WISHLISTS_SERVER overrides server_url.
func LoadClient(path string) (*Client, error) {
	cfg := &Client{}
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	if env := os.Getenv("WISHLISTS_SERVER"); env != "" {
		cfg.ServerURL = env
	}
	cfg.ServerURL = strings.TrimRight(strings.TrimSpace(cfg.ServerURL), "/")
	if cfg.ServerURL == "" {
		cfg.ServerURL = DefaultServerURL
	}
	return cfg, nil
}
