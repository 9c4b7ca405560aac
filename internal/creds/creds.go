package creds

import (
	"encoding/json"
	"os"
	"path/filepath"

	"boq/internal/config"
)

// Credentials stores authentication state at ~/.config/boq/auth.json.
type Credentials struct {
	Token     string `json:"token"`
	Email     string `json:"email,omitempty"`
	ServerURL string `json:"server_url,omitempty"`
}

// Load reads credentials from auth.json. Returns nil, nil when absent.
func Load() (*Credentials, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, "auth.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var c Credentials
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Save writes credentials to auth.json (0600 perms).
func Save(c *Credentials) error {
	dir, err := config.Dir()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "auth.json"), data, 0600)
}

// Clear removes the auth.json file.
func Clear() error {
	dir, err := config.Dir()
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(dir, "auth.json"))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Token returns the bearer token.
// Priority: BOQ_TOKEN env > auth.json.
func Token() string {
	if v := os.Getenv("BOQ_TOKEN"); v != "" {
		return v
	}
	c, err := Load()
	if err == nil && c != nil {
		return c.Token
	}
	return ""
}

// Available reports whether a credential is present. The token can
// appear or vanish at any time (login in another terminal, env change),
// so callers re-check rather than cache the answer.
func Available() bool {
	return Token() != ""
}
