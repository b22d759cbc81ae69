// Package config persists application settings for onedrive-audit.
// The configuration lives in the user's config directory as JSON, next to
// the owned token store that internal/credentials manages.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const appDirName = "onedrive-audit"
const configFile = "config.json"
const tokenFile = "token.json"

// DefaultClientID is the public OAuth client used when the configuration
// does not override it.
const DefaultClientID = "8a7cdfa0-67c9-4f33-9cb6-e67255f321e7"

// Configuration holds the application's persisted settings.
type Configuration struct {
	ClientID string `json:"client_id,omitempty"`
	Remote   string `json:"remote,omitempty"`
	Debug    bool   `json:"debug"`
}

// Dir returns the application config directory, creating nothing.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("getting user config directory: %w", err)
	}
	return filepath.Join(base, appDirName), nil
}

// TokenPath returns the path of the owned token store.
func TokenPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, tokenFile), nil
}

// DefaultRcloneConfigPath returns the conventional location of the rclone
// configuration file, the foreign token source.
func DefaultRcloneConfigPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("getting user config directory: %w", err)
	}
	return filepath.Join(base, "rclone", "rclone.conf"), nil
}

// EffectiveClientID returns the configured client ID, or the built-in default.
func (c *Configuration) EffectiveClientID() string {
	if c.ClientID != "" {
		return c.ClientID
	}
	return DefaultClientID
}

// Save persists the configuration to disk with owner-only permissions.
func (c *Configuration) Save() error {
	jsonData, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling config to JSON: %w", err)
	}

	dir, err := Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, configFile), jsonData, 0600); err != nil {
		return fmt.Errorf("writing configuration file: %w", err)
	}
	return nil
}

// Load reads the configuration file from disk.
func Load() (*Configuration, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(dir, configFile))
	if err != nil {
		return nil, err
	}

	cfg := &Configuration{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return cfg, nil
}

// LoadOrCreate loads the configuration, returning an empty one when no file
// exists yet.
func LoadOrCreate() (*Configuration, error) {
	cfg, err := Load()
	if err != nil {
		if os.IsNotExist(err) {
			return &Configuration{}, nil
		}
		return nil, err
	}
	return cfg, nil
}
