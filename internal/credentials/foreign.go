package credentials

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/ini.v1"
)

// ForeignToken is a token read from an external tool's configuration
// (an rclone-style INI file). It may be used but its store is never
// written back.
type ForeignToken struct {
	AccessToken  string
	TokenType    string
	RefreshToken string
	Scope        string
	ExpiresAt    time.Time
	Remote       string
}

// Expired reports whether the foreign token's recorded expiry has passed.
func (t *ForeignToken) Expired(now time.Time) bool {
	if t.ExpiresAt.IsZero() {
		return true
	}
	return now.After(t.ExpiresAt.Add(-expirySkew))
}

// ForeignSource reads tokens from an rclone-style configuration file.
type ForeignSource struct {
	path string
}

// NewForeignSource creates a source over the given INI file path.
func NewForeignSource(path string) *ForeignSource {
	return &ForeignSource{path: path}
}

// Path returns the file location of the source.
func (s *ForeignSource) Path() string {
	return s.path
}

// tokenBlob is the JSON object embedded in the INI `token` key. The expiry
// field differs from the owned store's format: foreign blobs use `expiry`
// while freshly minted payloads use `expires_at`. Both are decoded and the
// one that is set wins.
type tokenBlob struct {
	AccessToken  string     `json:"access_token"`
	TokenType    string     `json:"token_type"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	Scope        string     `json:"scope,omitempty"`
	Expiry       *time.Time `json:"expiry,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

// Load reads the token for the named remote. When remote is empty, the first
// section whose type is "onedrive" is used.
func (s *ForeignSource) Load(remote string) (*ForeignToken, error) {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: foreign config '%s' does not exist", ErrTokenMissing, s.path)
	}

	cfg, err := ini.Load(s.path)
	if err != nil {
		return nil, fmt.Errorf("parsing foreign config '%s': %w", s.path, err)
	}

	section, err := resolveSection(cfg, remote)
	if err != nil {
		return nil, err
	}

	raw := section.Key("token").String()
	if raw == "" {
		return nil, fmt.Errorf("%w: remote '%s' has no token", ErrTokenMissing, section.Name())
	}

	var blob tokenBlob
	if err := json.Unmarshal([]byte(raw), &blob); err != nil {
		return nil, fmt.Errorf("parsing token blob for remote '%s': %w", section.Name(), err)
	}
	if blob.AccessToken == "" {
		return nil, fmt.Errorf("%w: remote '%s' token blob has no access_token", ErrTokenMissing, section.Name())
	}

	tok := &ForeignToken{
		AccessToken:  blob.AccessToken,
		TokenType:    blob.TokenType,
		RefreshToken: blob.RefreshToken,
		Scope:        blob.Scope,
		Remote:       section.Name(),
	}
	switch {
	case blob.ExpiresAt != nil:
		tok.ExpiresAt = *blob.ExpiresAt
	case blob.Expiry != nil:
		tok.ExpiresAt = *blob.Expiry
	}
	return tok, nil
}

// resolveSection finds the named remote's section, or auto-detects the first
// onedrive remote when no name is given.
func resolveSection(cfg *ini.File, remote string) (*ini.Section, error) {
	if remote != "" {
		section, err := cfg.GetSection(remote)
		if err != nil {
			return nil, fmt.Errorf("%w: remote '%s' not found in foreign config", ErrTokenMissing, remote)
		}
		return section, nil
	}

	for _, section := range cfg.Sections() {
		if section.Name() == ini.DefaultSection {
			continue
		}
		if strings.EqualFold(section.Key("type").String(), "onedrive") {
			return section, nil
		}
	}
	return nil, fmt.Errorf("%w: no onedrive remote found in foreign config", ErrTokenMissing)
}
