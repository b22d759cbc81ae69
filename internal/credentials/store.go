// Package credentials resolves an access token of sufficient capability from
// one of two sources with different trust models: the owned token file this
// tool manages (freely rewritten after refresh) and a foreign rclone-style
// configuration (read and used, never written back).
package credentials

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/mtalvio/onedrive-audit/internal/logger"
)

// Credential failure sentinels. A credential failure always aborts the
// calling operation; it is a precondition, not something to work around.
var (
	ErrTokenMissing      = errors.New("no usable token found")
	ErrTokenExpired      = errors.New("token expired")
	ErrRefreshFailed     = errors.New("token refresh failed")
	ErrInsufficientScope = errors.New("token capability insufficient for this operation")
)

const defaultTokenURL = "https://login.microsoftonline.com/common/oauth2/v2.0/token"

var tokenURL = defaultTokenURL

// SetTokenEndpoint overrides the OAuth token endpoint. Tests point this at
// an httptest server.
func SetTokenEndpoint(u string) {
	if u == "" {
		tokenURL = defaultTokenURL
		return
	}
	tokenURL = u
}

// Source identifies where a credential came from.
type Source string

const (
	SourceOwned   Source = "owned"
	SourceForeign Source = "foreign"
)

// Credential is the resolved result of Acquire: a usable access token plus
// the metadata callers gate operations on.
type Credential struct {
	AccessToken string
	Capability  Capability
	Source      Source
	Remote      string
	Scope       string
	ExpiresAt   time.Time
}

// Store resolves credentials from the owned and foreign sources.
type Store struct {
	owned    *OwnedStore
	foreign  *ForeignSource
	clientID string
	log      logger.Logger
	now      func() time.Time
}

// NewStore creates a credential store over the two sources.
func NewStore(owned *OwnedStore, foreign *ForeignSource, clientID string, log logger.Logger) *Store {
	if log == nil {
		log = logger.NoopLogger{}
	}
	return &Store{
		owned:    owned,
		foreign:  foreign,
		clientID: clientID,
		log:      log,
		now:      time.Now,
	}
}

// Acquire resolves an access token of at least the required capability.
//
// Resolution order: the owned token file first (when preferOwned), refreshed
// and persisted if expired; then the foreign source, whose tokens are always
// refreshed in memory before use and never written back. If the resolved
// capability cannot satisfy the requirement the operation fails here, before
// any remote call is attempted.
func (s *Store) Acquire(ctx context.Context, remote string, required Capability, preferOwned bool) (*Credential, error) {
	if preferOwned {
		cred, err := s.acquireOwned(ctx)
		if err == nil {
			return s.checkCapability(cred, required)
		}
		s.log.Debugf("credentials: owned source unavailable (%v), falling back to foreign", err)
	}

	cred, err := s.acquireForeign(ctx, remote)
	if err != nil {
		return nil, err
	}
	return s.checkCapability(cred, required)
}

func (s *Store) checkCapability(cred *Credential, required Capability) (*Credential, error) {
	if !cred.Capability.Satisfies(required) {
		return nil, fmt.Errorf(
			"%w: have %s, need %s (re-authenticate with 'onedrive-audit auth login' to obtain a read-write token)",
			ErrInsufficientScope, cred.Capability, required)
	}
	return cred, nil
}

// acquireOwned loads the owned token, refreshing and persisting it when
// expired.
func (s *Store) acquireOwned(ctx context.Context) (*Credential, error) {
	tok, err := s.owned.Load()
	if err != nil {
		return nil, err
	}

	if tok.Expired(s.now()) {
		if tok.RefreshToken == "" {
			return nil, fmt.Errorf("%w: owned token expired and has no refresh token", ErrTokenExpired)
		}
		s.log.Debug("credentials: owned token expired, refreshing")
		refreshed, err := s.refresh(ctx, tok.RefreshToken, tok.Scope)
		if err != nil {
			return nil, err
		}
		if err := s.owned.Save(refreshed); err != nil {
			return nil, fmt.Errorf("persisting refreshed token: %w", err)
		}
		tok = refreshed
	}

	return &Credential{
		AccessToken: tok.AccessToken,
		Capability:  DetectCapability(tok.Scope),
		Source:      SourceOwned,
		Scope:       tok.Scope,
		ExpiresAt:   tok.ExpiresAt,
	}, nil
}

// acquireForeign loads the foreign token and refreshes it unconditionally:
// the foreign provider's token is not directly accepted by the target API,
// so a fresh one is minted on every use, in memory only.
func (s *Store) acquireForeign(ctx context.Context, remote string) (*Credential, error) {
	tok, err := s.foreign.Load(remote)
	if err != nil {
		return nil, err
	}
	if tok.RefreshToken == "" {
		return nil, fmt.Errorf("%w: foreign remote '%s' has no refresh token", ErrTokenMissing, tok.Remote)
	}

	s.log.Debugf("credentials: refreshing foreign token for remote '%s' (never persisted)", tok.Remote)
	refreshed, err := s.refresh(ctx, tok.RefreshToken, tok.Scope)
	if err != nil {
		return nil, err
	}

	return &Credential{
		AccessToken: refreshed.AccessToken,
		Capability:  DetectCapability(refreshed.Scope),
		Source:      SourceForeign,
		Remote:      tok.Remote,
		Scope:       refreshed.Scope,
		ExpiresAt:   refreshed.ExpiresAt,
	}, nil
}

// refresh exchanges a refresh token at the token endpoint. The previous scope
// is preserved when the response omits one, so capability detection keeps
// working across refreshes.
func (s *Store) refresh(ctx context.Context, refreshToken, previousScope string) (*OwnedToken, error) {
	cfg := &oauth2.Config{
		ClientID: s.clientID,
		Endpoint: oauth2.Endpoint{TokenURL: tokenURL},
	}

	src := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	newTok, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}

	scope := previousScope
	if extra, ok := newTok.Extra("scope").(string); ok && extra != "" {
		scope = extra
	}

	tok := &OwnedToken{
		AccessToken:  newTok.AccessToken,
		TokenType:    newTok.TokenType,
		ExpiresAt:    newTok.Expiry.UTC(),
		Scope:        scope,
		RefreshToken: newTok.RefreshToken,
	}
	if tok.RefreshToken == "" {
		tok.RefreshToken = refreshToken
	}
	if !newTok.Expiry.IsZero() {
		tok.ExpiresIn = int64(time.Until(newTok.Expiry).Seconds())
	}
	return tok, nil
}

// SaveOwned persists a freshly issued token (e.g. from an interactive login)
// to the owned store.
func (s *Store) SaveOwned(tok *oauth2.Token, scope string) error {
	if extra, ok := tok.Extra("scope").(string); ok && extra != "" {
		scope = extra
	}
	owned := &OwnedToken{
		AccessToken:  tok.AccessToken,
		TokenType:    tok.TokenType,
		ExpiresAt:    tok.Expiry.UTC(),
		Scope:        scope,
		RefreshToken: tok.RefreshToken,
	}
	if !tok.Expiry.IsZero() {
		owned.ExpiresIn = int64(time.Until(tok.Expiry).Seconds())
	}
	return s.owned.Save(owned)
}

// Logout removes the owned token. Foreign tokens are untouched; this tool
// does not own them.
func (s *Store) Logout() error {
	return s.owned.Delete()
}

// Describe returns a short human summary of a credential for status output.
func (c *Credential) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "source=%s capability=%s", c.Source, c.Capability)
	if c.Remote != "" {
		fmt.Fprintf(&b, " remote=%s", c.Remote)
	}
	if !c.ExpiresAt.IsZero() {
		fmt.Fprintf(&b, " expires=%s", c.ExpiresAt.UTC().Format(time.RFC3339))
	}
	return b.String()
}
