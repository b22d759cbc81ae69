package credentials

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tokenEndpoint struct {
	calls    int
	response map[string]interface{}
}

// newTokenEndpoint stands in for the OAuth token endpoint and records how
// often a refresh was attempted.
func newTokenEndpoint(t *testing.T, response map[string]interface{}) *tokenEndpoint {
	t.Helper()
	te := &tokenEndpoint{response: response}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		te.calls++
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(te.response)
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { SetTokenEndpoint("") })
	SetTokenEndpoint(srv.URL)
	return te
}

func newTestStore(t *testing.T) (*Store, *OwnedStore, string) {
	t.Helper()
	ownedPath := filepath.Join(t.TempDir(), "token.json")
	foreignPath := writeRcloneConfig(t, rcloneConfig)
	owned := NewOwnedStore(ownedPath)
	store := NewStore(owned, NewForeignSource(foreignPath), "client-id", nil)
	return store, owned, foreignPath
}

func TestAcquireOwnedValidTokenNoRefresh(t *testing.T) {
	te := newTokenEndpoint(t, nil)
	store, owned, _ := newTestStore(t)
	require.NoError(t, owned.Save(&OwnedToken{
		AccessToken: "live-access",
		ExpiresAt:   time.Now().Add(time.Hour),
		Scope:       "Files.ReadWrite.All",
	}))

	cred, err := store.Acquire(context.Background(), "", CapabilityReadOnly, true)

	require.NoError(t, err)
	assert.Equal(t, "live-access", cred.AccessToken)
	assert.Equal(t, SourceOwned, cred.Source)
	assert.Equal(t, CapabilityFull, cred.Capability)
	assert.Zero(t, te.calls, "a live token must not be refreshed")
}

func TestAcquireOwnedExpiredRefreshesAndPersists(t *testing.T) {
	te := newTokenEndpoint(t, map[string]interface{}{
		"access_token":  "new-access",
		"token_type":    "Bearer",
		"expires_in":    3600,
		"refresh_token": "new-refresh",
		"scope":         "Files.ReadWrite.All offline_access",
	})
	store, owned, _ := newTestStore(t)
	require.NoError(t, owned.Save(&OwnedToken{
		AccessToken:  "stale-access",
		ExpiresAt:    time.Now().Add(-time.Hour),
		Scope:        "Files.ReadWrite.All",
		RefreshToken: "old-refresh",
	}))

	cred, err := store.Acquire(context.Background(), "", CapabilityFull, true)

	require.NoError(t, err)
	assert.Equal(t, "new-access", cred.AccessToken)
	assert.Equal(t, 1, te.calls)

	// The refreshed token must be written back to the owned file.
	persisted, err := owned.Load()
	require.NoError(t, err)
	assert.Equal(t, "new-access", persisted.AccessToken)
	assert.Equal(t, "new-refresh", persisted.RefreshToken)
}

func TestAcquireOwnedRefreshPreservesScopeAndRefreshToken(t *testing.T) {
	// Response without scope or refresh_token: the previous values carry
	// over so capability detection and future refreshes keep working.
	newTokenEndpoint(t, map[string]interface{}{
		"access_token": "new-access",
		"token_type":   "Bearer",
		"expires_in":   3600,
	})
	store, owned, _ := newTestStore(t)
	require.NoError(t, owned.Save(&OwnedToken{
		AccessToken:  "stale-access",
		ExpiresAt:    time.Now().Add(-time.Hour),
		Scope:        "Files.ReadWrite.All",
		RefreshToken: "old-refresh",
	}))

	cred, err := store.Acquire(context.Background(), "", CapabilityFull, true)

	require.NoError(t, err)
	assert.Equal(t, CapabilityFull, cred.Capability)

	persisted, err := owned.Load()
	require.NoError(t, err)
	assert.Equal(t, "Files.ReadWrite.All", persisted.Scope)
	assert.Equal(t, "old-refresh", persisted.RefreshToken)
}

func TestAcquireOwnedExpiredWithoutRefreshTokenFallsBack(t *testing.T) {
	te := newTokenEndpoint(t, map[string]interface{}{
		"access_token": "foreign-fresh",
		"token_type":   "Bearer",
		"expires_in":   3600,
		"scope":        "Files.Read.All",
	})
	store, owned, _ := newTestStore(t)
	require.NoError(t, owned.Save(&OwnedToken{
		AccessToken: "stale-access",
		ExpiresAt:   time.Now().Add(-time.Hour),
	}))

	cred, err := store.Acquire(context.Background(), "work", CapabilityReadOnly, true)

	require.NoError(t, err)
	assert.Equal(t, SourceForeign, cred.Source)
	assert.Equal(t, "foreign-fresh", cred.AccessToken)
	assert.Equal(t, 1, te.calls)
}

func TestAcquireForeignAlwaysRefreshesNeverWritesBack(t *testing.T) {
	te := newTokenEndpoint(t, map[string]interface{}{
		"access_token": "minted",
		"token_type":   "Bearer",
		"expires_in":   3600,
		"scope":        "Files.Read.All",
	})
	store, _, foreignPath := newTestStore(t)
	before, err := os.ReadFile(foreignPath)
	require.NoError(t, err)

	cred, err := store.Acquire(context.Background(), "work", CapabilityReadOnly, false)

	require.NoError(t, err)
	assert.Equal(t, SourceForeign, cred.Source)
	assert.Equal(t, "work", cred.Remote)
	assert.Equal(t, "minted", cred.AccessToken, "the stored foreign token is never used directly")
	assert.Equal(t, 1, te.calls)

	after, err := os.ReadFile(foreignPath)
	require.NoError(t, err)
	assert.Equal(t, before, after, "the foreign config file must not change")
}

func TestAcquireInsufficientCapability(t *testing.T) {
	newTokenEndpoint(t, map[string]interface{}{
		"access_token": "minted",
		"token_type":   "Bearer",
		"expires_in":   3600,
		"scope":        "Files.Read.All",
	})
	store, _, _ := newTestStore(t)

	_, err := store.Acquire(context.Background(), "work", CapabilityFull, false)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientScope)
	assert.Contains(t, err.Error(), "auth login")
}

func TestAcquireNoSources(t *testing.T) {
	newTokenEndpoint(t, nil)
	ownedPath := filepath.Join(t.TempDir(), "token.json")
	foreignPath := filepath.Join(t.TempDir(), "absent.conf")
	store := NewStore(NewOwnedStore(ownedPath), NewForeignSource(foreignPath), "client-id", nil)

	_, err := store.Acquire(context.Background(), "", CapabilityUnknown, true)

	assert.ErrorIs(t, err, ErrTokenMissing)
}

func TestAcquireRefreshFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	}))
	defer srv.Close()
	t.Cleanup(func() { SetTokenEndpoint("") })
	SetTokenEndpoint(srv.URL)

	store, _, _ := newTestStore(t)

	_, err := store.Acquire(context.Background(), "work", CapabilityReadOnly, false)

	assert.ErrorIs(t, err, ErrRefreshFailed)
}

func TestLogoutRemovesOwnedTokenOnly(t *testing.T) {
	store, owned, foreignPath := newTestStore(t)
	require.NoError(t, owned.Save(&OwnedToken{AccessToken: "a"}))

	require.NoError(t, store.Logout())

	_, err := owned.Load()
	assert.ErrorIs(t, err, ErrTokenMissing)
	_, err = os.Stat(foreignPath)
	assert.NoError(t, err, "foreign config is untouched")
}

func TestCredentialDescribe(t *testing.T) {
	cred := &Credential{
		Source:     SourceForeign,
		Capability: CapabilityReadOnly,
		Remote:     "work",
		ExpiresAt:  time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC),
	}
	desc := cred.Describe()
	assert.Contains(t, desc, "source=foreign")
	assert.Contains(t, desc, "capability=read-only")
	assert.Contains(t, desc, "remote=work")
	assert.Contains(t, desc, "2026-01-02T15:04:05Z")
}
