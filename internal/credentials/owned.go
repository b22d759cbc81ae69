package credentials

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// expirySkew is subtracted from the recorded expiry so a token that is about
// to lapse mid-operation is treated as already expired.
const expirySkew = 2 * time.Minute

// OwnedToken is the on-disk format of the token this tool manages itself.
// The file may be freely rewritten after a refresh.
type OwnedToken struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
	ExpiresIn    int64     `json:"expires_in,omitempty"`
	Scope        string    `json:"scope"`
	RefreshToken string    `json:"refresh_token,omitempty"`
}

// Expired reports whether the token's recorded expiry has passed (with skew).
// A zero expiry counts as expired; better to refresh than to send a token of
// unknown age.
func (t *OwnedToken) Expired(now time.Time) bool {
	if t.ExpiresAt.IsZero() {
		return true
	}
	return now.After(t.ExpiresAt.Add(-expirySkew))
}

// OwnedStore reads and writes the owned token file.
type OwnedStore struct {
	path string
}

// NewOwnedStore creates a store over the given file path.
func NewOwnedStore(path string) *OwnedStore {
	return &OwnedStore{path: path}
}

// Path returns the file location of the store.
func (s *OwnedStore) Path() string {
	return s.path
}

// Load parses the owned token file. A missing file returns ErrTokenMissing.
func (s *OwnedStore) Load() (*OwnedToken, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrTokenMissing, s.path)
		}
		return nil, fmt.Errorf("reading owned token file: %w", err)
	}

	var tok OwnedToken
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("parsing owned token file '%s': %w", s.path, err)
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("%w: owned token file has no access_token", ErrTokenMissing)
	}
	return &tok, nil
}

// Save writes the full token payload with owner-only permissions, holding an
// advisory lock so a concurrent refresh in another process cannot interleave
// a partial write.
func (s *OwnedStore) Save(tok *OwnedToken) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}

	lock := flock.New(s.path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquiring token file lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("token file is locked, another instance may be running")
	}
	defer lock.Unlock()

	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling owned token: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("writing owned token file: %w", err)
	}
	return nil
}

// Delete removes the owned token file. Missing files are not an error.
func (s *OwnedStore) Delete() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing owned token file: %w", err)
	}
	return nil
}
