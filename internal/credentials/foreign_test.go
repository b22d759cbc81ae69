package credentials

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rcloneConfig = `[s3backup]
type = s3
provider = AWS

[work]
type = onedrive
token = {"access_token":"foreign-access","token_type":"Bearer","refresh_token":"foreign-refresh","expiry":"2026-01-02T15:04:05Z","scope":"Files.Read.All"}
drive_type = business

[personal]
type = onedrive
token = {"access_token":"personal-access","refresh_token":"personal-refresh","expires_at":"2026-06-01T00:00:00Z"}
`

func writeRcloneConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rclone.conf")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestForeignSourceLoadNamedRemote(t *testing.T) {
	src := NewForeignSource(writeRcloneConfig(t, rcloneConfig))

	tok, err := src.Load("work")

	require.NoError(t, err)
	assert.Equal(t, "foreign-access", tok.AccessToken)
	assert.Equal(t, "foreign-refresh", tok.RefreshToken)
	assert.Equal(t, "work", tok.Remote)
	assert.Equal(t, "Files.Read.All", tok.Scope)
	assert.Equal(t, time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC), tok.ExpiresAt)
}

func TestForeignSourceAutoDetectsFirstOneDriveRemote(t *testing.T) {
	src := NewForeignSource(writeRcloneConfig(t, rcloneConfig))

	tok, err := src.Load("")

	require.NoError(t, err)
	assert.Equal(t, "work", tok.Remote, "the s3 remote must be skipped")
}

func TestForeignSourceExpiresAtFieldWins(t *testing.T) {
	src := NewForeignSource(writeRcloneConfig(t, rcloneConfig))

	tok, err := src.Load("personal")

	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), tok.ExpiresAt)
}

func TestForeignSourceUnknownRemote(t *testing.T) {
	src := NewForeignSource(writeRcloneConfig(t, rcloneConfig))

	_, err := src.Load("nope")

	assert.ErrorIs(t, err, ErrTokenMissing)
}

func TestForeignSourceMissingFile(t *testing.T) {
	src := NewForeignSource(filepath.Join(t.TempDir(), "absent.conf"))

	_, err := src.Load("work")

	assert.ErrorIs(t, err, ErrTokenMissing)
}

func TestForeignSourceNoOneDriveRemote(t *testing.T) {
	src := NewForeignSource(writeRcloneConfig(t, "[only]\ntype = s3\n"))

	_, err := src.Load("")

	assert.ErrorIs(t, err, ErrTokenMissing)
}

func TestForeignSourceRemoteWithoutToken(t *testing.T) {
	src := NewForeignSource(writeRcloneConfig(t, "[bare]\ntype = onedrive\n"))

	_, err := src.Load("bare")

	assert.ErrorIs(t, err, ErrTokenMissing)
}

func TestForeignSourceMalformedTokenBlob(t *testing.T) {
	src := NewForeignSource(writeRcloneConfig(t, "[bad]\ntype = onedrive\ntoken = not-json\n"))

	_, err := src.Load("bad")

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTokenMissing)
}
