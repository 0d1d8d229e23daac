package profile

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateDefaults(t *testing.T) {
	dir := t.TempDir()
	p := &Profile{Mode: "bogus", Data: dir, Driver: "sqlite"}
	require.NoError(t, p.Validate())

	require.Equal(t, "demo", p.Mode, "unknown mode falls back to demo")
	require.Equal(t, filepath.Join(dir, "guestbook_demo.db"), p.DSN)
	require.Equal(t, 10, p.PollInterval)
}

func TestValidateKeepsExplicitDSN(t *testing.T) {
	dir := t.TempDir()
	p := &Profile{Mode: "dev", Data: dir, Driver: "sqlite", DSN: "/tmp/custom.db", PollInterval: 3}
	require.NoError(t, p.Validate())
	require.Equal(t, "/tmp/custom.db", p.DSN)
	require.Equal(t, 3, p.PollInterval)
}

func TestValidateRejectsHalfTLS(t *testing.T) {
	dir := t.TempDir()
	p := &Profile{Mode: "dev", Data: dir, Driver: "sqlite", TLSCert: "/tmp/cert.pem"}
	require.Error(t, p.Validate())
}

func TestFromEnvOverlay(t *testing.T) {
	t.Setenv("GUESTBOOK_POLL_INTERVAL", "30")
	t.Setenv("GUESTBOOK_USE_CACHE", "false")
	t.Setenv("GUESTBOOK_DRIVER", "sqlite")

	p := &Profile{Mode: "dev", PollInterval: 10, UseCache: true, EnablePoller: true, Driver: "postgres"}
	p.FromEnv()

	require.Equal(t, 30, p.PollInterval)
	require.False(t, p.UseCache)
	require.True(t, p.EnablePoller, "unset variables leave flag values alone")
	require.Equal(t, "sqlite", p.Driver)
}
