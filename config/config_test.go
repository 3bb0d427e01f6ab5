package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Read(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	require.Equal(t, "keys", cfg.Paths.KeysDir)
	require.Equal(t, "output", cfg.Paths.OutputDir)
	require.Equal(t, ":8080", cfg.Server.Addr)
}

func TestReadDecodesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	contents := `
[authority]
default_name = "Gov of X"

[paths]
keys_dir = "/etc/mediaseal/keys"
output_dir = "/var/mediaseal/output"

[server]
addr = ":9090"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Read(path)
	require.NoError(t, err)
	require.Equal(t, "Gov of X", cfg.Authority.DefaultName)
	require.Equal(t, "/etc/mediaseal/keys", cfg.Paths.KeysDir)
	require.Equal(t, ":9090", cfg.Server.Addr)
}

func TestReadRejectsMalformedToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("not = [valid"), 0o644))

	_, err := Read(path)
	require.Error(t, err)
}
