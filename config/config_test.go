package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "auctiond.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":8645", cfg.RPCAddress)
	require.NotEmpty(t, cfg.AdminAddress)
	require.Len(t, cfg.PriceFeeds, 1)

	// The generated admin key lands next to the config with tight permissions.
	info, err := os.Stat(cfg.AdminKeyPath)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	_, err = cfg.Admin()
	require.NoError(t, err)

	// Reloading parses the file written on first run.
	reloaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.AdminAddress, reloaded.AdminAddress)
	require.Equal(t, cfg.DataDir, reloaded.DataDir)
}

func TestLoadRejectsMissingAdmin(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "auctiond.toml")
	require.NoError(t, os.WriteFile(path, []byte("RPCAddress = \":8645\"\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsUnknownFeedKind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "auctiond.toml")
	body := `
AdminAddress = "` + mustDefaultAdmin(t, dir) + `"

[[PriceFeed]]
Asset = "native"
Name = "bad"
Kind = "carrier-pigeon"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func mustDefaultAdmin(t *testing.T, dir string) string {
	t.Helper()
	cfg, err := Load(filepath.Join(dir, "seed.toml"))
	require.NoError(t, err)
	return cfg.AdminAddress
}

func TestParseAsset(t *testing.T) {
	native, err := ParseAsset("native")
	require.NoError(t, err)
	require.Equal(t, [20]byte{}, native)

	empty, err := ParseAsset("")
	require.NoError(t, err)
	require.Equal(t, [20]byte{}, empty)

	token, err := ParseAsset("0x0102030405060708090a0b0c0d0e0f1011121314")
	require.NoError(t, err)
	require.Equal(t, byte(0x01), token[0])
	require.Equal(t, byte(0x14), token[19])

	_, err = ParseAsset("0x01")
	require.Error(t, err)
	_, err = ParseAsset("not-hex")
	require.Error(t, err)
}
