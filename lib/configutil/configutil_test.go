package configutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Login    string            `json:"login"`
	Delay    int               `json:"delay"`
	Services map[string]string `json:"services"`
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	err := os.WriteFile(path, []byte(contents), 0o644)
	require.NoError(t, err)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "urls.json5"))
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrConfigMissing))
	require.True(t, errors.Is(err, os.ErrNotExist))
}

func TestReadConfigJson5(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "urls.json5")
	writeFile(t, name, `{
		// comments and trailing commas are allowed
		login: "https://login.example.org",
		delay: 4,
	}`)

	cfg, err := ReadConfig[testConfig](name)
	require.NoError(t, err)
	require.Equal(t, "https://login.example.org", cfg.Login)
	require.Equal(t, 4, cfg.Delay)
}

func TestReadConfigLocalOverride(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "urls.json5")
	writeFile(t, name, `{login: "base", delay: 4}`)
	writeFile(t, filepath.Join(dir, "urls.local.json5"), `{login: "local"}`)

	cfg, err := ReadConfig[testConfig](name)
	require.NoError(t, err)
	require.Equal(t, "local", cfg.Login)
	require.Equal(t, 4, cfg.Delay)
}

func TestReadConfigOnlyLocal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "urls.local.json5"), `{login: "local"}`)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "urls.json5"))
	require.NoError(t, err)
	require.Equal(t, "local", cfg.Login)
}

func TestReadConfigMalformed(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "urls.json5")
	writeFile(t, name, `{login: `)

	_, err := ReadConfig[testConfig](name)
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrConfigMissing))
}

func TestLocalName(t *testing.T) {
	require.Equal(t, filepath.Join("data", "urls.local.json5"), LocalName(filepath.Join("data", "urls.json5")))
	require.Equal(t, filepath.Join("data", "urls.local"), LocalName(filepath.Join("data", "urls")))
}
