package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withWorkDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(old) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	withWorkDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, int64(10485760), cfg.Upload.MaxFileBytes)
	assert.Equal(t, 20, cfg.Upload.MaxFiles)
	assert.True(t, cfg.Security.RateLimit.Enabled)
	assert.Equal(t, ":8080", cfg.ListenAddr())
}

func TestLoadFromYAMLFile(t *testing.T) {
	dir := withWorkDir(t)

	yaml := "server:\n  port: 9090\nlogging:\n  level: debug\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pushpulse.yml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := withWorkDir(t)

	yaml := "server:\n  port: 9090\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pushpulse.yml"), []byte(yaml), 0644))

	t.Setenv("PUSHPULSE_SERVER_PORT", "7070")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoadInvalidPort(t *testing.T) {
	withWorkDir(t)
	t.Setenv("PUSHPULSE_SERVER_PORT", "99999")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadCustomConfigPath(t *testing.T) {
	withWorkDir(t)
	other := t.TempDir()

	path := filepath.Join(other, "custom.yml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 6060\n"), 0644))
	t.Setenv("PUSHPULSE_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 6060, cfg.Server.Port)
}

func TestLoadEnsuresDirectories(t *testing.T) {
	dir := withWorkDir(t)

	_, err := Load()
	require.NoError(t, err)

	for _, sub := range []string{"reports", "logs"} {
		info, err := os.Stat(filepath.Join(dir, sub))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestAllowsExtension(t *testing.T) {
	u := UploadConfig{AllowedExts: []string{".csv", ".xlsx", ".xls"}}

	tests := []struct {
		name string
		file string
		want bool
	}{
		{name: "csv", file: "revenue.csv", want: true},
		{name: "uppercase", file: "REVENUE.CSV", want: true},
		{name: "xlsx", file: "tables.xlsx", want: true},
		{name: "txt", file: "notes.txt", want: false},
		{name: "no extension", file: "README", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, u.AllowsExtension(tt.file))
		})
	}
}
