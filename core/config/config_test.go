package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"decomp-history/core/apperr"
	"decomp-history/core/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), []byte(content), 0644))
	return dir
}

func TestLoadConfig_Defaults(t *testing.T) {
	dir := writeConfig(t, `
min_version = "1.16.5"
max_version = "1.21"
`)

	cfg, err := config.LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "1.16.5", cfg.MinVersion)
	assert.Equal(t, "1.21", cfg.MaxVersion)
	assert.False(t, cfg.IncludeSnapshots)
	assert.False(t, cfg.ExcludeAprilFools)

	assert.Equal(t, "main", cfg.Repository.Branch)
	assert.Equal(t, filepath.Join(dir, "repository"), cfg.Repository.Path)
	assert.Equal(t, filepath.Join(dir, "decompilationWorkArea"), cfg.Decompiler.WorkDir)
	assert.Equal(t, "8.12", cfg.Decompiler.GradleVersion)
	assert.True(t, cfg.Decompiler.StreamOutput)
	assert.Equal(t, "https://piston-meta.mojang.com/mc/game/version_manifest_v2.json", cfg.Catalog.ManifestURL)
	assert.Equal(t, 30, cfg.Catalog.HTTP.TimeoutSeconds)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.False(t, cfg.Storage.Enabled)
	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, filepath.Join(dir, "journal.db"), cfg.Database.Name)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, filepath.Join(dir, "cache", "version_manifest.json"), cfg.ManifestCachePath())

	policy := cfg.Policy()
	assert.Equal(t, "1.16.5", policy.MinVersion)
	assert.False(t, policy.IncludeSnapshots)
}

func TestLoadConfig_FileValues(t *testing.T) {
	dir := writeConfig(t, `
min_version = "1.20"
max_version = "24w14a"
include_snapshots = true
exclude_april_fools = true

[repository]
branch = "history"
path = "/srv/history"

[decompiler]
timeout_minutes = 45
stream_output = false

[log]
level = "debug"
format = "json"

[storage]
enabled = true
bucket = "decomp-cache"
`)

	cfg, err := config.LoadConfig(dir)
	require.NoError(t, err)

	assert.True(t, cfg.IncludeSnapshots)
	assert.True(t, cfg.ExcludeAprilFools)
	assert.Equal(t, "history", cfg.Repository.Branch)
	assert.Equal(t, "/srv/history", cfg.Repository.Path)
	assert.Equal(t, 45, cfg.Decompiler.TimeoutMinutes)
	assert.Equal(t, float64(45*60), cfg.Decompiler.Timeout().Seconds())
	assert.False(t, cfg.Decompiler.StreamOutput)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.Storage.Enabled)
	assert.Equal(t, "decomp-cache", cfg.Storage.Bucket)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	dir := writeConfig(t, `
min_version = "1.20"
max_version = "1.21"
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DECOMP_HISTORY_SERVER_API_KEY=from-dotenv\n"), 0644))
	t.Setenv("DECOMP_HISTORY_REPOSITORY_BRANCH", "env-branch")
	t.Setenv("DECOMP_HISTORY_INCLUDE_SNAPSHOTS", "true")
	t.Setenv("DECOMP_HISTORY_SERVER_API_KEY", "")

	cfg, err := config.LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "env-branch", cfg.Repository.Branch)
	assert.True(t, cfg.IncludeSnapshots)
	assert.Equal(t, "from-dotenv", cfg.Server.ApiKey)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content *string
		errPart string
	}{
		{"MissingFile", nil, "not found"},
		{"MissingBounds", ptr(`include_snapshots = true`), "min_version and max_version"},
		{"MissingMax", ptr(`min_version = "1.0"`), "max_version"},
		{"BadToml", ptr(`min_version = `), "cannot parse"},
		{"BadBranch", ptr("min_version = \"1\"\nmax_version = \"2\"\n[repository]\nbranch = \"a..b\"\n"), "repository.branch"},
		{"BadLogFormat", ptr("min_version = \"1\"\nmax_version = \"2\"\n[log]\nformat = \"xml\"\n"), "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.content != nil {
				dir = writeConfig(t, *tt.content)
			}

			_, err := config.LoadConfig(dir)
			require.Error(t, err)

			var cfgErr *apperr.ConfigurationError
			assert.True(t, errors.As(err, &cfgErr))
			assert.Contains(t, err.Error(), tt.errPart)
			assert.Equal(t, apperr.ExitConfiguration, apperr.ExitCode(err))
		})
	}
}

func ptr(s string) *string {
	return &s
}
