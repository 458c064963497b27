package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/joeycumines/go-htn/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the config at an empty temp dir and runs from there, so no
// user config or .env is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(config.EnvConfig, filepath.Join(dir, "config.toml"))
	t.Chdir(dir)
	return dir
}

func TestRun(t *testing.T) {
	isolate(t)

	for _, tc := range []struct {
		name string
		args []string
		want string
	}{
		{"no command shows help", nil, "Available commands:"},
		{"help flag", []string{"--help"}, "Available commands:"},
		{"short help flag", []string{"-h"}, "Available commands:"},
		{"version command", []string{"version"}, "htn version " + version},
		{"list command", []string{"list"}, "creature"},
		{"print command", []string{"print"}, "CreatureBehaviour (selector)"},
		{"run command", []string{"run", "--ticks", "3", "--interval", "1ms", "--log-level", "error"}, "ticks"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			require.NoError(t, run(context.Background(), tc.args, &stdout, &stderr))
			assert.Contains(t, stdout.String(), tc.want)
		})
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	isolate(t)

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"nonexistent"}, &stdout, &stderr)
	assert.Error(t, err)
	assert.Contains(t, stderr.String(), "Use 'htn help'")
}

func TestRun_ConfigFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[run]\nseed = 42\n"), 0o644))

	var stdout bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"config", "run.seed"}, &stdout, new(bytes.Buffer)))
	assert.Equal(t, "run.seed: 42\n", stdout.String())
}

func TestRun_InvalidConfigFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[run\n"), 0o644))

	err := run(context.Background(), []string{"version"}, new(bytes.Buffer), new(bytes.Buffer))
	assert.Error(t, err)
}

func TestRun_DotEnv(t *testing.T) {
	dir := isolate(t)
	// registers a restore, then leaves the variable unset for godotenv
	t.Setenv(config.EnvLogLevel, "")
	require.NoError(t, os.Unsetenv(config.EnvLogLevel))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(config.EnvLogLevel+"=warn\n"), 0o644))

	var stdout bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"config", "log.level"}, &stdout, new(bytes.Buffer)))
	assert.Equal(t, "log.level: warn\n", stdout.String())
}
