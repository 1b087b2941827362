package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// isolate points XDG_CONFIG_HOME and the working directory at a temp dir and
// clears every SIGNUP_ variable.
func isolate(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "config"))
	for _, env := range envKeys {
		t.Setenv(env, "")
		_ = os.Unsetenv(env)
	}
	return tmpDir
}

func TestGlobalPath(t *testing.T) {
	t.Run("with XDG_CONFIG_HOME set", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/custom/config")
		require.Equal(t, "/custom/config/signup/signup.yml", GlobalPath())
	})

	t.Run("without XDG_CONFIG_HOME", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		got := GlobalPath()
		require.True(t, filepath.IsAbs(got), "GlobalPath() should be absolute, got %s", got)
		require.Equal(t, "signup.yml", filepath.Base(got))
	})
}

func TestProjectPath(t *testing.T) {
	require.Equal(t, "signup.yml", ProjectPath())
}

func TestExists(t *testing.T) {
	isolate(t)

	require.False(t, Exists())

	require.NoError(t, WriteGlobal(Default()))
	require.True(t, Exists())
	require.NoError(t, os.Remove(GlobalPath()))

	require.NoError(t, WriteProject(Default()))
	require.True(t, Exists())
}

func TestWriteGlobal(t *testing.T) {
	isolate(t)

	cfg := &Config{
		Endpoint: "https://example.com/api/register",
		Timeout:  45 * time.Second,
		LogLevel: "debug",
		LogFile:  "/tmp/signup.log",
		Listen:   "0.0.0.0:9000",
	}
	require.NoError(t, WriteGlobal(cfg))

	data, err := os.ReadFile(GlobalPath())
	require.NoError(t, err)

	content := string(data)
	for _, field := range []string{
		"endpoint: https://example.com/api/register",
		"timeout: 45s",
		"log_level: debug",
		"log_file: /tmp/signup.log",
		"listen: 0.0.0.0:9000",
	} {
		require.Contains(t, content, field)
	}
}

func TestLoad_NoConfig(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoad_Precedence(t *testing.T) {
	isolate(t)

	require.NoError(t, WriteGlobal(&Config{
		Endpoint: "https://global.example.com/register",
		Timeout:  10 * time.Second,
		LogLevel: "warn",
		Listen:   DefaultListen,
	}))

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "https://global.example.com/register", cfg.Endpoint)
	require.Equal(t, 10*time.Second, cfg.Timeout)
	require.Equal(t, "warn", cfg.LogLevel)

	// Project file only overrides the keys it sets.
	require.NoError(t, os.WriteFile(ProjectPath(), []byte("log_level: debug\n"), 0644))
	cfg, err = Load()
	require.NoError(t, err)
	require.Equal(t, "https://global.example.com/register", cfg.Endpoint)
	require.Equal(t, "debug", cfg.LogLevel)

	t.Setenv("SIGNUP_ENDPOINT", "http://env.example.com/register")
	t.Setenv("SIGNUP_TIMEOUT", "2m")
	cfg, err = Load()
	require.NoError(t, err)
	require.Equal(t, "http://env.example.com/register", cfg.Endpoint)
	require.Equal(t, 2*time.Minute, cfg.Timeout)
}

func TestLoad_InvalidEndpoint(t *testing.T) {
	isolate(t)

	t.Setenv("SIGNUP_ENDPOINT", "ftp://example.com")
	_, err := Load()
	require.ErrorContains(t, err, "endpoint must be an http(s) URL")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{"defaults", Default(), false},
		{"https endpoint", &Config{Endpoint: "https://example.com/register"}, false},
		{"empty endpoint", &Config{}, true},
		{"negative timeout", &Config{Endpoint: DefaultEndpoint, Timeout: -time.Second}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
