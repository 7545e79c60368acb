package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/ptwebhook/internal/renderer/core"
)

func isolated(t *testing.T) Options {
	t.Helper()
	return Options{SearchPaths: []string{t.TempDir()}, EnvFile: "-"}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(isolated(t))
	require.NoError(t, err)

	want := Defaults()
	assert.Equal(t, want.Templates, cfg.Templates)
	assert.Equal(t, want.Dispatch, cfg.Dispatch)
	assert.Equal(t, want.Log, cfg.Log)
	assert.False(t, cfg.Wizard.StrictRequired)
	assert.Empty(t, cfg.File)
}

func TestLoad_YAMLFile(t *testing.T) {
	opts := isolated(t)
	path := writeFile(t, opts.SearchPaths[0], "ptwebhook.yaml", `
templates:
  dir: ./my-templates
dispatch:
  timeout: 5s
  user_agent: custom/2
wizard:
  strict_required: true
`)

	cfg, err := Load(opts)
	require.NoError(t, err)
	assert.Equal(t, "./my-templates", cfg.Templates.Dir)
	assert.Equal(t, 5*time.Second, cfg.Dispatch.Timeout)
	assert.Equal(t, "custom/2", cfg.Dispatch.UserAgent)
	assert.True(t, cfg.Wizard.StrictRequired)
	assert.Equal(t, path, cfg.File)
}

func TestLoad_ExplicitTOMLFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "custom.toml", `
[log]
file = "/tmp/pt.log"
level = "debug"
`)

	cfg, err := Load(Options{File: path, EnvFile: "-"})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/pt.log", cfg.Log.File)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 30*time.Second, cfg.Dispatch.Timeout)
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	_, err := Load(Options{File: filepath.Join(t.TempDir(), "nope.yaml"), EnvFile: "-"})
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestLoad_MalformedFile(t *testing.T) {
	opts := isolated(t)
	writeFile(t, opts.SearchPaths[0], "ptwebhook.yaml", "templates: [unclosed\n")

	_, err := Load(opts)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Path, "ptwebhook.yaml")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	opts := isolated(t)
	writeFile(t, opts.SearchPaths[0], "ptwebhook.yaml", "dispatch:\n  timeout: 5s\n")
	t.Setenv("PTWEBHOOK_DISPATCH_TIMEOUT", "12s")
	t.Setenv("PTWEBHOOK_WIZARD_STRICT_REQUIRED", "true")

	cfg, err := Load(opts)
	require.NoError(t, err)
	assert.Equal(t, 12*time.Second, cfg.Dispatch.Timeout)
	assert.True(t, cfg.Wizard.StrictRequired)
}

func TestLoad_DotEnvFile(t *testing.T) {
	opts := isolated(t)
	opts.EnvFile = writeFile(t, t.TempDir(), ".env", "PTWEBHOOK_LOG_LEVEL=warn\n")
	t.Cleanup(func() { os.Unsetenv("PTWEBHOOK_LOG_LEVEL") })

	cfg, err := Load(opts)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_FlagsWinWhenSet(t *testing.T) {
	opts := isolated(t)
	writeFile(t, opts.SearchPaths[0], "ptwebhook.yaml", "templates:\n  dir: from-file\n")
	t.Setenv("PTWEBHOOK_LOG_LEVEL", "error")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("templates", "", "")
	fs.String("log-level", "", "")
	fs.Duration("timeout", 0, "")
	require.NoError(t, fs.Parse([]string{"--templates", "from-flag", "--timeout", "3s"}))

	opts.Flags = map[string]*pflag.Flag{
		KeyTemplatesDir: fs.Lookup("templates"),
		KeyLogLevel:     fs.Lookup("log-level"),
		KeyTimeout:      fs.Lookup("timeout"),
		KeyLogFile:      nil,
	}

	cfg, err := Load(opts)
	require.NoError(t, err)
	assert.Equal(t, "from-flag", cfg.Templates.Dir)
	assert.Equal(t, 3*time.Second, cfg.Dispatch.Timeout)
	assert.Equal(t, "error", cfg.Log.Level, "unset flag must not shadow the environment")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		key    string
	}{
		{"zero timeout", func(c *Config) { c.Dispatch.Timeout = 0 }, KeyTimeout},
		{"blank dir", func(c *Config) { c.Templates.Dir = "  " }, KeyTemplatesDir},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, KeyLogFormat},
		{"bad accent", func(c *Config) { c.UI.Accent = "blurple" }, KeyAccent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.key, ve.Key)
			assert.ErrorIs(t, err, ErrValidationFailed)
		})
	}

	cfg := Defaults()
	assert.NoError(t, cfg.Validate())
}

func TestLoad_AccentFromEnv(t *testing.T) {
	t.Setenv("PTWEBHOOK_UI_ACCENT", "#ff8800")
	cfg, err := Load(isolated(t))
	require.NoError(t, err)

	color, ok, err := cfg.AccentColor()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, core.ColorFromRGB(0xFF, 0x88, 0x00), color)

	def := Defaults()
	_, ok, err = def.AccentColor()
	assert.NoError(t, err)
	assert.False(t, ok, "no accent configured by default")
}

func TestLoad_InvalidEnvValue(t *testing.T) {
	t.Setenv("PTWEBHOOK_DISPATCH_TIMEOUT", "-1s")
	_, err := Load(isolated(t))
	assert.ErrorIs(t, err, ErrValidationFailed)
}
