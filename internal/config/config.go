// Package config loads ptwebhook settings.
//
// Sources, lowest precedence first:
//
//  1. built-in defaults
//  2. ptwebhook.{yaml,toml} in "." or $XDG_CONFIG_HOME/ptwebhook
//     (or the file named by --config)
//  3. a .env file in the working directory
//  4. PTWEBHOOK_* environment variables (PTWEBHOOK_DISPATCH_TIMEOUT, ...)
//  5. command-line flags that were set explicitly
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/dshills/ptwebhook/internal/renderer/core"
)

// Setting keys.
const (
	KeyTemplatesDir   = "templates.dir"
	KeyTemplatesWatch = "templates.watch"
	KeyTimeout        = "dispatch.timeout"
	KeyUserAgent      = "dispatch.user_agent"
	KeyLogFile        = "log.file"
	KeyLogLevel       = "log.level"
	KeyLogFormat      = "log.format"
	KeyStrictRequired = "wizard.strict_required"
	KeyAccent         = "ui.accent"
)

// EnvPrefix prefixes environment overrides.
const EnvPrefix = "PTWEBHOOK"

// Config is the complete application configuration.
type Config struct {
	Templates TemplatesConfig `mapstructure:"templates"`
	Dispatch  DispatchConfig  `mapstructure:"dispatch"`
	Log       LogConfig       `mapstructure:"log"`
	Wizard    WizardConfig    `mapstructure:"wizard"`
	UI        UIConfig        `mapstructure:"ui"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-"`
}

// TemplatesConfig locates the template directory.
type TemplatesConfig struct {
	Dir   string `mapstructure:"dir"`
	Watch bool   `mapstructure:"watch"`
}

// DispatchConfig configures outbound requests.
type DispatchConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

// LogConfig configures the log file.
type LogConfig struct {
	File   string `mapstructure:"file"`
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// WizardConfig configures wizard policy.
type WizardConfig struct {
	StrictRequired bool `mapstructure:"strict_required"`
}

// UIConfig configures the terminal views.
type UIConfig struct {
	// Accent overrides the header and selection color, as "#rrggbb".
	Accent string `mapstructure:"accent"`
}

// AccentColor parses UI.Accent. ok is false when no accent is set.
func (c *Config) AccentColor() (color core.Color, ok bool, err error) {
	if strings.TrimSpace(c.UI.Accent) == "" {
		return core.Color{}, false, nil
	}
	color, err = core.ColorFromHex(strings.TrimSpace(c.UI.Accent))
	if err != nil {
		return core.Color{}, false, err
	}
	return color, true, nil
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Templates: TemplatesConfig{Dir: "templates", Watch: true},
		Dispatch:  DispatchConfig{Timeout: 30 * time.Second, UserAgent: "PTWebhook/1.0"},
		Log:       LogConfig{Level: "info", Format: "console"},
	}
}

// Options controls where configuration is read from.
type Options struct {
	// File is an explicit config file. It must exist.
	File string

	// SearchPaths are directories searched for ptwebhook.{yaml,toml}
	// when File is empty. Nil means "." and $XDG_CONFIG_HOME/ptwebhook.
	SearchPaths []string

	// EnvFile is a dotenv file loaded into the environment if present.
	// Defaults to ".env"; "-" disables it.
	EnvFile string

	// Flags maps setting keys to command-line flags.
	Flags map[string]*pflag.Flag
}

// Load reads the configuration.
func Load(opts Options) (*Config, error) {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for key, flag := range opts.Flags {
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", flag.Name, err)
		}
	}

	if err := readConfigFile(v, opts); err != nil {
		return nil, err
	}

	cfg := Defaults()
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &ParseError{Path: sourceName(v), Err: err}
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Dispatch.Timeout <= 0 {
		return &ValidationError{Key: KeyTimeout, Value: c.Dispatch.Timeout, Message: "must be positive"}
	}
	if strings.TrimSpace(c.Templates.Dir) == "" {
		return &ValidationError{Key: KeyTemplatesDir, Value: c.Templates.Dir, Message: "must not be empty"}
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "console", "json":
	default:
		return &ValidationError{Key: KeyLogFormat, Value: c.Log.Format, Message: `must be "console" or "json"`}
	}
	if _, _, err := c.AccentColor(); err != nil {
		return &ValidationError{Key: KeyAccent, Value: c.UI.Accent, Message: "must be a hex color like #5865F2"}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault(KeyTemplatesDir, d.Templates.Dir)
	v.SetDefault(KeyTemplatesWatch, d.Templates.Watch)
	v.SetDefault(KeyTimeout, d.Dispatch.Timeout)
	v.SetDefault(KeyUserAgent, d.Dispatch.UserAgent)
	v.SetDefault(KeyLogFile, d.Log.File)
	v.SetDefault(KeyLogLevel, d.Log.Level)
	v.SetDefault(KeyLogFormat, d.Log.Format)
	v.SetDefault(KeyStrictRequired, d.Wizard.StrictRequired)
	v.SetDefault(KeyAccent, d.UI.Accent)
}

func loadEnvFile(path string) error {
	if path == "-" {
		return nil
	}
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return &ParseError{Path: path, Err: err}
	}
	return nil
}

func readConfigFile(v *viper.Viper, opts Options) error {
	if opts.File != "" {
		if _, err := os.Stat(opts.File); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("%w: %s", ErrFileNotFound, opts.File)
			}
			return fmt.Errorf("stat config file: %w", err)
		}
		v.SetConfigFile(opts.File)
		if err := v.ReadInConfig(); err != nil {
			return &ParseError{Path: opts.File, Err: err}
		}
		return nil
	}

	v.SetConfigName("ptwebhook")
	paths := opts.SearchPaths
	if paths == nil {
		paths = defaultSearchPaths()
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return &ParseError{Path: sourceName(v), Err: err}
	}
	return nil
}

func defaultSearchPaths() []string {
	paths := []string{"."}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "ptwebhook"))
	}
	return paths
}

func sourceName(v *viper.Viper) string {
	if f := v.ConfigFileUsed(); f != "" {
		return f
	}
	return "ptwebhook config"
}
