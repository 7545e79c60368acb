// Package main is the entry point for ptwebhook.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/dshills/ptwebhook/internal/app"
	"github.com/dshills/ptwebhook/internal/config"
	"github.com/dshills/ptwebhook/internal/dispatch"
	"github.com/dshills/ptwebhook/internal/endpoint"
	"github.com/dshills/ptwebhook/internal/logging"
	"github.com/dshills/ptwebhook/internal/renderer"
	"github.com/dshills/ptwebhook/internal/renderer/backend"
	"github.com/dshills/ptwebhook/internal/template"
	"github.com/dshills/ptwebhook/internal/wizard"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// errNotTerminal is returned when stdout cannot host the UI.
var errNotTerminal = errors.New("stdout is not a terminal")

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetErr(stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

type flags struct {
	token      string
	configFile string
}

func newRootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "ptwebhook [flags] <endpoint>",
		Short: "Compose and send webhook messages from templates",
		Long: `ptwebhook opens a terminal wizard that fills in a message template
and posts the result to a Discord-style webhook.

The endpoint may be a full webhook URL, the URL without its scheme, or
just "<id>/<token>".`,
		Example: `  ptwebhook https://discord.com/api/webhooks/123/abc
  ptwebhook --token 123/abc --templates ./announcements`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, f, args)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&f.token, "token", "t", "", "webhook endpoint (alternative to the positional argument)")
	fs.StringVarP(&f.configFile, "config", "c", "", "path to a configuration file")
	fs.String("templates", "", "template directory")
	fs.String("log-file", "", "write logs to this file")
	fs.String("log-level", "", "log level (debug, info, warn, error)")
	fs.Duration("timeout", 0, "dispatch timeout")
	fs.Bool("strict-required", false, "block the preview while required fields are empty")

	return cmd
}

// endpointArg picks the single endpoint from the flag or the arguments.
func endpointArg(token string, args []string) (string, error) {
	switch {
	case token != "" && len(args) > 0:
		return "", errors.New("give the endpoint either with --token or as an argument, not both")
	case token != "":
		return token, nil
	case len(args) == 1:
		return args[0], nil
	default:
		return "", errors.New("missing webhook endpoint")
	}
}

func execute(cmd *cobra.Command, f flags, args []string) error {
	raw, err := endpointArg(f.token, args)
	if err != nil {
		return err
	}
	url, err := endpoint.Parse(raw)
	if err != nil {
		return err
	}

	fs := cmd.Flags()
	cfg, err := config.Load(config.Options{
		File: f.configFile,
		Flags: map[string]*pflag.Flag{
			config.KeyTemplatesDir:   fs.Lookup("templates"),
			config.KeyLogFile:        fs.Lookup("log-file"),
			config.KeyLogLevel:       fs.Lookup("log-level"),
			config.KeyTimeout:        fs.Lookup("timeout"),
			config.KeyStrictRequired: fs.Lookup("strict-required"),
		},
	})
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Config{File: cfg.Log.File, Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	if cfg.File != "" {
		logger.Info("configuration loaded", zap.String("file", cfg.File))
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errNotTerminal
	}

	store, err := template.Load(cfg.Templates.Dir, template.WithLogger(logger))
	if err != nil {
		return err
	}
	for _, d := range store.Diagnostics() {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: skipped %v\n", d)
	}

	ctx := cmd.Context()

	var changes <-chan template.Change
	if cfg.Templates.Watch && store.Len() > 0 {
		changes, err = template.Watch(ctx, cfg.Templates.Dir, logger)
		if err != nil {
			logger.Warn("template watch disabled", zap.Error(err))
		}
	}

	sender := dispatch.New(
		dispatch.WithTimeout(cfg.Dispatch.Timeout),
		dispatch.WithUserAgent(cfg.Dispatch.UserAgent),
		dispatch.WithLogger(logger),
	)

	screen, err := backend.NewTerminal()
	if err != nil {
		return &app.InitError{Component: "terminal", Err: err}
	}

	var render []renderer.Option
	if accent, ok, _ := cfg.AccentColor(); ok {
		theme := renderer.DefaultTheme()
		theme.Accent = accent
		render = append(render, renderer.WithTheme(theme))
	}

	application, err := app.New(app.Options{
		Endpoint: url,
		Store:    store,
		Sender:   sender,
		Backend:  screen,
		Logger:   logger,
		Wizard:   wizard.Options{StrictRequired: cfg.Wizard.StrictRequired},
		Changes:  changes,
		Render:   render,
	})
	if err != nil {
		return err
	}

	err = application.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
