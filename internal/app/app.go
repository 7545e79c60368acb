// Package app runs the interactive wizard: it owns the wizard Model,
// turns terminal events into wizard inputs, executes the commands the
// wizard returns and redraws the screen.
package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dshills/ptwebhook/internal/dispatch"
	"github.com/dshills/ptwebhook/internal/endpoint"
	"github.com/dshills/ptwebhook/internal/payload"
	"github.com/dshills/ptwebhook/internal/renderer"
	"github.com/dshills/ptwebhook/internal/renderer/backend"
	"github.com/dshills/ptwebhook/internal/template"
	"github.com/dshills/ptwebhook/internal/wizard"
)

// DefaultTick is the repaint interval while a dispatch is in flight.
const DefaultTick = 100 * time.Millisecond

// Sender delivers a message to an endpoint.
// *dispatch.Dispatcher implements it.
type Sender interface {
	Send(ctx context.Context, url string, msg payload.Message) dispatch.Outcome
}

// Options configures the application.
type Options struct {
	// Endpoint is the normalized webhook URL.
	Endpoint string

	// Store provides the templates offered for selection.
	Store *template.Store

	// Sender performs dispatches.
	Sender Sender

	// Backend is the terminal to draw on.
	Backend backend.Backend

	// Logger receives diagnostics. Defaults to a no-op logger.
	Logger *zap.Logger

	// Wizard configures wizard policy.
	Wizard wizard.Options

	// Changes reports template files changing on disk. Optional.
	Changes <-chan template.Change

	// Tick is the repaint interval while dispatching. Defaults to DefaultTick.
	Tick time.Duration

	// Render configures the views, e.g. renderer.WithTheme.
	Render []renderer.Option
}

// inflight tracks the dispatch currently running.
type inflight struct {
	attempt uuid.UUID
	cancel  context.CancelFunc
	started time.Time
}

// Application is the central coordinator for the wizard session.
type Application struct {
	opts     Options
	logger   *zap.Logger
	renderer *renderer.Renderer

	// Owned by the event loop goroutine.
	model   wizard.Model
	status  renderer.Status
	current *inflight

	events  chan backend.Event
	results chan wizard.DispatchDone
	wg      sync.WaitGroup

	running atomic.Bool
}

// New creates a new Application with the given options.
func New(opts Options) (*Application, error) {
	if opts.Backend == nil {
		return nil, ErrNoBackend
	}
	if opts.Sender == nil {
		return nil, ErrNoSender
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Tick <= 0 {
		opts.Tick = DefaultTick
	}

	var templates []*template.Template
	status := renderer.Status{Endpoint: endpoint.Redact(opts.Endpoint)}
	if opts.Store != nil {
		templates = opts.Store.Templates()
		status.TemplateDir = opts.Store.Dir()
		status.Skipped = len(opts.Store.Diagnostics())
	}

	return &Application{
		opts:     opts,
		logger:   opts.Logger,
		renderer: renderer.New(opts.Backend, opts.Render...),
		model:    wizard.NewModel(templates, opts.Wizard),
		status:   status,
		events:   make(chan backend.Event, 16),
		results:  make(chan wizard.DispatchDone, 1),
	}, nil
}

// Run initializes the backend and runs the event loop until the user
// quits or ctx is cancelled. A user quit returns nil. Run may be called
// again once it has returned.
func (app *Application) Run(ctx context.Context) error {
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	if err := app.opts.Backend.Init(); err != nil {
		return &InitError{Component: "backend", Err: err}
	}
	defer app.opts.Backend.Shutdown()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	go app.pollEvents(done)
	defer close(done)

	app.logger.Info("session started",
		zap.String("endpoint", app.status.Endpoint),
		zap.Int("templates", len(app.model.Templates())),
		zap.Int("skipped", app.status.Skipped))

	err := app.eventLoop(ctx)

	cancel()
	app.wg.Wait()
	app.current = nil

	if errors.Is(err, ErrQuit) {
		app.logger.Info("session ended")
		return nil
	}
	return err
}

// pollEvents forwards terminal events until the backend shuts down.
func (app *Application) pollEvents(done <-chan struct{}) {
	for {
		ev := app.opts.Backend.PollEvent()
		select {
		case <-done:
			return
		default:
		}
		select {
		case app.events <- ev:
		case <-done:
			return
		}
		if ev.Type == backend.EventClosed {
			return
		}
	}
}

// IsRunning returns true if the application is running.
func (app *Application) IsRunning() bool {
	return app.running.Load()
}
