package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dshills/ptwebhook/internal/renderer/backend"
	"github.com/dshills/ptwebhook/internal/template"
	"github.com/dshills/ptwebhook/internal/wizard"
)

// eventLoop is the main application loop. It is the only goroutine
// touching the model.
func (app *Application) eventLoop(ctx context.Context) error {
	ticker := time.NewTicker(app.opts.Tick)
	defer ticker.Stop()

	changes := app.opts.Changes
	app.render()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev := <-app.events:
			if err := app.handleBackendEvent(ctx, ev); err != nil {
				return err
			}

		case done := <-app.results:
			if err := app.apply(ctx, done); err != nil {
				return err
			}

		case change, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			app.handleTemplateChange(change)

		case <-ticker.C:
			if app.current != nil {
				app.status.Frame++
				app.render()
			}
		}
	}
}

// handleBackendEvent processes a backend event and routes it appropriately.
// Returns ErrQuit if the application should exit.
func (app *Application) handleBackendEvent(ctx context.Context, ev backend.Event) error {
	switch ev.Type {
	case backend.EventResize:
		app.render()
		return nil
	case backend.EventKey:
		in, ok := translate(app.model.State(), ev)
		if !ok {
			return nil
		}
		return app.apply(ctx, in)
	case backend.EventClosed:
		return ErrQuit
	default:
		return nil
	}
}

// apply feeds in to the wizard, executes the returned command and redraws.
func (app *Application) apply(ctx context.Context, in wizard.Input) error {
	prev := app.model.State()
	m, cmd := wizard.Step(app.model, in)
	app.model = m

	if next := m.State(); next.Name() != prev.Name() {
		app.logger.Debug("state change", zap.String("from", prev.Name()), zap.String("to", next.Name()))
	}

	switch c := cmd.(type) {
	case wizard.None:
	case wizard.Exit:
		app.cancelDispatch(uuid.Nil)
		return ErrQuit
	case wizard.Dispatch:
		app.startDispatch(ctx, c)
	case wizard.CancelDispatch:
		app.cancelDispatch(c.Attempt)
	default:
		panic(fmt.Sprintf("app: unknown command %T", cmd))
	}

	if done, ok := in.(wizard.DispatchDone); ok {
		app.finishDispatch(done)
	}

	app.render()
	return nil
}

// startDispatch sends the message on its own goroutine. The result comes
// back through app.results as a DispatchDone input.
func (app *Application) startDispatch(ctx context.Context, c wizard.Dispatch) {
	dctx, cancel := context.WithCancel(ctx)
	app.current = &inflight{attempt: c.Attempt, cancel: cancel, started: time.Now()}
	app.status.Frame = 0
	app.status.Elapsed = 0

	app.logger.Info("dispatch started",
		zap.Stringer("attempt", c.Attempt),
		zap.String("title", c.Message.Title),
		zap.Int("fields", len(c.Message.Fields)))

	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		out := app.opts.Sender.Send(dctx, app.opts.Endpoint, c.Message)
		select {
		case app.results <- wizard.DispatchDone{Attempt: c.Attempt, Outcome: out}:
		case <-ctx.Done():
		}
	}()
}

// cancelDispatch aborts attempt, or whatever is in flight for uuid.Nil.
func (app *Application) cancelDispatch(attempt uuid.UUID) {
	cur := app.current
	if cur == nil || (attempt != uuid.Nil && cur.attempt != attempt) {
		return
	}
	cur.cancel()
	app.current = nil
	app.logger.Info("dispatch cancelled", zap.Stringer("attempt", cur.attempt))
}

func (app *Application) finishDispatch(done wizard.DispatchDone) {
	cur := app.current
	if cur == nil || cur.attempt != done.Attempt {
		app.logger.Debug("stale dispatch result ignored", zap.Stringer("attempt", done.Attempt))
		return
	}
	cur.cancel()
	app.current = nil
	app.logger.Info("dispatch finished",
		zap.Stringer("attempt", done.Attempt),
		zap.Bool("ok", done.Outcome.OK()),
		zap.String("outcome", done.Outcome.Summary()),
		zap.Duration("elapsed", time.Since(cur.started)))
}

func (app *Application) handleTemplateChange(c template.Change) {
	app.logger.Info("template directory changed", zap.String("path", c.Path), zap.String("op", c.Op))
	app.status.Notice = fmt.Sprintf("%s changed on disk, restart to reload templates", filepath.Base(c.Path))
	app.render()
}

func (app *Application) render() {
	if app.current != nil {
		app.status.Elapsed = time.Since(app.current.started)
	}
	app.renderer.Render(app.model, app.status)
}
