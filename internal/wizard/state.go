package wizard

import (
	"github.com/google/uuid"

	"github.com/dshills/ptwebhook/internal/dispatch"
	"github.com/dshills/ptwebhook/internal/payload"
)

// State is one of Selecting, Editing, Previewing, Dispatching or Completed.
type State interface {
	// Name returns a short lowercase identifier for the state.
	Name() string
	state()
}

// Selecting shows the template list.
type Selecting struct{}

// Editing edits the field at Cursor.
type Editing struct {
	Cursor int
}

// Previewing shows the assembled message. Cursor is restored when
// returning to Editing.
type Previewing struct {
	Cursor int
}

// Dispatching waits for the outcome of Attempt.
type Dispatching struct {
	Cursor  int
	Attempt uuid.UUID
}

// Completed shows the outcome of the last dispatch.
type Completed struct {
	Outcome dispatch.Outcome
}

func (Selecting) state()   {}
func (Editing) state()     {}
func (Previewing) state()  {}
func (Dispatching) state() {}
func (Completed) state()   {}

func (Selecting) Name() string   { return "selecting" }
func (Editing) Name() string     { return "editing" }
func (Previewing) Name() string  { return "previewing" }
func (Dispatching) Name() string { return "dispatching" }
func (Completed) Name() string   { return "completed" }

// Input is a user intent or an asynchronous result fed into Step.
type Input interface {
	input()
}

type (
	// Next moves down the template list or to the next field.
	Next struct{}
	// Prev moves up the template list or to the previous field.
	Prev struct{}
	// Confirm selects, previews, sends or acknowledges, depending on state.
	Confirm struct{}
	// Cancel goes back one step.
	Cancel struct{}
	// Quit ends the program from any state.
	Quit struct{}
	// Char appends Rune to the current field.
	Char struct{ Rune rune }
	// Backspace removes the last character of the current field.
	Backspace struct{}
	// NextOption cycles a field with options forward.
	NextOption struct{}
	// PrevOption cycles a field with options backward.
	PrevOption struct{}
)

// DispatchDone reports the outcome of a dispatch attempt.
type DispatchDone struct {
	Attempt uuid.UUID
	Outcome dispatch.Outcome
}

func (Next) input()         {}
func (Prev) input()         {}
func (Confirm) input()      {}
func (Cancel) input()       {}
func (Quit) input()         {}
func (Char) input()         {}
func (Backspace) input()    {}
func (NextOption) input()   {}
func (PrevOption) input()   {}
func (DispatchDone) input() {}

// Command is work Step asks the caller to perform.
type Command interface {
	command()
}

// None asks for nothing.
type None struct{}

// Exit asks the caller to stop, cancelling any outstanding dispatch.
type Exit struct{}

// Dispatch asks the caller to send Message and report back with Attempt.
type Dispatch struct {
	Attempt uuid.UUID
	Message payload.Message
}

// CancelDispatch asks the caller to abort Attempt.
type CancelDispatch struct {
	Attempt uuid.UUID
}

func (None) command()           {}
func (Exit) command()           {}
func (Dispatch) command()       {}
func (CancelDispatch) command() {}
