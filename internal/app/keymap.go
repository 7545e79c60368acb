package app

import (
	"fmt"

	"github.com/dshills/ptwebhook/internal/renderer/backend"
	"github.com/dshills/ptwebhook/internal/wizard"
)

// translate maps a key event to a wizard input for the given state.
// Ctrl+C and Ctrl+Q quit everywhere. While editing, printable keys are
// text, so "q" only quits outside the form.
func translate(state wizard.State, ev backend.Event) (wizard.Input, bool) {
	if ev.Type != backend.EventKey {
		return nil, false
	}
	switch ev.Key {
	case backend.KeyCtrlC, backend.KeyCtrlQ:
		return wizard.Quit{}, true
	}

	switch state.(type) {
	case wizard.Selecting:
		return selectingKey(ev)
	case wizard.Editing:
		return editingKey(ev)
	case wizard.Previewing:
		return previewingKey(ev)
	case wizard.Dispatching:
		return dispatchingKey(ev)
	case wizard.Completed:
		return completedKey(ev)
	default:
		panic(fmt.Sprintf("app: unknown state %T", state))
	}
}

func isRune(ev backend.Event, runes ...rune) bool {
	if ev.Key != backend.KeyRune {
		return false
	}
	for _, r := range runes {
		if ev.Rune == r {
			return true
		}
	}
	return false
}

func selectingKey(ev backend.Event) (wizard.Input, bool) {
	switch {
	case ev.Key == backend.KeyEscape, isRune(ev, 'q'):
		return wizard.Quit{}, true
	case ev.Key == backend.KeyDown, isRune(ev, 'j'):
		return wizard.Next{}, true
	case ev.Key == backend.KeyUp, isRune(ev, 'k'):
		return wizard.Prev{}, true
	case ev.Key == backend.KeyEnter, isRune(ev, ' '):
		return wizard.Confirm{}, true
	}
	return nil, false
}

func editingKey(ev backend.Event) (wizard.Input, bool) {
	switch ev.Key {
	case backend.KeyEscape:
		return wizard.Cancel{}, true
	case backend.KeyDown, backend.KeyTab:
		return wizard.Next{}, true
	case backend.KeyUp, backend.KeyBacktab:
		return wizard.Prev{}, true
	case backend.KeyEnter:
		if ev.Mod.Has(backend.ModAlt) {
			return wizard.Char{Rune: '\n'}, true
		}
		return wizard.Confirm{}, true
	case backend.KeyRight:
		return wizard.NextOption{}, true
	case backend.KeyLeft:
		return wizard.PrevOption{}, true
	case backend.KeyBackspace:
		return wizard.Backspace{}, true
	case backend.KeyRune:
		if ev.Mod.Has(backend.ModAlt) || ev.Mod.Has(backend.ModCtrl) {
			return nil, false
		}
		return wizard.Char{Rune: ev.Rune}, true
	}
	return nil, false
}

func previewingKey(ev backend.Event) (wizard.Input, bool) {
	switch {
	case isRune(ev, 'q'):
		return wizard.Quit{}, true
	case ev.Key == backend.KeyEscape:
		return wizard.Cancel{}, true
	case ev.Key == backend.KeyEnter, isRune(ev, ' '):
		return wizard.Confirm{}, true
	}
	return nil, false
}

func dispatchingKey(ev backend.Event) (wizard.Input, bool) {
	switch {
	case isRune(ev, 'q'):
		return wizard.Quit{}, true
	case ev.Key == backend.KeyEscape:
		return wizard.Cancel{}, true
	}
	return nil, false
}

func completedKey(ev backend.Event) (wizard.Input, bool) {
	switch {
	case isRune(ev, 'q'):
		return wizard.Quit{}, true
	case ev.Key == backend.KeyEnter, ev.Key == backend.KeyEscape, isRune(ev, ' '):
		return wizard.Confirm{}, true
	}
	return nil, false
}
