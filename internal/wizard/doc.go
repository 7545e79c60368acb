// Package wizard implements the select, edit, preview and dispatch flow
// as a pure state machine.
//
// The flow has five states:
//
//	Selecting   -> choosing a template from the list
//	Editing     -> filling in the fields of the chosen template
//	Previewing  -> reviewing the assembled message
//	Dispatching -> waiting for the endpoint to answer
//	Completed   -> showing the outcome
//
// Step takes a Model and an Input and returns the next Model plus a
// Command for the caller to perform. Step never performs I/O and never
// mutates its argument, so a Model value can be kept and compared freely.
// The caller executes Dispatch commands asynchronously and feeds the
// result back as a DispatchDone input carrying the same attempt ID.
//
// Basic usage:
//
//	m := wizard.NewModel(store.Templates(), wizard.Options{})
//	m, cmd := wizard.Step(m, wizard.Confirm{})
package wizard
