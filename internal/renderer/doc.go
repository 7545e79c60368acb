// Package renderer draws the wizard on a terminal backend.
//
// The renderer is stateless apart from its theme: every Render call
// clears the screen and draws the current wizard Model from scratch,
// plus a Status carrying what the application knows beyond the Model
// (target endpoint, load diagnostics, spinner frame).
//
// Layout:
//
//	┌─────────────────────────────────────────┐
//	│ header: title, state, endpoint          │
//	├─────────────────────────────────────────┤
//	│ body: list / form / preview / outcome   │
//	│                                         │
//	├─────────────────────────────────────────┤
//	│ notice                                  │
//	│ key hints                               │
//	└─────────────────────────────────────────┘
//
// Usage:
//
//	term, _ := backend.NewTerminal()
//	r := renderer.New(term)
//	r.Render(model, renderer.Status{Endpoint: endpoint.Redact(url)})
package renderer
