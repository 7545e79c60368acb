// Package template loads webhook message templates from a directory.
//
// Each file in the directory describes one template. TOML and YAML documents
// are supported; both share the same three sections:
//
//	[template]
//	name = "Announcement"
//	description = "Post a server-wide announcement"
//
//	[fields.title]
//	type = "text"
//	label = "Title"
//	required = true
//
//	[fields.priority]
//	type = "select"
//	label = "Priority"
//	options = ["low", "normal", "high"]
//	default = "normal"
//
//	[webhook]
//	username = "Announcer"
//	avatar_url = "https://example.com/avatar.png"
//	color = 3447003
//
// Field order is taken from the document itself and is preserved exactly.
// The file base name (without extension) becomes the template ID.
//
// A Store is immutable once loaded and may be shared freely. Files that fail
// to decode or validate are skipped and reported as Diagnostics; a missing
// directory produces an empty Store.
package template
