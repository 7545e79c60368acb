package renderer

import (
	"strings"

	"github.com/rivo/uniseg"

	"github.com/dshills/ptwebhook/internal/renderer/core"
)

// wrap breaks s into lines no wider than width. Explicit newlines are
// kept; words longer than width are split at grapheme boundaries.
func wrap(s string, width int) []string {
	if width <= 0 {
		return nil
	}
	var lines []string
	for _, para := range strings.Split(s, "\n") {
		lines = append(lines, wrapParagraph(para, width)...)
	}
	return lines
}

func wrapParagraph(para string, width int) []string {
	words := strings.Fields(para)
	if len(words) == 0 {
		return []string{""}
	}

	var (
		lines []string
		line  strings.Builder
		used  int
	)
	flush := func() {
		lines = append(lines, line.String())
		line.Reset()
		used = 0
	}

	for _, word := range words {
		w := core.StringWidth(word)
		if used > 0 && used+1+w > width {
			flush()
		}
		if w > width {
			for _, piece := range splitWidth(word, width) {
				if used > 0 {
					flush()
				}
				line.WriteString(piece)
				used = core.StringWidth(piece)
			}
			continue
		}
		if used > 0 {
			line.WriteByte(' ')
			used++
		}
		line.WriteString(word)
		used += w
	}
	if used > 0 {
		flush()
	}
	return lines
}

// splitWidth cuts s into chunks of at most width columns.
func splitWidth(s string, width int) []string {
	var (
		out  []string
		cur  strings.Builder
		used int
		g    = uniseg.NewGraphemes(s)
	)
	for g.Next() {
		w := g.Width()
		if used+w > width && used > 0 {
			out = append(out, cur.String())
			cur.Reset()
			used = 0
		}
		cur.WriteString(g.Str())
		used += w
	}
	if used > 0 {
		out = append(out, cur.String())
	}
	return out
}

// tail returns the rightmost part of s that fits in width columns.
func tail(s string, width int) string {
	if core.StringWidth(s) <= width {
		return s
	}
	var parts []string
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		parts = append(parts, g.Str())
	}
	used := 1
	i := len(parts)
	for i > 0 {
		w := core.StringWidth(parts[i-1])
		if used+w > width {
			break
		}
		used += w
		i--
	}
	return "…" + strings.Join(parts[i:], "")
}
