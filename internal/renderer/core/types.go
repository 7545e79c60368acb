// Package core provides the cell, style and color types shared by the
// views and the terminal backends.
package core

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/rivo/uniseg"
)

// Attribute represents text attributes (bold, italic, etc.).
type Attribute uint16

// Text attribute flags.
const (
	AttrNone      Attribute = 0
	AttrBold      Attribute = 1 << iota
	AttrDim                 // Faint/dim text
	AttrItalic              // Italic text
	AttrUnderline           // Underlined text
	AttrReverse             // Reverse video (swap fg/bg)
)

// Has returns true if the attribute set contains the given attribute.
func (a Attribute) Has(attr Attribute) bool {
	return a&attr != 0
}

// Color represents a true color or the terminal's default color.
type Color struct {
	R, G, B uint8
	// Default indicates this is the terminal's default color.
	Default bool
}

// ColorDefault represents the terminal's default color.
var ColorDefault = Color{Default: true}

// Common colors.
var (
	ColorBlack   = Color{R: 0, G: 0, B: 0}
	ColorWhite   = Color{R: 255, G: 255, B: 255}
	ColorRed     = Color{R: 237, G: 66, B: 69}
	ColorGreen   = Color{R: 87, G: 242, B: 135}
	ColorYellow  = Color{R: 254, G: 231, B: 92}
	ColorCyan    = Color{R: 0, G: 200, B: 220}
	ColorGray    = Color{R: 128, G: 128, B: 128}
	ColorBlurple = Color{R: 88, G: 101, B: 242}
)

// ColorFromRGB creates a true color from RGB components.
func ColorFromRGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

// ColorFromUint32 creates a color from a packed 0xRRGGBB value.
func ColorFromUint32(v uint32) Color {
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}
}

// ColorFromHex creates a color from a "#rrggbb" or "#rgb" string.
func ColorFromHex(hex string) (Color, error) {
	if len(hex) > 0 && hex[0] != '#' {
		hex = "#" + hex
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return Color{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
	}
	return fromColorful(c), nil
}

func fromColorful(c colorful.Color) Color {
	r, g, b := c.Clamped().RGB255()
	return Color{R: r, G: g, B: b}
}

func (c Color) colorful() colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

// IsDefault returns true if this is the default/transparent color.
func (c Color) IsDefault() bool {
	return c.Default
}

// Uint32 returns the color packed as 0xRRGGBB.
func (c Color) Uint32() uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// String returns a string representation of the color.
func (c Color) String() string {
	if c.IsDefault() {
		return "default"
	}
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// Blend mixes c toward other in Lab space. amount is clamped to [0, 1].
func (c Color) Blend(other Color, amount float64) Color {
	if c.Default || other.Default {
		if amount < 0.5 {
			return c
		}
		return other
	}
	amount = max(0, min(1, amount))
	return fromColorful(c.colorful().BlendLab(other.colorful(), amount))
}

// Luminance returns the perceived lightness in [0, 1].
func (c Color) Luminance() float64 {
	l, _, _ := c.colorful().Lab()
	return l
}

// Contrast returns black or white, whichever reads better on c.
func (c Color) Contrast() Color {
	if c.Default {
		return ColorDefault
	}
	if c.Luminance() > 0.6 {
		return ColorBlack
	}
	return ColorWhite
}

// Style represents the visual style of text.
type Style struct {
	Foreground Color
	Background Color
	Attributes Attribute
}

// DefaultStyle returns the default terminal style.
func DefaultStyle() Style {
	return Style{
		Foreground: ColorDefault,
		Background: ColorDefault,
	}
}

// NewStyle creates a style with the given foreground.
func NewStyle(fg Color) Style {
	return Style{Foreground: fg, Background: ColorDefault}
}

// WithForeground returns a new style with the given foreground color.
func (s Style) WithForeground(fg Color) Style {
	s.Foreground = fg
	return s
}

// WithBackground returns a new style with the given background color.
func (s Style) WithBackground(bg Color) Style {
	s.Background = bg
	return s
}

// Bold returns a new style with bold enabled.
func (s Style) Bold() Style {
	s.Attributes |= AttrBold
	return s
}

// Dim returns a new style with dim enabled.
func (s Style) Dim() Style {
	s.Attributes |= AttrDim
	return s
}

// Italic returns a new style with italic enabled.
func (s Style) Italic() Style {
	s.Attributes |= AttrItalic
	return s
}

// Underline returns a new style with underline enabled.
func (s Style) Underline() Style {
	s.Attributes |= AttrUnderline
	return s
}

// Reverse returns a new style with reverse video enabled.
func (s Style) Reverse() Style {
	s.Attributes |= AttrReverse
	return s
}

// Cell is a single terminal cell. A cell holds one grapheme cluster:
// Rune is its first code point and Combining the rest.
type Cell struct {
	Rune      rune
	Combining []rune

	// Width is the display width of this cell. Zero marks the trailing
	// half of a wide grapheme.
	Width int

	Style Style
}

// EmptyCell returns an empty cell with default style.
func EmptyCell() Cell {
	return Cell{Rune: ' ', Width: 1, Style: DefaultStyle()}
}

// ContinuationCell returns the filler that follows a wide grapheme.
func ContinuationCell(style Style) Cell {
	return Cell{Style: style}
}

// IsContinuation returns true if this is a continuation cell.
func (c Cell) IsContinuation() bool {
	return c.Width == 0 && c.Rune == 0
}

// String returns the grapheme held by the cell.
func (c Cell) String() string {
	if c.IsContinuation() {
		return ""
	}
	return string(c.Rune) + string(c.Combining)
}

// CellsFromString splits s into grapheme cells. Wide graphemes are
// followed by a continuation cell so the slice length equals the
// display width.
func CellsFromString(s string, style Style) []Cell {
	cells := make([]Cell, 0, len(s))
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		runes := g.Runes()
		width := g.Width()
		if runes[0] < 0x20 || runes[0] == 0x7F {
			continue
		}
		cell := Cell{Rune: runes[0], Width: max(width, 1), Style: style}
		if len(runes) > 1 {
			cell.Combining = runes[1:]
		}
		cells = append(cells, cell)
		for i := 1; i < width; i++ {
			cells = append(cells, ContinuationCell(style))
		}
	}
	return cells
}

// StringWidth returns the display width of s.
func StringWidth(s string) int {
	return uniseg.StringWidth(s)
}

// Truncate shortens s to at most width columns, ending with an ellipsis
// when anything was cut.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if uniseg.StringWidth(s) <= width {
		return s
	}
	var (
		out   []byte
		used  int
		limit = width - 1
		g     = uniseg.NewGraphemes(s)
	)
	for g.Next() {
		w := g.Width()
		if used+w > limit {
			break
		}
		out = append(out, g.Str()...)
		used += w
	}
	return string(out) + "…"
}

// Rect is a rectangular screen region. Bottom and Right are exclusive.
type Rect struct {
	Top, Left, Bottom, Right int
}

// RectFromSize creates a rectangle from position and size.
func RectFromSize(top, left, height, width int) Rect {
	return Rect{Top: top, Left: left, Bottom: top + height, Right: left + width}
}

// Width returns the width of the rectangle.
func (r Rect) Width() int {
	return max(0, r.Right-r.Left)
}

// Height returns the height of the rectangle.
func (r Rect) Height() int {
	return max(0, r.Bottom-r.Top)
}

// IsEmpty returns true if the rectangle has no area.
func (r Rect) IsEmpty() bool {
	return r.Width() == 0 || r.Height() == 0
}

// Inset shrinks the rectangle on every side.
func (r Rect) Inset(top, right, bottom, left int) Rect {
	return Rect{Top: r.Top + top, Left: r.Left + left, Bottom: r.Bottom - bottom, Right: r.Right - right}
}

// Centered returns a rectangle of the given size centered in r,
// clipped to r.
func (r Rect) Centered(width, height int) Rect {
	width = min(width, r.Width())
	height = min(height, r.Height())
	top := r.Top + (r.Height()-height)/2
	left := r.Left + (r.Width()-width)/2
	return RectFromSize(top, left, height, width)
}
