package status

import "github.com/fatih/color"

var terminalGlyphs = map[StepStatus]string{
	Fired:   "✔",
	Blocked: "⊘",
	Pending: "◷",
	Error:   "⚠",
}

// Palette maps each step status to its console color. missing entries print uncolored.
type Palette map[StepStatus]*color.Color

// DefaultPalette is used when no configured palette is supplied.
func DefaultPalette() Palette {
	return Palette{
		Fired:   color.New(color.FgGreen, color.Bold),
		Blocked: color.New(color.FgYellow),
		Pending: color.New(color.FgWhite),
		Error:   color.New(color.FgRed, color.Bold),
	}
}

// Terminal returns the "glyph label" form of s painted with the palette color.
// respects color.NoColor.
func (p Palette) Terminal(s StepStatus) string {
	text := terminalGlyphs[s] + " " + Config(s).Label
	if c, ok := p[s]; ok && c != nil {
		return c.Sprint(text)
	}
	return text
}

// Terminal renders s with DefaultPalette.
func Terminal(s StepStatus) string {
	return DefaultPalette().Terminal(s)
}
