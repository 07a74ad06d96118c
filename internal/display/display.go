// Package display formats mood frames and writes them to a terminal.
package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/moodring/internal/linebuf"
	"github.com/verte-zerg/moodring/internal/model"
	"github.com/verte-zerg/moodring/internal/pattern"
	"github.com/verte-zerg/moodring/internal/stats"
)

const (
	clearHome   = "\x1b[H\x1b[2J"
	hideCursor  = "\x1b[?25l"
	showCursor  = "\x1b[?25h"
	trendLength = 20
)

var moodColors = map[model.Mood]lipgloss.Color{
	model.Excited:    lipgloss.Color("9"),
	model.Happy:      lipgloss.Color("11"),
	model.Calm:       lipgloss.Color("10"),
	model.Neutral:    lipgloss.Color("12"),
	model.Thoughtful: lipgloss.Color("13"),
	model.Mysterious: lipgloss.Color("14"),
}

var (
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	asciiFrame = lipgloss.Border{
		Top:         "-",
		Bottom:      "-",
		Left:        "|",
		Right:       "|",
		TopLeft:     "+",
		TopRight:    "+",
		BottomLeft:  "+",
		BottomRight: "+",
	}
	asciiHeader = lipgloss.Border{
		Top:         "=",
		Bottom:      "=",
		Left:        "|",
		Right:       "|",
		TopLeft:     "+",
		TopRight:    "+",
		BottomLeft:  "+",
		BottomRight: "+",
	}
)

// Options configure a Formatter.
type Options struct {
	Palette     model.Palette
	Title       string
	Subtitle    string
	Hint        string
	Interactive bool
	NoColor     bool
}

// InteractiveOptions returns the options for a live typing session.
func InteractiveOptions(p model.Palette, noColor bool) Options {
	return Options{
		Palette:     p,
		Title:       "MOOD RING TERMINAL",
		Subtitle:    "Type to see your digital mood evolve!",
		Hint:        fmt.Sprintf("Type your thoughts (or '%s' to exit):", linebuf.QuitCommand),
		Interactive: true,
		NoColor:     noColor,
	}
}

// DemoOptions returns the options for the scripted demo.
func DemoOptions(p model.Palette, noColor bool) Options {
	return Options{
		Palette:  p,
		Title:    "MOOD RING TERMINAL - DEMO MODE",
		Subtitle: "Watch the moods cycle automatically!",
		Hint:     "Press q or Ctrl+C to exit the demo",
		NoColor:  noColor,
	}
}

// Formatter turns frames into text.
type Formatter struct {
	opts   Options
	width  int
	header lipgloss.Border
	frame  lipgloss.Border
}

// NewFormatter returns a Formatter for the given options.
func NewFormatter(opts Options) *Formatter {
	f := &Formatter{
		opts:   opts,
		width:  pattern.For(opts.Palette).Width,
		header: lipgloss.DoubleBorder(),
		frame:  lipgloss.NormalBorder(),
	}
	if opts.Palette == model.PaletteASCII {
		f.header = asciiHeader
		f.frame = asciiFrame
	}
	return f
}

// Render formats one frame.
func (f *Formatter) Render(frame model.Frame) string {
	st := frame.State
	accent := lipgloss.NewStyle()
	if !f.opts.NoColor {
		accent = accent.Foreground(moodColors[st.Mood])
	}

	header := accent.
		Border(f.header).
		BorderForeground(accent.GetForeground()).
		Width(f.width).
		Align(lipgloss.Center).
		Render(f.opts.Title + "\n" + f.opts.Subtitle)

	label := strings.ToUpper(st.Mood.String())
	if !f.opts.NoColor {
		label = accent.Bold(true).Render(label)
	}
	grid := accent.
		Border(f.frame).
		BorderForeground(accent.GetForeground()).
		Render(strings.Join(frame.Grid.Lines(), "\n"))

	lines := []string{
		header,
		"",
		"Current Mood: " + label,
		fmt.Sprintf("Mood Score: %s %d%%", f.scoreBar(st.Score), st.Score),
		"",
		grid,
	}
	if info := f.speedLine(frame); info != "" {
		lines = append(lines, f.muted(info))
	}
	lines = append(lines, "")
	if f.opts.Hint != "" {
		lines = append(lines, accent.Render(f.opts.Hint))
	}
	if f.opts.Interactive {
		lines = append(lines, "> "+f.fitInput(frame.Input))
	}
	return strings.Join(lines, "\n")
}

func (f *Formatter) scoreBar(score int) string {
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	if f.opts.Palette == model.PaletteASCII {
		filled := score / 10
		return "[" + strings.Repeat("#", filled) + strings.Repeat(".", 10-filled) + "]"
	}
	filled := score / 5
	return strings.Repeat("█", filled) + strings.Repeat("░", 20-filled)
}

func (f *Formatter) speedLine(frame model.Frame) string {
	var parts []string
	if frame.HasWPM {
		parts = append(parts, fmt.Sprintf("Speed: ~%.0f WPM", frame.AvgWPM))
	}
	if len(frame.Trend) > 1 {
		trend := frame.Trend
		if len(trend) > trendLength {
			trend = trend[len(trend)-trendLength:]
		}
		parts = append(parts, "Trend: "+stats.Sparkline(trend, 0, 100))
	}
	return strings.Join(parts, "  ")
}

// The prompt keeps the tail of long input visible.
func (f *Formatter) fitInput(input string) string {
	limit := f.width - 2
	w := runewidth.StringWidth(input)
	if w <= limit {
		return input
	}
	return runewidth.TruncateLeft(input, w-limit+1, "…")
}

func (f *Formatter) muted(s string) string {
	if f.opts.NoColor {
		return s
	}
	return mutedStyle.Render(s)
}

// Screen is a display sink writing full frames to a raw-mode terminal.
type Screen struct {
	w io.Writer
	f *Formatter
}

// NewScreen returns a Screen writing to w.
func NewScreen(w io.Writer, f *Formatter) *Screen {
	return &Screen{w: w, f: f}
}

// Draw clears the terminal and writes the frame. Raw mode disables output
// post-processing, so line feeds are written as CRLF.
func (s *Screen) Draw(frame model.Frame) error {
	out := hideCursor + clearHome + toCRLF(s.f.Render(frame)) + showCursor
	if _, err := io.WriteString(s.w, out); err != nil {
		return fmt.Errorf("failed to draw frame: %w", err)
	}
	return nil
}

// Clear wipes the terminal.
func (s *Screen) Clear() error {
	_, err := io.WriteString(s.w, clearHome+showCursor)
	return err
}

func toCRLF(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "\r\n")
}
