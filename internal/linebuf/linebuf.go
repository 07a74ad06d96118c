// Package linebuf holds the line being typed and classifies raw input
// characters one at a time.
package linebuf

import "strings"

// State is the outcome of feeding one character.
type State int

// Buffer states.
const (
	AccumulatingLine State = iota
	LineComplete
	QuitDetected
	Interrupted
)

func (s State) String() string {
	switch s {
	case AccumulatingLine:
		return "accumulating"
	case LineComplete:
		return "line-complete"
	case QuitDetected:
		return "quit"
	case Interrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// QuitCommand ends the session when typed as a whole line.
const QuitCommand = "quit"

const (
	keyCtrlC     = 0x03
	keyCtrlD     = 0x04
	keyBackspace = 0x08
	keyEscape    = 0x1b
	keyDelete    = 0x7f
)

type escState int

const (
	escNone escState = iota
	escStart
	escCSI
)

// Event describes what a fed character did.
type Event struct {
	State State
	// Line is the finished line for LineComplete and QuitDetected.
	Line string
	// Typed is set when the character was appended to the line.
	Typed bool
	// Boundary is set when the typed character separates words.
	Boundary bool
}

// Buffer accumulates a line from raw characters.
type Buffer struct {
	runes []rune
	esc   escState
}

// Feed consumes one character.
func (b *Buffer) Feed(r rune) Event {
	if b.esc != escNone && b.feedEscape(r) {
		return Event{State: AccumulatingLine}
	}
	switch r {
	case '\r', '\n':
		line := string(b.runes)
		b.runes = b.runes[:0]
		if IsQuit(line) {
			return Event{State: QuitDetected, Line: line}
		}
		return Event{State: LineComplete, Line: line}
	case keyCtrlC:
		b.runes = b.runes[:0]
		return Event{State: Interrupted}
	case keyCtrlD:
		b.runes = b.runes[:0]
		return Event{State: QuitDetected}
	case keyBackspace, keyDelete:
		if len(b.runes) > 0 {
			b.runes = b.runes[:len(b.runes)-1]
		}
		return Event{State: AccumulatingLine}
	case keyEscape:
		b.esc = escStart
		return Event{State: AccumulatingLine}
	}
	if r < 0x20 && r != '\t' {
		return Event{State: AccumulatingLine}
	}
	b.runes = append(b.runes, r)
	return Event{State: AccumulatingLine, Typed: true, Boundary: r == ' '}
}

// Arrow keys and friends arrive as ESC [ params final. feedEscape reports
// whether r belonged to the sequence; after a lone ESC the next character is
// handled normally.
func (b *Buffer) feedEscape(r rune) bool {
	switch b.esc {
	case escStart:
		if r == '[' || r == 'O' {
			b.esc = escCSI
			return true
		}
		b.esc = escNone
		return false
	case escCSI:
		if r >= 0x40 && r <= 0x7e {
			b.esc = escNone
		}
		return true
	}
	return false
}

// String returns the current line.
func (b *Buffer) String() string {
	return string(b.runes)
}

// Len returns the number of runes in the current line.
func (b *Buffer) Len() int { return len(b.runes) }

// Reset clears the line and any pending escape sequence.
func (b *Buffer) Reset() {
	b.runes = b.runes[:0]
	b.esc = escNone
}

// IsQuit reports whether a line is the quit command, ignoring case and
// surrounding space.
func IsQuit(line string) bool {
	return strings.EqualFold(strings.TrimSpace(line), QuitCommand)
}
