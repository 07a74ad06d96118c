// Package terminal owns raw-mode acquisition for the controlling terminal.
package terminal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/muesli/cancelreader"
	"golang.org/x/term"

	"github.com/verte-zerg/moodring/internal/model"
	"github.com/verte-zerg/moodring/internal/session"
)

const (
	// MinRichWidth is the narrowest terminal that fits the rich palette.
	MinRichWidth = 64
	widthBackup  = 80
)

// ErrNotTerminal is returned when the input is not an interactive terminal.
var ErrNotTerminal = errors.New("input is not a terminal")

// Raw switches a terminal into raw mode and restores it on Release.
type Raw struct {
	in *os.File

	mu     sync.Mutex
	state  *term.State
	reader cancelreader.CancelReader
}

// New returns a Raw for the given input file, usually os.Stdin.
func New(in *os.File) *Raw {
	return &Raw{in: in}
}

// Acquire enters raw mode and returns a cancelable reader over the input.
// On failure the terminal is left as it was.
func (r *Raw) Acquire() (session.Input, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != nil {
		return nil, errors.New("terminal already acquired")
	}
	fd := int(r.in.Fd())
	if !term.IsTerminal(fd) {
		return nil, ErrNotTerminal
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("failed to set raw mode: %w", err)
	}
	reader, err := cancelreader.NewReader(r.in)
	if err != nil {
		if rerr := term.Restore(fd, state); rerr != nil {
			return nil, errors.Join(fmt.Errorf("failed to create input reader: %w", err), rerr)
		}
		return nil, fmt.Errorf("failed to create input reader: %w", err)
	}
	r.state = state
	r.reader = reader
	return reader, nil
}

// Release closes the input reader and restores the saved terminal mode. It
// is safe to call more than once.
func (r *Raw) Release() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == nil {
		return nil
	}
	var errs []error
	if r.reader != nil {
		if err := r.reader.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close input reader: %w", err))
		}
		r.reader = nil
	}
	if err := term.Restore(int(r.in.Fd()), r.state); err != nil {
		errs = append(errs, fmt.Errorf("failed to restore terminal mode: %w", err))
	}
	r.state = nil
	return errors.Join(errs...)
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Width returns the column count of f, or 80 when it cannot be determined.
func Width(f *os.File) int {
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return widthBackup
	}
	return width
}

// ShouldUseColor reports whether styled output should be written to w.
func ShouldUseColor(w io.Writer, noColor bool) bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

// ResolvePalette turns PaletteAuto into a concrete palette for out.
func ResolvePalette(p model.Palette, out *os.File) model.Palette {
	if p != model.PaletteAuto && p != "" {
		return p
	}
	return resolvePalette(os.Getenv("TERM"), Width(out))
}

func resolvePalette(termEnv string, width int) model.Palette {
	if termEnv == "dumb" || width < MinRichWidth {
		return model.PaletteASCII
	}
	return model.PaletteRich
}
