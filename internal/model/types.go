// Package model defines shared data structures.
package model

import (
	"strings"
	"time"
)

// Mood is the label inferred from typing cadence.
type Mood int

// Moods in cycle order.
const (
	Thoughtful Mood = iota
	Calm
	Neutral
	Happy
	Excited
	Mysterious
)

// Moods lists every mood in cycle order.
var Moods = []Mood{Thoughtful, Calm, Neutral, Happy, Excited, Mysterious}

func (m Mood) String() string {
	switch m {
	case Thoughtful:
		return "thoughtful"
	case Calm:
		return "calm"
	case Neutral:
		return "neutral"
	case Happy:
		return "happy"
	case Excited:
		return "excited"
	case Mysterious:
		return "mysterious"
	default:
		return "unknown"
	}
}

// Palette selects the grid size and glyph set.
type Palette string

// Palette modes.
const (
	PaletteAuto  Palette = "auto"
	PaletteRich  Palette = "rich"
	PaletteASCII Palette = "ascii"
)

// ParsePalette normalizes a palette name.
func ParsePalette(s string) (Palette, bool) {
	switch p := Palette(strings.ToLower(strings.TrimSpace(s))); p {
	case PaletteAuto, PaletteRich, PaletteASCII:
		return p, true
	default:
		return "", false
	}
}

// Config defines session settings.
type Config struct {
	Palette      Palette
	Tick         time.Duration
	IdleAfter    time.Duration
	MysteryAfter time.Duration
	Window       int
	Seed         int64
	LogFile      string
	NoColor      bool
}

// MoodState is the shared mood record owned by the session coordinator.
type MoodState struct {
	Mood         Mood
	Score        int
	Evolution    int
	LastActivity time.Time
}

// Grid is one frame of glyph cells, indexed [y][x].
type Grid [][]rune

// Lines returns the grid rows as strings.
func (g Grid) Lines() []string {
	out := make([]string, len(g))
	for i, row := range g {
		out[i] = string(row)
	}
	return out
}

// Frame is the renderable unit handed to a display sink.
type Frame struct {
	State  MoodState
	Grid   Grid
	Input  string
	AvgWPM float64
	HasWPM bool
	Trend  []float64
}

// Phase is the coordinator lifecycle state.
type Phase int

// Coordinator phases.
const (
	PhaseStarting Phase = iota
	PhaseRunning
	PhaseShuttingDown
	PhaseStopped
)

func (p Phase) String() string {
	switch p {
	case PhaseStarting:
		return "starting"
	case PhaseRunning:
		return "running"
	case PhaseShuttingDown:
		return "shutting-down"
	case PhaseStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Summary describes a finished session.
type Summary struct {
	FinalMood    Mood
	FinalScore   int
	AverageScore float64
	Ticks        int
	MoodTicks    map[Mood]int
	Scores       []int
	Samples      int
	AvgWPM       float64
	HasWPM       bool
}
