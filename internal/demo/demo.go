// Package demo cycles through every mood on a timer without reading input.
package demo

import (
	"math/rand"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/moodring/internal/display"
	"github.com/verte-zerg/moodring/internal/model"
	"github.com/verte-zerg/moodring/internal/mood"
	"github.com/verte-zerg/moodring/internal/pattern"
	"github.com/verte-zerg/moodring/internal/stats"
)

// FramesPerMood is how many ticks each mood is shown for.
const FramesPerMood = 10

const trendTicks = 40

// The cycle starts on neutral.
var startIndex = moodIndex(model.Neutral)

func moodIndex(m model.Mood) int {
	for i, v := range model.Moods {
		if v == m {
			return i
		}
	}
	return 0
}

type tickMsg time.Time

type keyMap struct {
	Quit  key.Binding
	Pause key.Binding
	Next  key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pause, k.Next, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

func newKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Pause: key.NewBinding(
			key.WithKeys("p", " "),
			key.WithHelp("p", "pause"),
		),
		Next: key.NewBinding(
			key.WithKeys("n", "right"),
			key.WithHelp("n", "next mood"),
		),
	}
}

// Model implements the demo as a Bubble Tea program.
type Model struct {
	interval  time.Duration
	formatter *display.Formatter
	renderer  *pattern.Renderer
	rnd       *rand.Rand
	keys      keyMap
	help      help.Model
	history   *stats.History
	log       zerolog.Logger

	state  model.MoodState
	index  int
	frame  int
	grid   model.Grid
	paused bool
	width  int
	height int
}

// New returns a demo model for the given configuration.
func New(cfg model.Config, log zerolog.Logger) *Model {
	palette := cfg.Palette
	if palette != model.PaletteASCII {
		palette = model.PaletteRich
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	interval := cfg.Tick
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}

	keys := newKeyMap()
	h := help.New()
	if cfg.NoColor {
		h.Styles = help.Styles{
			ShortKey:       lipgloss.NewStyle(),
			ShortDesc:      lipgloss.NewStyle(),
			ShortSeparator: lipgloss.NewStyle(),
			Ellipsis:       lipgloss.NewStyle(),
			FullKey:        lipgloss.NewStyle(),
			FullDesc:       lipgloss.NewStyle(),
			FullSeparator:  lipgloss.NewStyle(),
		}
	}
	opts := display.DemoOptions(palette, cfg.NoColor)
	opts.Hint = h.ShortHelpView(keys.ShortHelp())

	m := &Model{
		interval:  interval,
		formatter: display.NewFormatter(opts),
		renderer:  pattern.New(pattern.For(palette), seed),
		rnd:       rand.New(rand.NewSource(seed + 1)),
		keys:      keys,
		help:      h,
		history:   stats.NewHistory(stats.DefaultHistory),
		log:       log,
		index:     startIndex,
		state:     model.MoodState{Mood: model.Moods[startIndex], Score: 50, LastActivity: time.Now()},
	}
	m.redraw()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.tick()
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Pause):
			m.paused = !m.paused
			m.log.Debug().Bool("paused", m.paused).Msg("demo pause toggled")
		case key.Matches(msg, m.keys.Next):
			m.advanceMood()
			m.step()
		}
		return m, nil
	case tickMsg:
		if !m.paused {
			m.frame++
			if m.frame >= FramesPerMood {
				m.advanceMood()
			}
			m.step()
		}
		return m, m.tick()
	default:
		return m, nil
	}
}

func (m *Model) advanceMood() {
	m.frame = 0
	m.index = (m.index + 1) % len(model.Moods)
	m.state.Mood = model.Moods[m.index]
	m.log.Debug().Str("mood", m.state.Mood.String()).Msg("demo mood")
}

func (m *Model) step() {
	m.state.Score = mood.Steer(m.state.Mood, m.state.Score, m.rnd)
	m.state.Evolution++
	m.state.LastActivity = time.Now()
	m.history.Add(m.state.Mood, m.state.Score)
	m.redraw()
}

// The grid is drawn once per step so repeated View calls do not reshuffle it.
func (m *Model) redraw() {
	m.grid = m.renderer.Render(m.state.Mood, m.state.Score, m.state.Evolution)
}

// View implements tea.Model.
func (m *Model) View() string {
	content := m.formatter.Render(model.Frame{
		State: m.state,
		Grid:  m.grid,
		Trend: stats.MovingAverage(m.history.Tail(trendTicks), 2),
	})
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

// State returns the current mood state.
func (m *Model) State() model.MoodState {
	return m.state
}

// Summary describes the demo run.
func (m *Model) Summary() model.Summary {
	return stats.Summarize(m.history, m.state, 0, 0, false)
}
