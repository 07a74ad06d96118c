// Package session runs a live mood session: a render loop and an input loop
// sharing one mutex-guarded mood state.
package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/muesli/cancelreader"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/moodring/internal/linebuf"
	"github.com/verte-zerg/moodring/internal/model"
	"github.com/verte-zerg/moodring/internal/mood"
	"github.com/verte-zerg/moodring/internal/pattern"
	"github.com/verte-zerg/moodring/internal/stats"
	"github.com/verte-zerg/moodring/internal/typing"
)

const (
	// DefaultTick is the render interval.
	DefaultTick = 500 * time.Millisecond
	// DefaultIdleAfter is the pause after which idle drift starts.
	DefaultIdleAfter = 3 * time.Second
	// DefaultMysteryAfter is the pause after which the mood turns mysterious.
	DefaultMysteryAfter = 20 * time.Second

	initialScore = 50
	trendTicks   = 40
)

// ErrRawMode marks a session that never started because the terminal could
// not be acquired.
var ErrRawMode = errors.New("failed to enter raw input mode")

var (
	errQuit        = errors.New("quit requested")
	errInterrupted = errors.New("interrupted")
)

// Input is a character source whose blocking reads can be cancelled.
type Input interface {
	io.Reader
	Cancel() bool
	Close() error
}

// Terminal is the raw-mode capability acquired for the life of a session.
type Terminal interface {
	Acquire() (Input, error)
	Release() error
}

// Sink receives one frame per tick.
type Sink interface {
	Draw(model.Frame) error
}

// Option customizes a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the diagnostic logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Coordinator) { c.log = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// Coordinator owns the mood state and runs both session activities.
type Coordinator struct {
	cfg      model.Config
	term     Terminal
	sink     Sink
	rules    mood.Rules
	renderer *pattern.Renderer
	now      func() time.Time
	log      zerolog.Logger

	mu      sync.Mutex
	phase   model.Phase
	state   model.MoodState
	line    linebuf.Buffer
	sampler *typing.Sampler
	pending int
	history *stats.History
	rnd     *rand.Rand
}

// New returns a Coordinator. Zero config durations fall back to defaults.
func New(cfg model.Config, term Terminal, sink Sink, opts ...Option) *Coordinator {
	cfg = withDefaults(cfg)
	c := &Coordinator{
		cfg:      cfg,
		term:     term,
		sink:     sink,
		rules:    mood.RulesFor(cfg.Palette),
		renderer: pattern.New(pattern.For(cfg.Palette), cfg.Seed),
		now:      time.Now,
		log:      zerolog.Nop(),
		rnd:      rand.New(rand.NewSource(cfg.Seed + 1)),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.reset(c.now())
	return c
}

func withDefaults(cfg model.Config) model.Config {
	if cfg.Tick <= 0 {
		cfg.Tick = DefaultTick
	}
	if cfg.IdleAfter <= 0 {
		cfg.IdleAfter = DefaultIdleAfter
	}
	if cfg.MysteryAfter < 0 {
		cfg.MysteryAfter = 0
	}
	if cfg.Window <= 0 {
		cfg.Window = typing.DefaultWindow
	}
	if cfg.Palette != model.PaletteASCII {
		cfg.Palette = model.PaletteRich
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	return cfg
}

func (c *Coordinator) reset(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.phase = model.PhaseStarting
	c.state = model.MoodState{Mood: model.Neutral, Score: initialScore, LastActivity: now}
	c.line.Reset()
	c.sampler = typing.NewSampler(c.cfg.Window, now)
	c.pending = 0
	c.history = stats.NewHistory(stats.DefaultHistory)
}

// Run acquires the terminal, runs the session until quit, interrupt or
// context cancellation, and always releases the terminal before returning.
func (c *Coordinator) Run(ctx context.Context) (summary model.Summary, err error) {
	c.reset(c.now())
	in, err := c.term.Acquire()
	if err != nil {
		c.setPhase(model.PhaseStopped)
		return model.Summary{}, fmt.Errorf("%w: %w", ErrRawMode, err)
	}
	defer func() {
		if rerr := c.term.Release(); rerr != nil {
			c.log.Error().Err(rerr).Msg("failed to restore terminal")
			if err == nil {
				err = fmt.Errorf("failed to restore terminal: %w", rerr)
			}
		}
		c.setPhase(model.PhaseStopped)
		c.log.Info().Str("mood", summary.FinalMood.String()).Int("score", summary.FinalScore).Msg("session stopped")
	}()

	g, gctx := errgroup.WithContext(ctx)
	c.setPhase(model.PhaseRunning)
	c.log.Info().Dur("tick", c.cfg.Tick).Str("palette", string(c.cfg.Palette)).Msg("session running")

	g.Go(func() error { return c.renderLoop(gctx) })
	g.Go(func() error { return c.inputLoop(gctx, in) })
	g.Go(func() error {
		<-gctx.Done()
		c.setPhase(model.PhaseShuttingDown)
		in.Cancel()
		return nil
	})

	err = g.Wait()
	switch {
	case errors.Is(err, errQuit), errors.Is(err, errInterrupted):
		c.log.Info().Err(err).Msg("shutdown requested")
		err = nil
	case err != nil:
		c.log.Error().Err(err).Msg("session failed")
	}
	return c.Summary(), err
}

func (c *Coordinator) renderLoop(ctx context.Context) error {
	if err := c.sink.Draw(c.Frame()); err != nil {
		return err
	}
	ticker := time.NewTicker(c.cfg.Tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := c.sink.Draw(c.Tick(c.now())); err != nil {
				return err
			}
		}
	}
}

func (c *Coordinator) inputLoop(ctx context.Context, in io.Reader) error {
	reader := bufio.NewReader(in)
	for {
		r, _, err := reader.ReadRune()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, cancelreader.ErrCanceled) {
				return nil
			}
			if errors.Is(err, io.EOF) {
				return errQuit
			}
			return fmt.Errorf("failed to read input: %w", err)
		}
		if err := c.HandleRune(r, c.now()); err != nil {
			return err
		}
	}
}

// HandleRune feeds one input character. It returns a shutdown sentinel when
// the character ends the session.
func (c *Coordinator) HandleRune(r rune, now time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	ev := c.line.Feed(r)
	switch ev.State {
	case linebuf.Interrupted:
		return errInterrupted
	case linebuf.QuitDetected:
		return errQuit
	case linebuf.LineComplete:
		c.boundary(now)
		c.sampler.Restart(now)
	case linebuf.AccumulatingLine:
		if !ev.Typed {
			return nil
		}
		c.sampler.RecordChar(now)
		c.state.LastActivity = now
		if ev.Boundary {
			c.boundary(now)
		}
	}
	return nil
}

func (c *Coordinator) boundary(now time.Time) {
	if c.sampler.RecordBoundary(now) {
		c.pending++
		return
	}
	if c.sampler.Pending() > 0 {
		c.log.Debug().Int("chars", c.sampler.Pending()).Msg("boundary too fast, sample discarded")
	}
}

// Tick advances the evolution counter, applies one mood update and returns a
// consistent frame.
func (c *Coordinator) Tick(now time.Time) model.Frame {
	c.mu.Lock()
	c.state.Evolution++
	c.update(now)
	c.history.Add(c.state.Mood, c.state.Score)
	snap := c.snapshotLocked()
	c.mu.Unlock()
	return c.render(snap)
}

// Frame returns the current frame without advancing the session.
func (c *Coordinator) Frame() model.Frame {
	c.mu.Lock()
	snap := c.snapshotLocked()
	c.mu.Unlock()
	return c.render(snap)
}

// Speed updates and idle updates never both apply on one tick.
func (c *Coordinator) update(now time.Time) {
	if c.pending > 0 {
		c.pending = 0
		avg, ok := c.sampler.AverageSpeed()
		if !ok {
			return
		}
		prev := c.state.Mood
		c.state.Mood, c.state.Score = c.rules.Estimate(avg, c.state.Score)
		if prev != c.state.Mood {
			c.log.Debug().Float64("wpm", avg).Str("from", prev.String()).Str("to", c.state.Mood.String()).Msg("mood changed")
		}
		return
	}
	idle := now.Sub(c.state.LastActivity)
	if idle <= c.cfg.IdleAfter {
		return
	}
	if c.cfg.MysteryAfter > 0 && idle > c.cfg.MysteryAfter && c.state.Mood != model.Mysterious {
		c.state.Mood = model.Mysterious
		c.state.Score = mood.Resample(c.rnd)
		c.log.Debug().Dur("idle", idle).Int("score", c.state.Score).Msg("mood turned mysterious")
		return
	}
	c.state.Score = mood.Drift(c.state.Score, c.rnd)
}

type snapshot struct {
	state  model.MoodState
	input  string
	avg    float64
	hasAvg bool
	trend  []float64
}

func (c *Coordinator) snapshotLocked() snapshot {
	avg, ok := c.sampler.AverageSpeed()
	return snapshot{
		state:  c.state,
		input:  c.line.String(),
		avg:    avg,
		hasAvg: ok,
		trend:  stats.MovingAverage(c.history.Tail(trendTicks), 2),
	}
}

// Grid rendering happens outside the lock and only on the render loop.
func (c *Coordinator) render(s snapshot) model.Frame {
	return model.Frame{
		State:  s.state,
		Grid:   c.renderer.Render(s.state.Mood, s.state.Score, s.state.Evolution),
		Input:  s.input,
		AvgWPM: s.avg,
		HasWPM: s.hasAvg,
		Trend:  s.trend,
	}
}

// State returns a copy of the current mood state.
func (c *Coordinator) State() model.MoodState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Phase returns the lifecycle phase.
func (c *Coordinator) Phase() model.Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

func (c *Coordinator) setPhase(p model.Phase) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == p {
		return
	}
	c.log.Debug().Str("from", c.phase.String()).Str("to", p.String()).Msg("phase")
	c.phase = p
}

// Summary describes the session so far.
func (c *Coordinator) Summary() model.Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	avg, ok := c.sampler.AverageSpeed()
	return stats.Summarize(c.history, c.state, c.sampler.Total(), avg, ok)
}
