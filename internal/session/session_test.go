package session

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/muesli/cancelreader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/moodring/internal/model"
	"github.com/verte-zerg/moodring/internal/mood"
)

type pipeInput struct {
	*io.PipeReader
	w *io.PipeWriter
}

func (p *pipeInput) Cancel() bool {
	_ = p.w.CloseWithError(cancelreader.ErrCanceled)
	return true
}

func (p *pipeInput) Close() error {
	return p.PipeReader.Close()
}

type fakeTerminal struct {
	mu         sync.Mutex
	in         *pipeInput
	acquireErr error
	acquired   int
	released   int
}

func newFakeTerminal() *fakeTerminal {
	r, w := io.Pipe()
	return &fakeTerminal{in: &pipeInput{PipeReader: r, w: w}}
}

func (t *fakeTerminal) Acquire() (Input, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.acquireErr != nil {
		return nil, t.acquireErr
	}
	t.acquired++
	return t.in, nil
}

func (t *fakeTerminal) Release() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.released++
	return nil
}

func (t *fakeTerminal) counts() (int, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.acquired, t.released
}

// typeText writes s to the input; write errors after shutdown are ignored.
func (t *fakeTerminal) typeText(s string) {
	go func() {
		_, _ = io.WriteString(t.in.w, s)
	}()
}

type recordingSink struct {
	mu     sync.Mutex
	frames []model.Frame
	err    error
}

func (s *recordingSink) Draw(f model.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.frames = append(s.frames, f)
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func testConfig() model.Config {
	return model.Config{
		Palette:      model.PaletteRich,
		Tick:         5 * time.Millisecond,
		IdleAfter:    3 * time.Second,
		MysteryAfter: 10 * time.Second,
		Window:       10,
		Seed:         42,
	}
}

func runWithTimeout(t *testing.T, ctx context.Context, c *Coordinator) (model.Summary, error) {
	t.Helper()
	type result struct {
		summary model.Summary
		err     error
	}
	done := make(chan result, 1)
	go func() {
		s, err := c.Run(ctx)
		done <- result{s, err}
	}()
	select {
	case res := <-done:
		return res.summary, res.err
	case <-time.After(5 * time.Second):
		t.Fatal("session did not stop")
		return model.Summary{}, nil
	}
}

func TestRunQuitReleasesTerminal(t *testing.T) {
	term := newFakeTerminal()
	sink := &recordingSink{}
	c := New(testConfig(), term, sink)

	term.typeText("hello there\rQuIt\r")
	summary, err := runWithTimeout(t, context.Background(), c)
	require.NoError(t, err)

	acquired, released := term.counts()
	assert.Equal(t, 1, acquired)
	assert.Equal(t, 1, released)
	assert.Equal(t, model.PhaseStopped, c.Phase())
	assert.GreaterOrEqual(t, sink.count(), 1)
	assert.GreaterOrEqual(t, summary.FinalScore, mood.MinScore)
	assert.LessOrEqual(t, summary.FinalScore, mood.MaxScore)
}

func TestRunQuitBeforeFirstTick(t *testing.T) {
	term := newFakeTerminal()
	cfg := testConfig()
	cfg.Tick = DefaultTick
	c := New(cfg, term, &recordingSink{})

	term.typeText("quit\r")
	summary, err := runWithTimeout(t, context.Background(), c)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Ticks)
	assert.Equal(t, model.Neutral, summary.FinalMood)
	assert.Equal(t, 50, summary.FinalScore)
	assert.InDelta(t, 50.0, summary.AverageScore, 1e-9)
}

func TestRunContextCancelUnblocksInput(t *testing.T) {
	term := newFakeTerminal()
	sink := &recordingSink{}
	c := New(testConfig(), term, sink)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := runWithTimeout(t, ctx, c)
	require.NoError(t, err)

	_, released := term.counts()
	assert.Equal(t, 1, released)
	assert.Equal(t, model.PhaseStopped, c.Phase())
	assert.Greater(t, sink.count(), 1)
}

func TestRunInterruptAndEOF(t *testing.T) {
	t.Run("ctrl-c", func(t *testing.T) {
		term := newFakeTerminal()
		c := New(testConfig(), term, &recordingSink{})
		term.typeText("abc\x03")
		_, err := runWithTimeout(t, context.Background(), c)
		require.NoError(t, err)
		_, released := term.counts()
		assert.Equal(t, 1, released)
	})
	t.Run("eof", func(t *testing.T) {
		term := newFakeTerminal()
		c := New(testConfig(), term, &recordingSink{})
		require.NoError(t, term.in.w.Close())
		_, err := runWithTimeout(t, context.Background(), c)
		require.NoError(t, err)
		_, released := term.counts()
		assert.Equal(t, 1, released)
	})
}

func TestRunAcquireFailure(t *testing.T) {
	term := newFakeTerminal()
	term.acquireErr = errors.New("not a terminal")
	c := New(testConfig(), term, &recordingSink{})

	_, err := c.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to enter raw input mode")
	assert.Contains(t, err.Error(), "not a terminal")
	assert.ErrorIs(t, err, ErrRawMode)

	_, released := term.counts()
	assert.Equal(t, 0, released)
	assert.Equal(t, model.PhaseStopped, c.Phase())
}

func TestRunSinkErrorStillReleases(t *testing.T) {
	term := newFakeTerminal()
	sink := &recordingSink{err: errors.New("broken pipe")}
	c := New(testConfig(), term, sink)

	_, err := runWithTimeout(t, context.Background(), c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken pipe")
	_, released := term.counts()
	assert.Equal(t, 1, released)
}

func TestRunConcurrentTyping(t *testing.T) {
	term := newFakeTerminal()
	sink := &recordingSink{}
	cfg := testConfig()
	cfg.Tick = time.Millisecond
	c := New(cfg, term, sink)

	go func() {
		for _, word := range strings.Fields("the quick brown fox jumps over the lazy dog") {
			time.Sleep(3 * time.Millisecond)
			if _, err := io.WriteString(term.in.w, word+" "); err != nil {
				return
			}
		}
		_, _ = io.WriteString(term.in.w, "\rquit\r")
	}()

	summary, err := runWithTimeout(t, context.Background(), c)
	require.NoError(t, err)
	for _, s := range summary.Scores {
		assert.GreaterOrEqual(t, s, mood.MinScore)
		assert.LessOrEqual(t, s, mood.MaxScore)
	}
	assert.Equal(t, model.PhaseStopped, c.Phase())
}

func newTestCoordinator(cfg model.Config) *Coordinator {
	return New(cfg, newFakeTerminal(), &recordingSink{}, WithClock(func() time.Time { return t0 }))
}

func typeWord(t *testing.T, c *Coordinator, word string, start time.Time, gap time.Duration) time.Time {
	t.Helper()
	now := start
	for _, r := range word {
		now = now.Add(gap)
		require.NoError(t, c.HandleRune(r, now))
	}
	return now
}

func TestFastTypingTurnsExcited(t *testing.T) {
	c := newTestCoordinator(testConfig())

	// Five characters in half a second is 120 WPM.
	last := typeWord(t, c, "abcd ", t0, 100*time.Millisecond)
	frame := c.Tick(last.Add(100 * time.Millisecond))

	assert.Equal(t, model.Excited, frame.State.Mood)
	assert.Equal(t, 53, frame.State.Score)
	assert.Equal(t, 1, frame.State.Evolution)
	assert.True(t, frame.HasWPM)
	assert.InDelta(t, 120.0, frame.AvgWPM, 1e-9)
	assert.Equal(t, "abcd ", frame.Input)

	// No new sample and not idle: nothing changes.
	frame = c.Tick(last.Add(200 * time.Millisecond))
	assert.Equal(t, 53, frame.State.Score)
	assert.Equal(t, 2, frame.State.Evolution)
}

func TestSlowTypingTurnsThoughtful(t *testing.T) {
	c := newTestCoordinator(testConfig())

	last := typeWord(t, c, "hmm. ", t0, 6*time.Second)
	frame := c.Tick(last.Add(time.Second))

	assert.Equal(t, model.Thoughtful, frame.State.Mood)
	assert.Equal(t, 48, frame.State.Score)
}

func TestLineCompleteRecordsSample(t *testing.T) {
	c := newTestCoordinator(testConfig())

	last := typeWord(t, c, "hi", t0, 100*time.Millisecond)
	require.NoError(t, c.HandleRune('\r', last))
	frame := c.Tick(last.Add(10 * time.Millisecond))

	assert.Equal(t, model.Excited, frame.State.Mood)
	assert.Empty(t, frame.Input)
}

func TestTooFastBoundaryIsDiscarded(t *testing.T) {
	c := newTestCoordinator(testConfig())

	last := typeWord(t, c, "a ", t0, 10*time.Millisecond)
	frame := c.Tick(last.Add(10 * time.Millisecond))

	assert.False(t, frame.HasWPM)
	assert.Equal(t, model.Neutral, frame.State.Mood)
	assert.Equal(t, 50, frame.State.Score)
}

func TestIdleDriftStaysInBand(t *testing.T) {
	cfg := testConfig()
	cfg.MysteryAfter = 0
	c := newTestCoordinator(cfg)

	prev := c.State().Score
	for i := 1; i <= 200; i++ {
		st := c.Tick(t0.Add(4*time.Second + time.Duration(i)*time.Second)).State
		assert.Equal(t, model.Neutral, st.Mood)
		assert.GreaterOrEqual(t, st.Score, mood.DriftMin)
		assert.LessOrEqual(t, st.Score, mood.DriftMax)
		assert.LessOrEqual(t, abs(st.Score-prev), 2)
		prev = st.Score
	}
}

func TestLongIdleTurnsMysterious(t *testing.T) {
	c := newTestCoordinator(testConfig())

	st := c.Tick(t0.Add(5 * time.Second)).State
	assert.Equal(t, model.Neutral, st.Mood)

	st = c.Tick(t0.Add(11 * time.Second)).State
	assert.Equal(t, model.Mysterious, st.Mood)
	assert.GreaterOrEqual(t, st.Score, mood.DriftMin)
	assert.LessOrEqual(t, st.Score, mood.DriftMax)

	st = c.Tick(t0.Add(12 * time.Second)).State
	assert.Equal(t, model.Mysterious, st.Mood)

	// Typing again brings the speed rules back.
	last := typeWord(t, c, "abcd ", t0.Add(13*time.Second), 100*time.Millisecond)
	st = c.Tick(last.Add(10 * time.Millisecond)).State
	assert.NotEqual(t, model.Mysterious, st.Mood)
}

func TestHandleRuneShutdownSignals(t *testing.T) {
	c := newTestCoordinator(testConfig())

	typeWord(t, c, "QUIT", t0, 100*time.Millisecond)
	assert.ErrorIs(t, c.HandleRune('\r', t0.Add(time.Second)), errQuit)

	assert.ErrorIs(t, c.HandleRune(0x03, t0.Add(time.Second)), errInterrupted)
	assert.ErrorIs(t, c.HandleRune(0x04, t0.Add(time.Second)), errQuit)
	assert.NoError(t, c.HandleRune('x', t0.Add(time.Second)))
}

func TestControlKeysDoNotCountAsActivity(t *testing.T) {
	c := newTestCoordinator(testConfig())

	require.NoError(t, c.HandleRune(0x1b, t0.Add(time.Second)))
	require.NoError(t, c.HandleRune('[', t0.Add(time.Second)))
	require.NoError(t, c.HandleRune('A', t0.Add(time.Second)))

	assert.Equal(t, t0, c.State().LastActivity)
	assert.Empty(t, c.Frame().Input)
}

func TestSummaryTracksTicks(t *testing.T) {
	c := newTestCoordinator(testConfig())
	for i := 0; i < 5; i++ {
		c.Tick(t0.Add(time.Duration(i) * 100 * time.Millisecond))
	}
	s := c.Summary()
	assert.Equal(t, 5, s.Ticks)
	assert.Equal(t, map[model.Mood]int{model.Neutral: 5}, s.MoodTicks)
	assert.InDelta(t, 50.0, s.AverageScore, 1e-9)
	assert.False(t, s.HasWPM)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
