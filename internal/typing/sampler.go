// Package typing turns character arrival times into typing-speed samples.
package typing

import "time"

const (
	// MinElapsed is the shortest boundary interval that yields a sample.
	MinElapsed = 100 * time.Millisecond
	// DefaultWindow is the rolling window size.
	DefaultWindow = 10
	charsPerWord  = 5.0
)

// WordsPerMinute approximates WPM as (chars / 5) / minutes.
func WordsPerMinute(chars int, elapsed time.Duration) float64 {
	minutes := elapsed.Minutes()
	if minutes <= 0 {
		return 0
	}
	return (float64(chars) / charsPerWord) / minutes
}

// Sampler counts characters between word or line boundaries and keeps the
// most recent WPM samples in a bounded FIFO window.
type Sampler struct {
	window   []float64
	size     int
	count    int
	start    time.Time
	lastChar time.Time
	total    int
}

// NewSampler returns a sampler whose boundary clock starts at now.
func NewSampler(size int, now time.Time) *Sampler {
	if size <= 0 {
		size = DefaultWindow
	}
	return &Sampler{
		window: make([]float64, 0, size),
		size:   size,
		start:  now,
	}
}

// RecordChar counts one typed character.
func (s *Sampler) RecordChar(now time.Time) {
	s.count++
	s.lastChar = now
}

// RecordBoundary closes the current word when enough time has passed and at
// least one character was typed. It reports whether a sample was pushed.
func (s *Sampler) RecordBoundary(now time.Time) bool {
	elapsed := now.Sub(s.start)
	if elapsed < MinElapsed || s.count == 0 {
		return false
	}
	s.Push(WordsPerMinute(s.count, elapsed))
	s.count = 0
	s.start = now
	return true
}

// Restart resets the character count and boundary clock.
func (s *Sampler) Restart(now time.Time) {
	s.count = 0
	s.start = now
}

// Push appends a sample, evicting the oldest one when the window is full.
func (s *Sampler) Push(wpm float64) {
	if len(s.window) == s.size {
		copy(s.window, s.window[1:])
		s.window = s.window[:s.size-1]
	}
	s.window = append(s.window, wpm)
	s.total++
}

// AverageSpeed returns the mean of the window, or false when it is empty.
func (s *Sampler) AverageSpeed() (float64, bool) {
	if len(s.window) == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range s.window {
		sum += v
	}
	return sum / float64(len(s.window)), true
}

// Samples returns a copy of the window, oldest first.
func (s *Sampler) Samples() []float64 {
	out := make([]float64, len(s.window))
	copy(out, s.window)
	return out
}

// Len returns the number of samples in the window.
func (s *Sampler) Len() int { return len(s.window) }

// Total returns the number of samples ever pushed.
func (s *Sampler) Total() int { return s.total }

// Pending returns the characters counted since the last boundary.
func (s *Sampler) Pending() int { return s.count }

// LastChar returns the time of the most recent character.
func (s *Sampler) LastChar() time.Time { return s.lastChar }
