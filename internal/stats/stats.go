// Package stats keeps session-local score history and renders summaries.
package stats

import (
	"math"
	"strings"

	"github.com/verte-zerg/moodring/internal/model"
)

const sparkChars = " .:-=+*#%@"

// DefaultHistory is the number of recent scores kept for plots.
const DefaultHistory = 600

// History records the score observed on every render tick.
type History struct {
	limit  int
	recent []int
	count  int
	sum    int
	byMood map[model.Mood]int
}

// NewHistory returns a History keeping at most limit recent scores.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistory
	}
	return &History{limit: limit, byMood: map[model.Mood]int{}}
}

// Add records one tick.
func (h *History) Add(m model.Mood, score int) {
	h.count++
	h.sum += score
	h.byMood[m]++
	if len(h.recent) == h.limit {
		copy(h.recent, h.recent[1:])
		h.recent = h.recent[:h.limit-1]
	}
	h.recent = append(h.recent, score)
}

// Count returns the number of recorded ticks.
func (h *History) Count() int { return h.count }

// Average returns the mean score over every recorded tick.
func (h *History) Average() float64 {
	if h.count == 0 {
		return 0
	}
	return float64(h.sum) / float64(h.count)
}

// Recent returns a copy of the most recent scores, oldest first.
func (h *History) Recent() []int {
	out := make([]int, len(h.recent))
	copy(out, h.recent)
	return out
}

// Tail returns the last n scores as floats.
func (h *History) Tail(n int) []float64 {
	if n <= 0 || n > len(h.recent) {
		n = len(h.recent)
	}
	tail := h.recent[len(h.recent)-n:]
	out := make([]float64, len(tail))
	for i, v := range tail {
		out[i] = float64(v)
	}
	return out
}

// MoodCounts returns ticks spent in each mood.
func (h *History) MoodCounts() map[model.Mood]int {
	out := make(map[model.Mood]int, len(h.byMood))
	for k, v := range h.byMood {
		out[k] = v
	}
	return out
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline scaled to [lo, hi].
func Sparkline(values []float64, lo, hi float64) string {
	if len(values) == 0 {
		return ""
	}
	if math.Abs(hi-lo) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - lo) / (hi - lo)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}
