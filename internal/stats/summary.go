package stats

import (
	"fmt"
	"io"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/verte-zerg/moodring/internal/model"
)

const (
	plotHeight = 8
	plotWidth  = 60
)

// Summarize builds the exit summary from the history and final state. With no
// recorded ticks the score never changed, so the average is the final score.
func Summarize(h *History, final model.MoodState, samples int, avgWPM float64, hasWPM bool) model.Summary {
	avg := h.Average()
	if h.Count() == 0 {
		avg = float64(final.Score)
	}
	return model.Summary{
		FinalMood:    final.Mood,
		FinalScore:   final.Score,
		AverageScore: avg,
		Ticks:        h.Count(),
		MoodTicks:    h.MoodCounts(),
		Scores:       h.Recent(),
		Samples:      samples,
		AvgWPM:       avgWPM,
		HasWPM:       hasWPM,
	}
}

// RenderSummary prints the exit summary: final mood, scores, time per mood
// and a plot of the score history.
func RenderSummary(w io.Writer, s model.Summary) error {
	lines := []string{
		"Thanks for sharing your digital mood!",
		fmt.Sprintf("Your final mood was: %s", s.FinalMood),
		fmt.Sprintf("Final mood score: %d%%", s.FinalScore),
		fmt.Sprintf("Average mood score: %.1f%%", s.AverageScore),
	}
	if s.HasWPM {
		lines = append(lines, fmt.Sprintf("Average typing speed: ~%.0f WPM over %d samples", s.AvgWPM, s.Samples))
	}
	lines = append(lines, "")
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if s.Ticks == 0 {
		return nil
	}
	if err := renderMoodTable(w, s); err != nil {
		return err
	}
	return renderScorePlot(w, s.Scores)
}

func renderMoodTable(w io.Writer, s model.Summary) error {
	headers := []string{"Mood", "Ticks", "Share"}
	rows := make([][]string, 0, len(model.Moods))
	for _, m := range model.Moods {
		n := s.MoodTicks[m]
		if n == 0 {
			continue
		}
		rows = append(rows, []string{
			m.String(),
			fmt.Sprintf("%d", n),
			fmt.Sprintf("%.1f%%", float64(n)/float64(s.Ticks)*100),
		})
	}
	for _, line := range formatTable(headers, rows, map[int]bool{1: true, 2: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

func renderScorePlot(w io.Writer, scores []int) error {
	if len(scores) < 2 {
		return nil
	}
	data := make([]float64, len(scores))
	for i, v := range scores {
		data[i] = float64(v)
	}
	width := plotWidth
	if len(data) < width {
		width = len(data)
	}
	graph := asciigraph.Plot(data,
		asciigraph.Height(plotHeight),
		asciigraph.Width(width),
		asciigraph.LowerBound(0),
		asciigraph.UpperBound(100),
		asciigraph.Caption("mood score per tick"),
	)
	_, err := fmt.Fprintln(w, strings.TrimRight(graph, "\n"))
	return err
}
