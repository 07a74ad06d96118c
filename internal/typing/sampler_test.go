package typing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWordsPerMinute(t *testing.T) {
	// 25 chars in 15s is 5 words in a quarter minute.
	assert.InDelta(t, 20.0, WordsPerMinute(25, 15*time.Second), 1e-9)
	assert.Equal(t, 0.0, WordsPerMinute(10, 0))
}

func TestRecordBoundaryComputesSample(t *testing.T) {
	start := time.Unix(0, 0)
	s := NewSampler(DefaultWindow, start)
	for i := 0; i < 10; i++ {
		s.RecordChar(start.Add(time.Duration(i) * time.Second))
	}

	require.True(t, s.RecordBoundary(start.Add(30*time.Second)))
	avg, ok := s.AverageSpeed()
	require.True(t, ok)
	assert.InDelta(t, 4.0, avg, 1e-9)
	assert.Equal(t, 0, s.Pending())
}

func TestRecordBoundaryDiscardsShortInterval(t *testing.T) {
	start := time.Unix(0, 0)
	s := NewSampler(DefaultWindow, start)
	s.RecordChar(start.Add(10 * time.Millisecond))
	s.RecordChar(start.Add(20 * time.Millisecond))

	assert.False(t, s.RecordBoundary(start.Add(50*time.Millisecond)))
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 2, s.Pending(), "discarded boundary keeps the count")

	require.True(t, s.RecordBoundary(start.Add(MinElapsed)))
	assert.Equal(t, 1, s.Len())
}

func TestRecordBoundaryNeedsCharacters(t *testing.T) {
	start := time.Unix(0, 0)
	s := NewSampler(DefaultWindow, start)
	assert.False(t, s.RecordBoundary(start.Add(time.Minute)))
	_, ok := s.AverageSpeed()
	assert.False(t, ok)
}

func TestWindowEvictsOldest(t *testing.T) {
	s := NewSampler(DefaultWindow, time.Unix(0, 0))
	for i := 1; i <= 11; i++ {
		s.Push(float64(i))
	}
	require.Equal(t, 10, s.Len())
	samples := s.Samples()
	assert.Equal(t, 2.0, samples[0])
	assert.Equal(t, 11.0, samples[9])
	assert.Equal(t, 11, s.Total())
}

func TestAverageSpeedScenarios(t *testing.T) {
	s := NewSampler(DefaultWindow, time.Unix(0, 0))
	for _, v := range []float64{10, 15, 12} {
		s.Push(v)
	}
	avg, ok := s.AverageSpeed()
	require.True(t, ok)
	assert.InDelta(t, 12.333, avg, 0.001)

	s = NewSampler(DefaultWindow, time.Unix(0, 0))
	s.Push(90)
	s.Push(95)
	avg, _ = s.AverageSpeed()
	assert.InDelta(t, 92.5, avg, 1e-9)
}

func TestRestart(t *testing.T) {
	start := time.Unix(0, 0)
	s := NewSampler(DefaultWindow, start)
	s.RecordChar(start)
	s.Restart(start.Add(time.Second))
	assert.Equal(t, 0, s.Pending())
	s.RecordChar(start.Add(2 * time.Second))
	require.True(t, s.RecordBoundary(start.Add(13*time.Second)))
	samples := s.Samples()
	assert.InDelta(t, 1.0, samples[0], 1e-9)
}
