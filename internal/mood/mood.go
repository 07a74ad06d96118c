// Package mood maps typing speed to a mood label and score.
package mood

import (
	"math/rand"

	"github.com/verte-zerg/moodring/internal/model"
)

// Speed thresholds in WPM.
const (
	ThoughtfulBelow = 20.0
	CalmBelow       = 40.0
	NeutralBelow    = 60.0
	HappyBelow      = 80.0
)

const (
	// MinScore and MaxScore bound every score.
	MinScore = 0
	MaxScore = 100
	// DriftMin and DriftMax bound idle drift and mysterious resampling.
	DriftMin  = 20
	DriftMax  = 80
	driftStep = 2
)

// Rules holds the per-mood score update parameters.
type Rules struct {
	ThoughtfulFloor int
	ThoughtfulStep  int
	CalmStep        int
	CalmMin         int
	CalmMax         int
	NeutralMin      int
	NeutralMax      int
	HappyCap        int
	HappyStep       int
	ExcitedStep     int
}

// RichRules are the real-time terminal rules.
var RichRules = Rules{
	ThoughtfulFloor: 0,
	ThoughtfulStep:  2,
	CalmStep:        1,
	CalmMin:         30,
	CalmMax:         100,
	NeutralMin:      40,
	NeutralMax:      60,
	HappyCap:        100,
	HappyStep:       2,
	ExcitedStep:     3,
}

// ConstrainedRules are the stronger, narrower rules used with the ASCII palette.
var ConstrainedRules = Rules{
	ThoughtfulFloor: 10,
	ThoughtfulStep:  5,
	CalmStep:        2,
	CalmMin:         30,
	CalmMax:         70,
	NeutralMin:      40,
	NeutralMax:      60,
	HappyCap:        90,
	HappyStep:       3,
	ExcitedStep:     5,
}

// RulesFor returns the rules matching a palette.
func RulesFor(p model.Palette) Rules {
	if p == model.PaletteASCII {
		return ConstrainedRules
	}
	return RichRules
}

// Classify returns the mood for an average speed.
func Classify(avgSpeed float64) model.Mood {
	switch {
	case avgSpeed < ThoughtfulBelow:
		return model.Thoughtful
	case avgSpeed < CalmBelow:
		return model.Calm
	case avgSpeed < NeutralBelow:
		return model.Neutral
	case avgSpeed < HappyBelow:
		return model.Happy
	default:
		return model.Excited
	}
}

// Estimate maps an average speed and the current score to a mood and a new
// score. It is pure: equal inputs give equal outputs.
func (r Rules) Estimate(avgSpeed float64, score int) (model.Mood, int) {
	score = Clamp(score, MinScore, MaxScore)
	m := Classify(avgSpeed)
	switch m {
	case model.Thoughtful:
		next := max(r.ThoughtfulFloor, score-r.ThoughtfulStep)
		score = min(score, next)
	case model.Calm:
		score = Clamp(score+r.CalmStep, r.CalmMin, r.CalmMax)
	case model.Neutral:
		score = Clamp(score, r.NeutralMin, r.NeutralMax)
	case model.Happy:
		score = min(r.HappyCap, score+r.HappyStep)
	case model.Excited:
		score = min(MaxScore, score+r.ExcitedStep)
	}
	return m, Clamp(score, MinScore, MaxScore)
}

// Drift applies an idle random walk of at most ±2, clamped to [20,80].
func Drift(score int, rnd *rand.Rand) int {
	step := rnd.Intn(2*driftStep+1) - driftStep
	return Clamp(score+step, DriftMin, DriftMax)
}

// Resample draws a uniform score in [20,80].
func Resample(rnd *rand.Rand) int {
	return DriftMin + rnd.Intn(DriftMax-DriftMin+1)
}

// Steer applies the scripted per-mood update used by the demo cycle.
func Steer(m model.Mood, score int, rnd *rand.Rand) int {
	switch m {
	case model.Excited:
		score = min(MaxScore, score+3)
	case model.Happy:
		score = min(90, score+2)
	case model.Calm:
		score = Clamp(score+rnd.Intn(3)-1, 30, 70)
	case model.Neutral:
		score = Clamp(score+rnd.Intn(3)-1, 40, 60)
	case model.Thoughtful:
		score = max(10, score-2)
	case model.Mysterious:
		score = Resample(rnd)
	}
	return Clamp(score, MinScore, MaxScore)
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
