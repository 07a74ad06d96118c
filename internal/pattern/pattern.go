// Package pattern builds the evolving glyph grid for a mood.
package pattern

import (
	"math"
	"math/rand"

	"github.com/verte-zerg/moodring/internal/model"
)

const blank = ' '

// Palette is a glyph set with its grid dimensions.
type Palette struct {
	Width  int
	Height int
	Glyphs map[model.Mood][]rune
}

// Rich is the unicode palette on a 60x10 grid.
var Rich = Palette{
	Width:  60,
	Height: 10,
	Glyphs: map[model.Mood][]rune{
		model.Excited:    []rune("*!^◆★✦"),
		model.Happy:      []rune("♪♫◕◔◐◑"),
		model.Calm:       []rune("~≈∞○◯⊙"),
		model.Neutral:    []rune("·•◦▪▫□"),
		model.Thoughtful: []rune("?¿∴∵∷∶"),
		model.Mysterious: []rune("§¤※⊕⊗⊜"),
	},
}

// ASCII is the constrained palette on a 50x8 grid.
var ASCII = Palette{
	Width:  50,
	Height: 8,
	Glyphs: map[model.Mood][]rune{
		model.Excited:    []rune("*!+X#"),
		model.Happy:      []rune("oO@&%"),
		model.Calm:       []rune("~-=._"),
		model.Neutral:    []rune(".:;,|"),
		model.Thoughtful: []rune(`?/\<>`),
		model.Mysterious: []rune("$#@&%"),
	},
}

// For returns the palette for a mode.
func For(p model.Palette) Palette {
	if p == model.PaletteASCII {
		return ASCII
	}
	return Rich
}

// GlyphsFor returns the glyphs of a mood, falling back to neutral.
func (p Palette) GlyphsFor(m model.Mood) []rune {
	if g, ok := p.Glyphs[m]; ok && len(g) > 0 {
		return g
	}
	return p.Glyphs[model.Neutral]
}

// Renderer produces grids. It is not safe for concurrent use.
type Renderer struct {
	palette Palette
	rnd     *rand.Rand
}

// New returns a Renderer seeded with seed.
func New(palette Palette, seed int64) *Renderer {
	return &Renderer{palette: palette, rnd: rand.New(rand.NewSource(seed))}
}

// Palette returns the renderer palette.
func (r *Renderer) Palette() Palette { return r.palette }

// Render builds one frame for the mood, score and evolution counter.
func (r *Renderer) Render(m model.Mood, score, evolution int) model.Grid {
	glyphs := r.palette.GlyphsFor(m)
	w, h := r.palette.Width, r.palette.Height
	grid := make(model.Grid, h)
	for y := 0; y < h; y++ {
		row := make([]rune, w)
		for x := 0; x < w; x++ {
			row[x] = blank
			wave := Wave(score, x, y, w, h, r.rnd.Float64())
			if !Lit(wave, x, evolution) {
				continue
			}
			row[x] = glyphs[r.rnd.Intn(len(glyphs))]
		}
		grid[y] = row
	}
	return grid
}

// Wave computes the per-cell period from the score, position and a jitter
// value in [0,1).
func Wave(score, x, y, width, height int, jitter float64) int {
	v := float64(score) / 20 *
		(1 + 0.5*jitter) *
		(1 + 0.3*float64(x)/float64(width)) *
		(1 + 0.2*float64(y)/float64(height))
	return int(math.Floor(5 * math.Abs(v)))
}

// Lit reports whether a cell with the given wave shows a glyph. A zero wave
// is always blank.
func Lit(wave, x, evolution int) bool {
	if wave <= 0 {
		return false
	}
	return (x+evolution)%wave == 0
}
