// Package cloud lays out and draws word-frequency clouds.
//
// Words arrive already counted and sorted. Font sizes follow the relative
// frequency of each word, and each word is placed along an Archimedean
// spiral from the canvas centre at the first spot that overlaps nothing.
// When a word does not fit anywhere the size shrinks by FontStep; a word that
// still does not fit at MinFontSize is skipped, and after maxMisses skips in a
// row the canvas counts as full.
package cloud

import (
	"bytes"
	"errors"
	"image/color"
	"math"
	"math/rand"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"lyricloud/models"
)

var ErrNoWords = errors.New("cloud: no words to draw")

const maxMisses = 10

const (
	BackgroundWhite       = "white"
	BackgroundTransparent = "transparent"
)

type Options struct {
	Width            int
	Height           int
	Background       string
	MaxWords         int
	MinFontSize      float64
	MaxFontSize      float64
	FontStep         float64
	RelativeScaling  float64
	PreferHorizontal float64
	Padding          float64
	Seed             int64
}

func DefaultOptions() Options {
	return Options{
		Width:            1000,
		Height:           500,
		Background:       BackgroundWhite,
		MaxWords:         200,
		MinFontSize:      10,
		MaxFontSize:      160,
		FontStep:         2,
		RelativeScaling:  0.5,
		PreferHorizontal: 0.9,
		Padding:          2,
		Seed:             42,
	}
}

var regular = mustParseFont(goregular.TTF)

func mustParseFont(ttf []byte) *truetype.Font {
	f, err := truetype.Parse(ttf)
	if err != nil {
		panic("cloud: parse embedded font: " + err.Error())
	}
	return f
}

// Render draws words (sorted by count, highest first) and returns the PNG
// with the placement of every word that fit. It returns ErrNoWords when no
// word fits the canvas.
func Render(words []models.WordCount, opts Options) (*models.Cloud, error) {
	if len(words) == 0 || words[0].Count <= 0 {
		return nil, ErrNoWords
	}
	if opts.MaxWords > 0 && len(words) > opts.MaxWords {
		words = words[:opts.MaxWords]
	}

	dc := gg.NewContext(opts.Width, opts.Height)
	if opts.Background != BackgroundTransparent {
		dc.SetColor(color.White)
		dc.Clear()
	}

	l := newLayout(opts)
	placed := l.place(dc, words)
	if len(placed) == 0 {
		return nil, ErrNoWords
	}
	for _, p := range placed {
		l.draw(dc, p)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, err
	}

	return &models.Cloud{
		PNG:    buf.Bytes(),
		Width:  opts.Width,
		Height: opts.Height,
		Words:  placed,
	}, nil
}

type layout struct {
	opts  Options
	rng   *rand.Rand
	grid  *grid
	faces map[int]font.Face
	tints map[string]colorful.Color
}

func newLayout(opts Options) *layout {
	return &layout{
		opts:  opts,
		rng:   rand.New(rand.NewSource(opts.Seed)),
		grid:  newGrid(opts.Width, opts.Height, 4),
		faces: make(map[int]font.Face),
		tints: make(map[string]colorful.Color),
	}
}

func (l *layout) face(size float64) font.Face {
	key := int(math.Round(size))
	if f, ok := l.faces[key]; ok {
		return f
	}
	f := truetype.NewFace(regular, &truetype.Options{Size: float64(key)})
	l.faces[key] = f
	return f
}

func (l *layout) place(dc *gg.Context, words []models.WordCount) []models.PlacedWord {
	var placed []models.PlacedWord

	maxCount := float64(words[0].Count)
	size := l.opts.MaxFontSize
	lastFreq := 1.0
	misses := 0

	for _, wc := range words {
		if misses >= maxMisses {
			break
		}
		base := size
		freq := float64(wc.Count) / maxCount
		if l.opts.RelativeScaling != 0 {
			size = math.Round((l.opts.RelativeScaling*(freq/lastFreq) + (1 - l.opts.RelativeScaling)) * size)
		}
		if size > l.opts.MaxFontSize {
			size = l.opts.MaxFontSize
		}

		vertical := l.rng.Float64() >= l.opts.PreferHorizontal
		triedOther := false

		var (
			x, y, w, h float64
			ok         bool
		)
		for size >= l.opts.MinFontSize {
			dc.SetFontFace(l.face(size))
			w, h = dc.MeasureString(wc.Word)
			if vertical {
				w, h = h, w
			}
			x, y, ok = l.find(w+2*l.opts.Padding, h+2*l.opts.Padding)
			if ok {
				break
			}
			if !triedOther {
				vertical = !vertical
				triedOther = true
				continue
			}
			size -= l.opts.FontStep
		}
		if !ok {
			size = base
			misses++
			continue
		}
		misses = 0

		l.grid.fill(x, y, x+w+2*l.opts.Padding, y+h+2*l.opts.Padding)
		placed = append(placed, models.PlacedWord{
			Word:     wc.Word,
			Count:    wc.Count,
			FontSize: math.Round(size),
			X:        x + l.opts.Padding,
			Y:        y + l.opts.Padding,
			Vertical: vertical,
		})
		l.tints[wc.Word] = l.tint()
		lastFreq = freq
	}

	return placed
}

// find walks an elliptical Archimedean spiral out from a jittered centre and
// returns the top-left corner of the first free w*h box.
func (l *layout) find(w, h float64) (float64, float64, bool) {
	width, height := float64(l.opts.Width), float64(l.opts.Height)
	if w > width || h > height {
		return 0, 0, false
	}

	aspect := width / height
	cx := width/2 + (l.rng.Float64()-0.5)*width*0.1
	cy := height/2 + (l.rng.Float64()-0.5)*height*0.1
	maxR := math.Hypot(width, height) / 2

	const spacing = 1.3 // radial growth per radian
	step := float64(l.grid.cell)

	for theta := 0.0; ; {
		r := spacing * theta
		if r > maxR {
			return 0, 0, false
		}

		x := cx + r*math.Cos(theta)*aspect - w/2
		y := cy + r*math.Sin(theta) - h/2
		if l.grid.free(x, y, x+w, y+h) {
			return x, y, true
		}

		theta += step / math.Max(r*aspect, step)
	}
}

func (l *layout) draw(dc *gg.Context, p models.PlacedWord) {
	dc.SetFontFace(l.face(p.FontSize))
	w, h := dc.MeasureString(p.Word)
	dc.SetColor(l.tints[p.Word].Clamped())

	if !p.Vertical {
		dc.DrawStringAnchored(p.Word, p.X+w/2, p.Y+h/2, 0.5, 0.35)
		return
	}

	// The rotated box is h wide and w tall.
	cx, cy := p.X+h/2, p.Y+w/2
	dc.Push()
	dc.RotateAbout(gg.Radians(-90), cx, cy)
	dc.DrawStringAnchored(p.Word, cx, cy, 0.5, 0.35)
	dc.Pop()
}

// tint picks a readable colour: random hue, fixed chroma and lightness.
func (l *layout) tint() colorful.Color {
	return colorful.Hcl(l.rng.Float64()*360, 0.55, 0.45)
}
