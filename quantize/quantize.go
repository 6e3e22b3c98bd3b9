package quantize

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/image-quant/dither"
	"github.com/ironsheep/image-quant/internal/pixels"
	"github.com/ironsheep/image-quant/palette"
)

// Algorithm selects the palette builder used by Image.
type Algorithm string

const (
	// AlgorithmOctree is the adaptive tree reducer; it is the default.
	AlgorithmOctree Algorithm = "octree"
	// AlgorithmWu is the statistical moment box splitter.
	AlgorithmWu Algorithm = "wu"
)

// ColorQuantizer builds a palette from the pixels of one frame and then
// resolves pixels to palette indices.
//
// The lifecycle is strict: Build accumulates pixels, Palette finalizes the
// quantizer, and only then may Index be called. After finalization the
// quantizer is immutable and Index is safe for concurrent use.
type ColorQuantizer interface {
	Build(img image.Image)
	Palette(maxColors int) palette.Palette
	Index(c color.NRGBA) int

	// TransparentIndex returns the reserved palette slot for fully
	// transparent pixels, or -1 when none was reserved.
	TransparentIndex() int
}

// Config controls one quantization pass.
type Config struct {
	// MaxColors bounds the palette size, in [1, 256].
	MaxColors int

	// Algorithm picks the palette builder; empty means AlgorithmOctree.
	Algorithm Algorithm

	// Dither requests dithering during index assignment. Exactly one of
	// Ordered or Diffusion must then be set.
	Dither    bool
	Ordered   *dither.Ordered
	Diffusion *dither.Diffuser

	// TransparentColor reserves a palette slot for fully transparent
	// pixels (alpha 0) and maps every such pixel to it.
	TransparentColor bool

	// Workers bounds the goroutines used for row-parallel index
	// assignment; 0 means one per available CPU.
	Workers int
}

func (c *Config) validate() error {
	if c.MaxColors < 1 || c.MaxColors > palette.MaxColors {
		return fmt.Errorf("quantize: max colors %d outside [1, %d]", c.MaxColors, palette.MaxColors)
	}
	switch c.Algorithm {
	case "", AlgorithmOctree, AlgorithmWu:
	default:
		return fmt.Errorf("quantize: unknown algorithm %q", c.Algorithm)
	}
	if c.Dither {
		if c.Ordered == nil && c.Diffusion == nil {
			return fmt.Errorf("quantize: dithering requested but no ditherer configured")
		}
		if c.Ordered != nil && c.Diffusion != nil {
			return fmt.Errorf("quantize: both ordered and diffusion ditherers configured")
		}
	}
	return nil
}

// Result is a quantized frame: one palette index per pixel plus the
// palette itself, ready to hand to an indexed-format encoder.
type Result struct {
	// Rect is the frame geometry; Pix holds one palette index per pixel
	// in row-major order, len = Rect.Dx()*Rect.Dy().
	Rect image.Rectangle
	Pix  []uint8

	Palette palette.Palette

	// TransparentIndex is the reserved transparency slot, or -1.
	TransparentIndex int
}

// Paletted converts the result to the standard library's indexed image
// type for image/gif, image/png and golang.org/x/image/bmp encoders.
func (r *Result) Paletted() *image.Paletted {
	p := image.NewPaletted(r.Rect, r.Palette.ColorPalette())
	copy(p.Pix, r.Pix)
	return p
}

// Image quantizes img to at most cfg.MaxColors colors.
//
// The quantizer build pass and any error-diffusion pass run on a single
// goroutine; index assignment and ordered dithering are row-parallel
// against the finalized, immutable palette. The same configuration over
// the same frame always yields identical output.
func Image(img image.Image, cfg Config) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	var q ColorQuantizer
	switch cfg.Algorithm {
	case AlgorithmWu:
		q = NewWu(cfg.TransparentColor)
	default:
		q = NewOctree(cfg.TransparentColor)
	}

	q.Build(img)
	pal := q.Palette(cfg.MaxColors)

	b := img.Bounds()
	res := &Result{
		Rect:             b,
		Pix:              make([]uint8, b.Dx()*b.Dy()),
		Palette:          pal,
		TransparentIndex: q.TransparentIndex(),
	}
	if b.Empty() {
		return res, nil
	}

	switch {
	case cfg.Dither && cfg.Diffusion != nil:
		if err := assignDiffused(img, cfg, res); err != nil {
			return nil, err
		}
	case cfg.Dither && cfg.Ordered != nil:
		assignOrdered(img, cfg, res)
	default:
		assignPlain(img, q, cfg, res)
	}
	return res, nil
}

// assignPlain maps every pixel through the quantizer's own index lookup.
func assignPlain(img image.Image, q ColorQuantizer, cfg Config, res *Result) {
	b := res.Rect
	w := b.Dx()
	forEachRow(b, cfg.Workers, w, res.Palette, func(st *rowState, y int) {
		row := pixels.ReadRow(img, y, b.Min.X, b.Max.X, st.src)
		out := res.Pix[(y-b.Min.Y)*w:]
		for x, c := range row {
			// Runs of identical pixels resolve from the previous
			// result without re-descending the quantizer.
			if !st.memoOK || c != st.memoColor {
				st.memoColor = c
				st.memoIndex = uint8(q.Index(c))
				st.memoOK = true
			}
			out[x] = st.memoIndex
		}
	})
}

// assignOrdered resolves each pixel between its two nearest palette
// entries with a positional threshold. Pure per-pixel, so row-parallel.
func assignOrdered(img image.Image, cfg Config, res *Result) {
	b := res.Rect
	w := b.Dx()
	o := *cfg.Ordered
	pal := res.Palette
	ti := res.TransparentIndex
	forEachRow(b, cfg.Workers, w, pal, func(st *rowState, y int) {
		row := pixels.ReadRow(img, y, b.Min.X, b.Max.X, st.src)
		out := res.Pix[(y-b.Min.Y)*w:]
		for x, c := range row {
			if cfg.TransparentColor && ti >= 0 && c.A == 0 {
				out[x] = uint8(ti)
				continue
			}
			first, second := st.matcher.ClosestPair(c)
			upper, lower := first, second
			if dither.Luminance(pal[lower]) > dither.Luminance(pal[upper]) {
				upper, lower = lower, upper
			}
			idx := upper
			if o.PickLower(dither.Luminance(c), x, y-b.Min.Y) {
				idx = lower
			}
			out[x] = uint8(idx)
		}
	})
}

// assignDiffused runs the sequential error-diffusion pass over a working
// copy of the frame, then maps the diffused pixels to indices in parallel.
func assignDiffused(img image.Image, cfg Config, res *Result) error {
	work := imaging.Clone(img) // zero-based *image.NRGBA copy
	if err := cfg.Diffusion.Diffuse(work, work.Bounds(), res.Palette); err != nil {
		return err
	}

	b := res.Rect
	w := b.Dx()
	ti := res.TransparentIndex
	forEachRow(b, cfg.Workers, w, res.Palette, func(st *rowState, y int) {
		src := pixels.ReadRow(img, y, b.Min.X, b.Max.X, st.src)
		snapped := pixels.ReadRow(work, y-b.Min.Y, 0, w, st.work)
		out := res.Pix[(y-b.Min.Y)*w:]
		for x := range snapped {
			if cfg.TransparentColor && ti >= 0 && src[x].A == 0 {
				out[x] = uint8(ti)
				continue
			}
			out[x] = uint8(st.matcher.Closest(snapped[x]))
		}
	})
	return nil
}
