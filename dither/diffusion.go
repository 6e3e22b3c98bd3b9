package dither

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/ironsheep/image-quant/internal/pixels"
	"github.com/ironsheep/image-quant/palette"
)

// Diffuser applies error-diffusion dithering against a fixed palette,
// rewriting pixels in place.
//
// Diffusion is inherently sequential: pixels are visited in strict
// row-major order and each visit consumes error pushed forward by earlier
// pixels. Do not run Diffuse over overlapping regions concurrently.
// Disjoint regions of the same frame may be diffused independently; pixels
// outside the supplied bounds never contribute or receive error.
type Diffuser struct {
	Kernel Kernel

	// Strength scales the propagated residual. Values <= 0 or > 1 are
	// treated as 1 (full diffusion).
	Strength float32
}

// NewDiffuser returns a Diffuser with full-strength diffusion.
func NewDiffuser(k Kernel) Diffuser {
	return Diffuser{Kernel: k, Strength: 1}
}

// Diffuse snaps every pixel of img inside bounds to its nearest palette
// color, propagating the per-pixel residual to unscanned neighbors through
// the kernel. Kernel taps that land outside bounds drop their share; the
// residual is not renormalized.
//
// The error accumulator is scoped to this single pass and released when
// Diffuse returns.
func (d Diffuser) Diffuse(img draw.Image, bounds image.Rectangle, pal palette.Palette) error {
	if !d.Kernel.valid() {
		return fmt.Errorf("dither: invalid diffusion kernel %q", d.Kernel.Name)
	}
	if len(pal) == 0 {
		return fmt.Errorf("dither: empty palette")
	}
	b := bounds.Intersect(img.Bounds())
	if b.Empty() {
		return nil
	}

	strength := d.Strength
	if strength <= 0 || strength > 1 {
		strength = 1
	}

	w, h := b.Dx(), b.Dy()
	acc := make([]float32, w*h*4)
	row := make([]color.NRGBA, w)
	m := palette.NewMatcher(pal)
	div := float32(d.Kernel.Divisor)

	for y := 0; y < h; y++ {
		row = pixels.ReadRow(img, b.Min.Y+y, b.Min.X, b.Max.X, row)
		for x := 0; x < w; x++ {
			i := (y*w + x) * 4
			src := row[x]
			adj := color.NRGBA{
				R: clampByte(float32(src.R) + acc[i]),
				G: clampByte(float32(src.G) + acc[i+1]),
				B: clampByte(float32(src.B) + acc[i+2]),
				A: clampByte(float32(src.A) + acc[i+3]),
			}
			chosen := pal[m.Closest(adj)]
			row[x] = chosen

			resR := (float32(adj.R) - float32(chosen.R)) * strength
			resG := (float32(adj.G) - float32(chosen.G)) * strength
			resB := (float32(adj.B) - float32(chosen.B)) * strength
			resA := (float32(adj.A) - float32(chosen.A)) * strength

			for _, t := range d.Kernel.Taps {
				nx, ny := x+t.DX, y+t.DY
				if nx < 0 || nx >= w || ny >= h {
					continue
				}
				share := float32(t.Weight) / div
				j := (ny*w + nx) * 4
				acc[j] += resR * share
				acc[j+1] += resG * share
				acc[j+2] += resB * share
				acc[j+3] += resA * share
			}
		}
		pixels.WriteRow(img, b.Min.Y+y, b.Min.X, row)
	}
	return nil
}

func clampByte(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v + 0.5)
	}
}
