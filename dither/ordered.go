package dither

import "image/color"

// Ordered selects between two palette candidates using a positional
// threshold matrix. It carries no per-frame state; one value may be shared
// by any number of goroutines.
type Ordered struct {
	Matrix Matrix
}

// NewOrdered returns an ordered ditherer over m. Bayer4x4 is a good
// default for palettes of 16+ colors.
func NewOrdered(m Matrix) Ordered {
	return Ordered{Matrix: m}
}

// Dither resolves the palette choice for the pixel at (x, y). It returns
// lower when the matrix threshold at that position is at or above
// threshold, upper otherwise.
//
// The result depends only on (matrix, threshold, x, y). Callers typically
// pass the brighter of the two nearest palette entries as upper, the
// darker as lower, and the source color's luminance as threshold.
func (o Ordered) Dither(upper, lower color.NRGBA, threshold uint8, x, y int) color.NRGBA {
	if o.PickLower(threshold, x, y) {
		return lower
	}
	return upper
}

// PickLower reports whether the lower candidate wins at (x, y) for the
// given threshold. Dither is PickLower plus the color selection; callers
// that track palette indices rather than colors use PickLower directly.
func (o Ordered) PickLower(threshold uint8, x, y int) bool {
	return o.Matrix.Threshold(x, y) >= threshold
}

// Luminance returns the BT.709 luma of c: 0.2126 R + 0.7152 G + 0.0722 B,
// computed in fixed point. For alpha-only content use the alpha channel
// directly as the threshold instead.
func Luminance(c color.NRGBA) uint8 {
	// 13933 + 46871 + 4732 = 65536.
	return uint8((13933*uint32(c.R) + 46871*uint32(c.G) + 4732*uint32(c.B) + 1<<15) >> 16)
}
