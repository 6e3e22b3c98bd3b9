package palette

import "image/color"

// MaxColors is the largest palette an indexed-color codec can address.
const MaxColors = 256

// Palette is an ordered list of colors. The position of an entry is its
// palette index.
type Palette []color.NRGBA

// ColorPalette converts p to the standard library's color.Palette, for
// handing to image/gif, image/png and similar encoders.
func (p Palette) ColorPalette() color.Palette {
	cp := make(color.Palette, len(p))
	for i, c := range p {
		cp[i] = c
	}
	return cp
}

// Closest returns the index of the palette entry nearest to c by squared
// RGBA distance. Ties resolve to the lowest index. Closest panics on an
// empty palette; an empty palette is a programmer error.
func (p Palette) Closest(c color.NRGBA) int {
	first, _ := p.ClosestPair(c)
	return first
}

// ClosestPair returns the indices of the nearest and second-nearest palette
// entries to c by squared RGBA distance. Ties resolve to the lowest index.
// For a single-entry palette both results are 0. ClosestPair panics on an
// empty palette.
func (p Palette) ClosestPair(c color.NRGBA) (first, second int) {
	if len(p) == 0 {
		panic("palette: ClosestPair on empty palette")
	}
	if len(p) == 1 {
		return 0, 0
	}
	firstDist := uint32(1 << 31)
	secondDist := uint32(1 << 31)
	for i, e := range p {
		d := distanceSq(c, e)
		switch {
		case d < firstDist:
			second, secondDist = first, firstDist
			first, firstDist = i, d
		case d < secondDist:
			second, secondDist = i, d
		}
	}
	return first, second
}

// distanceSq is the squared Euclidean distance between two colors in RGBA
// space. The maximum value is 4*255*255, well within uint32.
func distanceSq(a, b color.NRGBA) uint32 {
	dr := int32(a.R) - int32(b.R)
	dg := int32(a.G) - int32(b.G)
	db := int32(a.B) - int32(b.B)
	da := int32(a.A) - int32(b.A)
	return uint32(dr*dr + dg*dg + db*db + da*da)
}
