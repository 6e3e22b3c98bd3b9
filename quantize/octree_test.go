package quantize

import (
	"image"
	"image/color"
	"math/rand"
	"testing"
)

// fill creates a uniform in-memory test frame.
func fill(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// noise creates a seeded random opaque frame.
func noise(w, h int, seed int64) *image.NRGBA {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(rng.Intn(256)),
				G: uint8(rng.Intn(256)),
				B: uint8(rng.Intn(256)),
				A: 255,
			})
		}
	}
	return img
}

var threeColors = []color.NRGBA{
	{255, 0, 0, 255},
	{0, 255, 0, 255},
	{0, 0, 255, 255},
}

// bands creates a frame of vertical bands cycling through cs.
func bands(w, h int, cs []color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, cs[x%len(cs)])
		}
	}
	return img
}

func TestOctreeAllBlackCollapsesToOneEntry(t *testing.T) {
	o := NewOctree(false)
	o.Build(fill(2, 2, color.NRGBA{0, 0, 0, 255}))
	pal := o.Palette(2)
	if len(pal) != 1 {
		t.Fatalf("palette length = %d, want 1", len(pal))
	}
	if pal[0] != (color.NRGBA{0, 0, 0, 255}) {
		t.Errorf("palette[0] = %v, want opaque black", pal[0])
	}
	if idx := o.Index(color.NRGBA{0, 0, 0, 255}); idx != 0 {
		t.Errorf("Index(black) = %d, want 0", idx)
	}
}

func TestOctreeFewColorsAreLossless(t *testing.T) {
	img := bands(9, 4, threeColors)
	o := NewOctree(false)
	o.Build(img)
	pal := o.Palette(256)
	if len(pal) != 3 {
		t.Fatalf("palette length = %d, want 3", len(pal))
	}
	for _, c := range threeColors {
		if got := pal[o.Index(c)]; got != c {
			t.Errorf("color %v mapped to %v", c, got)
		}
	}
}

func TestOctreePaletteNeverExceedsMaxColors(t *testing.T) {
	for _, maxColors := range []int{1, 2, 7, 16, 256} {
		o := NewOctree(false)
		o.Build(noise(64, 64, 1))
		pal := o.Palette(maxColors)
		if len(pal) > maxColors {
			t.Errorf("maxColors=%d: palette length %d", maxColors, len(pal))
		}
		if len(pal) == 0 {
			t.Errorf("maxColors=%d: empty palette", maxColors)
		}
	}
}

func TestOctreeIndexAlwaysInRange(t *testing.T) {
	img := noise(48, 48, 2)
	o := NewOctree(false)
	o.Build(img)
	pal := o.Palette(16)
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			idx := o.Index(img.NRGBAAt(x, y))
			if idx < 0 || idx >= len(pal) {
				t.Fatalf("index %d out of range [0,%d)", idx, len(pal))
			}
		}
	}
}

func TestOctreeLeafMeanRoundsToNearest(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{10, 0, 0, 255})
	img.SetNRGBA(1, 0, color.NRGBA{11, 0, 0, 255})
	o := NewOctree(false)
	o.Build(img)
	pal := o.Palette(1)
	if len(pal) != 1 {
		t.Fatalf("palette length = %d, want 1", len(pal))
	}
	// Mean red is 10.5, which must round up, not truncate.
	if pal[0].R != 11 {
		t.Errorf("mean red = %d, want 11", pal[0].R)
	}
}

func TestOctreeDeterminism(t *testing.T) {
	build := func() ([]int, int) {
		img := noise(32, 32, 3)
		o := NewOctree(false)
		o.Build(img)
		pal := o.Palette(8)
		var idx []int
		for y := 0; y < 32; y++ {
			for x := 0; x < 32; x++ {
				idx = append(idx, o.Index(img.NRGBAAt(x, y)))
			}
		}
		return idx, len(pal)
	}
	a, an := build()
	b, bn := build()
	if an != bn {
		t.Fatalf("palette sizes differ: %d vs %d", an, bn)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("index %d differs: %d vs %d", i, a[i], b[i])
		}
	}
}

func TestOctreePaletteStableAcrossQueries(t *testing.T) {
	o := NewOctree(false)
	o.Build(noise(16, 16, 4))
	first := o.Palette(8)
	second := o.Palette(8)
	if len(first) != len(second) {
		t.Fatalf("palette length changed: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("palette entry %d changed across queries", i)
		}
	}
}

func TestOctreeTransparentReservedIndex(t *testing.T) {
	img := bands(8, 8, threeColors)
	img.SetNRGBA(0, 0, color.NRGBA{}) // fully transparent, default color
	img.SetNRGBA(7, 7, color.NRGBA{})

	o := NewOctree(true)
	o.Build(img)
	pal := o.Palette(16)

	ti := o.TransparentIndex()
	if ti != len(pal)-1 {
		t.Fatalf("transparent index = %d, want %d", ti, len(pal)-1)
	}
	if pal[ti] != (color.NRGBA{}) {
		t.Errorf("reserved entry = %v, want fully transparent", pal[ti])
	}
	if got := o.Index(color.NRGBA{}); got != ti {
		t.Errorf("Index(transparent) = %d, want %d", got, ti)
	}
	// Opaque colors must not land on the reserved slot.
	for _, c := range threeColors {
		if got := o.Index(c); got == ti {
			t.Errorf("opaque %v mapped to the transparent slot", c)
		}
	}
}

func TestOctreeTransparentOnlyPaletteBudget(t *testing.T) {
	img := fill(4, 4, color.NRGBA{})
	o := NewOctree(true)
	o.Build(img)
	pal := o.Palette(1)
	if len(pal) != 1 {
		t.Fatalf("palette length = %d, want 1", len(pal))
	}
	if o.TransparentIndex() != 0 {
		t.Errorf("transparent index = %d, want 0", o.TransparentIndex())
	}
}

func TestOctreeUnseenColorFallsBack(t *testing.T) {
	o := NewOctree(false)
	o.Build(bands(6, 6, threeColors))
	pal := o.Palette(256)
	idx := o.Index(color.NRGBA{250, 10, 10, 255}) // near red, never observed
	if idx < 0 || idx >= len(pal) {
		t.Fatalf("fallback index %d out of range", idx)
	}
	if pal[idx] != threeColors[0] {
		t.Errorf("near-red fell back to %v, want red", pal[idx])
	}
}

func TestOctreeIndexBeforePalettePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	o := NewOctree(false)
	o.Build(fill(1, 1, color.NRGBA{A: 255}))
	o.Index(color.NRGBA{A: 255})
}

func BenchmarkOctreeBuild(b *testing.B) {
	img := noise(256, 256, 5)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		o := NewOctree(false)
		o.Build(img)
		o.Palette(256)
	}
}
