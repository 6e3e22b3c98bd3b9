package dither

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/ironsheep/image-quant/palette"
)

var bw = palette.Palette{
	{0, 0, 0, 255},
	{255, 255, 255, 255},
}

// gray fills a frame with a single opaque gray level.
func gray(w, h int, v uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{v, v, v, 255})
		}
	}
	return img
}

func TestDiffuseWritesOnlyPaletteColors(t *testing.T) {
	img := gray(16, 16, 120)
	d := NewDiffuser(FloydSteinberg)
	if err := d.Diffuse(img, img.Bounds(), bw); err != nil {
		t.Fatal(err)
	}
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			c := img.NRGBAAt(x, y)
			if c != color.NRGBA(bw[0]) && c != color.NRGBA(bw[1]) {
				t.Fatalf("pixel (%d,%d) = %v is not a palette color", x, y, c)
			}
		}
	}
}

func TestDiffusePreservesMeanGray(t *testing.T) {
	// A 50% gray field dithered to black/white should keep its mean
	// close to the source level.
	img := gray(64, 64, 128)
	d := NewDiffuser(FloydSteinberg)
	if err := d.Diffuse(img, img.Bounds(), bw); err != nil {
		t.Fatal(err)
	}
	var sum float64
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			sum += float64(img.NRGBAAt(x, y).R)
		}
	}
	mean := sum / (64 * 64)
	if math.Abs(mean-128) > 4 {
		t.Errorf("mean after dithering = %.2f, want within 4 of 128", mean)
	}
}

func TestDiffuseGradientErrorStaysBounded(t *testing.T) {
	// Horizontal gradient; the running quantization error must not
	// diverge across the scan.
	const w, h = 256, 8
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x), uint8(x), uint8(x), 255})
		}
	}
	src := image.NewNRGBA(img.Bounds())
	copy(src.Pix, img.Pix)

	d := NewDiffuser(FloydSteinberg)
	if err := d.Diffuse(img, img.Bounds(), bw); err != nil {
		t.Fatal(err)
	}

	var running float64
	n := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			running += float64(src.NRGBAAt(x, y).R) - float64(img.NRGBAAt(x, y).R)
			n++
			if avg := math.Abs(running) / float64(n); n > 64 && avg > 32 {
				t.Fatalf("running average error %.2f diverged at pixel %d", avg, n)
			}
		}
	}
}

func TestDiffuseBoundsScoping(t *testing.T) {
	img := gray(12, 12, 100)
	inner := image.Rect(4, 4, 8, 8)
	d := NewDiffuser(FloydSteinberg)
	if err := d.Diffuse(img, inner, bw); err != nil {
		t.Fatal(err)
	}
	for y := 0; y < 12; y++ {
		for x := 0; x < 12; x++ {
			c := img.NRGBAAt(x, y)
			if image.Pt(x, y).In(inner) {
				if c != color.NRGBA(bw[0]) && c != color.NRGBA(bw[1]) {
					t.Errorf("inside pixel (%d,%d) = %v not snapped", x, y, c)
				}
			} else if c != (color.NRGBA{100, 100, 100, 255}) {
				t.Errorf("outside pixel (%d,%d) = %v was touched", x, y, c)
			}
		}
	}
}

func TestDiffuseDeterminism(t *testing.T) {
	a := gray(32, 32, 77)
	b := gray(32, 32, 77)
	d := NewDiffuser(Stucki)
	if err := d.Diffuse(a, a.Bounds(), bw); err != nil {
		t.Fatal(err)
	}
	if err := d.Diffuse(b, b.Bounds(), bw); err != nil {
		t.Fatal(err)
	}
	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			t.Fatal("two identical diffusion passes disagree")
		}
	}
}

func TestDiffuseStrengthZeroResidual(t *testing.T) {
	// Strength is clamped into (0,1]; a tiny strength still snaps every
	// pixel but propagates almost nothing, so a uniform field collapses
	// to the single nearest color.
	img := gray(8, 8, 60)
	d := Diffuser{Kernel: FloydSteinberg, Strength: 0.001}
	if err := d.Diffuse(img, img.Bounds(), bw); err != nil {
		t.Fatal(err)
	}
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if got := img.NRGBAAt(x, y); got != color.NRGBA(bw[0]) {
				t.Fatalf("pixel (%d,%d) = %v, want black", x, y, got)
			}
		}
	}
}

func TestDiffuseInvalidInputs(t *testing.T) {
	img := gray(4, 4, 10)
	if err := (Diffuser{}).Diffuse(img, img.Bounds(), bw); err == nil {
		t.Error("zero kernel: expected error")
	}
	d := NewDiffuser(FloydSteinberg)
	if err := d.Diffuse(img, img.Bounds(), nil); err == nil {
		t.Error("empty palette: expected error")
	}
	// Bounds entirely outside the frame are a no-op.
	if err := d.Diffuse(img, image.Rect(100, 100, 120, 120), bw); err != nil {
		t.Errorf("disjoint bounds: %v", err)
	}
}
