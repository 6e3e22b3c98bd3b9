package pixels

import (
	"image"
	"image/color"
	"testing"
)

func TestToNRGBA(t *testing.T) {
	tests := []struct {
		name string
		in   color.Color
		want color.NRGBA
	}{
		{"nrgba passthrough", color.NRGBA{10, 20, 30, 40}, color.NRGBA{10, 20, 30, 40}},
		{"opaque rgba", color.RGBA{255, 128, 64, 255}, color.NRGBA{255, 128, 64, 255}},
		{"gray", color.Gray{Y: 200}, color.NRGBA{200, 200, 200, 255}},
		{"fully transparent", color.NRGBA{0, 0, 0, 0}, color.NRGBA{0, 0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToNRGBA(tt.in); got != tt.want {
				t.Errorf("ToNRGBA(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestReadRowFastPathMatchesFallback(t *testing.T) {
	fast := image.NewNRGBA(image.Rect(0, 0, 8, 2))
	slow := image.NewRGBA64(image.Rect(0, 0, 8, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 8; x++ {
			c := color.NRGBA{R: uint8(x * 31), G: uint8(y * 100), B: uint8(x * x), A: 255}
			fast.Set(x, y, c)
			slow.Set(x, y, c)
		}
	}

	buf := make([]color.NRGBA, 8)
	for y := 0; y < 2; y++ {
		a := ReadRow(fast, y, 0, 8, buf)
		b := ReadRow(slow, y, 0, 8, make([]color.NRGBA, 8))
		for x := range a {
			if a[x] != b[x] {
				t.Fatalf("row %d col %d: fast path %v != fallback %v", y, x, a[x], b[x])
			}
		}
	}
}

func TestWriteRowRoundTrip(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 1))
	row := []color.NRGBA{
		{1, 2, 3, 4},
		{5, 6, 7, 8},
		{9, 10, 11, 12},
		{13, 14, 15, 16},
	}
	WriteRow(img, 0, 0, row)

	got := ReadRow(img, 0, 0, 4, make([]color.NRGBA, 4))
	for x := range row {
		if got[x] != row[x] {
			t.Errorf("pixel %d: got %v, want %v", x, got[x], row[x])
		}
	}
}

func TestReadRowSubRange(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 6, 1))
	for x := 0; x < 6; x++ {
		img.Set(x, 0, color.NRGBA{R: uint8(x), A: 255})
	}
	got := ReadRow(img, 0, 2, 5, make([]color.NRGBA, 3))
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, c := range got {
		if c.R != uint8(i+2) {
			t.Errorf("entry %d: R = %d, want %d", i, c.R, i+2)
		}
	}
}

func TestGet(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(1, 1, color.NRGBA{7, 8, 9, 255})
	if got := Get(img, 1, 1); got != (color.NRGBA{7, 8, 9, 255}) {
		t.Errorf("Get = %v", got)
	}
}
