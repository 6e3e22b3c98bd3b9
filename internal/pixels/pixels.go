package pixels

import (
	"image"
	"image/color"
	"image/draw"
)

// ToNRGBA converts any color.Color to 8-bit non-premultiplied RGBA.
//
// The conversion is lossless for colors that are already 8-bit
// non-premultiplied (color.NRGBA passes through unchanged). Other color
// types go through the standard color.NRGBAModel conversion, which
// un-premultiplies and truncates to 8 bits per channel.
func ToNRGBA(c color.Color) color.NRGBA {
	if n, ok := c.(color.NRGBA); ok {
		return n
	}
	return color.NRGBAModel.Convert(c).(color.NRGBA)
}

// ReadRow fills dst with the pixels of row y in the half-open column range
// [x0, x1) and returns dst[:x1-x0].
//
// dst must have capacity for at least x1-x0 entries; callers reuse one
// buffer across many rows. *image.NRGBA frames are read directly from the
// backing Pix slice; all other image types fall back to At().
func ReadRow(img image.Image, y, x0, x1 int, dst []color.NRGBA) []color.NRGBA {
	dst = dst[:x1-x0]
	if src, ok := img.(*image.NRGBA); ok {
		i := src.PixOffset(x0, y)
		for x := range dst {
			dst[x] = color.NRGBA{
				R: src.Pix[i],
				G: src.Pix[i+1],
				B: src.Pix[i+2],
				A: src.Pix[i+3],
			}
			i += 4
		}
		return dst
	}
	for x := range dst {
		dst[x] = ToNRGBA(img.At(x0+x, y))
	}
	return dst
}

// WriteRow stores src into row y of img starting at column x0.
//
// *image.NRGBA frames are written directly into the backing Pix slice;
// other draw.Image types fall back to Set().
func WriteRow(img draw.Image, y, x0 int, src []color.NRGBA) {
	if dst, ok := img.(*image.NRGBA); ok {
		i := dst.PixOffset(x0, y)
		for _, c := range src {
			dst.Pix[i] = c.R
			dst.Pix[i+1] = c.G
			dst.Pix[i+2] = c.B
			dst.Pix[i+3] = c.A
			i += 4
		}
		return
	}
	for x, c := range src {
		img.Set(x0+x, y, c)
	}
}

// Get reads a single pixel as non-premultiplied 8-bit RGBA.
func Get(img image.Image, x, y int) color.NRGBA {
	if src, ok := img.(*image.NRGBA); ok {
		i := src.PixOffset(x, y)
		return color.NRGBA{
			R: src.Pix[i],
			G: src.Pix[i+1],
			B: src.Pix[i+2],
			A: src.Pix[i+3],
		}
	}
	return ToNRGBA(img.At(x, y))
}
