// Package imgio handles the file boundary for the image-quant CLI:
// decoding source frames and encoding quantized frames into indexed
// formats. The quantization core never touches the filesystem.
package imgio

import (
	"fmt"
	"image"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/bmp"
)

// Load decodes the image at path. PNG, JPEG, GIF, TIFF and BMP sources are
// supported; JPEG frames are auto-rotated according to their EXIF
// orientation so quantization sees the pixels a viewer would.
func Load(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return img, nil
}

// Save encodes an indexed frame to path, choosing the container from the
// file extension: .gif, .png or .bmp. The palette travels inside the
// container; a palette entry with alpha 0 becomes the format's transparent
// color where the format supports one.
func Save(path string, img *image.Paletted) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".gif":
		err = gif.Encode(f, img, nil)
	case ".png":
		err = png.Encode(f, img)
	case ".bmp":
		err = bmp.Encode(f, img)
	default:
		err = fmt.Errorf("unsupported output format %q (use .gif, .png or .bmp)", ext)
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
