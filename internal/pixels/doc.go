// Package pixels is the boundary between the quantization core and Go's
// generic image types.
//
// The quantizers and ditherers in this module operate on 8-bit
// non-premultiplied RGBA values (color.NRGBA). This package provides the
// lossless conversions in and out of that representation, plus bulk row
// access with fast paths for the common in-memory image types, so the hot
// per-pixel loops never pay for interface dispatch on *image.NRGBA frames.
//
// All functions are pure and safe for concurrent use.
package pixels
