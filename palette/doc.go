// Package palette provides bounded color palettes and nearest-color matching.
//
// A Palette is an ordered list of up to 256 non-premultiplied RGBA colors.
// Index order is significant: quantizers emit palettes whose indices are
// stable for the lifetime of the quantizer, and indexed-image codecs encode
// those indices directly.
//
// Matching is plain squared Euclidean distance in RGBA space. That is
// deliberate: this module targets indexed-color codecs, not perceptual
// color science. Ties are broken by the lowest palette index, so matching
// is fully deterministic.
package palette
