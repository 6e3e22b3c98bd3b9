// Package quantize reduces full-color frames to bounded palettes for
// indexed-color codecs (GIF, indexed PNG/BMP).
//
// Two palette builders are provided. Octree adaptively merges a color tree
// until it fits the requested palette size; it is cheap to build and favors
// frequent colors. Wu builds a cumulative moment histogram and repeatedly
// splits the highest-variance color box, which usually yields lower total
// error on photographic content at a higher fixed memory cost.
//
// Both follow the same lifecycle: Build accumulates every pixel of a frame,
// Palette finalizes and returns the palette, and Index resolves pixels to
// palette indices. A finalized quantizer is immutable; Index is safe to
// call from many goroutines, and the Image driver does exactly that,
// assigning indices row-parallel while keeping the build pass and any
// error-diffusion pass single-threaded.
package quantize
