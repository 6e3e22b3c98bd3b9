// Package dither implements the two dithering families used when reducing
// a frame to a bounded palette.
//
// Ordered dithering is positional: the decision for a pixel depends only on
// its coordinates, a threshold derived from the source color, and a fixed
// threshold matrix. Every pixel can be computed independently, so ordered
// dithering parallelizes freely across rows.
//
// Error diffusion is sequential: each pixel is snapped to its nearest
// palette color and the residual is pushed forward to pixels that have not
// been visited yet, following a weighted kernel. The strict row-major scan
// order is part of the algorithm's contract; processing rows in parallel
// would change the output.
package dither
