package dither

import "fmt"

// Matrix is a square ordered-dither threshold matrix. Entries are
// pre-scaled into [0, 255]; a matrix is read-only after construction.
type Matrix [][]uint8

// Predefined threshold matrices. BayerNxN are the classic recursive Bayer
// patterns; Ordered3x3 is the dispersed-dot 3x3 pattern.
var (
	Bayer2x2   = mustBayer(1)
	Bayer4x4   = mustBayer(2)
	Bayer8x8   = mustBayer(3)
	Bayer16x16 = mustBayer(4)
	Ordered3x3 = scale([][]int{
		{2, 6, 3},
		{5, 0, 8},
		{1, 7, 4},
	})
)

// Bayer generates the Bayer threshold matrix of side 2^order, rescaled
// into [0, 255]. order must be in [1, 4]; beyond order 4 the matrix has
// more cells than an 8-bit threshold can distinguish.
func Bayer(order int) (Matrix, error) {
	if order < 1 || order > 4 {
		return nil, fmt.Errorf("dither: bayer order %d outside [1, 4]", order)
	}
	base := [][]int{
		{0, 2},
		{3, 1},
	}
	for o := 1; o < order; o++ {
		side := len(base)
		next := make([][]int, side*2)
		for y := range next {
			next[y] = make([]int, side*2)
		}
		// B(n+1) is four copies of B(n), scaled by 4, offset by the
		// base 2x2 pattern per quadrant.
		for y := 0; y < side; y++ {
			for x := 0; x < side; x++ {
				v := base[y][x] * 4
				next[y][x] = v
				next[y][x+side] = v + 2
				next[y+side][x] = v + 3
				next[y+side][x+side] = v + 1
			}
		}
		base = next
	}
	return scale(base), nil
}

// scale maps a base permutation matrix holding each value in
// [0, cells) exactly once onto thresholds in [0, 255] via
// (value+1)*(256/cells) - 1.
func scale(base [][]int) Matrix {
	side := len(base)
	cells := side * side
	step := 256 / cells
	m := make(Matrix, side)
	for y, row := range base {
		if len(row) != side {
			panic("dither: threshold matrix must be square")
		}
		m[y] = make([]uint8, side)
		for x, v := range row {
			m[y][x] = uint8((v+1)*step - 1)
		}
	}
	return m
}

func mustBayer(order int) Matrix {
	m, err := Bayer(order)
	if err != nil {
		panic(err)
	}
	return m
}

// Side returns the side length of the matrix.
func (m Matrix) Side() int { return len(m) }

// Threshold returns the matrix cell covering pixel position (x, y),
// tiling the matrix across the plane. Negative coordinates are a
// programmer error and panic.
func (m Matrix) Threshold(x, y int) uint8 {
	return m[y%len(m)][x%len(m)]
}
