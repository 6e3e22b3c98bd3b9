package palette

import "image/color"

// Matcher performs nearest-color lookups against a fixed palette, caching
// the previous query. Runs of identical pixels are common in real images,
// so the cache removes most of the linear scans during index assignment.
//
// The cache is purely an optimization: a Matcher always returns exactly
// what Palette.Closest and Palette.ClosestPair return for the same inputs.
//
// A Matcher is not safe for concurrent use; row-parallel callers create
// one Matcher per worker.
type Matcher struct {
	Palette Palette

	prev   color.NRGBA
	first  int
	second int
	valid  bool
}

// NewMatcher returns a Matcher over p. p must not be mutated afterwards.
func NewMatcher(p Palette) *Matcher {
	return &Matcher{Palette: p}
}

// Closest returns the index of the palette entry nearest to c.
func (m *Matcher) Closest(c color.NRGBA) int {
	first, _ := m.ClosestPair(c)
	return first
}

// ClosestPair returns the indices of the nearest and second-nearest
// palette entries to c.
func (m *Matcher) ClosestPair(c color.NRGBA) (first, second int) {
	if m.valid && c == m.prev {
		return m.first, m.second
	}
	first, second = m.Palette.ClosestPair(c)
	m.prev = c
	m.first = first
	m.second = second
	m.valid = true
	return first, second
}
