package quantize

import (
	"container/heap"
	"image"
	"image/color"

	"github.com/ironsheep/image-quant/internal/pixels"
	"github.com/ironsheep/image-quant/palette"
)

// Histogram resolution: 5 bits per color channel, 3 bits of alpha. Bin 0
// of every axis is the zero row of the cumulative moments, so observed
// values land in bins 1..wuSide-1.
const (
	wuIndexBits      = 5
	wuIndexAlphaBits = 3
	wuSide           = (1 << wuIndexBits) + 1
	wuAlphaSide      = (1 << wuIndexAlphaBits) + 1
	wuTableSize      = wuSide * wuSide * wuSide * wuAlphaSide
)

// wuMoment carries the statistical moments of one histogram cell, or,
// after cumulation, of the cube from the origin up to that cell. Counts
// and channel sums stay exact in int64 for frames of at least 2^24 pixels;
// the sum of squares uses float64, which is exact far beyond that.
type wuMoment struct {
	count      int64
	r, g, b, a int64
	m2         float64
}

func (m *wuMoment) add(o *wuMoment) {
	m.count += o.count
	m.r += o.r
	m.g += o.g
	m.b += o.b
	m.a += o.a
	m.m2 += o.m2
}

func (m *wuMoment) sub(o *wuMoment) {
	m.count -= o.count
	m.r -= o.r
	m.g -= o.g
	m.b -= o.b
	m.a -= o.a
	m.m2 -= o.m2
}

// sumSq is |channel sums|^2 / count, the term maximized when searching for
// the best cut.
func (m *wuMoment) sumSq() float64 {
	if m.count == 0 {
		return 0
	}
	fr, fg, fb, fa := float64(m.r), float64(m.g), float64(m.b), float64(m.a)
	return (fr*fr + fg*fg + fb*fb + fa*fa) / float64(m.count)
}

// wuBox is an axis-aligned histogram sub-range with exclusive lower and
// inclusive upper bin bounds on every axis. The final boxes partition the
// whole bin space, so every color belongs to exactly one box.
type wuBox struct {
	rMin, rMax int
	gMin, gMax int
	bMin, bMax int
	aMin, aMax int
	volume     int64 // cached pixel count within the range
}

const (
	wuAxisR = iota
	wuAxisG
	wuAxisB
	wuAxisA
)

// Wu is a statistical box-splitting palette builder over a cumulative
// RGBA histogram. Not safe for concurrent use during Build; after Palette
// has finalized it, Index is safe for concurrent use.
type Wu struct {
	moments []wuMoment
	boxes   []wuBox
	tag     []uint8 // bin -> palette index, filled at finalization

	trackTransparent bool
	transparentSeen  uint64
	transparentIndex int

	pal       palette.Palette
	finalized bool
}

// NewWu returns an empty Wu quantizer. trackTransparent behaves exactly
// as for NewOctree: alpha-0 pixels bypass the histogram and get a reserved
// palette slot when any were observed.
func NewWu(trackTransparent bool) *Wu {
	return &Wu{
		moments:          make([]wuMoment, wuTableSize),
		trackTransparent: trackTransparent,
		transparentIndex: -1,
	}
}

func wuIndex(r, g, b, a int) int {
	return ((r*wuSide+g)*wuSide+b)*wuAlphaSide + a
}

func wuBin(c color.NRGBA) int {
	return wuIndex(
		int(c.R>>(8-wuIndexBits))+1,
		int(c.G>>(8-wuIndexBits))+1,
		int(c.B>>(8-wuIndexBits))+1,
		int(c.A>>(8-wuIndexAlphaBits))+1,
	)
}

// Build accumulates the histogram over every pixel of img. It may be
// called for multiple frames before Palette finalizes the quantizer.
func (w *Wu) Build(img image.Image) {
	b := img.Bounds()
	row := make([]color.NRGBA, b.Dx())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row = pixels.ReadRow(img, y, b.Min.X, b.Max.X, row)
		for _, c := range row {
			if w.trackTransparent && c.A == 0 {
				w.transparentSeen++
				continue
			}
			m := &w.moments[wuBin(c)]
			m.count++
			m.r += int64(c.R)
			m.g += int64(c.G)
			m.b += int64(c.B)
			m.a += int64(c.A)
			fr, fg, fb, fa := float64(c.R), float64(c.G), float64(c.B), float64(c.A)
			m.m2 += fr*fr + fg*fg + fb*fb + fa*fa
		}
	}
}

// cumulate converts the raw histogram into cumulative moments, one prefix
// pass per axis, enabling O(1) sub-box sums by inclusion-exclusion. Bin 0
// of every axis stays zero and serves as the exclusive lower bound.
func (w *Wu) cumulate() {
	const (
		rStride = wuSide * wuSide * wuAlphaSide
		gStride = wuSide * wuAlphaSide
		bStride = wuAlphaSide
		aStride = 1
	)
	for axis, stride := range [4]int{rStride, gStride, bStride, aStride} {
		for r := 0; r < wuSide; r++ {
			for g := 0; g < wuSide; g++ {
				for b := 0; b < wuSide; b++ {
					for a := 0; a < wuAlphaSide; a++ {
						coords := [4]int{r, g, b, a}
						if coords[axis] == 0 {
							continue
						}
						i := wuIndex(r, g, b, a)
						w.moments[i].add(&w.moments[i-stride])
					}
				}
			}
		}
	}
}

// boxMoment sums the moments inside b via inclusion-exclusion over the
// sixteen corners of the box.
func (w *Wu) boxMoment(b *wuBox) wuMoment {
	var t wuMoment
	lo := [4]int{b.rMin, b.gMin, b.bMin, b.aMin}
	hi := [4]int{b.rMax, b.gMax, b.bMax, b.aMax}
	for mask := 0; mask < 16; mask++ {
		var corner [4]int
		bits := 0
		for axis := 0; axis < 4; axis++ {
			if mask&(1<<axis) != 0 {
				corner[axis] = lo[axis]
				bits++
			} else {
				corner[axis] = hi[axis]
			}
		}
		m := &w.moments[wuIndex(corner[0], corner[1], corner[2], corner[3])]
		if bits&1 == 0 {
			t.add(m)
		} else {
			t.sub(m)
		}
	}
	return t
}

// variance is the weighted squared-error of the colors inside b around
// their mean; boxes with higher variance are split first.
func (w *Wu) variance(b *wuBox) float64 {
	m := w.boxMoment(b)
	if m.count == 0 {
		return 0
	}
	return m.m2 - m.sumSq()
}

// maximize searches every candidate cut point along every axis of b and
// returns the axis and cut that maximize the post-split sum-of-squares
// gain, or cut -1 when no cut produces two non-empty halves.
func (w *Wu) maximize(b *wuBox) (bestAxis, bestCut int) {
	whole := w.boxMoment(b)
	bestAxis, bestCut = -1, -1
	best := -1.0
	for axis := 0; axis < 4; axis++ {
		lo, hi := wuAxisRange(b, axis)
		for cut := lo + 1; cut < hi; cut++ {
			lower := *b
			wuSetAxisMax(&lower, axis, cut)
			lm := w.boxMoment(&lower)
			if lm.count == 0 || lm.count == whole.count {
				continue
			}
			um := whole
			um.sub(&lm)
			if score := lm.sumSq() + um.sumSq(); score > best {
				best, bestAxis, bestCut = score, axis, cut
			}
		}
	}
	return bestAxis, bestCut
}

func wuAxisRange(b *wuBox, axis int) (lo, hi int) {
	switch axis {
	case wuAxisR:
		return b.rMin, b.rMax
	case wuAxisG:
		return b.gMin, b.gMax
	case wuAxisB:
		return b.bMin, b.bMax
	default:
		return b.aMin, b.aMax
	}
}

func wuSetAxisMax(b *wuBox, axis, v int) {
	switch axis {
	case wuAxisR:
		b.rMax = v
	case wuAxisG:
		b.gMax = v
	case wuAxisB:
		b.bMax = v
	default:
		b.aMax = v
	}
}

func wuSetAxisMin(b *wuBox, axis, v int) {
	switch axis {
	case wuAxisR:
		b.rMin = v
	case wuAxisG:
		b.gMin = v
	case wuAxisB:
		b.bMin = v
	default:
		b.aMin = v
	}
}

// wuCandidate scores one box for the split queue; idx is the box's slot in
// w.boxes, which stays stable because splits rewrite the slot in place and
// append the upper half.
type wuCandidate struct {
	idx   int
	score float64
}

// wuQueue is a max-heap of split candidates keyed by variance.
type wuQueue []wuCandidate

func (q wuQueue) Len() int            { return len(q) }
func (q wuQueue) Less(i, j int) bool  { return q[i].score > q[j].score }
func (q wuQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *wuQueue) Push(x interface{}) { *q = append(*q, x.(wuCandidate)) }
func (q *wuQueue) Pop() interface{} {
	old := *q
	n := len(old)
	c := old[n-1]
	*q = old[:n-1]
	return c
}

// split partitions the histogram into at most max boxes, always taking the
// highest-variance box next. Only the two boxes produced by a split get
// rescored, so the queue never rescans untouched boxes.
func (w *Wu) split(max int) {
	first := wuBox{
		rMax: wuSide - 1,
		gMax: wuSide - 1,
		bMax: wuSide - 1,
		aMax: wuAlphaSide - 1,
	}
	first.volume = w.boxMoment(&first).count
	w.boxes = []wuBox{first}
	if first.volume == 0 {
		return
	}

	pq := &wuQueue{}
	if v := w.variance(&first); v > 0 {
		heap.Push(pq, wuCandidate{idx: 0, score: v})
	}
	for len(w.boxes) < max && pq.Len() > 0 {
		cand := heap.Pop(pq).(wuCandidate)
		box := w.boxes[cand.idx]
		axis, cut := w.maximize(&box)
		if cut < 0 {
			continue // single-bin or zero-variance box, final
		}
		lower, upper := box, box
		wuSetAxisMax(&lower, axis, cut)
		wuSetAxisMin(&upper, axis, cut)
		lower.volume = w.boxMoment(&lower).count
		upper.volume = box.volume - lower.volume

		w.boxes[cand.idx] = lower
		w.boxes = append(w.boxes, upper)
		if v := w.variance(&lower); v > 0 {
			heap.Push(pq, wuCandidate{idx: cand.idx, score: v})
		}
		if v := w.variance(&upper); v > 0 {
			heap.Push(pq, wuCandidate{idx: len(w.boxes) - 1, score: v})
		}
	}
}

// Palette finalizes the quantizer: it cumulates the histogram, splits it
// into at most maxColors boxes and returns each box's mean color, in box
// creation order. The first call finalizes; subsequent calls return the
// same palette regardless of argument.
func (w *Wu) Palette(maxColors int) palette.Palette {
	if w.finalized {
		return w.pal
	}
	w.finalized = true

	colorSlots := maxColors
	reserve := w.trackTransparent && w.transparentSeen > 0
	if reserve {
		colorSlots--
	}
	w.tag = make([]uint8, wuTableSize)
	if colorSlots < 1 {
		w.pal = palette.Palette{{}}
		w.transparentIndex = 0
		return w.pal
	}

	w.cumulate()
	w.split(colorSlots)

	pal := make(palette.Palette, 0, len(w.boxes))
	for i := range w.boxes {
		b := &w.boxes[i]
		m := w.boxMoment(b)
		if m.count == 0 {
			continue
		}
		half := m.count / 2
		entry := color.NRGBA{
			R: uint8((m.r + half) / m.count),
			G: uint8((m.g + half) / m.count),
			B: uint8((m.b + half) / m.count),
			A: uint8((m.a + half) / m.count),
		}
		idx := len(pal)
		pal = append(pal, entry)
		w.tagBox(b, uint8(idx))
	}
	if len(pal) == 0 {
		pal = append(pal, color.NRGBA{A: 255})
	}
	if reserve {
		w.transparentIndex = len(pal)
		pal = append(pal, color.NRGBA{})
	}
	w.pal = pal
	return pal
}

// tagBox marks every bin inside b with the box's palette index, giving
// Index an O(1) partition-membership test.
func (w *Wu) tagBox(b *wuBox, idx uint8) {
	for r := b.rMin + 1; r <= b.rMax; r++ {
		for g := b.gMin + 1; g <= b.gMax; g++ {
			for bb := b.bMin + 1; bb <= b.bMax; bb++ {
				base := ((r*wuSide+g)*wuSide + bb) * wuAlphaSide
				for a := b.aMin + 1; a <= b.aMax; a++ {
					w.tag[base+a] = idx
				}
			}
		}
	}
}

// Index resolves c by quantizing its channels into the same bins used at
// build time and reading the owning box's palette index. Index panics if
// Palette has not been called.
func (w *Wu) Index(c color.NRGBA) int {
	if !w.finalized {
		panic("quantize: Wu.Index called before Palette")
	}
	if w.trackTransparent && c.A == 0 && w.transparentIndex >= 0 {
		return w.transparentIndex
	}
	return int(w.tag[wuBin(c)])
}

// TransparentIndex returns the reserved palette slot for fully transparent
// pixels, or -1 when none was reserved.
func (w *Wu) TransparentIndex() int { return w.transparentIndex }
