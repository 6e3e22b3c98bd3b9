package quantize

import (
	"image"
	"image/color"

	"github.com/ironsheep/image-quant/internal/pixels"
	"github.com/ironsheep/image-quant/palette"
)

// octreeDepth is the number of tree levels below the root, one per bit of
// each 8-bit color channel.
const octreeDepth = 8

const nilNode = int32(-1)

var noChildren = [8]int32{nilNode, nilNode, nilNode, nilNode, nilNode, nilNode, nilNode, nilNode}

// octreeNode lives in the quantizer's arena; children hold arena handles
// rather than pointers, so the tree has no cyclic ownership and merged
// nodes are dropped by simply unlinking their handles.
type octreeNode struct {
	children [8]int32
	count    uint64
	r, g, b  uint64
	leaf     bool
	palIdx   int32
}

// Octree is an adaptive tree-based palette builder. Colors descend eight
// levels, keyed at each level by one bit of R, G and B; leaves accumulate
// pixel counts and channel sums, and the tree is merged bottom-up until it
// fits the requested palette size.
//
// An Octree must not be used concurrently during Build; after Palette has
// finalized it, Index is safe for concurrent use.
type Octree struct {
	arena  []octreeNode
	levels [octreeDepth][]int32 // interior nodes by depth, merge candidates
	leaves int

	trackTransparent bool
	transparentSeen  uint64
	transparentIndex int

	pal        palette.Palette
	finalized  bool
	degenerate bool // palette budget left no room for color leaves
}

// NewOctree returns an empty octree quantizer.
//
// When trackTransparent is set, fully transparent pixels (alpha 0) bypass
// the tree entirely and, if any were observed, the final palette reserves
// its last slot for transparency.
func NewOctree(trackTransparent bool) *Octree {
	o := &Octree{
		trackTransparent: trackTransparent,
		transparentIndex: -1,
	}
	o.arena = append(o.arena, octreeNode{children: noChildren, palIdx: -1})
	o.levels[0] = append(o.levels[0], 0)
	return o
}

// Build inserts every pixel of img into the tree. It may be called for
// multiple frames before Palette finalizes the quantizer.
func (o *Octree) Build(img image.Image) {
	b := img.Bounds()
	row := make([]color.NRGBA, b.Dx())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row = pixels.ReadRow(img, y, b.Min.X, b.Max.X, row)
		for _, c := range row {
			o.insert(c)
		}
	}
}

func (o *Octree) insert(c color.NRGBA) {
	if o.trackTransparent && c.A == 0 {
		o.transparentSeen++
		return
	}
	idx := int32(0)
	for level := 0; level < octreeDepth; level++ {
		ci := octreeChildIndex(c, level)
		child := o.arena[idx].children[ci]
		if child == nilNode {
			child = int32(len(o.arena))
			o.arena = append(o.arena, octreeNode{children: noChildren, palIdx: -1})
			o.arena[idx].children[ci] = child
			if level+1 == octreeDepth {
				o.arena[child].leaf = true
				o.leaves++
			} else {
				o.levels[level+1] = append(o.levels[level+1], child)
			}
		}
		idx = child
	}
	n := &o.arena[idx]
	n.count++
	n.r += uint64(c.R)
	n.g += uint64(c.G)
	n.b += uint64(c.B)
}

// octreeChildIndex combines the level-th most significant bit of each
// channel into a 3-bit child slot.
func octreeChildIndex(c color.NRGBA, level int) int {
	bit := 7 - level
	return int((c.R>>bit&1)<<2 | (c.G>>bit&1)<<1 | c.B>>bit&1)
}

// Palette reduces the tree until at most maxColors leaves remain and
// returns the resulting palette. The first call finalizes the quantizer;
// subsequent calls return the same palette regardless of argument.
//
// If the frame contained no more distinct colors than maxColors, no
// reduction happens and every observed color keeps its own slot.
func (o *Octree) Palette(maxColors int) palette.Palette {
	if o.finalized {
		return o.pal
	}
	o.finalized = true

	colorSlots := maxColors
	reserve := o.trackTransparent && o.transparentSeen > 0
	if reserve {
		colorSlots--
	}
	if colorSlots < 1 {
		// Only the transparent slot fits; every pixel resolves to it.
		o.pal = palette.Palette{{}}
		o.transparentIndex = 0
		o.degenerate = true
		return o.pal
	}

	o.reduce(colorSlots)

	pal := make(palette.Palette, 0, colorSlots)
	o.assignIndices(0, &pal)
	if len(pal) == 0 {
		// Frame was empty (or entirely transparent); codecs still need
		// at least one color slot.
		pal = append(pal, color.NRGBA{A: 255})
	}
	if reserve {
		o.transparentIndex = len(pal)
		pal = append(pal, color.NRGBA{})
	}
	o.pal = pal
	return pal
}

// reduce merges nodes bottom-up until at most max leaves remain. The
// deepest level with a mergeable node is always taken first; within a
// level the node folding the fewest leaves wins, then the lowest total
// pixel count, then the lowest arena handle.
func (o *Octree) reduce(max int) {
	for o.leaves > max {
		best := nilNode
		bestChildren := 0
		bestCount := uint64(0)
		for d := octreeDepth - 1; d >= 0 && best == nilNode; d-- {
			for _, h := range o.levels[d] {
				if o.arena[h].leaf {
					continue // merged on an earlier pass
				}
				nchild, total := o.childStats(h)
				if nchild == 0 {
					continue
				}
				if best == nilNode || nchild < bestChildren ||
					(nchild == bestChildren && total < bestCount) {
					best, bestChildren, bestCount = h, nchild, total
				}
			}
		}
		if best == nilNode {
			return
		}
		o.merge(best)
	}
}

func (o *Octree) childStats(h int32) (nchild int, total uint64) {
	n := &o.arena[h]
	total = n.count
	for _, ch := range n.children {
		if ch == nilNode {
			continue
		}
		nchild++
		total += o.arena[ch].count
	}
	return nchild, total
}

// merge folds every child of h into h and turns h into a leaf. Lookup
// paths that used to terminate below h now terminate at h, so no pixel is
// orphaned by the merge.
func (o *Octree) merge(h int32) {
	n := &o.arena[h]
	merged := 0
	for i, ch := range n.children {
		if ch == nilNode {
			continue
		}
		c := &o.arena[ch]
		n.count += c.count
		n.r += c.r
		n.g += c.g
		n.b += c.b
		n.children[i] = nilNode
		merged++
	}
	n.leaf = true
	o.leaves -= merged - 1
}

// assignIndices walks the tree depth-first in child order, appending each
// remaining leaf's mean color to pal. The traversal order fixes the
// palette index order for the lifetime of the quantizer.
func (o *Octree) assignIndices(h int32, pal *palette.Palette) {
	n := &o.arena[h]
	if n.leaf {
		if n.count == 0 {
			return
		}
		n.palIdx = int32(len(*pal))
		half := n.count / 2
		*pal = append(*pal, color.NRGBA{
			R: uint8((n.r + half) / n.count),
			G: uint8((n.g + half) / n.count),
			B: uint8((n.b + half) / n.count),
			A: 255,
		})
		return
	}
	for _, ch := range n.children {
		if ch != nilNode {
			o.assignIndices(ch, pal)
		}
	}
}

// Index resolves c to its palette index by re-descending the tree with the
// same bit rule used at build time. A path that was merged away terminates
// at the merged ancestor, which is now a leaf. Index panics if Palette has
// not been called.
func (o *Octree) Index(c color.NRGBA) int {
	if !o.finalized {
		panic("quantize: Octree.Index called before Palette")
	}
	if o.degenerate {
		return 0
	}
	if o.trackTransparent && c.A == 0 && o.transparentIndex >= 0 {
		return o.transparentIndex
	}
	idx := int32(0)
	for level := 0; level < octreeDepth; level++ {
		n := &o.arena[idx]
		if n.leaf {
			return int(n.palIdx)
		}
		child := n.children[octreeChildIndex(c, level)]
		if child == nilNode {
			// Color never observed during build; fall back to a
			// nearest-palette match.
			return o.pal.Closest(c)
		}
		idx = child
	}
	return int(o.arena[idx].palIdx)
}

// TransparentIndex returns the reserved palette slot for fully transparent
// pixels, or -1 when none was reserved.
func (o *Octree) TransparentIndex() int { return o.transparentIndex }

// Leaves returns the current number of tree leaves; after Palette it
// equals the number of opaque palette entries.
func (o *Octree) Leaves() int { return o.leaves }
