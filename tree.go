package treecode

import (
	"math"
	"sort"
)

// Tree is a binary KD-tree over points stored in a flat row-major array.
// Points are reordered internally via an index permutation so that every
// box owns a contiguous range of tree positions.
//
// Boxes are numbered breadth-first:
//   - the root is box 0
//   - the boxes of each level occupy a contiguous index range
//   - node bounds are stored as min/max per dimension per box
type Tree struct {
	data     []float64 // flat row-major point data (n * dims), caller order
	n        int       // number of points
	dims     int       // dimensionality
	leafSize int
	perm     []int // permutation: tree-order position → original index
	nodes    []node
	// boundsMin[box*dims + j] = min value of feature j in box
	boundsMin []float64
	// boundsMax[box*dims + j] = max value of feature j in box
	boundsMax []float64
	// levelStart[l] is the index of the first box at level l; the final
	// entry equals len(nodes).
	levelStart []int
}

type node struct {
	start, end int // body range in tree order
	level      int
	parent     int // -1 at the root
	left       int // -1 for leaves
	right      int
}

// NewTree builds a KD-tree from flat row-major data with n points of
// dimensionality dims. leafSize controls the max points per leaf box.
func NewTree(data []float64, n, dims, leafSize int) *Tree {
	if leafSize < 1 {
		leafSize = 1
	}

	dataCopy := make([]float64, n*dims)
	copy(dataCopy, data)
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}

	t := &Tree{
		data:     dataCopy,
		n:        n,
		dims:     dims,
		leafSize: leafSize,
		perm:     perm,
	}
	t.build()
	return t
}

// build splits boxes in breadth-first order. Because boxes are appended in
// the order they are dequeued, a child's index is known when it is enqueued.
func (t *Tree) build() {
	type pending struct{ start, end, level, parent int }
	queue := []pending{{0, t.n, 0, -1}}
	next := 1

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]

		id := len(t.nodes)
		t.nodes = append(t.nodes, node{start: p.start, end: p.end, level: p.level, parent: p.parent, left: -1, right: -1})
		t.boundsMin = append(t.boundsMin, make([]float64, t.dims)...)
		t.boundsMax = append(t.boundsMax, make([]float64, t.dims)...)
		t.computeBounds(id, p.start, p.end)

		if p.level == len(t.levelStart) {
			t.levelStart = append(t.levelStart, id)
		}

		count := p.end - p.start
		if count <= t.leafSize {
			continue
		}

		// Find dimension with greatest spread.
		splitDim := 0
		maxSpread := -1.0
		for d := 0; d < t.dims; d++ {
			spread := t.boundsMax[id*t.dims+d] - t.boundsMin[id*t.dims+d]
			if spread > maxSpread {
				maxSpread = spread
				splitDim = d
			}
		}

		// Sort by the split dimension and split at the median.
		t.sortByDimension(p.start, p.end, splitDim)
		mid := p.start + count/2

		t.nodes[id].left = next
		t.nodes[id].right = next + 1
		next += 2
		queue = append(queue,
			pending{p.start, mid, p.level + 1, id},
			pending{mid, p.end, p.level + 1, id},
		)
	}
	t.levelStart = append(t.levelStart, len(t.nodes))
}

// computeBounds computes min/max per dimension for points perm[start:end].
func (t *Tree) computeBounds(id, start, end int) {
	base := id * t.dims
	for d := 0; d < t.dims; d++ {
		t.boundsMin[base+d] = math.Inf(1)
		t.boundsMax[base+d] = math.Inf(-1)
	}
	for i := start; i < end; i++ {
		ptIdx := t.perm[i]
		for d := 0; d < t.dims; d++ {
			v := t.data[ptIdx*t.dims+d]
			if v < t.boundsMin[base+d] {
				t.boundsMin[base+d] = v
			}
			if v > t.boundsMax[base+d] {
				t.boundsMax[base+d] = v
			}
		}
	}
}

// sortByDimension sorts perm[start:end] by the given dimension. The sort is
// stable so that equal coordinates keep a deterministic order.
func (t *Tree) sortByDimension(start, end, dim int) {
	sub := t.perm[start:end]
	dims := t.dims
	data := t.data
	sort.SliceStable(sub, func(i, j int) bool {
		return data[sub[i]*dims+dim] < data[sub[j]*dims+dim]
	})
}

func (t *Tree) NumPoints() int   { return t.n }
func (t *Tree) NumFeatures() int { return t.dims }
func (t *Tree) LeafSize() int    { return t.leafSize }
func (t *Tree) NumBoxes() int    { return len(t.nodes) }
func (t *Tree) NumLevels() int   { return len(t.levelStart) - 1 }

// Permutation returns the array mapping tree-order positions back to
// original point indices. The slice is owned by the tree.
func (t *Tree) Permutation() []int { return t.perm }

// Point returns the coordinates of the body at tree position i.
func (t *Tree) Point(i int) []float64 {
	p := t.perm[i]
	return t.data[p*t.dims : (p+1)*t.dims]
}

// Root returns the box covering every body.
func (t *Tree) Root() Box { return Box{tree: t, id: 0} }

// Box returns the box with the given breadth-first index.
func (t *Tree) Box(i int) Box { return Box{tree: t, id: i} }

// Level returns the boxes at level l in index order.
func (t *Tree) Level(l int) []Box {
	begin, end := t.levelStart[l], t.levelStart[l+1]
	out := make([]Box, 0, end-begin)
	for i := begin; i < end; i++ {
		out = append(out, Box{tree: t, id: i})
	}
	return out
}

// PermuteInto writes src, given in caller order, into dst in tree order.
func (t *Tree) PermuteInto(dst, src []float64) {
	for i, p := range t.perm {
		dst[i] = src[p]
	}
}

// UnpermuteAdd adds src, given in tree order, into dst in caller order.
func (t *Tree) UnpermuteAdd(dst, src []float64) {
	for i, p := range t.perm {
		dst[p] += src[i]
	}
}

// Box is a lightweight handle to one node of a Tree.
type Box struct {
	tree *Tree
	id   int
}

func (b Box) Tree() *Tree    { return b.tree }
func (b Box) Index() int     { return b.id }
func (b Box) Level() int     { return b.tree.nodes[b.id].level }
func (b Box) IsLeaf() bool   { return b.tree.nodes[b.id].left < 0 }
func (b Box) BodyBegin() int { return b.tree.nodes[b.id].start }
func (b Box) BodyEnd() int   { return b.tree.nodes[b.id].end }
func (b Box) NumBodies() int { return b.BodyEnd() - b.BodyBegin() }

// Min returns the lower bound of the box along dimension d.
func (b Box) Min(d int) float64 { return b.tree.boundsMin[b.id*b.tree.dims+d] }

// Max returns the upper bound of the box along dimension d.
func (b Box) Max(d int) float64 { return b.tree.boundsMax[b.id*b.tree.dims+d] }

// Parent returns the enclosing box. ok is false at the root.
func (b Box) Parent() (Box, bool) {
	p := b.tree.nodes[b.id].parent
	if p < 0 {
		return Box{}, false
	}
	return Box{tree: b.tree, id: p}, true
}

// Children returns the child boxes in body order, or nil for a leaf.
func (b Box) Children() []Box {
	nd := b.tree.nodes[b.id]
	if nd.left < 0 {
		return nil
	}
	return []Box{{tree: b.tree, id: nd.left}, {tree: b.tree, id: nd.right}}
}
