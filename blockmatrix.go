package treecode

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"gonum.org/v1/gonum/mat"
)

// Leaf is one block of a BlockMatrix: the rows of its target box against
// the columns of Source.
//
// A dense leaf has U == nil and V holding the exact sub-block. A factored
// leaf approximates the sub-block by U*V.
type Leaf struct {
	Source Box
	U, V   *mat.Dense
}

// IsDense reports whether the leaf stores the exact sub-block.
func (l Leaf) IsDense() bool { return l.U == nil }

// Rank returns the factor rank, or min(rows, cols) for a dense leaf.
func (l Leaf) Rank() int {
	r, c := l.V.Dims()
	if l.U == nil {
		return min(r, c)
	}
	return r
}

// BlockMatrix is a hierarchically block-compressed matrix whose rows are
// indexed by the bodies of a target tree and columns by the bodies of a
// source tree. It is populated by Compress and read-only afterwards.
type BlockMatrix struct {
	target *Tree
	source *Tree
	// leaves[i] holds the blocks whose target box has index i.
	leaves [][]Leaf
	// leafCount[l] counts the blocks whose target box is at level l.
	leafCount []int
	workers   int
}

// NewBlockMatrix returns an empty block matrix over the two trees, sized
// per target box and per target level.
func NewBlockMatrix(target, source *Tree) *BlockMatrix {
	return &BlockMatrix{
		target:    target,
		source:    source,
		leaves:    make([][]Leaf, target.NumBoxes()),
		leafCount: make([]int, target.NumLevels()),
		workers:   1,
	}
}

// AddLeaf appends a block for the pair (s, t). It does not check that the
// new block is disjoint from existing ones.
func (m *BlockMatrix) AddLeaf(s, t Box, u, v *mat.Dense) {
	m.leaves[t.Index()] = append(m.leaves[t.Index()], Leaf{Source: s, U: u, V: v})
	m.leafCount[t.Level()]++
}

func (m *BlockMatrix) TargetTree() *Tree { return m.target }
func (m *BlockMatrix) SourceTree() *Tree { return m.source }
func (m *BlockMatrix) Rows() int         { return m.target.NumPoints() }
func (m *BlockMatrix) Cols() int         { return m.source.NumPoints() }

// Leaves returns the blocks stored for target box t.
func (m *BlockMatrix) Leaves(t Box) []Leaf { return m.leaves[t.Index()] }

// LeafCount returns the number of blocks whose target box is at level l.
func (m *BlockMatrix) LeafCount(level int) int { return m.leafCount[level] }

// Stats summarizes the storage of a BlockMatrix.
type Stats struct {
	DenseLeaves    int
	FactoredLeaves int
	MaxRank        int
	// StoredEntries counts the float64 values held by all leaves.
	StoredEntries int
	// DenseEntries is Rows*Cols.
	DenseEntries int
}

// CompressionRatio is StoredEntries / DenseEntries.
func (s Stats) CompressionRatio() float64 {
	if s.DenseEntries == 0 {
		return 0
	}
	return float64(s.StoredEntries) / float64(s.DenseEntries)
}

// Stats walks every leaf and reports storage counts.
func (m *BlockMatrix) Stats() Stats {
	st := Stats{DenseEntries: m.Rows() * m.Cols()}
	for _, list := range m.leaves {
		for _, l := range list {
			r, c := l.V.Dims()
			st.StoredEntries += r * c
			if l.IsDense() {
				st.DenseLeaves++
				continue
			}
			st.FactoredLeaves++
			ur, uc := l.U.Dims()
			st.StoredEntries += ur * uc
			st.MaxRank = max(st.MaxRank, l.Rank())
		}
	}
	return st
}

// CheckCoverage verifies that the blocks cover every (row, col) entry of
// the matrix exactly once. It returns an error wrapping ErrCoverage naming
// the first entry covered twice or left uncovered.
func (m *BlockMatrix) CheckCoverage() error {
	rows, cols := m.Rows(), m.Cols()
	covered := bitset.New(uint(rows * cols))

	for ti, list := range m.leaves {
		t := m.target.Box(ti)
		for _, l := range list {
			for i := t.BodyBegin(); i < t.BodyEnd(); i++ {
				for j := l.Source.BodyBegin(); j < l.Source.BodyEnd(); j++ {
					cell := uint(i*cols + j)
					if covered.Test(cell) {
						return fmt.Errorf("%w: entry (%d, %d) covered twice", ErrCoverage, i, j)
					}
					covered.Set(cell)
				}
			}
		}
	}

	if n := covered.Count(); n != uint(rows*cols) {
		first, _ := covered.Complement().NextSet(0)
		return fmt.Errorf("%w: %d of %d entries uncovered, first at (%d, %d)",
			ErrCoverage, uint(rows*cols)-n, rows*cols, int(first)/cols, int(first)%cols)
	}
	return nil
}

// Dense reconstructs the full rows×cols approximation in caller order.
func (m *BlockMatrix) Dense() *mat.Dense {
	rows, cols := m.Rows(), m.Cols()
	out := mat.NewDense(rows, cols, nil)
	tperm := m.target.Permutation()
	sperm := m.source.Permutation()

	var block mat.Dense
	for ti, list := range m.leaves {
		t := m.target.Box(ti)
		for _, l := range list {
			var b mat.Matrix = l.V
			if !l.IsDense() {
				block.Reset()
				block.Mul(l.U, l.V)
				b = &block
			}
			for i := 0; i < t.NumBodies(); i++ {
				for j := 0; j < l.Source.NumBodies(); j++ {
					out.Set(tperm[t.BodyBegin()+i], sperm[l.Source.BodyBegin()+j], b.At(i, j))
				}
			}
		}
	}
	return out
}
