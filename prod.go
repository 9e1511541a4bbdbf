package treecode

import (
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// ProdAcc computes y += A*x, where x is indexed by source point and y by
// target point in caller order. y is accumulated into and never cleared;
// zero it first, or use Mul, for a fresh product.
//
// Target levels are processed in order. Within a level, target boxes are
// spread over a bounded pool of workers; each worker writes only the result
// slice of its own box, and charges and blocks are shared read-only.
func (m *BlockMatrix) ProdAcc(x, y []float64) error {
	if err := checkLen("charges", len(x), m.Cols()); err != nil {
		return err
	}
	if err := checkLen("results", len(y), m.Rows()); err != nil {
		return err
	}

	// Permute the charges to match the body order in the source tree.
	px := make([]float64, m.Cols())
	m.source.PermuteInto(px, x)
	py := make([]float64, m.Rows())

	for level := 0; level < m.target.NumLevels(); level++ {
		if m.leafCount[level] == 0 {
			continue
		}
		var g errgroup.Group
		g.SetLimit(max(m.workers, 1))
		for _, t := range m.target.Level(level) {
			if len(m.leaves[t.Index()]) == 0 {
				continue
			}
			g.Go(func() error {
				m.applyBox(t, px, py)
				return nil
			})
		}
		_ = g.Wait()
	}

	m.target.UnpermuteAdd(y, py)
	return nil
}

// applyBox adds the contribution of every block of target box t into its
// slice of py.
func (m *BlockMatrix) applyBox(t Box, px, py []float64) {
	yv := mat.NewVecDense(t.NumBodies(), py[t.BodyBegin():t.BodyEnd()])
	var vx, contrib mat.VecDense
	for _, l := range m.leaves[t.Index()] {
		s := l.Source
		xv := mat.NewVecDense(s.NumBodies(), px[s.BodyBegin():s.BodyEnd()])

		vx.Reset()
		vx.MulVec(l.V, xv)
		if l.IsDense() {
			yv.AddVec(yv, &vx)
			continue
		}
		contrib.Reset()
		contrib.MulVec(l.U, &vx)
		yv.AddVec(yv, &contrib)
	}
}

// Mul returns A*x as a new slice.
func (m *BlockMatrix) Mul(x []float64) ([]float64, error) {
	y := make([]float64, m.Rows())
	if err := m.ProdAcc(x, y); err != nil {
		return nil, err
	}
	return y, nil
}
