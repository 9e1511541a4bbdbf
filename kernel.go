package treecode

import "fmt"

// Kernel evaluates a target-source interaction and folds it with the
// source's charge into a record that can be accumulated.
//
// P is the point type, C the charge type, V the interaction value and R the
// accumulated record.
type Kernel[P, C, V, R any] interface {
	Evaluate(target, source P) V
	Combine(v V, charge C) R
}

// Accumulator receives kernel records. *Ordered satisfies it.
type Accumulator[R any] interface {
	Offer(r R)
}

// Accumulate offers one record per source to acc: Combine(Evaluate(target,
// sources[i]), charges[i]).
func Accumulate[P, C, V, R any](k Kernel[P, C, V, R], target P, sources []P, charges []C, acc Accumulator[R]) {
	for i, s := range sources {
		acc.Offer(k.Combine(k.Evaluate(target, s), charges[i]))
	}
}

// Neighbor is a source identified by its original index and its reduced
// distance to the query point.
type Neighbor struct {
	Distance float64
	Index    int
}

func (n Neighbor) String() string { return fmt.Sprintf("(%g, %d)", n.Distance, n.Index) }

// ByDistance orders neighbors by ascending distance only, so an Ordered
// container keeps the neighbor offered first among equals.
func ByDistance(a, b Neighbor) bool { return a.Distance < b.Distance }

// KNNKernel is the nearest-neighbor kernel: the interaction is the reduced
// distance (squared Euclidean for EuclideanMetric) and the charge is the
// source's original index.
type KNNKernel struct {
	Metric DistanceMetric
}

func (k KNNKernel) Evaluate(target, source []float64) float64 {
	return k.Metric.ReducedDistance(target, source)
}

func (KNNKernel) Combine(d float64, index int) Neighbor {
	return Neighbor{Distance: d, Index: index}
}

// NewNeighbors returns an empty container for the k nearest neighbors.
func NewNeighbors(k int) *Ordered[Neighbor] {
	return NewOrderedFunc(k, ByDistance)
}
