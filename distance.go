package treecode

import "math"

// DistanceMetric provides distance computation with a reduced distance for
// tree pruning (squared Euclidean skips sqrt) and a lower bound on the
// reduced distance from a point to anything inside a box.
type DistanceMetric interface {
	Distance(a, b []float64) float64
	ReducedDistance(a, b []float64) float64
	// MinReducedDistance returns a lower bound, in reduced-distance space,
	// on the distance between point and any point in b's bounding rectangle.
	MinReducedDistance(b Box, point []float64) float64
}

// boxGap returns the distance from x to the interval [lo, hi], or 0 inside it.
func boxGap(x, lo, hi float64) float64 {
	switch {
	case x < lo:
		return lo - x
	case x > hi:
		return x - hi
	default:
		return 0
	}
}

// EuclideanMetric computes the Euclidean (L2) distance.
// ReducedDistance returns squared Euclidean distance (skips sqrt).
type EuclideanMetric struct{}

func (EuclideanMetric) Distance(a, b []float64) float64 {
	return math.Sqrt(euclideanSumOfSquares(a, b))
}

func (EuclideanMetric) ReducedDistance(a, b []float64) float64 {
	return euclideanSumOfSquares(a, b)
}

func (EuclideanMetric) MinReducedDistance(b Box, point []float64) float64 {
	var rdist float64
	for j := range point {
		d := boxGap(point[j], b.Min(j), b.Max(j))
		rdist += d * d
	}
	return rdist
}

func euclideanSumOfSquares(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// ManhattanMetric computes the Manhattan (L1 / city-block) distance.
type ManhattanMetric struct{}

func (ManhattanMetric) Distance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += math.Abs(a[i] - b[i])
	}
	return sum
}

func (m ManhattanMetric) ReducedDistance(a, b []float64) float64 { return m.Distance(a, b) }

func (ManhattanMetric) MinReducedDistance(b Box, point []float64) float64 {
	var rdist float64
	for j := range point {
		rdist += boxGap(point[j], b.Min(j), b.Max(j))
	}
	return rdist
}

// ChebyshevMetric computes the Chebyshev (L-infinity) distance.
type ChebyshevMetric struct{}

func (ChebyshevMetric) Distance(a, b []float64) float64 {
	var maxVal float64
	for i := range a {
		if v := math.Abs(a[i] - b[i]); v > maxVal {
			maxVal = v
		}
	}
	return maxVal
}

func (m ChebyshevMetric) ReducedDistance(a, b []float64) float64 { return m.Distance(a, b) }

func (ChebyshevMetric) MinReducedDistance(b Box, point []float64) float64 {
	var rdist float64
	for j := range point {
		if d := boxGap(point[j], b.Min(j), b.Max(j)); d > rdist {
			rdist = d
		}
	}
	return rdist
}

// MinkowskiMetric computes the Minkowski distance parameterized by P.
// P must be >= 1. Panics if P < 1.
// ReducedDistance returns sum(|a[i]-b[i]|^P) without the final root.
type MinkowskiMetric struct {
	P float64
}

func (m MinkowskiMetric) Distance(a, b []float64) float64 {
	return math.Pow(m.rawSum(a, b), 1.0/m.P)
}

func (m MinkowskiMetric) ReducedDistance(a, b []float64) float64 {
	return m.rawSum(a, b)
}

func (m MinkowskiMetric) MinReducedDistance(b Box, point []float64) float64 {
	m.checkP()
	var rdist float64
	for j := range point {
		rdist += math.Pow(boxGap(point[j], b.Min(j), b.Max(j)), m.P)
	}
	return rdist
}

func (m MinkowskiMetric) rawSum(a, b []float64) float64 {
	m.checkP()
	var sum float64
	for i := range a {
		sum += math.Pow(math.Abs(a[i]-b[i]), m.P)
	}
	return sum
}

func (m MinkowskiMetric) checkP() {
	if m.P < 1 {
		panic("MinkowskiMetric: P must be >= 1")
	}
}
