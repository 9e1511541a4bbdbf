package treecode

import "math/rand"

// RandomPoints returns n uniformly distributed points in [0, 1)^dims as a
// flat row-major slice.
func RandomPoints(rng *rand.Rand, n, dims int) []float64 {
	pts := make([]float64, n*dims)
	for i := range pts {
		pts[i] = rng.Float64()
	}
	return pts
}

// KernelMatrix evaluates f(target_i, source_j) for every pair and returns the
// rows×cols result in row-major order.
func KernelMatrix(targets, sources []float64, rows, cols, targetDims, sourceDims int, f func(t, s []float64) float64) []float64 {
	out := make([]float64, rows*cols)
	for i := 0; i < rows; i++ {
		t := targets[i*targetDims : (i+1)*targetDims]
		for j := 0; j < cols; j++ {
			out[i*cols+j] = f(t, sources[j*sourceDims:(j+1)*sourceDims])
		}
	}
	return out
}
