package treecode

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func smoothKernel(t, s []float64) float64 {
	d := euclideanSumOfSquares(t, s)
	return 1 / (1 + d)
}

// compressCase builds an n×m kernel matrix over random points.
func compressCase(seed int64, n, m, dims int, f func(t, s []float64) float64) (data, targets, sources []float64) {
	rng := rand.New(rand.NewSource(seed))
	targets = RandomPoints(rng, n, dims)
	sources = RandomPoints(rng, m, dims)
	return KernelMatrix(targets, sources, n, m, dims, dims, f), targets, sources
}

func relativeError(want, got []float64) float64 {
	diff := make([]float64, len(want))
	floats.SubTo(diff, want, got)
	return floats.Norm(diff, 2) / floats.Norm(want, 2)
}

func TestCompress_AllOnesRankOne(t *testing.T) {
	n := 8
	data := make([]float64, n*n)
	for i := range data {
		data[i] = 1
	}
	pts := make([]float64, n)
	for i := range pts {
		pts[i] = float64(i) / float64(n)
	}

	bm, err := Compress(data, n, n, pts, pts, CompressConfig{MaxRank: 1, Tolerance: 1e-10})
	require.NoError(t, err)
	require.NoError(t, bm.CheckCoverage())

	for ti := 0; ti < bm.TargetTree().NumBoxes(); ti++ {
		for _, l := range bm.Leaves(bm.TargetTree().Box(ti)) {
			assert.LessOrEqual(t, l.Rank(), 1)
		}
	}
	st := bm.Stats()
	assert.Equal(t, 1, st.FactoredLeaves, "the root block is exactly rank one")
	assert.Equal(t, 0, st.DenseLeaves)

	x := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	got, err := bm.Mul(x)
	require.NoError(t, err)
	for i := range got {
		assert.InDelta(t, 36.0, got[i], 1e-10)
	}
}

func TestCompress_LargeRankAcceptsRootDense(t *testing.T) {
	data, targets, sources := compressCase(3, 12, 9, 2, smoothKernel)
	bm, err := Compress(data, 12, 9, targets, sources, CompressConfig{MaxRank: 9, TargetDims: 2, SourceDims: 2})
	require.NoError(t, err)

	// min(12, 9) fits the rank budget, so the root pair is stored dense.
	st := bm.Stats()
	require.Equal(t, 1, st.DenseLeaves)
	assert.Equal(t, 0, st.FactoredLeaves)
	leaves := bm.Leaves(bm.TargetTree().Root())
	require.Len(t, leaves, 1)
	assert.True(t, leaves[0].IsDense())
	assert.Equal(t, 1.0, st.CompressionRatio())

	x := RandomPoints(rand.New(rand.NewSource(4)), 9, 1)
	want := make([]float64, 12)
	require.NoError(t, DirectProd(data, 12, 9, x, want))
	got, err := bm.Mul(x)
	require.NoError(t, err)
	assert.InDeltaSlice(t, want, got, 1e-12)

	assert.True(t, mat.EqualApprox(mat.NewDense(12, 9, data), bm.Dense(), 1e-14))
}

func TestCompress_RandomMatrixFallsBackToDenseLeaves(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	n, m := 40, 30
	data := RandomPoints(rng, n*m, 1)
	targets := RandomPoints(rng, n, 1)
	sources := RandomPoints(rng, m, 1)

	bm, err := Compress(data, n, m, targets, sources, CompressConfig{MaxRank: 2, Tolerance: 1e-12})
	require.NoError(t, err)
	require.NoError(t, bm.CheckCoverage())
	assert.Greater(t, bm.Stats().DenseLeaves, 1)

	// Whatever rank-2 blocks were accepted meet the tolerance, and dense
	// blocks are exact.
	assert.True(t, mat.EqualApprox(mat.NewDense(n, m, data), bm.Dense(), 1e-9))
}

func TestCompress_SmoothKernelCompresses(t *testing.T) {
	n, m := 400, 300
	data, targets, sources := compressCase(1, n, m, 1, smoothKernel)

	bm, err := Compress(data, n, m, targets, sources, CompressConfig{MaxRank: 8, Tolerance: 1e-6, Workers: 4})
	require.NoError(t, err)
	require.NoError(t, bm.CheckCoverage())

	st := bm.Stats()
	assert.Greater(t, st.FactoredLeaves, 0)
	assert.LessOrEqual(t, st.MaxRank, 8)
	assert.Less(t, st.CompressionRatio(), 0.5)

	x := RandomPoints(rand.New(rand.NewSource(2)), m, 1)
	want := make([]float64, n)
	require.NoError(t, DirectProd(data, n, m, x, want))
	got, err := bm.Mul(x)
	require.NoError(t, err)
	assert.Less(t, relativeError(want, got), 1e-4)
}

func TestCompress_CoverageForManyBudgets(t *testing.T) {
	data, targets, sources := compressCase(5, 70, 55, 2, smoothKernel)
	for _, rank := range []int{1, 2, 3, 5, 8, 60} {
		for _, tol := range []float64{0, 1e-12, 1e-6, 1e-2} {
			bm, err := Compress(data, 70, 55, targets, sources,
				CompressConfig{MaxRank: rank, Tolerance: tol, TargetDims: 2, SourceDims: 2, Workers: 2})
			require.NoError(t, err)
			require.NoError(t, bm.CheckCoverage(), "rank=%d tol=%g", rank, tol)
		}
	}
}

func TestCompress_LeafCountsMatchLeaves(t *testing.T) {
	data, targets, sources := compressCase(6, 90, 80, 1, smoothKernel)
	bm, err := Compress(data, 90, 80, targets, sources, CompressConfig{MaxRank: 3, Tolerance: 1e-8})
	require.NoError(t, err)

	tt := bm.TargetTree()
	for l := 0; l < tt.NumLevels(); l++ {
		count := 0
		for _, b := range tt.Level(l) {
			count += len(bm.Leaves(b))
		}
		assert.Equal(t, count, bm.LeafCount(l), "level %d", l)
	}
}

func TestCompress_Preconditions(t *testing.T) {
	data := make([]float64, 6)
	pts3 := []float64{0, 1, 2}
	pts2 := []float64{0, 1}

	_, err := Compress(data[:5], 3, 2, pts3, pts2, CompressConfig{})
	require.ErrorIs(t, err, ErrDimensionMismatch)
	var de *DimensionError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "matrix", de.What)
	assert.Equal(t, 6, de.Expected)

	_, err = Compress(data, 3, 2, pts2, pts2, CompressConfig{})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = Compress(data, 3, 2, pts3, pts3, CompressConfig{})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = Compress(nil, 0, 2, nil, pts2, CompressConfig{})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	for _, cfg := range []CompressConfig{
		{MaxRank: -1},
		{Tolerance: -1},
		{Tolerance: math.NaN()},
		{TargetDims: -2},
		{SourceDims: -2},
		{Workers: -1},
	} {
		_, err = Compress(data, 3, 2, pts3, pts2, cfg)
		assert.ErrorIs(t, err, ErrInvalidConfig, "%+v", cfg)
	}
}

func TestCompress_LogsSummary(t *testing.T) {
	var buf bytes.Buffer
	data, targets, sources := compressCase(7, 30, 30, 1, smoothKernel)
	_, err := Compress(data, 30, 30, targets, sources, CompressConfig{
		MaxRank: 4,
		Logger:  NewTextLogger(&buf, slog.LevelDebug),
	})
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "block matrix compressed")
	assert.Contains(t, out, "trees built")
	assert.Contains(t, out, "block accepted")
}
