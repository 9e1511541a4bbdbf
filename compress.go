package treecode

import (
	"log/slog"
	"math"
	"runtime"
	"time"

	"gonum.org/v1/gonum/mat"
)

// CompressConfig controls block compression.
// Start with [DefaultCompressConfig] and override the fields you need.
type CompressConfig struct {
	// MaxRank is the largest rank stored for any factored block. It is also
	// the tree leaf size, so every leaf pair can be stored densely.
	// Must be >= 1. Default: 8.
	MaxRank int

	// Tolerance is the relative singular-value cutoff used to decide the
	// numerical rank of a block. Must be >= 0 and finite. Zero keeps every
	// nonzero singular value. DefaultCompressConfig uses 1e-10.
	Tolerance float64

	// TargetDims and SourceDims are the dimensionality of the row and column
	// points. Default: 1.
	TargetDims int
	SourceDims int

	// Workers bounds the goroutines used per level by ProdAcc.
	// 0 means use runtime.NumCPU().
	Workers int

	// Logger receives per-block decisions at debug level and a summary at
	// info level. nil discards them.
	Logger *slog.Logger
}

// DefaultCompressConfig returns a CompressConfig with reasonable defaults.
func DefaultCompressConfig() CompressConfig {
	return CompressConfig{
		MaxRank:    8,
		Tolerance:  1e-10,
		TargetDims: 1,
		SourceDims: 1,
	}
}

func (cfg *CompressConfig) applyDefaults() {
	if cfg.MaxRank == 0 {
		cfg.MaxRank = 8
	}
	if cfg.TargetDims == 0 {
		cfg.TargetDims = 1
	}
	if cfg.SourceDims == 0 {
		cfg.SourceDims = 1
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
	cfg.Logger = loggerOrDiscard(cfg.Logger)
}

func (cfg *CompressConfig) validate() error {
	if cfg.MaxRank < 1 {
		return configError("MaxRank must be >= 1, got %d", cfg.MaxRank)
	}
	if cfg.Tolerance < 0 || math.IsNaN(cfg.Tolerance) || math.IsInf(cfg.Tolerance, 0) {
		return configError("Tolerance must be finite and >= 0, got %f", cfg.Tolerance)
	}
	if cfg.TargetDims < 1 {
		return configError("TargetDims must be >= 1, got %d", cfg.TargetDims)
	}
	if cfg.SourceDims < 1 {
		return configError("SourceDims must be >= 1, got %d", cfg.SourceDims)
	}
	if cfg.Workers < 1 {
		return configError("Workers must be >= 1, got %d", cfg.Workers)
	}
	return nil
}

// Compress builds a BlockMatrix approximating the row-major rows×cols
// matrix in data. Row i belongs to target point i and column j to source
// point j; both point arrays are flat row-major.
//
// Starting from the two tree roots, each (source, target) box pair is
// stored densely when MaxRank >= min(rows, cols) of the block, stored as a
// rank <= MaxRank factorization when one exists within Tolerance, and
// split into all child pairs otherwise.
func Compress(data []float64, rows, cols int, targets, sources []float64, cfg CompressConfig) (*BlockMatrix, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if rows < 1 || cols < 1 {
		return nil, configError("matrix must be non-empty, got %d×%d", rows, cols)
	}
	if err := checkLen("matrix", len(data), rows*cols); err != nil {
		return nil, err
	}
	if err := checkLen("targets", len(targets), rows*cfg.TargetDims); err != nil {
		return nil, err
	}
	if err := checkLen("sources", len(sources), cols*cfg.SourceDims); err != nil {
		return nil, err
	}

	log := cfg.Logger
	start := time.Now()

	targetTree := NewTree(targets, rows, cfg.TargetDims, cfg.MaxRank)
	sourceTree := NewTree(sources, cols, cfg.SourceDims, cfg.MaxRank)
	bm := NewBlockMatrix(targetTree, sourceTree)
	bm.workers = cfg.Workers
	log.Debug("trees built",
		slog.Int("target_boxes", targetTree.NumBoxes()),
		slog.Int("source_boxes", sourceTree.NumBoxes()),
		slog.Duration("elapsed", time.Since(start)),
	)

	a := permuteMatrix(data, rows, cols, targetTree, sourceTree)

	eval := func(s, t Box) Split {
		n, m := t.NumBodies(), s.NumBodies()
		sub := a.Slice(t.BodyBegin(), t.BodyEnd(), s.BodyBegin(), s.BodyEnd())

		if cfg.MaxRank >= min(n, m) {
			bm.AddLeaf(s, t, nil, mat.DenseCopyOf(sub))
			log.Debug("block accepted dense", slog.Int("target", t.Index()), slog.Int("source", s.Index()),
				slog.Int("rows", n), slog.Int("cols", m))
			return SplitNone
		}

		if u, vt, ok := ProbeSVD(sub, cfg.MaxRank, cfg.Tolerance); ok {
			_, r := u.Dims()
			bm.AddLeaf(s, t, u, vt)
			log.Debug("block accepted factored", slog.Int("target", t.Index()), slog.Int("source", s.Index()),
				slog.Int("rows", n), slog.Int("cols", m), slog.Int("rank", r))
			return SplitNone
		}

		log.Debug("block rejected", slog.Int("target", t.Index()), slog.Int("source", s.Index()),
			slog.Int("rows", n), slog.Int("cols", m))
		return SplitBoth
	}
	TraverseDual(sourceTree.Root(), targetTree.Root(), eval)

	st := bm.Stats()
	log.Info("block matrix compressed",
		slog.Int("rows", rows),
		slog.Int("cols", cols),
		slog.Int("dense_leaves", st.DenseLeaves),
		slog.Int("factored_leaves", st.FactoredLeaves),
		slog.Float64("ratio", st.CompressionRatio()),
		slog.Duration("elapsed", time.Since(start)),
	)
	return bm, nil
}

// permuteMatrix copies data into a dense matrix whose rows and columns are
// in target and source tree order.
func permuteMatrix(data []float64, rows, cols int, target, source *Tree) *mat.Dense {
	a := mat.NewDense(rows, cols, nil)
	tperm := target.Permutation()
	sperm := source.Permutation()
	for i, ti := range tperm {
		row := data[ti*cols : (ti+1)*cols]
		for j, sj := range sperm {
			a.Set(i, j, row[sj])
		}
	}
	return a
}
