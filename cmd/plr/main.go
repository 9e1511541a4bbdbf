// Command plr compresses a smooth kernel matrix over random points into a
// block low-rank representation and compares the compressed product with
// the dense one.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/TrevorS/treecode"
)

func main() {
	n := flag.Int("N", 2000, "number of targets (rows)")
	m := flag.Int("M", 2000, "number of sources (columns)")
	dims := flag.Int("d", 1, "point dimensionality")
	rank := flag.Int("rank", 8, "maximum block rank")
	eps := flag.Float64("eps", 1e-8, "relative singular-value tolerance")
	workers := flag.Int("workers", 0, "product workers per level (0 = NumCPU)")
	seed := flag.Int64("seed", 1, "random seed")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := treecode.NewTextLogger(os.Stderr, level)

	if err := run(logger, *n, *m, *dims, *rank, *eps, *workers, *seed); err != nil {
		logger.Error("plr failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(logger *slog.Logger, n, m, dims, rank int, eps float64, workers int, seed int64) error {
	rng := rand.New(rand.NewSource(seed))
	targets := treecode.RandomPoints(rng, n, dims)
	sources := treecode.RandomPoints(rng, m, dims)
	data := treecode.KernelMatrix(targets, sources, n, m, dims, dims, func(t, s []float64) float64 {
		return 1 / (1 + treecode.EuclideanMetric{}.ReducedDistance(t, s))
	})

	cfg := treecode.DefaultCompressConfig()
	cfg.MaxRank = rank
	cfg.Tolerance = eps
	cfg.TargetDims = dims
	cfg.SourceDims = dims
	cfg.Workers = workers
	cfg.Logger = logger

	bm, err := treecode.Compress(data, n, m, targets, sources, cfg)
	if err != nil {
		return err
	}
	st := bm.Stats()
	fmt.Printf("Leaves: %d dense, %d factored (max rank %d)\n", st.DenseLeaves, st.FactoredLeaves, st.MaxRank)
	fmt.Printf("Storage: %d of %d entries (%.2f%%)\n", st.StoredEntries, st.DenseEntries, 100*st.CompressionRatio())

	x := treecode.RandomPoints(rng, m, 1)

	start := time.Now()
	y, err := bm.Mul(x)
	if err != nil {
		return err
	}
	logger.Info("compressed product", slog.Duration("elapsed", time.Since(start)))

	start = time.Now()
	exact := make([]float64, n)
	if err := treecode.DirectProd(data, n, m, x, exact); err != nil {
		return err
	}
	logger.Info("direct product", slog.Duration("elapsed", time.Since(start)))

	diff := make([]float64, n)
	floats.SubTo(diff, exact, y)
	fmt.Printf("Relative 2-norm error: %e\n", floats.Norm(diff, 2)/floats.Norm(exact, 2))
	return nil
}
