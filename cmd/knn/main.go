// Command knn finds the K nearest random 1-D sources of random 1-D targets
// with a single-tree traversal and optionally checks the result against a
// brute-force search.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"runtime"
	"time"

	"github.com/TrevorS/treecode"
)

func main() {
	n := flag.Int("N", 1000, "number of targets")
	m := flag.Int("M", 1000, "number of sources")
	k := flag.Int("K", 5, "neighbors per target")
	leaf := flag.Int("leaf", 40, "maximum sources per tree leaf")
	prune := flag.String("prune", string(treecode.PruneNone), "pruning rule: none or bounds")
	order := flag.String("order", string(treecode.ChildOrderNatural), "child order: natural or nearest")
	noCheck := flag.Bool("nocheck", false, "skip the brute-force check")
	seed := flag.Int64("seed", 1, "random seed")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := treecode.NewTextLogger(os.Stderr, level)

	if err := run(logger, *n, *m, *k, *leaf, *prune, *order, !*noCheck, *seed); err != nil {
		logger.Error("knn failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(logger *slog.Logger, n, m, k, leaf int, prune, order string, check bool, seed int64) error {
	rng := rand.New(rand.NewSource(seed))
	sources := treecode.RandomPoints(rng, m, 1)
	targets := treecode.RandomPoints(rng, n, 1)

	cfg := treecode.DefaultKNNConfig()
	cfg.K = k
	cfg.LeafSize = leaf
	cfg.Prune = treecode.PruneMode(prune)
	cfg.ChildOrder = treecode.ChildOrder(order)
	cfg.Logger = logger

	start := time.Now()
	results, err := treecode.KNN(targets, sources, n, m, cfg)
	if err != nil {
		return err
	}
	logger.Info("tree search complete", slog.Int("targets", n), slog.Int("sources", m), slog.Duration("elapsed", time.Since(start)))

	if !check {
		return nil
	}

	logger.Info("computing direct search")
	exact := treecode.DirectKNNParallel(treecode.EuclideanMetric{}, targets, sources, n, m, 1, k, runtime.NumCPU())

	width := int(math.Log10(float64(max(n, 1)))) + 1
	wrong := 0
	for i := range exact {
		if !equalNeighbors(exact[i], results[i]) {
			fmt.Printf("[%*d] Exact: %v, Tree: %v\n", width, i, exact[i], results[i])
			wrong++
		}
	}
	fmt.Printf("Wrong counts: %d of %d\n", wrong, n)
	return nil
}

func equalNeighbors(a, b []treecode.Neighbor) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
