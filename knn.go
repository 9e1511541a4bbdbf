package treecode

import (
	"log/slog"
	"time"
)

// PruneMode selects the pruning rule of the nearest-neighbor traversal.
type PruneMode string

const (
	// PruneNone never prunes; every source leaf reaches the base case.
	PruneNone PruneMode = "none"
	// PruneBounds skips a box once k neighbors are held and the box's
	// lower bound is strictly greater than the current k-th distance.
	PruneBounds PruneMode = "bounds"
)

// ChildOrder selects the child visiting order of the nearest-neighbor traversal.
type ChildOrder string

const (
	ChildOrderNatural ChildOrder = "natural"
	// ChildOrderNearest visits the child with the smaller lower bound first.
	ChildOrderNearest ChildOrder = "nearest"
)

// KNNConfig controls nearest-neighbor search.
// Start with [DefaultKNNConfig] and override the fields you need.
type KNNConfig struct {
	// K is the number of neighbors kept per target. Must be >= 1. Default: 5.
	K int

	// LeafSize is the maximum number of sources in a tree leaf. Default: 40.
	LeafSize int

	// Dims is the dimensionality of targets and sources. Default: 1.
	Dims int

	// Metric measures target-source distance. Neighbor.Distance holds its
	// reduced distance. Default: EuclideanMetric (squared distances).
	Metric DistanceMetric

	// Prune selects the pruning rule. Default: PruneNone.
	Prune PruneMode

	// ChildOrder selects the child visiting order. Default: ChildOrderNatural.
	ChildOrder ChildOrder

	// Logger receives construction diagnostics. nil discards them.
	Logger *slog.Logger
}

// DefaultKNNConfig returns a KNNConfig with reasonable defaults.
func DefaultKNNConfig() KNNConfig {
	return KNNConfig{
		K:          5,
		LeafSize:   40,
		Dims:       1,
		Metric:     EuclideanMetric{},
		Prune:      PruneNone,
		ChildOrder: ChildOrderNatural,
	}
}

func (cfg *KNNConfig) applyDefaults() {
	if cfg.K == 0 {
		cfg.K = 5
	}
	if cfg.LeafSize == 0 {
		cfg.LeafSize = 40
	}
	if cfg.Dims == 0 {
		cfg.Dims = 1
	}
	if cfg.Metric == nil {
		cfg.Metric = EuclideanMetric{}
	}
	if cfg.Prune == "" {
		cfg.Prune = PruneNone
	}
	if cfg.ChildOrder == "" {
		cfg.ChildOrder = ChildOrderNatural
	}
	cfg.Logger = loggerOrDiscard(cfg.Logger)
}

func (cfg *KNNConfig) validate() error {
	if cfg.K < 1 {
		return configError("K must be >= 1, got %d", cfg.K)
	}
	if cfg.LeafSize < 1 {
		return configError("LeafSize must be >= 1, got %d", cfg.LeafSize)
	}
	if cfg.Dims < 1 {
		return configError("Dims must be >= 1, got %d", cfg.Dims)
	}
	switch cfg.Prune {
	case PruneNone, PruneBounds:
	default:
		return configError("invalid Prune %q", cfg.Prune)
	}
	switch cfg.ChildOrder {
	case ChildOrderNatural, ChildOrderNearest:
	default:
		return configError("invalid ChildOrder %q", cfg.ChildOrder)
	}
	return nil
}

// Searcher answers k-nearest-neighbor queries against a fixed source set.
// A Searcher is safe for concurrent queries once built.
type Searcher struct {
	cfg     KNNConfig
	tree    *Tree
	kernel  KNNKernel
	points  [][]float64 // source coordinates in tree order
	charges []int       // original source index in tree order
}

// NewSearcher builds the source tree for n flat row-major points.
func NewSearcher(sources []float64, n int, cfg KNNConfig) (*Searcher, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := checkLen("sources", len(sources), n*cfg.Dims); err != nil {
		return nil, err
	}

	start := time.Now()
	tree := NewTree(sources, n, cfg.Dims, cfg.LeafSize)
	cfg.Logger.Debug("source tree built",
		slog.Int("points", n),
		slog.Int("boxes", tree.NumBoxes()),
		slog.Int("levels", tree.NumLevels()),
		slog.Duration("elapsed", time.Since(start)),
	)

	// Permute the sources and charges into tree order.
	points := make([][]float64, n)
	charges := make([]int, n)
	for i := range points {
		points[i] = tree.Point(i)
		charges[i] = tree.Permutation()[i]
	}

	return &Searcher{
		cfg:     cfg,
		tree:    tree,
		kernel:  KNNKernel{Metric: cfg.Metric},
		points:  points,
		charges: charges,
	}, nil
}

// Tree returns the source tree.
func (s *Searcher) Tree() *Tree { return s.tree }

// Query returns the K sources nearest to target, sorted by ascending
// reduced distance. Fewer than K are returned when there are fewer sources.
func (s *Searcher) Query(target []float64) []Neighbor {
	r := s.query(target)
	return r.Slice()
}

func (s *Searcher) query(target []float64) *Ordered[Neighbor] {
	r := NewNeighbors(s.cfg.K)
	if s.tree.NumPoints() == 0 {
		return r
	}
	Traverse(s.tree.Root(), s.policy(target, r))
	return r
}

func (s *Searcher) policy(target []float64, r *Ordered[Neighbor]) Policy {
	p := Policy{
		BaseCase: func(b Box) {
			lo, hi := b.BodyBegin(), b.BodyEnd()
			Accumulate[[]float64, int, float64, Neighbor](s.kernel, target, s.points[lo:hi], s.charges[lo:hi], r)
		},
	}

	metric := s.cfg.Metric
	if s.cfg.Prune == PruneBounds {
		p.Prune = func(b Box) bool {
			return r.Full() && metric.MinReducedDistance(b, target) > r.Back().Distance
		}
	}
	if s.cfg.ChildOrder == ChildOrderNearest {
		p.ChildOrder = func(b Box) []Box {
			children := b.Children()
			if metric.MinReducedDistance(children[1], target) < metric.MinReducedDistance(children[0], target) {
				children[0], children[1] = children[1], children[0]
			}
			return children
		}
	}
	return p
}

// KNN finds, for each of nTargets flat row-major targets, the cfg.K nearest
// of nSources sources. results[i] is sorted by ascending reduced distance.
func KNN(targets, sources []float64, nTargets, nSources int, cfg KNNConfig) ([][]Neighbor, error) {
	s, err := NewSearcher(sources, nSources, cfg)
	if err != nil {
		return nil, err
	}
	dims := s.cfg.Dims
	if err := checkLen("targets", len(targets), nTargets*dims); err != nil {
		return nil, err
	}

	start := time.Now()
	results := make([][]Neighbor, nTargets)
	for i := range results {
		results[i] = s.Query(targets[i*dims : (i+1)*dims])
	}
	s.cfg.Logger.Debug("knn traversal complete",
		slog.Int("targets", nTargets),
		slog.Int("k", s.cfg.K),
		slog.Duration("elapsed", time.Since(start)),
	)
	return results, nil
}
