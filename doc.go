// Package treecode implements hierarchical algorithms over KD-trees:
// bounded k-nearest-neighbor search and adaptive block low-rank (PLR)
// compression of dense matrices indexed by two point sets.
//
// Both algorithms walk boxes of a spatial tree and decide per box, or per
// pair of boxes, whether to stop or recurse into children. Results are
// accumulated into fixed-capacity containers ([Ordered]) or into a
// [BlockMatrix].
//
// Nearest neighbors:
//
//	cfg := treecode.DefaultKNNConfig()
//	cfg.K = 5
//	neighbors, err := treecode.KNN(targets, sources, nTargets, nSources, cfg)
//	// neighbors[i] holds the 5 closest sources to target i,
//	// sorted by ascending squared distance.
//
// Block compression and products:
//
//	cfg := treecode.DefaultCompressConfig()
//	cfg.MaxRank = 8
//	bm, err := treecode.Compress(data, rows, cols, targets, sources, cfg)
//	y := make([]float64, rows)
//	err = bm.ProdAcc(x, y) // y += A*x
//
// # Traversals
//
// [Traverse] is a policy-driven single-tree walk: prune, base case, and
// child order are supplied by the caller. [TraverseDual] walks a pair of
// trees top-down and lets the caller accept a box pair or split it.
package treecode
