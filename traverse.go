package treecode

// Policy supplies the decisions for a single-tree traversal.
type Policy struct {
	// Prune reports whether the subtree rooted at a box can be skipped.
	// nil never prunes.
	Prune func(Box) bool
	// BaseCase is called once for every leaf that survives pruning.
	BaseCase func(Box)
	// ChildOrder returns the children of an internal box in visiting order.
	// nil visits Box.Children in tree order.
	ChildOrder func(Box) []Box
}

// Traverse walks the tree under b depth-first. A pruned box is skipped
// together with its subtree; surviving leaves go to BaseCase; internal
// boxes recurse into ChildOrder in the order it returns.
func Traverse(b Box, p Policy) {
	if p.Prune != nil && p.Prune(b) {
		return
	}
	if b.IsLeaf() {
		if p.BaseCase != nil {
			p.BaseCase(b)
		}
		return
	}
	children := b.Children()
	if p.ChildOrder != nil {
		children = p.ChildOrder(b)
	}
	for _, c := range children {
		Traverse(c, p)
	}
}

// Split is the decision returned for a box pair in TraverseDual.
type Split uint8

const (
	SplitNone   Split = 0
	SplitSource Split = 1 << 0
	SplitTarget Split = 1 << 1
	SplitBoth         = SplitSource | SplitTarget
)

// TraverseDual visits (source, target) box pairs top-down, starting from
// the given pair. eval is called once per visited pair; a pair's children
// are visited only if eval asked for a split. A requested split of a leaf
// is ignored, so a pair of two leaves is always final. Every child
// combination of a split pair is visited, which keeps the final pairs a
// partition of the starting pair's body product.
func TraverseDual(source, target Box, eval func(s, t Box) Split) {
	type pair struct{ s, t Box }
	queue := []pair{{source, target}}

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]

		split := eval(p.s, p.t)
		if split&SplitSource != 0 && p.s.IsLeaf() {
			split &^= SplitSource
		}
		if split&SplitTarget != 0 && p.t.IsLeaf() {
			split &^= SplitTarget
		}

		switch split {
		case SplitNone:
		case SplitSource:
			for _, sc := range p.s.Children() {
				queue = append(queue, pair{sc, p.t})
			}
		case SplitTarget:
			for _, tc := range p.t.Children() {
				queue = append(queue, pair{p.s, tc})
			}
		default:
			for _, sc := range p.s.Children() {
				for _, tc := range p.t.Children() {
					queue = append(queue, pair{sc, tc})
				}
			}
		}
	}
}
