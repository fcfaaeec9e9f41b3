package forecast

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

// Node is a flattened decision tree node. Leaves carry the fraction of
// positive training rows that reached them.
type Node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t"`
	Left      int     `json:"l"`
	Right     int     `json:"r"`
	Leaf      bool    `json:"leaf,omitempty"`
	Prob      float64 `json:"p"`
}

type Tree struct {
	Nodes []Node `json:"nodes"`
}

func (t Tree) predict(x []float64) float64 {
	if len(t.Nodes) == 0 {
		return 0
	}
	i := 0
	for !t.Nodes[i].Leaf {
		n := t.Nodes[i]
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return t.Nodes[i].Prob
}

type Forest struct {
	Trees []Tree `json:"trees"`
}

// Probability is the mean positive fraction over all trees.
func (f Forest) Probability(x []float64) float64 {
	if len(f.Trees) == 0 {
		return 0
	}
	sum := 0.0
	for _, t := range f.Trees {
		sum += t.predict(x)
	}
	return sum / float64(len(f.Trees))
}

type ForestOptions struct {
	Trees    int
	MaxDepth int
	MinLeaf  int
	Seed     int64
	Workers  int
}

func (o ForestOptions) withDefaults() ForestOptions {
	if o.Trees <= 0 {
		o.Trees = 100
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = 12
	}
	if o.MinLeaf <= 0 {
		o.MinLeaf = 1
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	return o
}

// FitForest grows bootstrapped trees in parallel. Per-tree seeds are drawn
// up front so the result does not depend on scheduling.
func FitForest(ctx context.Context, X [][]float64, y []bool, opts ForestOptions) (Forest, error) {
	if len(X) == 0 || len(X) != len(y) {
		return Forest{}, fmt.Errorf("fit forest: %d rows, %d labels", len(X), len(y))
	}
	opts = opts.withDefaults()
	width := len(X[0])
	mtry := int(math.Sqrt(float64(width)))
	if mtry < 1 {
		mtry = 1
	}

	master := rand.New(rand.NewSource(opts.Seed))
	seeds := make([]int64, opts.Trees)
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	trees := make([]Tree, opts.Trees)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i := range trees {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			b := &treeBuilder{
				X:        X,
				y:        y,
				rng:      rand.New(rand.NewSource(seeds[i])),
				width:    width,
				mtry:     mtry,
				maxDepth: opts.MaxDepth,
				minLeaf:  opts.MinLeaf,
			}
			idx := make([]int, len(X))
			for j := range idx {
				idx[j] = b.rng.Intn(len(X))
			}
			b.build(idx, 0)
			trees[i] = Tree{Nodes: b.nodes}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Forest{}, err
	}
	return Forest{Trees: trees}, nil
}

type treeBuilder struct {
	X        [][]float64
	y        []bool
	rng      *rand.Rand
	width    int
	mtry     int
	maxDepth int
	minLeaf  int
	nodes    []Node
}

func gini(pos, n int) float64 {
	if n == 0 {
		return 0
	}
	p := float64(pos) / float64(n)
	return 2 * p * (1 - p)
}

func (b *treeBuilder) positives(idx []int) int {
	pos := 0
	for _, i := range idx {
		if b.y[i] {
			pos++
		}
	}
	return pos
}

func (b *treeBuilder) leaf(pos, n int) int {
	b.nodes = append(b.nodes, Node{Leaf: true, Prob: float64(pos) / float64(n)})
	return len(b.nodes) - 1
}

func (b *treeBuilder) build(idx []int, depth int) int {
	n := len(idx)
	pos := b.positives(idx)
	if depth >= b.maxDepth || n < 2*b.minLeaf || pos == 0 || pos == n {
		return b.leaf(pos, n)
	}

	parent := gini(pos, n)
	bestFeature, bestThreshold, bestScore := -1, 0.0, parent
	sorted := make([]int, n)
	for _, f := range b.rng.Perm(b.width)[:b.mtry] {
		copy(sorted, idx)
		sort.Slice(sorted, func(a, c int) bool { return b.X[sorted[a]][f] < b.X[sorted[c]][f] })
		leftPos := 0
		for i := 0; i < n-1; i++ {
			if b.y[sorted[i]] {
				leftPos++
			}
			nl := i + 1
			nr := n - nl
			if nl < b.minLeaf || nr < b.minLeaf {
				continue
			}
			lo, hi := b.X[sorted[i]][f], b.X[sorted[i+1]][f]
			if lo == hi {
				continue
			}
			score := (float64(nl)*gini(leftPos, nl) + float64(nr)*gini(pos-leftPos, nr)) / float64(n)
			if score < bestScore-1e-12 {
				bestFeature, bestThreshold, bestScore = f, (lo+hi)/2, score
			}
		}
	}
	if bestFeature < 0 {
		return b.leaf(pos, n)
	}

	left := make([]int, 0, n)
	right := make([]int, 0, n)
	for _, i := range idx {
		if b.X[i][bestFeature] <= bestThreshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	self := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: bestFeature, Threshold: bestThreshold})
	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	b.nodes[self].Left = l
	b.nodes[self].Right = r
	return self
}
