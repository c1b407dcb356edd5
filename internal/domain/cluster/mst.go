package cluster

import (
	"math"
	"runtime"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

type treeEdge struct {
	from, to int     // positions in the selection, from < to
	weight   float64 // 1 - similarity
}

// spanningTree returns the minimum spanning tree of the complete graph over
// the selection, weighted by 1 - similarity, and its total weight. Edges are
// ordered by (from, to).
func spanningTree(sim [][]float64) ([]treeEdge, float64) {
	k := len(sim)
	if k < 2 {
		return nil, 0
	}

	// Kruskal only depends on edge order, so each pair is weighted by its rank
	// under (1 - similarity, from, to). Equal similarities then resolve by
	// pair index however large the selection is.
	pairs := make([]treeEdge, 0, k*(k-1)/2)
	for i := 0; i < k; i++ {
		for j := i + 1; j < k; j++ {
			pairs = append(pairs, treeEdge{from: i, to: j, weight: 1 - sim[i][j]})
		}
	}
	sort.Slice(pairs, func(x, y int) bool {
		a, b := pairs[x], pairs[y]
		if a.weight != b.weight {
			return a.weight < b.weight
		}
		if a.from != b.from {
			return a.from < b.from
		}
		return a.to < b.to
	})

	g := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	for i := 0; i < k; i++ {
		g.AddNode(simple.Node(i))
	}
	for rank, e := range pairs {
		g.SetWeightedEdge(g.NewWeightedEdge(simple.Node(e.from), simple.Node(e.to), float64(rank+1)))
	}

	dst := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	path.Kruskal(dst, g)

	edges := make([]treeEdge, 0, k-1)
	var total float64
	for _, e := range graph.WeightedEdgesOf(dst.WeightedEdges()) {
		a, b := int(e.From().ID()), int(e.To().ID())
		if a > b {
			a, b = b, a
		}
		w := 1 - sim[a][b]
		total += w
		edges = append(edges, treeEdge{from: a, to: b, weight: w})
	}
	sort.Slice(edges, func(x, y int) bool {
		if edges[x].from != edges[y].from {
			return edges[x].from < edges[y].from
		}
		return edges[x].to < edges[y].to
	})
	return edges, total
}

func defaultWorkers() int { return runtime.GOMAXPROCS(0) }
