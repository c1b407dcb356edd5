package cluster

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/graph/layout"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/mds"

	"github.com/turtacn/ClusterMST/pkg/errors"
)

// minEdgeLength keeps compounds with identical fingerprints apart in the
// layout.
const minEdgeLength = 0.02

// flatEigenRatio is the relative eigenvalue below which the second layout
// axis is treated as absent.
const flatEigenRatio = 1e-9

// Eades spring embedder settings.
const (
	eadesUpdates   = 200
	eadesRepulsion = 1
	eadesRate      = 0.05
	eadesTheta     = 0.2
	eadesSeed      = 0x5eed
)

// treeDistances returns the path length between every pair of nodes in the
// tree. Each row is one depth-first walk, O(k²) overall.
func treeDistances(k int, tree []treeEdge) *mat.SymDense {
	type arc struct {
		to int
		w  float64
	}
	adj := make([][]arc, k)
	for _, e := range tree {
		w := math.Max(e.weight, minEdgeLength)
		adj[e.from] = append(adj[e.from], arc{e.to, w})
		adj[e.to] = append(adj[e.to], arc{e.from, w})
	}

	dist := mat.NewSymDense(k, nil)
	d := make([]float64, k)
	stack := make([]int, 0, k)
	for src := 0; src < k; src++ {
		for i := range d {
			d[i] = -1
		}
		d[src] = 0
		stack = append(stack[:0], src)
		for len(stack) > 0 {
			u := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, a := range adj[u] {
				if d[a.to] < 0 {
					d[a.to] = d[u] + a.w
					stack = append(stack, a.to)
				}
			}
		}
		for j := src + 1; j < k; j++ {
			dist.SetSym(src, j, d[j])
		}
	}
	return dist
}

// mdsLayout embeds the tree metric in the plane with Torgerson scaling. The
// first two principal coordinates are used; a missing second dimension
// (a path-shaped tree) is left at zero.
func mdsLayout(k int, tree []treeEdge) ([][2]float64, error) {
	coords := make([][2]float64, k)
	if k < 2 {
		return coords, nil
	}

	var dst mat.Dense
	dims, eig := mds.TorgersonScaling(&dst, make([]float64, k), treeDistances(k, tree))
	if dims == 0 {
		return nil, errors.New(errors.ErrCodeClusterLayoutFailed, "multidimensional scaling found no positive eigenvalue")
	}
	// Eigenvalues at rounding level carry no shape, only noise that
	// normalisation would blow up.
	second := dims > 1 && eig[1] > flatEigenRatio*eig[0]
	for i := 0; i < k; i++ {
		coords[i][0] = dst.At(i, 0)
		if second {
			coords[i][1] = dst.At(i, 1)
		}
	}
	return coords, nil
}

// eadesLayout places the tree with the Eades spring embedder from a fixed
// seed, so the same tree always yields the same picture.
func eadesLayout(k int, tree []treeEdge) [][2]float64 {
	coords := make([][2]float64, k)
	if k < 2 {
		return coords
	}

	g := simple.NewUndirectedGraph()
	for i := 0; i < k; i++ {
		g.AddNode(simple.Node(i))
	}
	for _, e := range tree {
		g.SetEdge(g.NewEdge(simple.Node(e.from), simple.Node(e.to)))
	}

	eades := layout.EadesR2{
		Updates:   eadesUpdates,
		Repulsion: eadesRepulsion,
		Rate:      eadesRate,
		Theta:     eadesTheta,
		Src:       rand.NewPCG(eadesSeed, uint64(k)),
	}
	opt := layout.NewOptimizerR2(g, eades.Update)
	for opt.Update() {
	}
	for i := 0; i < k; i++ {
		v := opt.Coord2(int64(i))
		coords[i] = [2]float64{v.X, v.Y}
	}
	return coords
}

// normalize rescales coordinates into [0, 1] on both axes independently. A
// degenerate axis is centred at 0.5.
func normalize(coords [][2]float64) {
	for axis := 0; axis < 2; axis++ {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, c := range coords {
			lo = math.Min(lo, c[axis])
			hi = math.Max(hi, c[axis])
		}
		span := hi - lo
		for i := range coords {
			if span < 1e-12 || math.IsNaN(span) {
				coords[i][axis] = 0.5
				continue
			}
			coords[i][axis] = (coords[i][axis] - lo) / span
		}
	}
}
