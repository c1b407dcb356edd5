package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopActive(t *testing.T) {
	activity := []float64{5, 9, 9, 1, 7}
	numeric := []bool{true, true, true, true, false}
	valid := []int{0, 1, 2, 3, 4}

	assert.Equal(t, []int{1, 2, 0}, topActive(valid, activity, numeric, 3, false))
	assert.Equal(t, []int{3, 0}, topActive(valid, activity, numeric, 2, true))
	assert.Equal(t, []int{1, 2, 0, 3}, topActive(valid, activity, numeric, 10, false))
	assert.Equal(t, []int{2}, topActive([]int{2, 3}, activity, numeric, 1, false))
}

func TestUnion(t *testing.T) {
	got := union([]int{7, 2}, [][]int{{3, 2}, {9, 7, 3}})
	assert.Equal(t, []int{2, 3, 7, 9}, got)
	assert.Equal(t, []int{4}, union([]int{4}, [][]int{nil}))
}

func TestSpanningTree(t *testing.T) {
	sim := [][]float64{
		{1, 0.9, 0.2},
		{0.9, 1, 0.8},
		{0.2, 0.8, 1},
	}
	edges, total := spanningTree(sim)
	require.Len(t, edges, 2)
	assert.Equal(t, 0, edges[0].from)
	assert.Equal(t, 1, edges[0].to)
	assert.InDelta(t, 0.1, edges[0].weight, 1e-9)
	assert.Equal(t, 1, edges[1].from)
	assert.Equal(t, 2, edges[1].to)
	assert.InDelta(t, 0.3, total, 1e-9)
}

func TestSpanningTree_TiesAreDeterministic(t *testing.T) {
	sim := make([][]float64, 4)
	for i := range sim {
		sim[i] = []float64{0.5, 0.5, 0.5, 0.5}
		sim[i][i] = 1
	}
	edges, _ := spanningTree(sim)
	require.Len(t, edges, 3)
	for k, e := range edges {
		assert.Equal(t, 0, e.from)
		assert.Equal(t, k+1, e.to)
	}
}

func TestSpanningTree_TinySimilarityGapsDecide(t *testing.T) {
	// Gaps far below 1e-11 must still order the edges.
	sim := [][]float64{
		{1, 0.5, 0.5 + 5e-13},
		{0.5, 1, 0.5 + 5e-12},
		{0.5 + 5e-13, 0.5 + 5e-12, 1},
	}
	edges, _ := spanningTree(sim)
	require.Len(t, edges, 2)
	assert.Equal(t, treeEdge{from: 0, to: 2, weight: 1 - sim[0][2]}, edges[0])
	assert.Equal(t, treeEdge{from: 1, to: 2, weight: 1 - sim[1][2]}, edges[1])
}

func TestSpanningTree_Trivial(t *testing.T) {
	edges, total := spanningTree([][]float64{{1}})
	assert.Empty(t, edges)
	assert.Zero(t, total)
}

func TestTreeDistances(t *testing.T) {
	tree := []treeEdge{{0, 1, 0.5}, {1, 2, 0.25}, {1, 3, 0}}
	d := treeDistances(4, tree)
	assert.InDelta(t, 0.5, d.At(0, 1), 1e-12)
	assert.InDelta(t, 0.75, d.At(0, 2), 1e-12)
	assert.InDelta(t, 0.75, d.At(2, 0), 1e-12)
	assert.InDelta(t, minEdgeLength, d.At(1, 3), 1e-12)
	assert.InDelta(t, 0.25+minEdgeLength, d.At(2, 3), 1e-12)
	assert.Zero(t, d.At(2, 2))
}

func TestMDSLayout_PathIsFlat(t *testing.T) {
	tree := []treeEdge{{0, 1, 0.5}, {1, 2, 0.5}}
	coords, err := mdsLayout(3, tree)
	require.NoError(t, err)
	normalize(coords)
	for _, c := range coords {
		assert.Equal(t, 0.5, c[1])
	}
	assert.InDelta(t, 0.5, coords[1][0], 1e-9)
	assert.InDelta(t, 1, coords[0][0]+coords[2][0], 1e-9)
}

func TestNormalize(t *testing.T) {
	coords := [][2]float64{{0, 5}, {10, 5}, {5, 5}}
	normalize(coords)
	assert.Equal(t, [][2]float64{{0, 0.5}, {1, 0.5}, {0.5, 0.5}}, coords)
}
