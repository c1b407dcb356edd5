package depict

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/mds"

	"github.com/turtacn/ClusterMST/internal/domain/molecule"
)

// Point is a 2D atom position in bond-length units.
type Point struct {
	X, Y float64
}

// componentGap is the horizontal space left between disconnected fragments.
const componentGap = 1.5

// Coordinates computes 2D positions for every atom of m. Each connected
// component is embedded on its own and the components are placed left to
// right. Bonds have unit mean length.
func Coordinates(m *molecule.Molecule) []Point {
	out := make([]Point, m.NumAtoms())
	offset := 0.0
	for k, comp := range m.Components() {
		pts := embedComponent(m, comp)
		minX, maxX, minY, maxY := bounds(pts)
		if k > 0 {
			offset += componentGap
		}
		cy := (minY + maxY) / 2
		for i, atom := range comp {
			out[atom] = Point{X: pts[i].X - minX + offset, Y: pts[i].Y - cy}
		}
		offset += maxX - minX
	}
	return out
}

// embedComponent lays out one connected component with classical MDS over a
// zigzag-aware transform of the topological distances. Chains come out as
// zigzags and simple rings as regular polygons.
func embedComponent(m *molecule.Molecule, comp []int) []Point {
	n := len(comp)
	pts := make([]Point, n)
	switch n {
	case 1:
		return pts
	case 2:
		pts[1] = Point{X: 1}
		return pts
	}

	local := make(map[int]int, n)
	for i, a := range comp {
		local[a] = i
	}
	dis := mat.NewSymDense(n, nil)
	hops := make([]int, n)
	queue := make([]int, 0, n)
	for i, src := range comp {
		for j := range hops {
			hops[j] = -1
		}
		hops[i] = 0
		queue = append(queue[:0], src)
		for q := 0; q < len(queue); q++ {
			u := queue[q]
			for _, nb := range m.Neighbors(u) {
				if j := local[nb]; hops[j] < 0 {
					hops[j] = hops[local[u]] + 1
					queue = append(queue, nb)
				}
			}
		}
		for j := i + 1; j < n; j++ {
			dis.SetSym(i, j, zigzagDistance(hops[j]))
		}
	}

	var dst mat.Dense
	dims, eig := mds.TorgersonScaling(&dst, make([]float64, n), dis)
	if dims == 0 {
		return zigzag(n)
	}
	flat := dims < 2 || eig[1] <= 1e-9*eig[0]
	for i := 0; i < n; i++ {
		pts[i].X = dst.At(i, 0)
		if !flat {
			pts[i].Y = dst.At(i, 1)
		}
	}
	scaleToBondLength(m, comp, local, pts)
	return pts
}

// zigzagDistance is the end-to-end distance of an h-bond chain drawn with
// 120° angles and unit bonds.
func zigzagDistance(h int) float64 {
	half := float64(h) * math.Sqrt(3) / 2
	if h%2 == 0 {
		return half
	}
	return math.Sqrt(half*half + 0.25)
}

func zigzag(n int) []Point {
	pts := make([]Point, n)
	for i := range pts {
		pts[i].X = float64(i) * math.Sqrt(3) / 2
		if i%2 == 1 {
			pts[i].Y = 0.5
		}
	}
	return pts
}

func scaleToBondLength(m *molecule.Molecule, comp []int, local map[int]int, pts []Point) {
	var sum float64
	var count int
	for _, a := range comp {
		for _, nb := range m.Neighbors(a) {
			if nb < a {
				continue
			}
			p, q := pts[local[a]], pts[local[nb]]
			sum += math.Hypot(p.X-q.X, p.Y-q.Y)
			count++
		}
	}
	if count == 0 || sum == 0 {
		return
	}
	f := float64(count) / sum
	for i := range pts {
		pts[i].X *= f
		pts[i].Y *= f
	}
}

func bounds(pts []Point) (minX, maxX, minY, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	return minX, maxX, minY, maxY
}
