// Package cluster builds the activity-centred Minimum Spanning Tree of a
// compound table: it picks the top active compounds, expands each with its
// most similar neighbours, spans the selection with an MST over fingerprint
// dissimilarity and lays the tree out in the unit square.
package cluster

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/ClusterMST/internal/domain/dataset"
	"github.com/turtacn/ClusterMST/internal/domain/molecule"
	"github.com/turtacn/ClusterMST/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClusterMST/pkg/errors"
)

// Layout columns appended to the result table.
const (
	ColumnX = "X"
	ColumnY = "Y"
)

// Option customises a ClusterMST.
type Option func(*ClusterMST)

// WithLogger sets the logger. The default discards output.
func WithLogger(l logging.Logger) Option {
	return func(c *ClusterMST) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSimilarity replaces the calculator selected by Params.Similarity.
func WithSimilarity(s molecule.SimilarityCalculator) Option {
	return func(c *ClusterMST) {
		if s != nil {
			c.similarity = s
		}
	}
}

// ClusterMST computes the MST view of one table. It is not reused across
// tables; Calc may be called more than once and yields the same result.
type ClusterMST struct {
	table      *dataset.Table
	params     Params
	calc       *molecule.Calculator
	similarity molecule.SimilarityCalculator
	logger     logging.Logger
}

// New validates params against table and prepares a calculation. The
// parameters actually used, including a clamped TopNAct, are available from
// Params.
func New(table *dataset.Table, params Params, opts ...Option) (*ClusterMST, error) {
	p, err := params.Validate(table)
	if err != nil {
		return nil, err
	}
	if p.Layout == "" {
		p.Layout = LayoutMDS
	}
	calc, err := molecule.NewCalculator(p.Method, p.Workers)
	if err != nil {
		return nil, err
	}
	sim, err := molecule.NewSimilarityCalculator(p.Similarity)
	if err != nil {
		return nil, err
	}
	c := &ClusterMST{
		table:      table,
		params:     p,
		calc:       calc,
		similarity: sim,
		logger:     logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Params returns the validated parameters.
func (c *ClusterMST) Params() Params { return c.params }

// Calc runs the full pipeline.
func (c *ClusterMST) Calc(ctx context.Context) (*Result, error) {
	start := time.Now()
	p := c.params
	n := c.table.Len()

	activity := make([]float64, n)
	numeric := make([]bool, n)
	for i := 0; i < n; i++ {
		activity[i], numeric[i] = dataset.ParseFloat(c.table.Value(i, p.ActCol))
	}

	smiles, _ := c.table.Column(dataset.SmilesColumn)
	fps, fpErrs, err := c.calc.BatchCalculate(ctx, smiles)
	if err != nil {
		return nil, err
	}
	valid := make([]int, 0, n)
	skipped := 0
	for i := range fps {
		if fps[i] == nil {
			skipped++
			c.logger.Debug("skipping structure",
				logging.Int("row", i), logging.String("id", c.table.Value(i, p.IDCol)), logging.Err(fpErrs[i]))
			continue
		}
		valid = append(valid, i)
	}
	if len(valid) == 0 {
		return nil, errors.New(errors.ErrCodeClusterEmptySelection, "no row contains a valid structure")
	}

	actives := topActive(valid, activity, numeric, p.TopNAct, p.Reverse)
	if len(actives) == 0 {
		return nil, errors.Newf(errors.ErrCodeClusterEmptySelection,
			"no row with a valid structure has a numeric value in column %s", p.ActCol)
	}

	neighbours, err := c.expand(ctx, actives, valid, fps)
	if err != nil {
		return nil, err
	}
	selected := union(actives, neighbours)

	sim, err := c.similarityMatrix(ctx, selected, fps)
	if err != nil {
		return nil, err
	}
	tree, total := spanningTree(sim)

	var coords [][2]float64
	switch p.Layout {
	case LayoutEades:
		coords = eadesLayout(len(selected), tree)
	default:
		coords, err = mdsLayout(len(selected), tree)
		if err != nil {
			return nil, err
		}
	}
	normalize(coords)

	res, err := c.buildResult(selected, actives, activity, numeric, tree, coords)
	if err != nil {
		return nil, err
	}
	res.Skipped = skipped
	res.TotalWeight = total

	c.logger.Info("mst calculated",
		logging.Int("rows", n),
		logging.Int("skipped", skipped),
		logging.Int("actives", len(actives)),
		logging.Int("selected", len(selected)),
		logging.String("fingerprint", string(p.Method)),
		logging.String("similarity", string(c.similarity.Metric())),
		logging.Duration("elapsed", time.Since(start)))
	return res, nil
}

// topActive returns up to topN row indices of valid rows with numeric
// activity, best first. Ties keep input order.
func topActive(valid []int, activity []float64, numeric []bool, topN int, reverse bool) []int {
	cands := make([]int, 0, len(valid))
	for _, i := range valid {
		if numeric[i] {
			cands = append(cands, i)
		}
	}
	sort.SliceStable(cands, func(a, b int) bool {
		if reverse {
			return activity[cands[a]] < activity[cands[b]]
		}
		return activity[cands[a]] > activity[cands[b]]
	})
	if len(cands) > topN {
		cands = cands[:topN]
	}
	return cands
}

type scored struct {
	row int
	sim float64
}

// expand finds, for every active, the NumSim most similar other valid rows
// with similarity at or above the cutoff. Ties are broken by input order.
func (c *ClusterMST) expand(ctx context.Context, actives, valid []int, fps []*molecule.Fingerprint) ([][]int, error) {
	out := make([][]int, len(actives))
	if c.params.NumSim == 0 {
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers())
	for k, a := range actives {
		k, a := k, a
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			hits := make([]scored, 0, 16)
			for _, j := range valid {
				if j == a {
					continue
				}
				s, err := c.similarity.Calculate(fps[a], fps[j])
				if err != nil {
					return err
				}
				if s >= c.params.SimCutoff {
					hits = append(hits, scored{row: j, sim: s})
				}
			}
			sort.Slice(hits, func(x, y int) bool {
				if hits[x].sim != hits[y].sim {
					return hits[x].sim > hits[y].sim
				}
				return hits[x].row < hits[y].row
			})
			if len(hits) > c.params.NumSim {
				hits = hits[:c.params.NumSim]
			}
			rows := make([]int, len(hits))
			for i, h := range hits {
				rows[i] = h.row
			}
			out[k] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// union merges actives and their neighbours into sorted, distinct row
// indices.
func union(actives []int, neighbours [][]int) []int {
	seen := make(map[int]struct{}, len(actives))
	out := make([]int, 0, len(actives))
	add := func(i int) {
		if _, ok := seen[i]; !ok {
			seen[i] = struct{}{}
			out = append(out, i)
		}
	}
	for _, a := range actives {
		add(a)
	}
	for _, nb := range neighbours {
		for _, i := range nb {
			add(i)
		}
	}
	sort.Ints(out)
	return out
}

// similarityMatrix returns the full pairwise similarity of the selected rows.
func (c *ClusterMST) similarityMatrix(ctx context.Context, selected []int, fps []*molecule.Fingerprint) ([][]float64, error) {
	k := len(selected)
	sim := make([][]float64, k)
	for i := range sim {
		sim[i] = make([]float64, k)
		sim[i][i] = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers())
	for i := 0; i < k; i++ {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for j := i + 1; j < k; j++ {
				s, err := c.similarity.Calculate(fps[selected[i]], fps[selected[j]])
				if err != nil {
					return err
				}
				sim[i][j] = s
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i := 0; i < k; i++ {
		for j := i + 1; j < k; j++ {
			sim[j][i] = sim[i][j]
		}
	}
	return sim, nil
}

func (c *ClusterMST) workers() int {
	if c.params.Workers > 0 {
		return c.params.Workers
	}
	return defaultWorkers()
}

func (c *ClusterMST) buildResult(selected, actives []int, activity []float64, numeric []bool,
	tree []treeEdge, coords [][2]float64) (*Result, error) {

	base, err := c.table.Select(selected)
	if err != nil {
		return nil, err
	}
	base, err = dropColumns(base, ColumnX, ColumnY)
	if err != nil {
		return nil, err
	}

	xs := make([]string, len(selected))
	ys := make([]string, len(selected))
	for i, xy := range coords {
		xs[i] = dataset.FormatFloat(xy[0])
		ys[i] = dataset.FormatFloat(xy[1])
	}
	table, err := base.AppendColumns([]string{ColumnX, ColumnY}, [][]string{xs, ys})
	if err != nil {
		return nil, err
	}

	isActive := make(map[int]bool, len(actives))
	for _, a := range actives {
		isActive[a] = true
	}
	res := &Result{
		Table:    table,
		Rows:     selected,
		X:        make([]float64, len(selected)),
		Y:        make([]float64, len(selected)),
		Activity: make([]float64, len(selected)),
		Active:   make([]bool, len(selected)),
		Edges:    make([]Edge, len(tree)),
	}
	for i, row := range selected {
		res.X[i], res.Y[i] = coords[i][0], coords[i][1]
		res.Activity[i] = activity[row]
		if !numeric[row] {
			res.Activity[i] = math.NaN()
		}
		res.Active[i] = isActive[row]
	}
	for k, e := range tree {
		res.Edges[k] = Edge{
			From:   e.from,
			To:     e.to,
			Weight: e.weight,
			X1:     coords[e.from][0],
			Y1:     coords[e.from][1],
			X2:     coords[e.to][0],
			Y2:     coords[e.to][1],
		}
	}
	return res, nil
}

// dropColumns removes existing columns that would clash with the layout
// columns.
func dropColumns(t *dataset.Table, names ...string) (*dataset.Table, error) {
	drop := make(map[string]bool, len(names))
	found := false
	for _, n := range names {
		drop[n] = true
		found = found || t.HasColumn(n)
	}
	if !found {
		return t, nil
	}
	keep := make([]string, 0, len(t.Columns()))
	for _, col := range t.Columns() {
		if !drop[col] {
			keep = append(keep, col)
		}
	}
	return t.Project(keep)
}

func (c *ClusterMST) String() string {
	return fmt.Sprintf("ClusterMST(rows=%d, act=%s, top=%d, sim=%d, cutoff=%g, fp=%s)",
		c.table.Len(), c.params.ActCol, c.params.TopNAct, c.params.NumSim, c.params.SimCutoff, c.params.Method)
}
