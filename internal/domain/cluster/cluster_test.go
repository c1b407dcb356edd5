package cluster

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/ClusterMST/internal/domain/dataset"
	"github.com/turtacn/ClusterMST/internal/domain/molecule"
	"github.com/turtacn/ClusterMST/pkg/errors"
)

const compoundsTSV = "Compound_Id\tActivity\tSmiles\tNote\n" +
	"C1\t90\tc1ccccc1O\tphenol\n" +
	"C2\t85\tc1ccccc1N\taniline\n" +
	"C3\t40\tc1ccccc1C\ttoluene\n" +
	"C4\t10\tCCCCCC\thexane\n" +
	"C5\t5\tCCCCCCO\thexanol\n" +
	"C6\tn/a\tc1ccccc1Cl\tchlorobenzene\n" +
	"C7\t60\tCC(=O)Oc1ccccc1C(=O)O\taspirin\n" +
	"C8\t20\tinvalid((\tbroken\n" +
	"C9\t1\tOc1ccccc1\tphenol again\n"

type ClusterMSTSuite struct {
	suite.Suite
	table *dataset.Table
	ctx   context.Context
}

func (s *ClusterMSTSuite) SetupTest() {
	table, err := dataset.ParseTSV([]byte(compoundsTSV))
	s.Require().NoError(err)
	s.table = table
	s.ctx = context.Background()
}

func (s *ClusterMSTSuite) params() Params {
	p := DefaultParams()
	p.ActCol = "Activity"
	p.Workers = 2
	return p
}

func (s *ClusterMSTSuite) calc(p Params) *Result {
	c, err := New(s.table, p)
	s.Require().NoError(err)
	res, err := c.Calc(s.ctx)
	s.Require().NoError(err)
	return res
}

func (s *ClusterMSTSuite) ids(res *Result) []string {
	col, ok := res.Table.Column("Compound_Id")
	s.Require().True(ok)
	return col
}

func (s *ClusterMSTSuite) TestTopActiveWithoutNeighbours() {
	p := s.params()
	p.TopNAct = 3
	p.NumSim = 0

	res := s.calc(p)
	s.Equal([]string{"C1", "C2", "C7"}, s.ids(res), "input order is kept")
	s.Equal([]int{0, 1, 6}, res.Rows)
	s.Equal(3, res.NumActive())
	s.Equal(1, res.Skipped)
	s.Len(res.Edges, 2)
}

func (s *ClusterMSTSuite) TestIdenticalStructureIsNearestNeighbour() {
	p := s.params()
	p.TopNAct = 1
	p.NumSim = 1

	res := s.calc(p)
	s.Equal([]string{"C1", "C9"}, s.ids(res))
	s.Equal([]bool{true, false}, res.Active)
	s.Require().Len(res.Edges, 1)
	s.InDelta(0, res.Edges[0].Weight, 1e-12)
	s.ElementsMatch([]float64{0, 1}, res.X)
	s.Equal([]float64{0.5, 0.5}, res.Y)
}

func (s *ClusterMSTSuite) TestReverse() {
	p := s.params()
	p.TopNAct = 1
	p.NumSim = 0
	p.Reverse = true

	res := s.calc(p)
	s.Equal([]string{"C9"}, s.ids(res))
	s.Equal([]float64{0.5}, res.X)
	s.Equal([]float64{0.5}, res.Y)
	s.Empty(res.Edges)
}

func (s *ClusterMSTSuite) TestNonNumericActivityIsNeverActive() {
	p := s.params()
	p.TopNAct = 100
	p.NumSim = 0

	c, err := New(s.table, p)
	s.Require().NoError(err)
	s.Equal(9, c.Params().TopNAct)

	res, err := c.Calc(s.ctx)
	s.Require().NoError(err)
	s.NotContains(s.ids(res), "C6")
	s.NotContains(s.ids(res), "C8")
	s.Equal(7, res.Len())
	s.Equal(7, res.NumActive())
	s.Len(res.Edges, 6)
}

func (s *ClusterMSTSuite) TestNeighbourExpansionRespectsCutoff() {
	p := s.params()
	p.TopNAct = 2
	p.NumSim = 2
	p.SimCutoff = MinSimCutoff

	res := s.calc(p)
	s.LessOrEqual(res.Len(), p.TopNAct*(1+p.NumSim))

	fp := func(row int) *molecule.Fingerprint {
		f, err := molecule.FingerprintSMILES(s.table.Value(row, dataset.SmilesColumn), p.Method)
		s.Require().NoError(err)
		return f
	}
	var actives []int
	for i, row := range res.Rows {
		if res.Active[i] {
			actives = append(actives, row)
		}
	}
	s.Equal([]int{0, 1}, actives)

	tanimoto := &molecule.TanimotoCalculator{}
	for i, row := range res.Rows {
		if res.Active[i] {
			continue
		}
		best := 0.0
		for _, a := range actives {
			sim, err := tanimoto.Calculate(fp(a), fp(row))
			s.Require().NoError(err)
			best = math.Max(best, sim)
		}
		s.GreaterOrEqual(best, p.SimCutoff, "row %d", row)
	}
}

func (s *ClusterMSTSuite) TestTreeShapeAndLayout() {
	for _, layout := range []LayoutMethod{LayoutMDS, LayoutEades} {
		p := s.params()
		p.TopNAct = 9
		p.NumSim = 3
		p.SimCutoff = 0.3
		p.Layout = layout

		res := s.calc(p)
		k := res.Len()
		s.Require().Len(res.Edges, k-1, string(layout))

		reached := map[int]bool{0: true}
		for changed := true; changed; {
			changed = false
			for _, e := range res.Edges {
				s.Less(e.From, e.To)
				s.Less(e.To, k)
				if reached[e.From] != reached[e.To] {
					reached[e.From], reached[e.To] = true, true
					changed = true
				}
			}
		}
		s.Len(reached, k, "tree spans every compound")

		for i := 0; i < k; i++ {
			s.GreaterOrEqual(res.X[i], 0.0)
			s.LessOrEqual(res.X[i], 1.0)
			s.GreaterOrEqual(res.Y[i], 0.0)
			s.LessOrEqual(res.Y[i], 1.0)
		}
		for _, e := range res.Edges {
			s.Equal(res.X[e.From], e.X1)
			s.Equal(res.Y[e.To], e.Y2)
		}
	}
}

func (s *ClusterMSTSuite) TestResultTableColumns() {
	p := s.params()
	p.TopNAct = 2
	p.NumSim = 0

	res := s.calc(p)
	s.Equal([]string{"Compound_Id", "Activity", "Smiles", "Note", "X", "Y"}, res.Table.Columns())
	s.Equal([]string{"X1", "Y1", "X2", "Y2"}, res.EdgeTable().Columns())
	s.Equal(len(res.Edges), res.EdgeTable().Len())

	x, _ := res.Table.Column("X")
	for i, v := range x {
		s.Equal(dataset.FormatFloat(res.X[i]), v)
	}
}

func (s *ClusterMSTSuite) TestDeterministic() {
	p := s.params()
	p.TopNAct = 5
	p.NumSim = 2
	p.SimCutoff = 0.2

	a := s.calc(p)
	b := s.calc(p)
	s.Equal(a.Rows, b.Rows)
	s.Equal(a.Edges, b.Edges)
	s.Equal(a.X, b.X)
	s.Equal(a.Y, b.Y)
}

func (s *ClusterMSTSuite) TestCancelledContext() {
	c, err := New(s.table, s.params())
	s.Require().NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Calc(ctx)
	s.ErrorIs(err, context.Canceled)
}

func (s *ClusterMSTSuite) TestDiceExpandsAtLeastAsFarAsTanimoto() {
	p := s.params()
	p.TopNAct = 2
	p.NumSim = 8
	p.SimCutoff = 0.4
	tanimoto := s.calc(p)

	p.Similarity = molecule.MetricDice
	dice := s.calc(p)

	// Dice is 2T/(1+T) and never below Tanimoto on the same pair.
	s.GreaterOrEqual(dice.Len(), tanimoto.Len())
	s.Subset(s.ids(dice), s.ids(tanimoto))
}

type constSimilarity float64

func (c constSimilarity) Calculate(_, _ *molecule.Fingerprint) (float64, error) {
	return float64(c), nil
}

func (c constSimilarity) Metric() molecule.SimilarityMetric { return "const" }

func (s *ClusterMSTSuite) TestWithSimilarityOverridesMetric() {
	p := s.params()
	p.TopNAct = 1
	p.NumSim = 3

	c, err := New(s.table, p, WithSimilarity(constSimilarity(0)))
	s.Require().NoError(err)
	res, err := c.Calc(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"C1"}, s.ids(res))

	c, err = New(s.table, p, WithSimilarity(constSimilarity(1)))
	s.Require().NoError(err)
	res, err = c.Calc(s.ctx)
	s.Require().NoError(err)
	// Ties fall back to input order: the first three other valid rows.
	s.Equal([]string{"C1", "C2", "C3", "C4"}, s.ids(res))
}

func TestClusterMSTSuite(t *testing.T) {
	suite.Run(t, new(ClusterMSTSuite))
}

func TestCalc_EmptySelection(t *testing.T) {
	cases := map[string]string{
		"no valid structure": "Compound_Id\tActivity\tSmiles\nA\t1\tC((\nB\t2\t\n",
		"no numeric value":   "Compound_Id\tActivity\tSmiles\nA\tactive\tCCO\nB\t\tCCN\n",
	}
	for name, tsv := range cases {
		t.Run(name, func(t *testing.T) {
			table, err := dataset.ParseTSV([]byte(tsv))
			require.NoError(t, err)
			p := DefaultParams()
			p.ActCol = "Activity"

			c, err := New(table, p)
			require.NoError(t, err)
			_, err = c.Calc(context.Background())
			assert.True(t, errors.IsCode(err, errors.ErrCodeClusterEmptySelection), "%v", err)
		})
	}
}

func TestCalc_ReplacesExistingLayoutColumns(t *testing.T) {
	tsv := "X\tCompound_Id\tActivity\tSmiles\n9\tA\t1\tCCO\n9\tB\t2\tCCN\n"
	table, err := dataset.ParseTSV([]byte(tsv))
	require.NoError(t, err)
	p := DefaultParams()
	p.ActCol = "Activity"
	p.NumSim = 0

	c, err := New(table, p)
	require.NoError(t, err)
	res, err := c.Calc(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Compound_Id", "Activity", "Smiles", "X", "Y"}, res.Table.Columns())
	assert.True(t, strings.HasPrefix(c.String(), "ClusterMST(rows=2"))
}

func TestNew_InvalidParams(t *testing.T) {
	table, err := dataset.ParseTSV([]byte(compoundsTSV))
	require.NoError(t, err)
	_, err = New(table, DefaultParams())
	assert.True(t, errors.IsValidation(err))
}

func TestNew_UnknownSimilarity(t *testing.T) {
	table, err := dataset.ParseTSV([]byte(compoundsTSV))
	require.NoError(t, err)
	p := DefaultParams()
	p.ActCol = "Activity"
	p.Similarity = "cosine"
	_, err = New(table, p)
	assert.Error(t, err)
}

func TestNew_RejectsNaNCutoff(t *testing.T) {
	table, err := dataset.ParseTSV([]byte(compoundsTSV))
	require.NoError(t, err)
	p := DefaultParams()
	p.ActCol = "Activity"
	p.SimCutoff = math.NaN()
	_, err = New(table, p)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}
