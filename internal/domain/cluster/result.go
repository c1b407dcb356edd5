package cluster

import (
	"github.com/turtacn/ClusterMST/internal/domain/dataset"
)

// Edge columns of the edge export.
var EdgeColumns = []string{"X1", "Y1", "X2", "Y2"}

// Edge is one MST edge. From and To index Result rows.
type Edge struct {
	From   int     `json:"from"`
	To     int     `json:"to"`
	Weight float64 `json:"weight"`
	X1     float64 `json:"x1"`
	Y1     float64 `json:"y1"`
	X2     float64 `json:"x2"`
	Y2     float64 `json:"y2"`
}

// Result is the outcome of ClusterMST.Calc. All per-row slices are aligned
// with Table rows.
type Result struct {
	// Table holds the selected rows in input order: the uploaded columns
	// followed by X and Y.
	Table *dataset.Table
	// Rows maps each result row to its row index in the input table.
	Rows     []int
	X        []float64
	Y        []float64
	Activity []float64 // NaN when the activity cell is not numeric
	Active   []bool    // true for top-N members
	Edges    []Edge

	// Skipped counts input rows whose structure could not be parsed.
	Skipped     int
	TotalWeight float64
}

// Len returns the number of compounds in the result.
func (r *Result) Len() int { return len(r.Rows) }

// NumActive returns the number of top-N members.
func (r *Result) NumActive() int {
	n := 0
	for _, a := range r.Active {
		if a {
			n++
		}
	}
	return n
}

// EdgeTable renders the edges as an X1 Y1 X2 Y2 table.
func (r *Result) EdgeTable() *dataset.Table {
	rows := make([][]string, len(r.Edges))
	for i, e := range r.Edges {
		rows[i] = []string{
			dataset.FormatFloat(e.X1),
			dataset.FormatFloat(e.Y1),
			dataset.FormatFloat(e.X2),
			dataset.FormatFloat(e.Y2),
		}
	}
	t, _ := dataset.NewTable(EdgeColumns, rows)
	return t
}
