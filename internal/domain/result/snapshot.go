// Package result holds the stored outcome of one dashboard calculation and
// the repository contract used to keep it between requests.
//
// A Snapshot is immutable once saved. It keeps the uploaded table verbatim so
// the dataset and selection downloads reproduce the user's columns exactly,
// next to the result table with the X and Y layout columns.
package result

import (
	"context"
	"fmt"
	"time"

	"github.com/turtacn/ClusterMST/internal/domain/cluster"
	"github.com/turtacn/ClusterMST/internal/domain/dataset"
	"github.com/turtacn/ClusterMST/pkg/errors"
)

// ExportKind names one of the TSV downloads of a result.
type ExportKind string

const (
	ExportDataset    ExportKind = "dataset"
	ExportDatasetMST ExportKind = "dataset_mst"
	ExportEdges      ExportKind = "edges"
	ExportSelection  ExportKind = "selection"
)

// ExportKinds lists the downloads in the order the page offers them.
func ExportKinds() []ExportKind {
	return []ExportKind{ExportDataset, ExportDatasetMST, ExportEdges, ExportSelection}
}

// ParseExportKind resolves a kind name.
func ParseExportKind(s string) (ExportKind, error) {
	switch k := ExportKind(s); k {
	case ExportDataset, ExportDatasetMST, ExportEdges, ExportSelection:
		return k, nil
	}
	return "", errors.Newf(errors.ErrCodeExportKindUnknown, "unknown export %q", s)
}

// FileName is the attachment name of the download.
func (k ExportKind) FileName() string { return string(k) + ".tsv" }

// Settings are the effective form values of a calculation, after clamping.
type Settings struct {
	IDCol       string   `json:"id_col"`
	ActCol      string   `json:"act_col"`
	TopNAct     int      `json:"top_n_act"`
	NumSim      int      `json:"num_sim"`
	Reverse     bool     `json:"reverse"`
	SimCutoff   float64  `json:"sim_cutoff"`
	Fingerprint string   `json:"fingerprint"`
	Similarity  string   `json:"similarity,omitempty"`
	ColorMap    string   `json:"color_map"`
	Layout      string   `json:"layout"`
	TooltipCols []string `json:"tooltip_cols,omitempty"`
}

// Snapshot is everything needed to re-render a result page and serve its
// downloads.
type Snapshot struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	FileName  string    `json:"file_name,omitempty"`
	Settings  Settings  `json:"settings"`

	// Columns and Rows are the uploaded table.
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`

	// ResultColumns and ResultRows are the uploaded columns of the selected
	// compounds followed by X and Y.
	ResultColumns []string   `json:"result_columns"`
	ResultRows    [][]string `json:"result_rows"`

	// Source maps each result row to its row in the uploaded table.
	Source []int          `json:"source"`
	Active []bool         `json:"active"`
	Edges  []cluster.Edge `json:"edges"`

	Skipped     int     `json:"skipped"`
	TotalWeight float64 `json:"total_weight"`
}

// NewSnapshot captures input and res under id.
func NewSnapshot(id string, createdAt time.Time, settings Settings, input *dataset.Table, res *cluster.Result) *Snapshot {
	return &Snapshot{
		ID:            id,
		CreatedAt:     createdAt.UTC(),
		Settings:      settings,
		Columns:       input.Columns(),
		Rows:          input.Rows(),
		ResultColumns: res.Table.Columns(),
		ResultRows:    res.Table.Rows(),
		Source:        append([]int(nil), res.Rows...),
		Active:        append([]bool(nil), res.Active...),
		Edges:         append([]cluster.Edge(nil), res.Edges...),
		Skipped:       res.Skipped,
		TotalWeight:   res.TotalWeight,
	}
}

// Len returns the number of compounds in the result.
func (s *Snapshot) Len() int { return len(s.ResultRows) }

// Dataset returns the uploaded table.
func (s *Snapshot) Dataset() (*dataset.Table, error) {
	return dataset.NewTable(s.Columns, s.Rows)
}

// ResultTable returns the selected compounds with their coordinates.
func (s *Snapshot) ResultTable() (*dataset.Table, error) {
	return dataset.NewTable(s.ResultColumns, s.ResultRows)
}

// EdgeTable returns the MST edges as an X1 Y1 X2 Y2 table.
func (s *Snapshot) EdgeTable() *dataset.Table {
	res := cluster.Result{Edges: s.Edges}
	return res.EdgeTable()
}

// Value returns the result cell of row i in column col, or "".
func (s *Snapshot) Value(i int, col string) string {
	for j, c := range s.ResultColumns {
		if c == col {
			if i >= 0 && i < len(s.ResultRows) && j < len(s.ResultRows[i]) {
				return s.ResultRows[i][j]
			}
			return ""
		}
	}
	return ""
}

// Activities returns the numeric activity of every result row, NaN where the
// cell is not a number.
func (s *Snapshot) Activities() []float64 {
	out := make([]float64, s.Len())
	for i := range out {
		v, _ := dataset.ParseFloat(s.Value(i, s.Settings.ActCol))
		out[i] = v
	}
	return out
}

// Coordinates returns the layout columns as floats.
func (s *Snapshot) Coordinates() (xs, ys []float64) {
	xs = make([]float64, s.Len())
	ys = make([]float64, s.Len())
	for i := range xs {
		xs[i], _ = dataset.ParseFloat(s.Value(i, cluster.ColumnX))
		ys[i], _ = dataset.ParseFloat(s.Value(i, cluster.ColumnY))
	}
	return xs, ys
}

// NormalizeSelection checks indices against the result rows and removes
// duplicates, keeping the first occurrence.
func (s *Snapshot) NormalizeSelection(indices []int) ([]int, error) {
	out := make([]int, 0, len(indices))
	seen := make(map[int]struct{}, len(indices))
	for _, i := range indices {
		if i < 0 || i >= s.Len() {
			return nil, errors.Validation(fmt.Sprintf("Selected index %d is out of range.", i))
		}
		if _, dup := seen[i]; dup {
			continue
		}
		seen[i] = struct{}{}
		out = append(out, i)
	}
	return out, nil
}

// SelectionTable returns the uploaded columns of the selected result rows.
func (s *Snapshot) SelectionTable(indices []int) (*dataset.Table, error) {
	sel, err := s.NormalizeSelection(indices)
	if err != nil {
		return nil, err
	}
	rows := make([][]string, len(sel))
	for k, i := range sel {
		rows[k] = s.Rows[s.Source[i]]
	}
	return dataset.NewTable(s.Columns, rows)
}

// Export returns the table behind a download. indices is only used by the
// selection export.
func (s *Snapshot) Export(kind ExportKind, indices []int) (*dataset.Table, error) {
	switch kind {
	case ExportDataset:
		return s.Dataset()
	case ExportDatasetMST:
		return s.ResultTable()
	case ExportEdges:
		return s.EdgeTable(), nil
	case ExportSelection:
		return s.SelectionTable(indices)
	}
	return nil, errors.Newf(errors.ErrCodeExportKindUnknown, "unknown export %q", kind)
}

// Repository keeps snapshots for a limited time. Implementations must be safe
// for concurrent use.
type Repository interface {
	Save(ctx context.Context, s *Snapshot) error
	// Get returns an ErrCodeResultNotFound error for unknown or expired ids.
	Get(ctx context.Context, id string) (*Snapshot, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// NotFound is the error repositories return for a missing id.
func NotFound(id string) error {
	return errors.Newf(errors.ErrCodeResultNotFound, "result %s not found or expired", id)
}
