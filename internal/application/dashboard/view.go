package dashboard

import (
	"html/template"
	"time"

	"github.com/turtacn/ClusterMST/internal/domain/cluster"
	"github.com/turtacn/ClusterMST/internal/domain/result"
)

// ContentTypeTSV is the media type of every download.
const ContentTypeTSV = "text/tab-separated-values"

// View is what the main panel shows for one run: either a chart or, when
// the input was rejected, the help text with the error.
type View struct {
	ID        string    `json:"id,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	FileName  string    `json:"file_name,omitempty"`
	Form      Form      `json:"form"`

	// Notice reports an adjusted input, such as a clamped Top N.
	Notice string `json:"notice,omitempty"`
	// Error is the plain validation message; Message is the rendered help
	// text plus error.
	Error   string        `json:"error,omitempty"`
	Message template.HTML `json:"-"`

	Chart template.HTML `json:"-"`
	// Tooltips holds the hover content of each chart point, by row.
	Tooltips []template.HTML `json:"-"`

	Columns     []string       `json:"columns,omitempty"`
	Rows        [][]string     `json:"rows,omitempty"`
	Active      []bool         `json:"active,omitempty"`
	Edges       []cluster.Edge `json:"edges,omitempty"`
	Compounds   int            `json:"compounds"`
	Actives     int            `json:"actives"`
	Skipped     int            `json:"skipped"`
	TotalWeight float64        `json:"total_weight"`

	Downloads []result.ExportKind     `json:"downloads,omitempty"`
	Archived  []result.ArchivedExport `json:"archived,omitempty"`
}

// OK reports whether the view holds a result.
func (v *View) OK() bool { return v != nil && v.ID != "" }

func newView(snap *result.Snapshot, chart template.HTML) *View {
	actives := 0
	for _, a := range snap.Active {
		if a {
			actives++
		}
	}
	return &View{
		ID:          snap.ID,
		CreatedAt:   snap.CreatedAt,
		FileName:    snap.FileName,
		Form:        formFromSettings(snap.Settings),
		Chart:       chart,
		Columns:     snap.ResultColumns,
		Rows:        snap.ResultRows,
		Active:      snap.Active,
		Edges:       snap.Edges,
		Compounds:   snap.Len(),
		Actives:     actives,
		Skipped:     snap.Skipped,
		TotalWeight: snap.TotalWeight,
		Downloads:   []result.ExportKind{result.ExportDataset, result.ExportDatasetMST, result.ExportEdges},
	}
}

// SelectionRow is one row of the selection table.
type SelectionRow struct {
	Index    int           `json:"index"`
	Image    template.HTML `json:"image"`
	ID       string        `json:"id"`
	Activity string        `json:"activity"`
}

// SelectionView is the table below the chart for a lasso selection.
type SelectionView struct {
	ResultID string         `json:"result_id"`
	Columns  []string       `json:"columns"`
	Indices  []int          `json:"indices"`
	Rows     []SelectionRow `json:"rows"`
}

// Download is an attachment.
type Download struct {
	FileName    string
	ContentType string
	Data        []byte
}
