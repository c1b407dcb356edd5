package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/turtacn/ClusterMST/internal/application/dashboard"
	"github.com/turtacn/ClusterMST/internal/domain/cluster"
	"github.com/turtacn/ClusterMST/internal/domain/depict"
	"github.com/turtacn/ClusterMST/internal/domain/result"
	"github.com/turtacn/ClusterMST/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClusterMST/internal/infrastructure/storage/memory"
	"github.com/turtacn/ClusterMST/pkg/errors"
)

// RunOptions holds the flags of the run command. Unset form flags keep the
// configured cluster defaults.
type RunOptions struct {
	Input       string
	OutDir      string
	HTML        string
	IDCol       string
	ActCol      string
	Reverse     bool
	TopNAct     int
	NumSim      int
	SimCutoff   float64
	Fingerprint string
	Similarity  string
	ColorMap    string
	Layout      string
	Select      []int
	Server      string
}

// RunSummary is printed after a batch run.
type RunSummary struct {
	ResultID    string   `json:"result_id"`
	Input       string   `json:"input"`
	Compounds   int      `json:"compounds"`
	Actives     int      `json:"actives"`
	Skipped     int      `json:"skipped"`
	TotalWeight float64  `json:"total_weight"`
	Notice      string   `json:"notice,omitempty"`
	Files       []string `json:"files"`
}

func (s RunSummary) String() string {
	out := fmt.Sprintf("%s: %d compounds (%d active, %d skipped), MST weight %.3f",
		s.Input, s.Compounds, s.Actives, s.Skipped, s.TotalWeight)
	if s.Notice != "" {
		out += "\n" + color.YellowString(s.Notice)
	}
	for _, f := range s.Files {
		out += "\nwrote " + f
	}
	return out
}

// TableHeaders implements table output.
func (s RunSummary) TableHeaders() []string { return []string{"FILE"} }

// TableRows implements table output.
func (s RunSummary) TableRows() [][]string {
	rows := make([][]string, len(s.Files))
	for i, f := range s.Files {
		rows[i] = []string{f}
	}
	return rows
}

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Cluster a TSV file and write the exports",
		Long: "Run one Cluster MST calculation. Writes dataset.tsv, dataset_mst.tsv,\n" +
			"edges.tsv and selection.tsv to --out-dir. The selection is the list of --select\n" +
			"rows, or the top active compounds when not given. With --server the file is sent\n" +
			"to a running dashboard instead of being clustered locally.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			summary, err := runBatch(cmd, cliCtx, opts)
			if err != nil {
				return err
			}
			return PrintResult(cmd, summary)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.Input, "input", "i", "", "input TSV file (required)")
	f.StringVar(&opts.OutDir, "out-dir", ".", "directory for the TSV exports")
	f.StringVar(&opts.HTML, "html", "", "also write a standalone HTML chart to this file")
	f.StringVar(&opts.IDCol, "id-col", "", "identifier column")
	f.StringVar(&opts.ActCol, "act-col", "", "activity column")
	f.BoolVar(&opts.Reverse, "reverse", false, "lower activity values are better")
	f.IntVar(&opts.TopNAct, "top-n", 0, "number of top active compounds")
	f.IntVar(&opts.NumSim, "num-sim", 0, "number of similar compounds per active compound")
	f.Float64Var(&opts.SimCutoff, "cutoff", 0, "minimum similarity cutoff")
	f.StringVar(&opts.Fingerprint, "fingerprint", "", "fingerprint method")
	f.StringVar(&opts.Similarity, "similarity", "", "similarity metric (tanimoto, dice)")
	f.StringVar(&opts.ColorMap, "color-map", "", "color map name or comma-separated HTML colors")
	f.StringVar(&opts.Layout, "layout", "", "layout method (mds, eades)")
	f.IntSliceVar(&opts.Select, "select", nil, "result rows for selection.tsv")
	f.StringVar(&opts.Server, "server", "", "base URL of a clustermst server to run on")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runBatch(cmd *cobra.Command, cliCtx *CLIContext, opts *RunOptions) (*RunSummary, error) {
	cfg := cliCtx.Config
	ctx := cmd.Context()

	data, err := os.ReadFile(opts.Input)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeBadRequest, "reading input")
	}
	if opts.Server != "" {
		return runRemote(cmd, cliCtx, opts, data)
	}

	store := memory.NewResultStore(time.Hour, 0)
	defer store.Close()
	svc, err := dashboard.NewService(dashboard.Deps{
		Store:    store,
		Renderer: depict.NewRenderer(depict.WithSize(cfg.Render.ImageSize), depict.WithCacheSize(cfg.Render.ImageCacheSize)),
		Logger:   cliCtx.Logger,
		Cluster:  cfg.Cluster,
		Render:   cfg.Render,
	})
	if err != nil {
		return nil, err
	}

	form := svc.Defaults()
	applyRunFlags(cmd, opts, &form)
	view, err := svc.Run(ctx, &dashboard.RunInput{
		Form:     form,
		FileName: filepath.Base(opts.Input),
		File:     data,
	})
	if err != nil {
		if view != nil && view.Error != "" {
			msg := view.Error
			if cols := cluster.AvailableColumns(err); cols != "" {
				msg += " Available columns: " + cols
			}
			return nil, errors.Validation(msg)
		}
		return nil, err
	}

	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "creating output directory")
	}
	selection := opts.Select
	if !cmd.Flags().Changed("select") {
		selection = activeRows(view)
	}

	summary := &RunSummary{
		ResultID:    view.ID,
		Input:       opts.Input,
		Compounds:   view.Compounds,
		Actives:     view.Actives,
		Skipped:     view.Skipped,
		TotalWeight: view.TotalWeight,
		Notice:      view.Notice,
	}
	for _, kind := range result.ExportKinds() {
		dl, err := svc.Export(ctx, view.ID, kind, selection)
		if err != nil {
			return nil, err
		}
		path := filepath.Join(opts.OutDir, dl.FileName)
		if err := os.WriteFile(path, dl.Data, 0o644); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeStorageError, "writing "+path)
		}
		summary.Files = append(summary.Files, path)
	}

	if opts.HTML != "" {
		f, err := os.Create(opts.HTML)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeStorageError, "creating report")
		}
		werr := writeReport(f, view)
		if cerr := f.Close(); werr == nil {
			werr = cerr
		}
		if werr != nil {
			return nil, errors.Wrap(werr, errors.ErrCodeStorageError, "writing report")
		}
		summary.Files = append(summary.Files, opts.HTML)
	}

	cliCtx.Logger.Debug("batch run finished",
		logging.String("result_id", view.ID),
		logging.Int("files", len(summary.Files)))
	return summary, nil
}

// applyRunFlags copies the flags the user set onto form.
func applyRunFlags(cmd *cobra.Command, opts *RunOptions, form *dashboard.Form) {
	changed := cmd.Flags().Changed
	if changed("id-col") {
		form.IDCol = opts.IDCol
	}
	if changed("act-col") {
		form.ActCol = opts.ActCol
	}
	if changed("reverse") {
		form.Reverse = opts.Reverse
	}
	if changed("top-n") {
		form.TopNAct = opts.TopNAct
	}
	if changed("num-sim") {
		form.NumSim = opts.NumSim
	}
	if changed("cutoff") {
		form.SimCutoff = opts.SimCutoff
	}
	if changed("fingerprint") {
		form.Fingerprint = opts.Fingerprint
	}
	if changed("similarity") {
		form.Similarity = opts.Similarity
	}
	if changed("color-map") {
		form.ColorMap = opts.ColorMap
	}
	if changed("layout") {
		form.Layout = opts.Layout
	}
}

func activeRows(view *dashboard.View) []int {
	var rows []int
	for i, a := range view.Active {
		if a {
			rows = append(rows, i)
		}
	}
	return rows
}
