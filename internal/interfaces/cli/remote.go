package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/turtacn/ClusterMST/internal/domain/result"
	"github.com/turtacn/ClusterMST/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClusterMST/pkg/client"
	"github.com/turtacn/ClusterMST/pkg/errors"
)

// clientLogger adapts a Logger to the client's printf interface.
type clientLogger struct{ l logging.Logger }

func (c clientLogger) Debugf(format string, args ...interface{}) { c.l.Debug(fmt.Sprintf(format, args...)) }
func (c clientLogger) Infof(format string, args ...interface{})  { c.l.Info(fmt.Sprintf(format, args...)) }
func (c clientLogger) Errorf(format string, args ...interface{}) { c.l.Warn(fmt.Sprintf(format, args...)) }

// runRemote uploads the input to opts.Server and downloads the exports. The
// server applies its own defaults to flags that were not set.
func runRemote(cmd *cobra.Command, cliCtx *CLIContext, opts *RunOptions, data []byte) (*RunSummary, error) {
	if opts.HTML != "" {
		return nil, errors.InvalidParam("--html is not available with --server")
	}
	c, err := client.NewClient(opts.Server, client.WithLogger(clientLogger{cliCtx.Logger.Named("client")}))
	if err != nil {
		return nil, err
	}
	ctx := cmd.Context()

	res, err := c.Run(ctx, client.RunRequest{
		FileName: filepath.Base(opts.Input),
		Data:     data,
		Settings: remoteSettings(cmd, opts),
	})
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.IsRejected() {
			return nil, errors.Validation(apiErr.Message)
		}
		return nil, errors.Wrap(err, errors.ErrCodeServiceUnavailable, "running on "+opts.Server)
	}

	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "creating output directory")
	}
	selection := opts.Select
	if !cmd.Flags().Changed("select") {
		for i, a := range res.Active {
			if a {
				selection = append(selection, i)
			}
		}
	}

	summary := &RunSummary{
		ResultID:    res.ID,
		Input:       opts.Input,
		Compounds:   res.Compounds,
		Actives:     res.Actives,
		Skipped:     res.Skipped,
		TotalWeight: res.TotalWeight,
		Notice:      res.Notice,
	}
	for _, kind := range result.ExportKinds() {
		var indices []int
		if kind == result.ExportSelection {
			indices = selection
		}
		body, err := c.Download(ctx, res.ID, string(kind), indices)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeServiceUnavailable, "downloading "+string(kind))
		}
		path := filepath.Join(opts.OutDir, kind.FileName())
		if err := os.WriteFile(path, body, 0o644); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeStorageError, "writing "+path)
		}
		summary.Files = append(summary.Files, path)
	}
	return summary, nil
}

// remoteSettings sends only the flags the user set.
func remoteSettings(cmd *cobra.Command, opts *RunOptions) client.Settings {
	changed := cmd.Flags().Changed
	var s client.Settings
	if changed("id-col") {
		s.IDCol = opts.IDCol
	}
	if changed("act-col") {
		s.ActCol = opts.ActCol
	}
	s.Reverse = opts.Reverse
	if changed("top-n") {
		s.TopNAct = opts.TopNAct
	}
	if changed("num-sim") {
		s.NumSim = opts.NumSim
	}
	if changed("cutoff") {
		s.SimCutoff = opts.SimCutoff
	}
	if changed("fingerprint") {
		s.Fingerprint = opts.Fingerprint
	}
	if changed("similarity") {
		s.Similarity = opts.Similarity
	}
	if changed("color-map") {
		s.ColorMap = opts.ColorMap
	}
	if changed("layout") {
		s.Layout = opts.Layout
	}
	return s
}
