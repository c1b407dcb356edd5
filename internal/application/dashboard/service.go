// Package dashboard runs Cluster MST calculations for the web dashboard and
// the batch CLI: it validates the sidebar form, clusters the upload, draws
// the chart and keeps the result for later selections and downloads.
package dashboard

import (
	"context"
	"fmt"
	"html/template"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/turtacn/ClusterMST/internal/config"
	"github.com/turtacn/ClusterMST/internal/domain/cluster"
	"github.com/turtacn/ClusterMST/internal/domain/dataset"
	"github.com/turtacn/ClusterMST/internal/domain/depict"
	"github.com/turtacn/ClusterMST/internal/domain/plot"
	"github.com/turtacn/ClusterMST/internal/domain/result"
	"github.com/turtacn/ClusterMST/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClusterMST/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ClusterMST/pkg/errors"
)

// Service defines the dashboard operations.
type Service interface {
	// Run validates in, clusters the upload and stores the result. When the
	// input is rejected the returned View is still set: it carries the form
	// as used (a clamped Top N included) and the message for the main panel.
	Run(ctx context.Context, in *RunInput) (*View, error)
	// View re-renders a stored result.
	View(ctx context.Context, id string) (*View, error)
	// Selection returns the table rows for a lasso selection.
	Selection(ctx context.Context, id string, indices []int) (*SelectionView, error)
	// Export returns one of the TSV downloads of a stored result.
	Export(ctx context.Context, id string, kind result.ExportKind, indices []int) (*Download, error)
	// Image returns the structure PNG of one result row.
	Image(ctx context.Context, id string, row int) ([]byte, error)
	// Defaults returns the initial sidebar values.
	Defaults() Form
	Ping(ctx context.Context) error
}

// RunInput is one submission of the sidebar.
type RunInput struct {
	Form     Form
	FileName string
	File     []byte
}

// Deps are the collaborators of the service. Store and Renderer are
// required; Archive is optional.
type Deps struct {
	Store     result.Repository
	StoreName string // metrics label of the store backend
	Archive   result.Archive
	Renderer  *depict.Renderer
	Metrics   *prometheus.AppMetrics
	Logger    logging.Logger
	Cluster   config.ClusterConfig
	Render    config.RenderConfig

	Now   func() time.Time
	NewID func() string
}

type serviceImpl struct {
	store     result.Repository
	storeName string
	archive   result.Archive
	renderer  *depict.Renderer
	metrics   *prometheus.AppMetrics
	logger    logging.Logger
	defaults  Form
	workers   int
	render    config.RenderConfig
	now       func() time.Time
	newID     func() string
}

// NewService creates the dashboard service.
func NewService(deps Deps) (Service, error) {
	if deps.Store == nil {
		return nil, errors.InvalidParam("dashboard: result store is required")
	}
	if deps.Renderer == nil {
		return nil, errors.InvalidParam("dashboard: renderer is required")
	}
	s := &serviceImpl{
		store:     deps.Store,
		storeName: deps.StoreName,
		archive:   deps.Archive,
		renderer:  deps.Renderer,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		defaults:  DefaultForm(deps.Cluster),
		workers:   deps.Cluster.Workers,
		render:    deps.Render,
		now:       deps.Now,
		newID:     deps.NewID,
	}
	if s.storeName == "" {
		s.storeName = "memory"
	}
	if s.metrics == nil {
		s.metrics = prometheus.NewNopAppMetrics()
	}
	if s.logger == nil {
		s.logger = logging.NewNopLogger()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.render.PlotWidth <= 0 {
		s.render.PlotWidth = plot.DefaultWidth
	}
	if s.render.PlotHeight <= 0 {
		s.render.PlotHeight = plot.DefaultHeight
	}
	return s, nil
}

func (s *serviceImpl) Defaults() Form { return s.defaults }

func (s *serviceImpl) Ping(ctx context.Context) error { return s.store.Ping(ctx) }

func (s *serviceImpl) Run(ctx context.Context, in *RunInput) (*View, error) {
	start := time.Now()
	log := logging.FromContext(ctx, s.logger)
	if in == nil {
		in = &RunInput{Form: s.defaults}
	}
	view := &View{Form: in.Form, FileName: in.FileName}

	if len(in.File) == 0 && in.FileName == "" {
		return s.reject(view, errors.Validation(UploadPrompt))
	}
	table, err := dataset.ParseTSV(in.File)
	if err != nil {
		return s.reject(view, fileError(err))
	}

	// Checks run in sidebar order; the colour spec sits between the cutoff
	// and the fingerprint method.
	params, err := in.Form.params(s.workers).ValidateTable(table)
	view.Form.TopNAct = params.TopNAct
	if err != nil {
		return s.reject(view, err)
	}
	if params.TopNAct != in.Form.TopNAct {
		view.Notice = fmt.Sprintf("Top N active was set to %d, the number of rows in the file.", params.TopNAct)
	}
	cmap, err := plot.ParseColorSpec(in.Form.ColorMap)
	if err != nil {
		return s.reject(view, err)
	}
	params, err = params.ValidateMethods()
	if err != nil {
		return s.reject(view, err)
	}
	view.Form.Fingerprint = string(params.Method)
	view.Form.Similarity = string(params.Similarity)
	view.Form.Layout = string(params.Layout)

	mst, err := cluster.New(table, params, cluster.WithLogger(log))
	if err != nil {
		return s.reject(view, err)
	}
	res, err := mst.Calc(ctx)
	if err != nil {
		return s.reject(view, err)
	}

	snap := result.NewSnapshot(s.newID(), s.now(), view.Form.settings(), table, res)
	snap.FileName = in.FileName
	if err := s.store.Save(ctx, snap); err != nil {
		prometheus.RecordCalculation(s.metrics, "error", string(params.Method), time.Since(start), 0, 0)
		return nil, err
	}

	out, err := s.build(ctx, snap, cmap)
	if err != nil {
		prometheus.RecordCalculation(s.metrics, "error", string(params.Method), time.Since(start), 0, 0)
		return nil, err
	}
	out.Notice = view.Notice
	out.Archived = s.archiveRun(ctx, snap)

	prometheus.RecordCalculation(s.metrics, "ok", string(params.Method), time.Since(start), res.Len(), res.Skipped)
	log.Info("dashboard run completed",
		logging.String("result_id", snap.ID),
		logging.String("file", in.FileName),
		logging.Int("compounds", res.Len()),
		logging.Int("skipped", res.Skipped),
		logging.Duration("elapsed", time.Since(start)))
	return out, nil
}

// reject finishes a run that did not produce a result. Input problems come
// back as a view with the help text and message; anything else is returned
// as is.
func (s *serviceImpl) reject(view *View, err error) (*View, error) {
	code := errors.GetCode(err)
	if !errors.IsClientError(code) {
		prometheus.RecordCalculation(s.metrics, "error", view.Form.Fingerprint, 0, 0, 0)
		prometheus.RecordError(s.metrics, "dashboard", string(code))
		return nil, err
	}
	prometheus.RecordCalculation(s.metrics, "invalid", view.Form.Fingerprint, 0, 0, 0)
	view.Error = UserMessage(err)
	msg, rerr := RenderMarkdown(MessageMarkdown(err))
	if rerr != nil {
		return nil, rerr
	}
	view.Message = msg
	return view, err
}

func fileError(err error) error {
	msg := UserMessage(err)
	var appErr *errors.AppError
	if errors.As(err, &appErr) && appErr.Cause != nil {
		msg += ": " + appErr.Cause.Error()
	}
	return errors.Validation(fmt.Sprintf("Could not read the file (%s).", msg)).WithCause(err)
}

func (s *serviceImpl) archiveRun(ctx context.Context, snap *result.Snapshot) []result.ArchivedExport {
	if s.archive == nil {
		return nil
	}
	log := logging.FromContext(ctx, s.logger)
	kinds := []result.ExportKind{result.ExportDataset, result.ExportDatasetMST, result.ExportEdges}
	files := make([]result.ExportFile, 0, len(kinds))
	for _, k := range kinds {
		t, err := snap.Export(k, nil)
		if err == nil {
			var data []byte
			data, err = dataset.EncodeTSV(t)
			files = append(files, result.ExportFile{Kind: k, Data: data})
		}
		if err != nil {
			log.Warn("export encoding failed", logging.String("kind", string(k)), logging.Err(err))
			return nil
		}
	}
	archived, err := s.archive.Archive(ctx, snap.ID, files)
	prometheus.RecordArchive(s.metrics, err)
	if err != nil {
		log.Warn("export archive failed", logging.String("result_id", snap.ID), logging.Err(err))
		return nil
	}
	return archived
}

func (s *serviceImpl) get(ctx context.Context, id string) (*result.Snapshot, error) {
	snap, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.IsNotFound(err) {
			prometheus.RecordCacheAccess(s.metrics, s.storeName, false)
		}
		return nil, err
	}
	prometheus.RecordCacheAccess(s.metrics, s.storeName, true)
	return snap, nil
}

func (s *serviceImpl) View(ctx context.Context, id string) (*View, error) {
	snap, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	cmap, err := plot.ParseColorSpec(snap.Settings.ColorMap)
	if err != nil {
		return nil, err
	}
	return s.build(ctx, snap, cmap)
}

// build draws the chart of snap. Structure images are rendered in parallel;
// the renderer caches them for the selection table.
func (s *serviceImpl) build(ctx context.Context, snap *result.Snapshot, cmap *plot.ColorMap) (*View, error) {
	n := snap.Len()
	idCol := snap.Settings.IDCol
	labels := make([]string, n)
	tooltips := make([]template.HTML, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workerCount())
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			labels[i] = snap.Value(i, idCol)
			fields := make([]plot.TooltipField, 0, len(snap.Settings.TooltipCols))
			for _, col := range snap.Settings.TooltipCols {
				fields = append(fields, plot.TooltipField{Name: col, Value: snap.Value(i, col)})
			}
			img := s.renderer.ImageTag(snap.Value(i, dataset.SmilesColumn))
			tooltips[i] = plot.Tooltip(img, labels[i], fields...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	xs, ys := snap.Coordinates()
	edges := make([]plot.Segment, len(snap.Edges))
	for i, e := range snap.Edges {
		edges[i] = plot.Segment{X1: e.X1, Y1: e.Y1, X2: e.X2, Y2: e.Y2}
	}
	chart, err := plot.BuildChart(plot.Series{
		X:        xs,
		Y:        ys,
		Value:    snap.Activities(),
		Labels:   labels,
		Tooltips: tooltips,
		Edges:    edges,
	}, plot.Options{
		Width:      s.render.PlotWidth,
		Height:     s.render.PlotHeight,
		PointSize:  int(math.Round(s.render.PointSize)),
		ColorMap:   cmap,
		Reverse:    snap.Settings.Reverse,
		ValueLabel: snap.Settings.ActCol,
	})
	if err != nil {
		return nil, err
	}
	svg, err := chart.SVG()
	if err != nil {
		return nil, err
	}
	v := newView(snap, svg)
	v.Tooltips = tooltips
	return v, nil
}

func (s *serviceImpl) workerCount() int {
	if s.workers > 0 {
		return s.workers
	}
	return config.DefaultWorkers()
}

func (s *serviceImpl) Selection(ctx context.Context, id string, indices []int) (*SelectionView, error) {
	snap, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	sel, err := snap.NormalizeSelection(indices)
	if err != nil {
		return nil, err
	}
	idCol, actCol := snap.Settings.IDCol, snap.Settings.ActCol
	out := &SelectionView{
		ResultID: snap.ID,
		Columns:  []string{"Image", idCol, actCol},
		Indices:  sel,
		Rows:     make([]SelectionRow, len(sel)),
	}
	for k, i := range sel {
		out.Rows[k] = SelectionRow{
			Index:    i,
			Image:    s.renderer.ImageTag(snap.Value(i, dataset.SmilesColumn)),
			ID:       snap.Value(i, idCol),
			Activity: snap.Value(i, actCol),
		}
	}
	return out, nil
}

func (s *serviceImpl) Export(ctx context.Context, id string, kind result.ExportKind, indices []int) (*Download, error) {
	snap, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	t, err := snap.Export(kind, indices)
	if err != nil {
		return nil, err
	}
	data, err := dataset.EncodeTSV(t)
	if err != nil {
		return nil, err
	}
	prometheus.RecordExport(s.metrics, string(kind))
	return &Download{FileName: kind.FileName(), ContentType: ContentTypeTSV, Data: data}, nil
}

func (s *serviceImpl) Image(ctx context.Context, id string, row int) ([]byte, error) {
	snap, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if row < 0 || row >= snap.Len() {
		return nil, errors.Validation(fmt.Sprintf("Selected index %d is out of range.", row))
	}
	img, err := s.renderer.PNG(snap.Value(row, dataset.SmilesColumn))
	if err != nil {
		return s.renderer.Placeholder(), nil
	}
	return img, nil
}
