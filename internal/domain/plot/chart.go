package plot

import (
	"html/template"
	"math"
	"sort"
	"strconv"

	"github.com/turtacn/ClusterMST/pkg/errors"
)

// Default chart geometry.
const (
	DefaultWidth     = 1200
	DefaultHeight    = 800
	DefaultPointSize = 12
)

// Plot area margins in pixels. The right margin holds the colour bar.
const (
	marginLeft   = 40
	marginRight  = 140
	marginTop    = 30
	marginBottom = 40
	dataPadding  = 0.03
	colorBarW    = 18
	colorBarGap  = 30
	numTicks     = 5
)

// Segment is a line between two points.
type Segment struct {
	X1, Y1, X2, Y2 float64
}

// Series is the data shown by a chart. X and Y are layout coordinates in
// [0, 1]; Edges use the same space. All per-point slices are aligned.
type Series struct {
	X        []float64
	Y        []float64
	Value    []float64 // colour values; NaN is drawn grey
	Labels   []string  // point identifiers
	Tooltips []template.HTML
	Edges    []Segment
}

// Options configures chart geometry and colouring.
type Options struct {
	Width      int
	Height     int
	PointSize  int
	ColorMap   *ColorMap
	Reverse    bool   // lower values are better and are drawn on top
	ValueLabel string // colour bar caption
}

// Point is a marker in pixel space.
type Point struct {
	Index   int // position in the Series
	CX, CY  float64
	Color   string
	Value   float64
	Label   string
	Tooltip template.HTML
}

// GradientStop is one stop of the colour bar gradient.
type GradientStop struct {
	Offset string
	Color  string
}

// Tick is a colour bar tick.
type Tick struct {
	Y     float64
	Label string
}

// ColorBar is the legend mapping colours to values.
type ColorBar struct {
	X, Y, W, H float64
	TickX      float64
	CaptionY   float64
	Caption    string
	Stops      []GradientStop
	Ticks      []Tick
}

// Chart is a fully laid out scatter chart with MST edges.
type Chart struct {
	Width    int
	Height   int
	Radius   float64
	Points   []Point // in drawing order
	Edges    []Segment
	ColorBar ColorBar
	Min, Max float64
}

// BuildChart maps a Series into pixel space. Points are ordered so the best
// values are drawn last and stay visible where markers overlap.
func BuildChart(s Series, opts Options) (*Chart, error) {
	n := len(s.X)
	if len(s.Y) != n || len(s.Value) != n {
		return nil, errors.InvalidParam("chart series lengths differ")
	}
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	if opts.PointSize <= 0 {
		opts.PointSize = DefaultPointSize
	}
	if opts.ColorMap == nil {
		cm, err := ParseColorSpec(DefaultColorMap)
		if err != nil {
			return nil, err
		}
		opts.ColorMap = cm
	}

	plotW := float64(opts.Width - marginLeft - marginRight)
	plotH := float64(opts.Height - marginTop - marginBottom)
	px := func(x float64) float64 {
		return marginLeft + plotW*(dataPadding+x*(1-2*dataPadding))
	}
	py := func(y float64) float64 {
		return marginTop + plotH*(1-dataPadding-y*(1-2*dataPadding))
	}

	lo, hi := valueRange(s.Value)
	norm := func(v float64) float64 {
		if hi > lo {
			return (v - lo) / (hi - lo)
		}
		return 0.5
	}

	c := &Chart{
		Width:  opts.Width,
		Height: opts.Height,
		Radius: float64(opts.PointSize) / 2,
		Min:    lo,
		Max:    hi,
		Points: make([]Point, n),
		Edges:  make([]Segment, len(s.Edges)),
	}
	for i, e := range s.Edges {
		c.Edges[i] = Segment{X1: px(e.X1), Y1: py(e.Y1), X2: px(e.X2), Y2: py(e.Y2)}
	}

	order := drawOrder(s.Value, opts.Reverse)
	for k, i := range order {
		p := Point{Index: i, CX: px(s.X[i]), CY: py(s.Y[i]), Value: s.Value[i], Color: NaNColor}
		if !math.IsNaN(s.Value[i]) {
			p.Color = opts.ColorMap.Hex(norm(s.Value[i]))
		}
		if i < len(s.Labels) {
			p.Label = s.Labels[i]
		}
		if i < len(s.Tooltips) {
			p.Tooltip = s.Tooltips[i]
		}
		c.Points[k] = p
	}

	c.ColorBar = colorBar(opts, lo, hi)
	return c, nil
}

// drawOrder sorts indices ascending by value, or descending when reverse.
// NaN values come first so they are drawn underneath.
func drawOrder(values []float64, reverse bool) []int {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		va, vb := values[idx[a]], values[idx[b]]
		if math.IsNaN(va) || math.IsNaN(vb) {
			return math.IsNaN(va) && !math.IsNaN(vb)
		}
		if reverse {
			return va > vb
		}
		return va < vb
	})
	return idx
}

func valueRange(values []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if math.IsInf(lo, 1) {
		return 0, 0
	}
	return lo, hi
}

func colorBar(opts Options, lo, hi float64) ColorBar {
	cb := ColorBar{
		X:       float64(opts.Width-marginRight) + colorBarGap,
		Y:       marginTop,
		W:       colorBarW,
		H:       float64(opts.Height - marginTop - marginBottom),
		Caption: opts.ValueLabel,
	}
	cb.TickX = cb.X + cb.W + 6
	cb.CaptionY = cb.Y + cb.H + 24
	stops := opts.ColorMap.Stops()
	for i := len(stops) - 1; i >= 0; i-- {
		// the gradient runs top (high) to bottom (low)
		off := 1.0
		if len(stops) > 1 {
			off = 1 - float64(i)/float64(len(stops)-1)
		}
		cb.Stops = append(cb.Stops, GradientStop{
			Offset: strconv.FormatFloat(off*100, 'f', 1, 64) + "%",
			Color:  stops[i],
		})
	}
	for k := 0; k < numTicks; k++ {
		f := float64(k) / float64(numTicks-1)
		v := lo + f*(hi-lo)
		cb.Ticks = append(cb.Ticks, Tick{
			Y:     cb.Y + cb.H*(1-f),
			Label: strconv.FormatFloat(v, 'g', 4, 64),
		})
		if hi == lo {
			cb.Ticks[len(cb.Ticks)-1].Y = cb.Y + cb.H/2
			break
		}
	}
	return cb
}
