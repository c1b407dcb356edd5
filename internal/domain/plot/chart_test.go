package plot

import (
	"html/template"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSeries() Series {
	return Series{
		X:      []float64{0, 1, 0.5, 0.25},
		Y:      []float64{0, 1, 0.5, 0.75},
		Value:  []float64{3, 9, math.NaN(), 6},
		Labels: []string{"A", "B", "C", "D<script>"},
		Edges:  []Segment{{0, 0, 0.5, 0.5}, {0.5, 0.5, 1, 1}, {0.5, 0.5, 0.25, 0.75}},
	}
}

func TestBuildChart_Geometry(t *testing.T) {
	c, err := BuildChart(sampleSeries(), Options{})
	require.NoError(t, err)

	assert.Equal(t, DefaultWidth, c.Width)
	assert.Equal(t, DefaultHeight, c.Height)
	assert.Equal(t, 6.0, c.Radius)
	assert.Equal(t, 3.0, c.Min)
	assert.Equal(t, 9.0, c.Max)
	require.Len(t, c.Points, 4)
	require.Len(t, c.Edges, 3)

	byIndex := map[int]Point{}
	for _, p := range c.Points {
		byIndex[p.Index] = p
		assert.Greater(t, p.CX, float64(marginLeft))
		assert.Less(t, p.CX, float64(c.Width-marginRight))
		assert.Greater(t, p.CY, float64(marginTop))
		assert.Less(t, p.CY, float64(c.Height-marginBottom))
	}
	// y grows upwards in data space and downwards on screen
	assert.Greater(t, byIndex[0].CY, byIndex[1].CY)
	assert.Less(t, byIndex[0].CX, byIndex[1].CX)
	assert.Equal(t, byIndex[0].CX, c.Edges[0].X1)
	assert.Equal(t, byIndex[2].CY, c.Edges[0].Y2)

	assert.Equal(t, NaNColor, byIndex[2].Color)
	assert.Equal(t, "#0000ff", byIndex[0].Color)
	assert.Equal(t, "#00ff00", byIndex[1].Color)
	assert.Equal(t, "#ff0000", byIndex[3].Color)
}

func TestBuildChart_DrawOrder(t *testing.T) {
	c, err := BuildChart(sampleSeries(), Options{})
	require.NoError(t, err)
	var order []int
	for _, p := range c.Points {
		order = append(order, p.Index)
	}
	assert.Equal(t, []int{2, 0, 3, 1}, order, "best value drawn last")

	c, err = BuildChart(sampleSeries(), Options{Reverse: true})
	require.NoError(t, err)
	order = order[:0]
	for _, p := range c.Points {
		order = append(order, p.Index)
	}
	assert.Equal(t, []int{2, 1, 3, 0}, order)
}

func TestBuildChart_ConstantValues(t *testing.T) {
	s := Series{X: []float64{0.5}, Y: []float64{0.5}, Value: []float64{4}}
	cm, err := ParseColorSpec("#000000,#ffffff")
	require.NoError(t, err)

	c, err := BuildChart(s, Options{ColorMap: cm, Width: 400, Height: 300, PointSize: 8})
	require.NoError(t, err)
	assert.Equal(t, "#808080", c.Points[0].Color)
	assert.Len(t, c.ColorBar.Ticks, 1)
	assert.Equal(t, 4.0, c.Radius)
}

func TestBuildChart_Mismatch(t *testing.T) {
	_, err := BuildChart(Series{X: []float64{1}, Y: []float64{1, 2}, Value: []float64{1}}, Options{})
	assert.Error(t, err)
}

func TestBuildChart_ColorBar(t *testing.T) {
	c, err := BuildChart(sampleSeries(), Options{ValueLabel: "pIC50"})
	require.NoError(t, err)
	cb := c.ColorBar
	assert.Equal(t, "pIC50", cb.Caption)
	require.Len(t, cb.Ticks, numTicks)
	assert.Equal(t, "3", cb.Ticks[0].Label)
	assert.Equal(t, "9", cb.Ticks[numTicks-1].Label)
	assert.Greater(t, cb.Ticks[0].Y, cb.Ticks[numTicks-1].Y)
	require.Len(t, cb.Stops, 3)
	assert.Equal(t, "0.0%", cb.Stops[0].Offset)
	assert.Equal(t, "#00ff00", cb.Stops[0].Color)
	assert.Equal(t, "100.0%", cb.Stops[2].Offset)
}

func TestChart_SVG(t *testing.T) {
	c, err := BuildChart(sampleSeries(), Options{ValueLabel: "act"})
	require.NoError(t, err)
	svg, err := c.SVG()
	require.NoError(t, err)

	out := string(svg)
	assert.True(t, strings.HasPrefix(out, "<svg"))
	assert.Equal(t, 4, strings.Count(out, "<circle"))
	assert.Equal(t, 3, strings.Count(out, "<line "))
	assert.Contains(t, out, `data-index="2"`)
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "D&lt;script&gt;")
}

func TestTooltip(t *testing.T) {
	img := template.HTML(`<img src="x.png">`)
	html := string(Tooltip(img, "CPD<1>", TooltipField{Name: "pIC50", Value: "7.5"}, TooltipField{Name: "Note", Value: "a&b"}))

	assert.Contains(t, html, `<img src="x.png">`)
	assert.Contains(t, html, `font-weight: bold;">CPD&lt;1&gt;</span>`)
	assert.Contains(t, html, "pIC50: 7.5")
	assert.Contains(t, html, "Note: a&amp;b")
}
