// Package plot builds the MST scatter chart: colour maps, the pixel-space
// chart model, its SVG rendering and the hover tooltips.
package plot

import (
	"math"
	"regexp"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/turtacn/ClusterMST/pkg/errors"
)

// DefaultColorMap is the colour map used when none is given.
const DefaultColorMap = "brg"

// NaNColor is used for points without a numeric value.
const NaNColor = "#bbbbbb"

var namedMaps = map[string][]string{
	"brg":     {"#0000ff", "#ff0000", "#00ff00"},
	"bmy":     {"#000b7d", "#5b0c9e", "#a3228e", "#d94468", "#f7783b", "#fcb526", "#f5f224"},
	"viridis": {"#440154", "#482878", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"},
	"plasma":  {"#0d0887", "#46039f", "#7201a8", "#9c179e", "#bd3786", "#d8576b", "#ed7953", "#fb9f3a", "#fdca26", "#f0f921"},
	"magma":   {"#000004", "#180f3d", "#440f76", "#721f81", "#9e2f7f", "#cd4071", "#f1605d", "#fd9668", "#feca8d", "#fcfdbf"},
	"turbo":   {"#30123b", "#4662d7", "#36aaf9", "#1ae4b6", "#72fe5e", "#c8ef34", "#faba39", "#f66b19", "#ca2a04", "#7a0403"},
}

// colorMapOrder is the order colour maps are offered in.
var colorMapOrder = []string{"brg", "bmy", "viridis", "plasma", "magma", "turbo"}

var hexColor = regexp.MustCompile(`^#?[0-9a-fA-F]{6}$`)

// ColorMapNames lists the named colour maps in display order.
func ColorMapNames() []string {
	out := make([]string, len(colorMapOrder))
	copy(out, colorMapOrder)
	return out
}

// ColorMap maps values in [0, 1] onto a piecewise linear colour ramp.
type ColorMap struct {
	Name  string
	stops []colorful.Color
}

// ColorSpecError is the user-facing message for a malformed colour spec.
func ColorSpecError() string {
	return "Color map must be one of " + strings.Join(colorMapOrder, ", ") +
		" or a comma-separated list of HTML colors (e.g. #ff0000,#0000ff)."
}

// ParseColorSpec accepts a colour map name or a comma-separated list of
// 6-digit hex colours, each with an optional leading '#'. Empty selects
// DefaultColorMap.
func ParseColorSpec(spec string) (*ColorMap, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		spec = DefaultColorMap
	}
	if hexes, ok := namedMaps[strings.ToLower(spec)]; ok {
		return newColorMap(strings.ToLower(spec), hexes)
	}

	parts := strings.Split(spec, ",")
	hexes := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if !hexColor.MatchString(p) {
			return nil, errors.Validation(ColorSpecError())
		}
		if p[0] != '#' {
			p = "#" + p
		}
		hexes = append(hexes, strings.ToLower(p))
	}
	return newColorMap(strings.Join(hexes, ","), hexes)
}

func newColorMap(name string, hexes []string) (*ColorMap, error) {
	stops := make([]colorful.Color, len(hexes))
	for i, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			return nil, errors.Validation(ColorSpecError()).WithCause(err)
		}
		stops[i] = c
	}
	return &ColorMap{Name: name, stops: stops}, nil
}

// Stops returns the ramp colours as hex strings.
func (c *ColorMap) Stops() []string {
	out := make([]string, len(c.stops))
	for i, s := range c.stops {
		out[i] = s.Hex()
	}
	return out
}

// At returns the colour at t, clamped to [0, 1].
func (c *ColorMap) At(t float64) colorful.Color {
	if len(c.stops) == 1 || math.IsNaN(t) {
		return c.stops[0]
	}
	t = math.Max(0, math.Min(1, t))
	pos := t * float64(len(c.stops)-1)
	i := int(pos)
	if i >= len(c.stops)-1 {
		return c.stops[len(c.stops)-1]
	}
	return c.stops[i].BlendRgb(c.stops[i+1], pos-float64(i)).Clamped()
}

// Hex returns At(t) as "#rrggbb".
func (c *ColorMap) Hex(t float64) string { return c.At(t).Hex() }
