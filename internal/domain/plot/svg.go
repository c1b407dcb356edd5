package plot

import (
	"bytes"
	"html/template"
	"strconv"

	"github.com/turtacn/ClusterMST/pkg/errors"
)

var svgTemplate = template.Must(template.New("chart").Funcs(template.FuncMap{
	"px": formatCoord,
}).Parse(`<svg xmlns="http://www.w3.org/2000/svg" class="mst-chart" width="{{.Width}}" height="{{.Height}}" viewBox="0 0 {{.Width}} {{.Height}}">
<defs><linearGradient id="mst-colorbar" x1="0" y1="0" x2="0" y2="1">{{range .ColorBar.Stops}}<stop offset="{{.Offset}}" stop-color="{{.Color}}"/>{{end}}</linearGradient></defs>
<rect class="mst-background" x="0" y="0" width="{{.Width}}" height="{{.Height}}" fill="#ffffff"/>
<g class="mst-edges" stroke="#000000" stroke-width="1">{{range .Edges}}
<line x1="{{px .X1}}" y1="{{px .Y1}}" x2="{{px .X2}}" y2="{{px .Y2}}"/>{{end}}
</g>
<g class="mst-points" stroke="#333333" stroke-width="0.5">{{$r := px .Radius}}{{range .Points}}
<circle data-index="{{.Index}}" cx="{{px .CX}}" cy="{{px .CY}}" r="{{$r}}" fill="{{.Color}}"><title>{{.Label}}</title></circle>{{end}}
</g>
<g class="mst-colorbar" font-family="sans-serif" font-size="12">{{with .ColorBar}}
<rect x="{{px .X}}" y="{{px .Y}}" width="{{px .W}}" height="{{px .H}}" fill="url(#mst-colorbar)" stroke="#666666"/>{{$tx := px .TickX}}{{range .Ticks}}
<text x="{{$tx}}" y="{{px .Y}}" dominant-baseline="middle">{{.Label}}</text>{{end}}
<text x="{{px .X}}" y="{{px .CaptionY}}">{{.Caption}}</text>{{end}}
</g>
</svg>`))

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// SVG renders the chart as an inline SVG element. Labels are escaped.
func (c *Chart) SVG() (template.HTML, error) {
	var buf bytes.Buffer
	if err := svgTemplate.Execute(&buf, c); err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, "rendering chart")
	}
	return template.HTML(buf.String()), nil
}
