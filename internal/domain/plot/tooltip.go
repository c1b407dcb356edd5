package plot

import (
	"bytes"
	"html/template"
)

// TooltipField is one "name: value" line of a tooltip.
type TooltipField struct {
	Name  string
	Value string
}

var tooltipTemplate = template.Must(template.New("tooltip").Parse(`<div class="mst-tooltip">
<div>{{.Image}}</div>
<div><span style="font-size: 12px; font-weight: bold;">{{.ID}}</span></div>
{{- range .Fields}}
<div><span style="font-size: 12px;">{{.Name}}: {{.Value}}</span></div>
{{- end}}
</div>`))

// Tooltip renders the hover content of a point: the structure image, the
// identifier in bold, then one line per field. The image is trusted markup;
// identifier and fields are escaped.
func Tooltip(image template.HTML, id string, fields ...TooltipField) template.HTML {
	var buf bytes.Buffer
	err := tooltipTemplate.Execute(&buf, struct {
		Image  template.HTML
		ID     string
		Fields []TooltipField
	}{image, id, fields})
	if err != nil {
		return template.HTML(template.HTMLEscapeString(id))
	}
	return template.HTML(buf.String())
}
