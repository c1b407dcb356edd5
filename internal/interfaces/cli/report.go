package cli

import (
	"html/template"
	"io"

	"github.com/turtacn/ClusterMST/internal/application/dashboard"
	"github.com/turtacn/ClusterMST/internal/interfaces/http/web"
)

// reportData is the data of the standalone HTML report.
type reportData struct {
	Title  string
	View   *dashboard.View
	CSS    template.CSS
	Script template.JS
}

// writeReport writes view as a single HTML file with the chart, hover
// tooltips and inlined assets.
func writeReport(w io.Writer, view *dashboard.View) error {
	tmpl, err := web.Templates()
	if err != nil {
		return err
	}
	css, err := web.Asset("app.css")
	if err != nil {
		return err
	}
	js, err := web.Asset("tooltip.js")
	if err != nil {
		return err
	}
	return tmpl.ExecuteTemplate(w, web.ReportTemplate, reportData{
		Title:  dashboard.Title,
		View:   view,
		CSS:    template.CSS(css),
		Script: template.JS(js),
	})
}
