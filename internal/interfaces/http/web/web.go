// Package web embeds the dashboard page template and its static assets.
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Template names.
const (
	PageTemplate   = "page.html"
	ReportTemplate = "report.html"
)

// Templates parses the embedded page templates.
func Templates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}

// Static serves the embedded assets, rooted so that "/app.js" maps to
// static/app.js.
func Static() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

// Asset returns the content of an embedded static file, such as "app.css".
func Asset(name string) ([]byte, error) {
	return staticFS.ReadFile("static/" + name)
}
