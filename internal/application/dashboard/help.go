package dashboard

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/turtacn/ClusterMST/internal/domain/cluster"
	"github.com/turtacn/ClusterMST/pkg/errors"
)

// Page texts.
const (
	Title         = "Cluster MST"
	Site          = "Datavis"
	SidebarTitle  = "### Upload file with structures and activity data."
	UploadPrompt  = "Please upload a file."
	SelectionHint = "Select points in the chart using the lasso select tool."
)

// HelpText is the markdown shown above every message in the main panel.
const HelpText = `# Cluster MST

This app takes a file containing structures as Smiles and activity data, and generates a clustering of the structures, represented as Minimum Spanning Tree (MST).
The input file has to be a &lt;tab&gt;-separated TSV file and contain at least three columns: &lt;Identifier&gt; (default: Compound_Id), &lt;Activity&gt; (check the "Reverse" box if lower values are better, e.g. for "Activity"), and "Smiles" for the structures.
The tool takes the top N active compounds ("Top N active", default: 50) and adds the most similar compounds for each of these ("Number of similar compounds", default: 10), downto a minimum similarity cutoff ("Similarity cutoff", default: 0.6) using the chosen fingerprint method, then generates the MST.

Generally, only linear-scaled values should be used for Activity, e.g. percentages. IC50 values should be converted to pIC50.
The points in the plot can be selected using the lasso tool, and the selected compounds are shown in the table below the plot.`

// Raw HTML in the source is dropped, so column names from an upload cannot
// inject markup.
var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

// RenderMarkdown converts src to HTML.
func RenderMarkdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInternal, "rendering markdown")
	}
	return template.HTML(buf.String()), nil
}

// MessageMarkdown builds the main panel text for a failed run: the help text
// followed by the error, and the uploaded columns when a column was missing.
func MessageMarkdown(err error) string {
	var sb strings.Builder
	sb.WriteString(HelpText)
	sb.WriteString("\n\n")

	msg := UserMessage(err)
	if msg == UploadPrompt {
		sb.WriteString(msg)
		return sb.String()
	}
	sb.WriteString("ERROR: ")
	sb.WriteString(msg)
	if cols := cluster.AvailableColumns(err); cols != "" {
		sb.WriteString("\n\nAvailable columns: \n")
		sb.WriteString(cols)
	}
	return sb.String()
}

// UserMessage is the part of err meant for the person filling in the form.
func UserMessage(err error) string {
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		if appErr.Code == errors.ErrCodeValidation || appErr.Detail == "" {
			return appErr.Message
		}
		return appErr.Message + ": " + appErr.Detail
	}
	return err.Error()
}
