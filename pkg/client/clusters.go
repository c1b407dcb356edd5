package client

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Settings are the sidebar inputs of a calculation.
type Settings struct {
	IDCol       string  `json:"id_col"`
	ActCol      string  `json:"act_col"`
	Reverse     bool    `json:"reverse"`
	TopNAct     int     `json:"top_n_act"`
	NumSim      int     `json:"num_sim"`
	SimCutoff   float64 `json:"sim_cutoff"`
	Fingerprint string  `json:"fingerprint"`
	Similarity  string  `json:"similarity,omitempty"`
	ColorMap    string  `json:"color_map"`
	Layout      string  `json:"layout,omitempty"`
}

// RunRequest is one upload. Zero settings keep the server defaults.
type RunRequest struct {
	FileName string
	Data     []byte
	Settings Settings
}

// Edge is one MST edge in layout coordinates.
type Edge struct {
	From   int     `json:"from"`
	To     int     `json:"to"`
	Weight float64 `json:"weight"`
	X1     float64 `json:"x1"`
	Y1     float64 `json:"y1"`
	X2     float64 `json:"x2"`
	Y2     float64 `json:"y2"`
}

// ArchivedExport is a stored copy of a download.
type ArchivedExport struct {
	Kind string `json:"kind"`
	Key  string `json:"key"`
	Size int64  `json:"size"`
	URL  string `json:"url"`
}

// Result is a finished calculation.
type Result struct {
	ID          string           `json:"id"`
	CreatedAt   time.Time        `json:"created_at"`
	FileName    string           `json:"file_name"`
	Form        Settings         `json:"form"`
	Notice      string           `json:"notice,omitempty"`
	Columns     []string         `json:"columns"`
	Rows        [][]string       `json:"rows"`
	Active      []bool           `json:"active"`
	Edges       []Edge           `json:"edges"`
	Compounds   int              `json:"compounds"`
	Actives     int              `json:"actives"`
	Skipped     int              `json:"skipped"`
	TotalWeight float64          `json:"total_weight"`
	Downloads   []string         `json:"downloads"`
	Archived    []ArchivedExport `json:"archived,omitempty"`
}

// Methods lists the choices the server supports and its default settings.
type Methods struct {
	Fingerprints []string `json:"fingerprints"`
	Similarities []string `json:"similarities"`
	ColorMaps    []string `json:"color_maps"`
	Layouts      []string `json:"layouts"`
	Exports      []string `json:"exports"`
	Defaults     Settings `json:"defaults"`
}

// SelectionRow is one row of a selection table. Image is an <img> tag with
// the structure as a PNG data URI.
type SelectionRow struct {
	Index    int    `json:"index"`
	Image    string `json:"image"`
	ID       string `json:"id"`
	Activity string `json:"activity"`
}

// Selection is the table of selected result rows.
type Selection struct {
	ResultID string         `json:"result_id"`
	Columns  []string       `json:"columns"`
	Indices  []int          `json:"indices"`
	Rows     []SelectionRow `json:"rows"`
	Download string         `json:"download"`
}

// Run uploads a file and returns the calculated result. A rejected file or
// setting is an *APIError for which IsRejected is true.
func (c *Client) Run(ctx context.Context, in RunRequest) (*Result, error) {
	payload, contentType, err := encodeUpload(in)
	if err != nil {
		return nil, fmt.Errorf("failed to encode upload: %w", err)
	}

	var res Result
	err = c.doJSON(ctx, request{
		method:      http.MethodPost,
		path:        "/api/v1/clusters",
		contentType: contentType,
		body:        func() ([]byte, error) { return payload, nil },
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// encodeUpload builds the multipart form of the dashboard sidebar.
func encodeUpload(in RunRequest) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range settingsFields(in.Settings) {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	name := in.FileName
	if name == "" {
		name = "upload.tsv"
	}
	fw, err := w.CreateFormFile("file", name)
	if err != nil {
		return nil, "", err
	}
	if _, err := fw.Write(in.Data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// settingsFields returns the non-zero settings as form fields.
func settingsFields(s Settings) map[string]string {
	f := map[string]string{}
	set := func(k, v string) {
		if v != "" {
			f[k] = v
		}
	}
	set("id_col", s.IDCol)
	set("act_col", s.ActCol)
	if s.Reverse {
		f["reverse"] = "true"
	}
	if s.TopNAct != 0 {
		f["top_n_act"] = strconv.Itoa(s.TopNAct)
	}
	if s.NumSim != 0 {
		f["num_sim"] = strconv.Itoa(s.NumSim)
	}
	if s.SimCutoff != 0 {
		f["sim_cutoff"] = strconv.FormatFloat(s.SimCutoff, 'f', -1, 64)
	}
	set("fingerprint", s.Fingerprint)
	set("similarity", s.Similarity)
	set("color_map", s.ColorMap)
	set("layout", s.Layout)
	return f
}

// Get returns a stored result.
func (c *Client) Get(ctx context.Context, id string) (*Result, error) {
	var res Result
	if err := c.doJSON(ctx, request{method: http.MethodGet, path: "/api/v1/clusters/" + url.PathEscape(id)}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Methods returns the supported fingerprints, colour maps, layouts and
// exports.
func (c *Client) Methods(ctx context.Context) (*Methods, error) {
	var m Methods
	if err := c.doJSON(ctx, request{method: http.MethodGet, path: "/api/v1/methods"}, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Select returns the table of the given result rows.
func (c *Client) Select(ctx context.Context, id string, indices []int) (*Selection, error) {
	if indices == nil {
		indices = []int{}
	}
	var sel Selection
	err := c.doJSON(ctx, request{
		method:      http.MethodPost,
		path:        "/results/" + url.PathEscape(id) + "/selection",
		contentType: "application/json",
		body:        jsonBody(map[string][]int{"indices": indices}),
	}, &sel)
	if err != nil {
		return nil, err
	}
	return &sel, nil
}

// Download returns one TSV export. indices is only used by the selection
// export.
func (c *Client) Download(ctx context.Context, id, kind string, indices []int) ([]byte, error) {
	path := "/results/" + url.PathEscape(id) + "/download/" + url.PathEscape(kind)
	if len(indices) > 0 {
		parts := make([]string, len(indices))
		for i, n := range indices {
			parts[i] = strconv.Itoa(n)
		}
		path += "?index=" + strings.Join(parts, ",")
	}
	return c.do(ctx, request{method: http.MethodGet, path: path})
}
