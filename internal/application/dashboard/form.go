package dashboard

import (
	"github.com/turtacn/ClusterMST/internal/config"
	"github.com/turtacn/ClusterMST/internal/domain/cluster"
	"github.com/turtacn/ClusterMST/internal/domain/molecule"
	"github.com/turtacn/ClusterMST/internal/domain/plot"
	"github.com/turtacn/ClusterMST/internal/domain/result"
)

// Form holds the sidebar inputs.
type Form struct {
	IDCol       string  `form:"id_col" json:"id_col"`
	ActCol      string  `form:"act_col" json:"act_col"`
	Reverse     bool    `form:"reverse" json:"reverse"`
	TopNAct     int     `form:"top_n_act" json:"top_n_act"`
	NumSim      int     `form:"num_sim" json:"num_sim"`
	SimCutoff   float64 `form:"sim_cutoff" json:"sim_cutoff"`
	Fingerprint string  `form:"fingerprint" json:"fingerprint"`
	Similarity  string  `form:"similarity" json:"similarity,omitempty"`
	ColorMap    string  `form:"color_map" json:"color_map"`
	Layout      string  `form:"layout" json:"layout,omitempty"`
}

// DefaultForm returns the initial sidebar values from configuration.
func DefaultForm(cfg config.ClusterConfig) Form {
	return Form{
		IDCol:       cfg.IDCol,
		ActCol:      cfg.ActCol,
		Reverse:     cfg.Reverse,
		TopNAct:     cfg.TopNAct,
		NumSim:      cfg.NumSim,
		SimCutoff:   cfg.SimCutoff,
		Fingerprint: cfg.Fingerprint,
		Similarity:  cfg.Similarity,
		ColorMap:    cfg.ColorMap,
		Layout:      cfg.Layout,
	}
}

func (f Form) params(workers int) cluster.Params {
	return cluster.Params{
		IDCol:      f.IDCol,
		ActCol:     f.ActCol,
		TopNAct:    f.TopNAct,
		NumSim:     f.NumSim,
		Reverse:    f.Reverse,
		SimCutoff:  f.SimCutoff,
		Method:     molecule.FingerprintMethod(f.Fingerprint),
		Similarity: molecule.SimilarityMetric(f.Similarity),
		Layout:     cluster.LayoutMethod(f.Layout),
		Workers:    workers,
	}
}

func (f Form) settings() result.Settings {
	return result.Settings{
		IDCol:       f.IDCol,
		ActCol:      f.ActCol,
		TopNAct:     f.TopNAct,
		NumSim:      f.NumSim,
		Reverse:     f.Reverse,
		SimCutoff:   f.SimCutoff,
		Fingerprint: f.Fingerprint,
		Similarity:  f.Similarity,
		ColorMap:    f.ColorMap,
		Layout:      f.Layout,
		TooltipCols: []string{f.ActCol},
	}
}

func formFromSettings(s result.Settings) Form {
	return Form{
		IDCol:       s.IDCol,
		ActCol:      s.ActCol,
		Reverse:     s.Reverse,
		TopNAct:     s.TopNAct,
		NumSim:      s.NumSim,
		SimCutoff:   s.SimCutoff,
		Fingerprint: s.Fingerprint,
		Similarity:  s.Similarity,
		ColorMap:    s.ColorMap,
		Layout:      s.Layout,
	}
}

// Choices lists the values offered by the sidebar selects.
type Choices struct {
	Fingerprints []string `json:"fingerprints"`
	Similarities []string `json:"similarities"`
	ColorMaps    []string `json:"color_maps"`
	Layouts      []string `json:"layouts"`
	Exports      []string `json:"exports"`
}

// AvailableChoices returns the supported fingerprints, similarity metrics,
// colour maps, layouts and export kinds.
func AvailableChoices() Choices {
	exports := make([]string, 0, len(result.ExportKinds()))
	for _, k := range result.ExportKinds() {
		exports = append(exports, string(k))
	}
	return Choices{
		Fingerprints: cluster.Methods(),
		Similarities: molecule.SimilarityMetrics(),
		ColorMaps:    plot.ColorMapNames(),
		Layouts:      []string{string(cluster.LayoutMDS), string(cluster.LayoutEades)},
		Exports:      exports,
	}
}
