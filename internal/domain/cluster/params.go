package cluster

import (
	"fmt"
	"strings"

	"github.com/turtacn/ClusterMST/internal/domain/dataset"
	"github.com/turtacn/ClusterMST/internal/domain/molecule"
	"github.com/turtacn/ClusterMST/pkg/errors"
)

// Parameter defaults and limits.
const (
	DefaultIDCol     = "Compound_Id"
	DefaultTopNAct   = 50
	DefaultNumSim    = 10
	DefaultSimCutoff = 0.6

	MinSimCutoff = 0.2
	MaxSimCutoff = 0.9
)

// LayoutMethod selects how MST nodes are placed in the plane.
type LayoutMethod string

const (
	// LayoutMDS embeds the tree distances with classical multidimensional
	// scaling. It is deterministic.
	LayoutMDS LayoutMethod = "mds"
	// LayoutEades runs the Eades spring embedder from a seeded random start.
	LayoutEades LayoutMethod = "eades"
)

// ParseLayoutMethod resolves a layout name; empty selects LayoutMDS.
func ParseLayoutMethod(s string) (LayoutMethod, error) {
	switch LayoutMethod(strings.ToLower(strings.TrimSpace(s))) {
	case "", LayoutMDS:
		return LayoutMDS, nil
	case LayoutEades:
		return LayoutEades, nil
	default:
		return "", errors.Newf(errors.CodeInvalidParam, "unknown layout %q", s)
	}
}

// Params configures one ClusterMST run.
type Params struct {
	IDCol      string
	ActCol     string
	TopNAct    int
	NumSim     int
	Reverse    bool // lower activity values are better
	SimCutoff  float64
	Method     molecule.FingerprintMethod
	Similarity molecule.SimilarityMetric
	Layout     LayoutMethod
	Workers    int // fingerprint and similarity workers; < 1 uses GOMAXPROCS
}

// DefaultParams returns the dashboard defaults. ActCol has no default.
func DefaultParams() Params {
	return Params{
		IDCol:      DefaultIDCol,
		TopNAct:    DefaultTopNAct,
		NumSim:     DefaultNumSim,
		SimCutoff:  DefaultSimCutoff,
		Method:     molecule.ECFC4,
		Similarity: molecule.MetricTanimoto,
		Layout:     LayoutMDS,
	}
}

// Validate checks p against table and returns the parameters that will be
// used. TopNAct larger than the table is clamped to its row count; callers
// compare the returned value to report the clamp back to the user.
//
// Checks run in a fixed order and the first failure is returned as a
// validation error. A missing column error carries the available columns as
// its detail.
func (p Params) Validate(table *dataset.Table) (Params, error) {
	p, err := p.ValidateTable(table)
	if err != nil {
		return p, err
	}
	return p.ValidateMethods()
}

// ValidateTable runs the checks that depend on the uploaded table and the
// numeric inputs, in form order.
func (p Params) ValidateTable(table *dataset.Table) (Params, error) {
	if table == nil {
		return p, errors.Validation("Please upload a file.")
	}
	if !table.HasColumn(p.IDCol) {
		return p, missingColumn(fmt.Sprintf("Identifier column %s not found in the file.", p.IDCol), table)
	}
	if !table.HasColumn(p.ActCol) {
		return p, missingColumn(fmt.Sprintf("Activity column %s not found in the file.", p.ActCol), table)
	}
	if !table.HasColumn(dataset.SmilesColumn) {
		return p, missingColumn("Smiles column not found in the file.", table)
	}
	if p.TopNAct < 1 {
		return p, errors.Validation("Top N active must be at least 1.")
	}
	if p.TopNAct > table.Len() {
		p.TopNAct = table.Len()
	}
	if p.NumSim < 0 {
		return p, errors.Validation("Number of similar compounds must be at least 0.")
	}
	if !(p.SimCutoff >= MinSimCutoff && p.SimCutoff <= MaxSimCutoff) {
		return p, errors.Validation(
			fmt.Sprintf("Similarity cutoff must be between %g and %g.", MinSimCutoff, MaxSimCutoff))
	}
	return p, nil
}

// ValidateMethods checks the fingerprint, similarity and layout names and
// returns them in canonical form.
func (p Params) ValidateMethods() (Params, error) {
	m, err := molecule.ParseFingerprintMethod(string(p.Method))
	if err != nil {
		return p, errors.Validation(fmt.Sprintf("Unknown fingerprint method %s.", p.Method))
	}
	p.Method = m
	sm, err := molecule.ParseSimilarityMetric(string(p.Similarity))
	if err != nil {
		return p, errors.Validation(fmt.Sprintf("Unknown similarity metric %s.", p.Similarity))
	}
	p.Similarity = sm
	l, err := ParseLayoutMethod(string(p.Layout))
	if err != nil {
		return p, errors.Validation(fmt.Sprintf("Unknown layout %s.", p.Layout))
	}
	p.Layout = l
	return p, nil
}

func missingColumn(msg string, table *dataset.Table) error {
	return errors.Validation(msg).WithDetail(table.AvailableColumns())
}

// AvailableColumns extracts the column list attached to a missing column
// error, or "" for any other error.
func AvailableColumns(err error) string {
	var appErr *errors.AppError
	if errors.As(err, &appErr) && appErr.Code == errors.ErrCodeValidation {
		return appErr.Detail
	}
	return ""
}

// Methods lists the supported fingerprint methods, sorted.
func Methods() []string { return molecule.FingerprintMethods() }
