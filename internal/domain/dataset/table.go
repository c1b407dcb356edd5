// Package dataset holds the tabular model of an uploaded compound file: an
// ordered header and string cells, read from and written to TSV.
package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/turtacn/ClusterMST/pkg/errors"
)

// SmilesColumn is the fixed name of the structure column.
const SmilesColumn = "Smiles"

// Table is an immutable, column-ordered table of string cells. Row slices
// returned by accessors must not be modified.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]string
}

// NewTable builds a Table. Every row must have exactly len(columns) cells and
// column names must be unique.
func NewTable(columns []string, rows [][]string) (*Table, error) {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, dup := index[c]; dup {
			return nil, errors.InvalidParam(fmt.Sprintf("duplicate column %q", c))
		}
		index[c] = i
	}
	for i, r := range rows {
		if len(r) != len(columns) {
			return nil, errors.InvalidParam(
				fmt.Sprintf("row %d has %d cells, expected %d", i+1, len(r), len(columns)))
		}
	}
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{columns: cols, index: index, rows: rows}, nil
}

// Columns returns a copy of the header.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.rows) }

// HasColumn reports whether name is in the header.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// ColumnIndex returns the position of name in the header.
func (t *Table) ColumnIndex(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// Row returns row i.
func (t *Table) Row(i int) []string { return t.rows[i] }

// Rows returns all rows.
func (t *Table) Rows() [][]string { return t.rows }

// Value returns the cell of row i in column col, or "" when col is unknown.
func (t *Table) Value(i int, col string) string {
	j, ok := t.index[col]
	if !ok {
		return ""
	}
	return t.rows[i][j]
}

// Column returns a copy of all cells of column name.
func (t *Table) Column(name string) ([]string, bool) {
	j, ok := t.index[name]
	if !ok {
		return nil, false
	}
	out := make([]string, len(t.rows))
	for i, r := range t.rows {
		out[i] = r[j]
	}
	return out, true
}

// AvailableColumns renders the header the way validation messages list it.
func (t *Table) AvailableColumns() string {
	return strings.Join(t.columns, ", ")
}

// Select returns a table holding rows idx of t, in the given order.
func (t *Table) Select(idx []int) (*Table, error) {
	rows := make([][]string, len(idx))
	for k, i := range idx {
		if i < 0 || i >= len(t.rows) {
			return nil, errors.InvalidParam(fmt.Sprintf("row index %d out of range [0, %d)", i, len(t.rows)))
		}
		rows[k] = t.rows[i]
	}
	return &Table{columns: t.columns, index: t.index, rows: rows}, nil
}

// Project returns a table with only the named columns, in the given order.
func (t *Table) Project(names []string) (*Table, error) {
	pos := make([]int, len(names))
	for k, n := range names {
		j, ok := t.index[n]
		if !ok {
			return nil, errors.InvalidParam(fmt.Sprintf("column %q not found", n))
		}
		pos[k] = j
	}
	rows := make([][]string, len(t.rows))
	for i, r := range t.rows {
		out := make([]string, len(pos))
		for k, j := range pos {
			out[k] = r[j]
		}
		rows[i] = out
	}
	return NewTable(names, rows)
}

// AppendColumns returns a new table with extra columns added after the
// existing ones. values[k] holds the cells of names[k].
func (t *Table) AppendColumns(names []string, values [][]string) (*Table, error) {
	if len(names) != len(values) {
		return nil, errors.InvalidParam("column names and values differ in length")
	}
	for k, v := range values {
		if len(v) != len(t.rows) {
			return nil, errors.InvalidParam(
				fmt.Sprintf("column %q has %d cells, expected %d", names[k], len(v), len(t.rows)))
		}
	}
	cols := append(t.Columns(), names...)
	rows := make([][]string, len(t.rows))
	for i, r := range t.rows {
		out := make([]string, 0, len(cols))
		out = append(out, r...)
		for _, v := range values {
			out = append(out, v[i])
		}
		rows[i] = out
	}
	return NewTable(cols, rows)
}

// ParseFloat parses a numeric cell. Empty cells and the usual missing-value
// markers yield ok=false, as does anything that is not a finite number.
func ParseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "na", "n/a", "nan", "null", "none", "-":
		return math.NaN(), false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return math.NaN(), false
	}
	return v, true
}

// FormatFloat renders layout coordinates and similarities in exports.
func FormatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 6, 64)
}
