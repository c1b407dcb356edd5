package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/turtacn/ClusterMST/pkg/errors"
)

const utf8BOM = "\ufeff"

// ReadTSV parses a tab-separated file with a header row. Short rows are
// padded with empty cells; rows with more cells than the header are an error.
func ReadTSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.InvalidParam("file is empty")
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidParam, "reading TSV header")
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
	}

	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidParam, "reading TSV row")
		}
		line, _ := cr.FieldPos(0)
		if len(rec) > len(header) {
			return nil, errors.InvalidParam(
				fmt.Sprintf("line %d has %d fields, header has %d", line, len(rec), len(header)))
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" && len(header) > 1 {
			continue
		}
		for len(rec) < len(header) {
			rec = append(rec, "")
		}
		rows = append(rows, rec)
	}
	return NewTable(header, rows)
}

// ParseTSV is ReadTSV over an in-memory upload.
func ParseTSV(data []byte) (*Table, error) {
	return ReadTSV(bytes.NewReader(data))
}

// WriteTSV writes t with a header row, tab separated, LF line endings.
func WriteTSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if err := cw.Write(t.columns); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "writing TSV header")
	}
	if err := cw.WriteAll(t.rows); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "writing TSV rows")
	}
	return nil
}

// EncodeTSV returns t as TSV bytes.
func EncodeTSV(t *Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteTSV(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
