package dataset

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadTSV(t *testing.T) {
	in := "\ufeffCompound_Id\tActivity\tSmiles\tNote\n" +
		"C1\t90\tc1ccccc1\tbenzene\r\n" +
		"C2\t45\tCCO\n" +
		"\n" +
		"C3\t12\tCCN\t\"quoted, with tab\tinside\"\n"

	tbl, err := ReadTSV(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, []string{"Compound_Id", "Activity", "Smiles", "Note"}, tbl.Columns())
	require.Equal(t, 3, tbl.Len())
	assert.Equal(t, "benzene", tbl.Value(0, "Note"))
	assert.Equal(t, "", tbl.Value(1, "Note"), "short rows are padded")
	assert.Equal(t, "quoted, with tab\tinside", tbl.Value(2, "Note"))
}

func TestReadTSV_Errors(t *testing.T) {
	_, err := ReadTSV(strings.NewReader(""))
	assert.Error(t, err)

	_, err = ReadTSV(strings.NewReader("a\tb\n1\t2\t3\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")

	_, err = ParseTSV([]byte("a\ta\n1\t2\n"))
	assert.Error(t, err)
}

func TestTSV_RoundTripKeepsColumnOrder(t *testing.T) {
	tbl, err := NewTable(
		[]string{"Smiles", "Zeta", "Alpha", "Compound_Id"},
		[][]string{
			{"CCO", "1", "x", "C1"},
			{"c1ccccc1", "2", "with\ttab", "C2"},
		},
	)
	require.NoError(t, err)

	data, err := EncodeTSV(tbl)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("Smiles\tZeta\tAlpha\tCompound_Id\n")))

	back, err := ParseTSV(data)
	require.NoError(t, err)
	assert.Equal(t, tbl.Columns(), back.Columns())
	assert.Equal(t, tbl.Rows(), back.Rows())
}
