package plot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ClusterMST/pkg/errors"
)

func TestParseColorSpec_Names(t *testing.T) {
	for _, name := range ColorMapNames() {
		cm, err := ParseColorSpec(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, cm.Name)
		assert.GreaterOrEqual(t, len(cm.Stops()), 3)
	}
	cm, err := ParseColorSpec("Viridis")
	require.NoError(t, err)
	assert.Equal(t, "viridis", cm.Name)

	cm, err = ParseColorSpec("")
	require.NoError(t, err)
	assert.Equal(t, DefaultColorMap, cm.Name)
	assert.Equal(t, []string{"brg", "bmy", "viridis", "plasma", "magma", "turbo"}, ColorMapNames())
}

func TestParseColorSpec_HexLists(t *testing.T) {
	valid := map[string][]string{
		"#ff0000,#0000ff":            {"#ff0000", "#0000ff"},
		"ff0000,0000FF":              {"#ff0000", "#0000ff"},
		"#00ff00":                    {"#00ff00"},
		" #ff0000 , 00ff00 ,#0000ff": {"#ff0000", "#00ff00", "#0000ff"},
	}
	for spec, stops := range valid {
		cm, err := ParseColorSpec(spec)
		require.NoError(t, err, spec)
		assert.Equal(t, stops, cm.Stops(), spec)
	}
}

func TestParseColorSpec_Invalid(t *testing.T) {
	for _, spec := range []string{"rainbow", "#fff", "#ff00000", "#gg0000", "#ff0000,", "ff0000;00ff00", "##ff0000", ","} {
		_, err := ParseColorSpec(spec)
		require.Error(t, err, spec)
		assert.True(t, errors.IsValidation(err), spec)

		var appErr *errors.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, "Color map must be one of brg, bmy, viridis, plasma, magma, turbo or a comma-separated list of HTML colors (e.g. #ff0000,#0000ff).", appErr.Message)
	}
}

func TestColorMap_At(t *testing.T) {
	cm, err := ParseColorSpec("brg")
	require.NoError(t, err)

	assert.Equal(t, "#0000ff", cm.Hex(0))
	assert.Equal(t, "#ff0000", cm.Hex(0.5))
	assert.Equal(t, "#00ff00", cm.Hex(1))
	assert.Equal(t, "#0000ff", cm.Hex(-3), "clamped")
	assert.Equal(t, "#00ff00", cm.Hex(7), "clamped")
	assert.Equal(t, "#800080", cm.Hex(0.25))

	single, err := ParseColorSpec("123456")
	require.NoError(t, err)
	assert.Equal(t, "#123456", single.Hex(0.7))
}
