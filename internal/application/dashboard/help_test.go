package dashboard

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ClusterMST/internal/domain/cluster"
	"github.com/turtacn/ClusterMST/internal/domain/dataset"
	"github.com/turtacn/ClusterMST/pkg/errors"
)

func TestMessageMarkdown_UploadPrompt(t *testing.T) {
	got := MessageMarkdown(errors.Validation(UploadPrompt))
	assert.Equal(t, HelpText+"\n\nPlease upload a file.", got)
}

func TestMessageMarkdown_MissingColumn(t *testing.T) {
	table, err := dataset.ParseTSV([]byte("a\tb\n1\t2\n"))
	require.NoError(t, err)
	p := cluster.DefaultParams()
	p.ActCol = "b"
	_, verr := p.Validate(table)
	require.Error(t, verr)

	got := MessageMarkdown(verr)
	assert.True(t, strings.HasPrefix(got, HelpText))
	assert.True(t, strings.HasSuffix(got,
		"\n\nERROR: Identifier column Compound_Id not found in the file.\n\nAvailable columns: \na, b"))
}

func TestMessageMarkdown_PlainError(t *testing.T) {
	got := MessageMarkdown(errors.Validation("Top N active must be at least 1."))
	assert.Equal(t, HelpText+"\n\nERROR: Top N active must be at least 1.", got)
}

func TestRenderMarkdown(t *testing.T) {
	html, err := RenderMarkdown(HelpText)
	require.NoError(t, err)
	assert.Contains(t, string(html), "<h1>Cluster MST</h1>")
	assert.Contains(t, string(html), "&lt;tab&gt;")

	html, err = RenderMarkdown("ERROR: Identifier column <script>x</script> not found")
	require.NoError(t, err)
	assert.NotContains(t, string(html), "<script>")
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "Top N active must be at least 1.", UserMessage(errors.Validation("Top N active must be at least 1.")))
	assert.Equal(t, "bad: detail", UserMessage(errors.InvalidParam("bad").WithDetail("detail")))
	assert.Equal(t, "plain", UserMessage(stderrors.New("plain")))
}
