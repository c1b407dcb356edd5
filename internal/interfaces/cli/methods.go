package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/ClusterMST/internal/application/dashboard"
)

// MethodsOutput lists the supported choices.
type MethodsOutput struct {
	dashboard.Choices
}

func (m MethodsOutput) String() string {
	return "Fingerprint methods: " + strings.Join(m.Fingerprints, ", ") +
		"\nSimilarity metrics: " + strings.Join(m.Similarities, ", ") +
		"\nColor maps: " + strings.Join(m.ColorMaps, ", ") +
		"\nLayouts: " + strings.Join(m.Layouts, ", ") +
		"\nExports: " + strings.Join(m.Exports, ", ")
}

// TableHeaders implements table output.
func (m MethodsOutput) TableHeaders() []string { return []string{"KIND", "NAME"} }

// TableRows implements table output.
func (m MethodsOutput) TableRows() [][]string {
	var rows [][]string
	add := func(kind string, names []string) {
		for _, n := range names {
			rows = append(rows, []string{kind, n})
		}
	}
	add("fingerprint", m.Fingerprints)
	add("similarity", m.Similarities)
	add("color_map", m.ColorMaps)
	add("layout", m.Layouts)
	add("export", m.Exports)
	return rows
}

// NewMethodsCmd creates the methods command.
func NewMethodsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "methods",
		Short: "List fingerprint methods, similarity metrics, color maps, layouts and exports",
		RunE: func(cmd *cobra.Command, args []string) error {
			return PrintResult(cmd, MethodsOutput{Choices: dashboard.AvailableChoices()})
		},
	}
}
