// Command clustermst runs the Cluster MST dashboard and batch tools.
package main

import (
	"os"

	"github.com/turtacn/ClusterMST/internal/interfaces/cli"
)

// Set via -ldflags "-X main.version=...".
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	cli.Version = version
	cli.GitCommit = commit
	cli.BuildDate = buildDate

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
