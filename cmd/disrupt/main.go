// Command disrupt is the batch CLI: it runs the scoring pipeline locally
// against roster files and filesystem artifacts.
package main

import (
	"fmt"
	"os"

	"github.com/turtacn/DisruptMetrics/internal/interfaces/cli"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func init() {
	cli.Version = version
	cli.GitCommit = commit
	cli.BuildDate = buildDate
}

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
