// apireg CLI - console for a registry of API specifications
package main

import "github.com/getmockd/apireg/pkg/cli"

// Build-time variables set via ldflags
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	cli.Version = Version
	cli.Commit = Commit
	cli.BuildDate = BuildDate
	cli.Execute()
}
