// Command shank extracts instruction IDLs from annotated program sources.
package main

import (
	"os"

	"github.com/fuzzyyeti/shank/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		cli.PrintUnreported(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
