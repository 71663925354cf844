// Command framekb validates, queries and edits frame knowledge bases.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/framekb/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
