// Command watsonia compiles CUE entity mappings and translates, renders and
// runs YAML query models against SQLite.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/andrewjk/Watsonia.Data-sub000/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			// Flag and argument errors bypass the output formatter.
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
