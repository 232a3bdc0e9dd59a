// Command qlcache executes statements against an in-memory relational
// cache, validates scripts and definitions, runs scenario files and
// mirrors the cache into SQLite.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/qlcache/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
