// Command dumpsplit splits mysqldump output into per-database and per-table
// SQL files.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/dumpsplit/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
