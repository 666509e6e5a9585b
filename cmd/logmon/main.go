// Command logmon ingests and reports log error summaries.
package main

import (
	"os"

	"github.com/roach88/logmon/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
