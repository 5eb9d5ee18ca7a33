// Package main is the entrypoint for the briefdash CLI.
package main

import (
	"os"

	"github.com/briefdash-labs/briefdash/internal/cli"
)

func main() {
	os.Exit(cli.New().Execute())
}
