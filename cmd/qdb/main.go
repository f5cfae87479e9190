// Package main provides the qdb CLI.
package main

import (
	"os"

	"github.com/mesh-intelligence/qdb/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
