// Package main provides the entry point for the ecotrace CLI.
package main

import (
	"github.com/ecotrace/ecotrace-go/internal/cli"
)

func main() {
	cli.Execute()
}
