// Package main is the entry point for the openacr-mcp server and CLI.
package main

import (
	"github.com/aaslyan/openacr-mcp/internal/cmd"
)

func main() {
	cmd.Execute()
}
