// Package main provides the taxa CLI.
package main

import "github.com/mesh-intelligence/taxa/internal/cli"

func main() {
	cli.Execute()
}
