// Package main provides the kura CLI tool.
//
// Usage:
//
//	kura [--root dir] [--format json5] <command> [arguments]
//
// Commands:
//
//	path      Print the file path of a service
//	ls        List the services stored under the root
//	check     Parse service files and report syntax errors
//	fmt       Rewrite json5/jsonc service files in canonical layout
//	gen       Code generation commands
//	version   Show version information
package main

import (
	"os"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
