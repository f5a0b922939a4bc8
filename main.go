// Package main is the entry point for the ccmock CLI.
package main

import "ccmock.dev/pkg/ccmock/cmd"

func main() {
	cmd.Execute()
}
