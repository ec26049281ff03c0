// Package main is the entry point for the Geo Engine CLI.
// It provides access to a remote Geo Engine instance: session handling,
// workflow registration and queries, dataset uploads and task monitoring.
package main

import (
	"geoengine/cli/cmd"
)

// main is the entry point for the Geo Engine CLI.
// It initializes and executes the command-line interface.
func main() {
	cmd.Execute()
}
