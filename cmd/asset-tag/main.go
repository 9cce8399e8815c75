// Command asset-tag runs a simulated asset tag and inspects what it
// recorded.
//
// Usage:
//
//	asset-tag run [--config tag.yaml] [--interactive] [--no-radio]
//	asset-tag events view|stats|export [--file events.tlog]
//	asset-tag dump
//	asset-tag scan [--timeout 10s]
//
// A run that cannot power off exits with status 1, which stands in for
// the device reset.
package main

import (
	"fmt"
	"os"

	"github.com/asset-tag/tag-go/cmd/asset-tag/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
