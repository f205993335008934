package main

import (
	// Must be first: see internal/preinit.
	_ "github.com/xrview/xrv/internal/preinit"

	"fmt"
	"os"

	"github.com/xrview/xrv/internal/cmd"
)

// Version is set via ldflags at build time
var version = "dev"

func main() {
	os.Unsetenv("CI") // set by preinit, must not leak into helper processes
	cmd.SetVersion(version)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
