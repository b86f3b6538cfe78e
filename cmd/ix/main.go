// Command ix is the hub CLI: it resolves repositories into the cache,
// loads component modules, clears cache entries, and renders job
// definitions into Argo Workflow manifests.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
