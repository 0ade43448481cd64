// Command sitectl is the operator CLI for the lead-site API: schema
// migrations, back-office users and local calculator runs.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
