//go:build !unix && !windows

package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Fprintln(
		os.Stderr,
		"killport is only supported on Linux, macOS, the BSDs and Windows.\n\nIf you are seeing this message, you are attempting to build or run killport on a platform without signals or taskkill.",
	)
	os.Exit(1)
}
