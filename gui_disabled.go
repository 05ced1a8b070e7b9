//go:build !gui

package main

import (
	"fmt"
	"os"
)

func runGUI(*config) int {
	fmt.Fprintln(os.Stderr, "procrec: built without GUI support (rebuild with -tags gui)")
	return 1
}
