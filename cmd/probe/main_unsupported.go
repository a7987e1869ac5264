//go:build !windows

package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Fprintln(os.Stderr, "probe inspects the Windows keyboard layout APIs and only runs on Windows")
	os.Exit(1)
}
