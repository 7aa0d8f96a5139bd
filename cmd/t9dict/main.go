// Command t9dict manages a predictive-text dictionary for numeric keypads.
package main

import (
	"os"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}
