// Command pgtrace is the reference CLI surface for the normalizer
// described in spec §6: it reads a basename's .vgtrace file and .c/.cpp
// source, and writes the Final Trace JSON to standard output.
package main

import (
	"fmt"
	"os"

	"github.com/knazir/pgtrace/cmd/pgtrace/cmds"
)

func main() {
	if err := cmds.New().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
