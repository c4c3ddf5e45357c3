// slotrun is the generic resolve-and-exec wrapper submitted with every
// array job. Inside an array task it derives the job id and its own index
// from the scheduler environment, loads the argument-store manifest named
// after that job id, and executes the command stored for its slot. A missing
// entry is a fatal task failure.
package main

import (
	"fmt"
	"os"

	"github.com/seqworks/lanesub/internal/slotrun"
)

func main() {
	code, err := slotrun.Main(os.Args[1:], os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(code)
}
