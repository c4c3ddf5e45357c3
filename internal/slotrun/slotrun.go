// Package slotrun implements the wrapper contract each array task runs: read
// the job id and array index from the environment, open the argument-store
// manifest they name, and execute this slot's command verbatim.
package slotrun

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"

	"github.com/seqworks/lanesub/internal/argstore"
	"github.com/seqworks/lanesub/internal/jobindex"
	"github.com/seqworks/lanesub/internal/scheduler"
)

// Main runs the wrapper and returns the process exit code. The executed
// command's own exit code is propagated.
func Main(args []string, outW, errW io.Writer) (int, error) {
	flagSet := flag.NewFlagSet("slotrun", flag.ContinueOnError)
	flagSet.SetOutput(errW)
	dir := flagSet.String("dir", "", "Directory holding the argument manifest.")
	root := flagSet.String("root", "", "Run-scoped root name of the manifest.")
	if err := flagSet.Parse(args); err != nil {
		return 2, nil
	}
	if *dir == "" || *root == "" {
		return 2, errors.New("slotrun: both -dir and -root are required")
	}

	cmd, err := resolve(*dir, *root)
	if err != nil {
		return 1, err
	}

	proc := exec.Command("/bin/sh", "-c", cmd)
	proc.Stdout = outW
	proc.Stderr = errW
	proc.Stdin = os.Stdin
	if err := proc.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return 1, fmt.Errorf("slotrun: starting task command: %w", err)
	}
	return 0, nil
}

// resolve looks this task's command up from its execution environment.
func resolve(dir, root string) (string, error) {
	jobID := os.Getenv(scheduler.EnvJobID)
	if jobID == "" {
		return "", fmt.Errorf("slotrun: %s is not set; not running inside an array task", scheduler.EnvJobID)
	}
	rawIndex := os.Getenv(scheduler.EnvJobIndex)
	if rawIndex == "" {
		return "", fmt.Errorf("slotrun: %s is not set; not running inside an array task", scheduler.EnvJobIndex)
	}
	index, err := strconv.Atoi(rawIndex)
	if err != nil {
		return "", fmt.Errorf("slotrun: %s=%q is not an array index", scheduler.EnvJobIndex, rawIndex)
	}

	manifest, err := argstore.Load(dir, root, jobID)
	if err != nil {
		return "", err
	}
	cmd, ok := manifest.Lookup(jobindex.Index(index))
	if !ok {
		return "", fmt.Errorf("slotrun: no command for index %d in manifest %s", index, argstore.FileName(root, jobID))
	}
	return cmd, nil
}
