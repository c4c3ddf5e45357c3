package scheduler

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/seqworks/lanesub/internal/jobindex"
)

// Resources is the per-task resource requirement of a submission.
type Resources struct {
	SlotsMin int
	SlotsMax int
	MemoryMB int
	Queue    string
}

// Request is one array-job submission: every index listed must have exactly
// one entry in the argument-store manifest before the job is released.
type Request struct {
	JobName   string
	Indexes   []jobindex.Index
	Resources Resources
	LogDir    string
	// Wrapper is the generic resolve-and-exec command line each array task
	// runs; it derives its index and job id from its environment.
	Wrapper []string
}

// JobName derives the submission's job name from the stage, run id, and a
// random job tag so resubmissions never collide.
func JobName(stage string, runID int) string {
	return fmt.Sprintf("%s_%d_%s", stage, runID, uuid.NewString()[:8])
}

// BuildArgs renders the deterministic bsub argument list for a request. The
// job is always submitted held (-H); Release lifts the hold once the
// manifest exists.
func BuildArgs(req Request) []string {
	idx := make([]string, len(req.Indexes))
	for i, v := range req.Indexes {
		idx[i] = v.String()
	}

	mem := req.Resources.MemoryMB
	args := []string{
		"-H",
		"-J", fmt.Sprintf("%s[%s]", req.JobName, strings.Join(idx, ",")),
		"-n", fmt.Sprintf("%d,%d", req.Resources.SlotsMin, req.Resources.SlotsMax),
		"-M", fmt.Sprint(mem),
		"-R", fmt.Sprintf("select[mem>%d] rusage[mem=%d] span[hosts=1]", mem, mem),
		"-o", filepath.Join(req.LogDir, req.JobName+".%J.%I.out"),
	}
	if req.Resources.Queue != "" {
		args = append(args, "-q", req.Resources.Queue)
	}
	return append(args, req.Wrapper...)
}
