package scheduler

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/seqworks/lanesub/internal/ctxlog"
)

// jobIDPattern matches the job id in bsub's acknowledgement line,
// e.g. `Job <987654> is submitted to queue <normal>.`
var jobIDPattern = regexp.MustCompile(`Job <(\d+)> is submitted`)

// ExecClient submits by shelling out to the scheduler's command line tools.
type ExecClient struct {
	// Bsub and Bresume override the executables, mainly for tests.
	Bsub    string
	Bresume string
}

// NewExecClient returns a client using the standard LSF tool names.
func NewExecClient() *ExecClient {
	return &ExecClient{Bsub: "bsub", Bresume: "bresume"}
}

// Submit implements Client. The job is submitted held via BuildArgs.
func (c *ExecClient) Submit(ctx context.Context, req Request) (string, error) {
	logger := ctxlog.FromContext(ctx)
	args := BuildArgs(req)
	logger.Debug("submitting array job", "job_name", req.JobName, "slots", len(req.Indexes))

	out, err := exec.CommandContext(ctx, c.Bsub, args...).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("scheduler rejected submission: %w (%s)", err, strings.TrimSpace(string(out)))
	}
	match := jobIDPattern.FindSubmatch(out)
	if match == nil {
		return "", fmt.Errorf("could not find a job id in scheduler output %q", strings.TrimSpace(string(out)))
	}
	jobID := string(match[1])
	logger.Info("array job submitted held", "job_id", jobID, "job_name", req.JobName)
	return jobID, nil
}

// Release implements Client.
func (c *ExecClient) Release(ctx context.Context, jobID string) error {
	out, err := exec.CommandContext(ctx, c.Bresume, jobID).CombinedOutput()
	if err != nil {
		return fmt.Errorf("releasing job %s: %w (%s)", jobID, err, strings.TrimSpace(string(out)))
	}
	ctxlog.FromContext(ctx).Info("held job released", "job_id", jobID)
	return nil
}
