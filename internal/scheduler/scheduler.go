// Package scheduler builds array-job submissions and talks to the cluster
// batch scheduler. Submissions are made in a held state: the caller writes
// the argument-store manifest (whose name embeds the job id) after Submit
// returns and only then calls Release, so no array task can start before
// its command is durably on disk.
package scheduler

import "context"

// Environment variables the scheduler sets inside every array task. The
// generic wrapper reads both to find its manifest and its own slot.
const (
	EnvJobID    = "LSB_JOBID"
	EnvJobIndex = "LSB_JOBINDEX"
)

// Client is the scheduler boundary: one synchronous submission call plus the
// release of a held job.
type Client interface {
	// Submit places a held array job and returns the scheduler-assigned
	// job id.
	Submit(ctx context.Context, req Request) (string, error)
	// Release lets a previously held job start.
	Release(ctx context.Context, jobID string) error
}
