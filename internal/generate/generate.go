// Package generate drives one generation pass: fetch descriptors, decide the
// analysis variant for each, synthesize its command, allocate its array
// index, then submit a held array job, publish the argument-store manifest,
// and release the job. The pass is synchronous and single-threaded; the only
// concurrency is downstream in the scheduler.
package generate

import (
	"context"
	"fmt"

	"github.com/seqworks/lanesub/internal/argstore"
	"github.com/seqworks/lanesub/internal/command"
	"github.com/seqworks/lanesub/internal/ctxlog"
	"github.com/seqworks/lanesub/internal/decision"
	"github.com/seqworks/lanesub/internal/jobindex"
	"github.com/seqworks/lanesub/internal/metadata"
	"github.com/seqworks/lanesub/internal/scheduler"
)

// Stage is the pipeline stage identifier used in job and manifest names.
const Stage = "align"

// Pass holds the collaborators of one generation pass.
type Pass struct {
	Provider  metadata.Provider
	Engine    *decision.Engine
	Synth     *command.Synthesizer
	Client    scheduler.Client
	Paths     command.Paths
	LogDir    string
	Resources scheduler.Resources
	// DryRun logs the synthesized commands instead of submitting.
	DryRun bool
}

// Result reports what a pass produced. A zero Result with a nil error means
// there was nothing to submit.
type Result struct {
	JobID        string
	Indexes      []jobindex.Index
	ManifestPath string
}

// Run executes the pass. Configuration conflicts and structural errors abort
// before any submission; resolution degradations only reduce functionality
// for the affected slot.
func (p *Pass) Run(ctx context.Context, rc decision.RunContext, positions []int) (Result, error) {
	logger := ctxlog.FromContext(ctx)

	descs, err := p.Provider.Descriptors(ctx, rc.RunID, positions)
	if err != nil {
		return Result{}, fmt.Errorf("fetching descriptors: %w", err)
	}

	manifest := argstore.New()
	for _, d := range descs {
		dec, err := p.Engine.Decide(ctx, d, rc)
		if err != nil {
			return Result{}, err
		}

		idx, err := indexFor(d)
		if err != nil {
			return Result{}, err
		}

		if err := manifest.Add(idx, p.Synth.Render(d, dec, p.Paths)); err != nil {
			return Result{}, err
		}
	}

	if manifest.Len() == 0 {
		logger.Info("no descriptors produced a task, nothing to submit", "run_id", rc.RunID)
		return Result{}, nil
	}

	if p.DryRun {
		for _, idx := range manifest.Indexes() {
			cmd, _ := manifest.Lookup(idx)
			logger.Info("dry run", "index", idx.String(), "command", cmd)
		}
		return Result{Indexes: manifest.Indexes()}, nil
	}

	root := fmt.Sprintf("%s_%d", Stage, rc.RunID)
	req := scheduler.Request{
		JobName:   scheduler.JobName(Stage, rc.RunID),
		Indexes:   manifest.Indexes(),
		Resources: p.Resources,
		LogDir:    p.LogDir,
		Wrapper:   []string{"slotrun", "--dir=" + p.Paths.InputDir, "--root=" + root},
	}

	// Submit held, publish the manifest (its name embeds the job id), then
	// release. No task can start before its command exists on disk.
	jobID, err := p.Client.Submit(ctx, req)
	if err != nil {
		return Result{}, fmt.Errorf("submitting array job: %w", err)
	}
	manifestPath, err := manifest.Write(p.Paths.InputDir, root, jobID)
	if err != nil {
		return Result{}, fmt.Errorf("writing argument manifest for job %s: %w", jobID, err)
	}
	if err := p.Client.Release(ctx, jobID); err != nil {
		return Result{}, err
	}

	logger.Info("generation pass complete",
		"run_id", rc.RunID, "job_id", jobID, "tasks", manifest.Len(), "manifest", manifestPath)
	return Result{JobID: jobID, Indexes: manifest.Indexes(), ManifestPath: manifestPath}, nil
}

// indexFor allocates the array index for a descriptor.
func indexFor(d metadata.Descriptor) (jobindex.Index, error) {
	if tag, ok := d.Tag(); ok {
		idx, err := jobindex.ForPlex(d.Position, tag)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", d.ID(), err)
		}
		return idx, nil
	}
	idx, err := jobindex.ForLane(d.Position)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", d.ID(), err)
	}
	return idx, nil
}
