package app

import (
	"context"
	"fmt"

	"github.com/seqworks/lanesub/internal/command"
	"github.com/seqworks/lanesub/internal/ctxlog"
	"github.com/seqworks/lanesub/internal/decision"
	"github.com/seqworks/lanesub/internal/generate"
	"github.com/seqworks/lanesub/internal/metadata"
	"github.com/seqworks/lanesub/internal/refrepo"
	"github.com/seqworks/lanesub/internal/runconfig"
	"github.com/seqworks/lanesub/internal/scheduler"
)

// Run executes one generation pass for the configured run.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	provider, err := a.provider()
	if err != nil {
		return err
	}
	repo, err := refrepo.NewRepository(a.config.Paths.Repository)
	if err != nil {
		return fmt.Errorf("opening reference repository: %w", err)
	}

	pass := &generate.Pass{
		Provider: provider,
		Engine:   decision.NewEngine(repo),
		Synth:    &command.Synthesizer{},
		Client: &scheduler.ExecClient{
			Bsub:    a.config.Scheduler.Bsub,
			Bresume: a.config.Scheduler.Bresume,
		},
		Paths: command.Paths{
			InputDir:  a.config.Paths.InputDir,
			OutputDir: a.config.Paths.OutputDir,
			QCDir:     a.config.Paths.QCDir,
		},
		LogDir: a.config.Paths.LogDir,
		Resources: scheduler.Resources{
			SlotsMin: a.config.Scheduler.SlotsMin,
			SlotsMax: a.config.Scheduler.SlotsMax,
			MemoryMB: a.config.Scheduler.MemoryMB,
			Queue:    a.config.Scheduler.Queue,
		},
		DryRun: a.dryRun,
	}

	rc := decision.RunContext{
		RunID:       a.config.Run.ID,
		PairedEnd:   a.config.Run.PairedEnd,
		GCLP:        a.config.Run.GCLP,
		Chemistry:   a.config.Run.Chemistry,
		CycleCounts: a.config.Run.CycleCounts,
	}

	res, err := pass.Run(ctx, rc, a.config.Run.Positions)
	if err != nil {
		return fmt.Errorf("generation pass failed: %w", err)
	}

	if res.JobID == "" {
		a.logger.Info("No submission made.", "run_id", rc.RunID, "dry_run", a.dryRun)
		return nil
	}
	a.logger.Info("Submission complete.",
		"run_id", rc.RunID, "job_id", res.JobID, "tasks", len(res.Indexes), "manifest", res.ManifestPath)
	return nil
}

// provider picks the descriptor source the configuration asks for.
func (a *App) provider() (metadata.Provider, error) {
	switch a.config.Metadata.Source {
	case runconfig.SourceSheet:
		return &metadata.SheetSource{Path: a.config.Metadata.SheetPath}, nil
	case runconfig.SourceLIMS:
		return metadata.NewLIMSClient(a.config.Metadata.LIMSURL), nil
	}
	return nil, fmt.Errorf("unknown metadata source %q", a.config.Metadata.Source)
}
