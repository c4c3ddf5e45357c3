// Package runconfig loads the HCL run configuration file and translates it
// into a format-agnostic model. Path attributes may interpolate environment
// variables (`env.HOME`) and run facts (`run.id`).
package runconfig

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/seqworks/lanesub/internal/ctxlog"
)

// Config is the unified model of one run configuration.
type Config struct {
	Run       Run
	Paths     Paths
	Metadata  Metadata
	Scheduler Scheduler
}

// Run carries the run-wide facts for the decision engine and the positions
// this generation pass covers.
type Run struct {
	ID          int
	Positions   []int
	PairedEnd   bool
	GCLP        bool
	Chemistry   string
	CycleCounts []int
}

// Paths are the directories one pass works against.
type Paths struct {
	InputDir   string
	OutputDir  string
	QCDir      string
	LogDir     string
	Repository string
}

// Metadata selects and parameterizes the descriptor provider.
type Metadata struct {
	Source    string
	SheetPath string
	LIMSURL   string
}

// Metadata source names.
const (
	SourceSheet = "sheet"
	SourceLIMS  = "lims"
)

// Scheduler holds resource overrides and tool locations.
type Scheduler struct {
	Queue    string
	SlotsMin int
	SlotsMax int
	MemoryMB int
	Bsub     string
	Bresume  string
}

// Resource defaults applied when the scheduler block leaves them unset.
const (
	defaultSlotsMin = 8
	defaultSlotsMax = 16
	defaultMemoryMB = 32000
)

// Load parses and validates one configuration file.
func Load(ctx context.Context, path string) (*Config, error) {
	logger := ctxlog.FromContext(ctx)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing %s: %w", path, diags)
	}

	// First pass: the run block, with only env available.
	var fs fileSchema
	if diags := gohcl.DecodeBody(file.Body, baseEvalContext(), &fs); diags.HasErrors() {
		return nil, fmt.Errorf("decoding %s: %w", path, diags)
	}
	if fs.Run == nil {
		return nil, fmt.Errorf("%s: a run block is required", path)
	}

	// Second pass: everything else, with run facts interpolatable.
	var rs restSchema
	if diags := gohcl.DecodeBody(fs.Remain, evalContextWithRun(fs.Run), &rs); diags.HasErrors() {
		return nil, fmt.Errorf("decoding %s: %w", path, diags)
	}

	cfg, err := translate(fs.Run, &rs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logger.Debug("run configuration loaded", "path", path, "run_id", cfg.Run.ID, "positions", len(cfg.Run.Positions))
	return cfg, nil
}

// baseEvalContext exposes the process environment as `env.NAME`.
func baseEvalContext() *hcl.EvalContext {
	env := map[string]cty.Value{}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			env[k] = cty.StringVal(v)
		}
	}
	vars := map[string]cty.Value{}
	if len(env) > 0 {
		vars["env"] = cty.MapVal(env)
	} else {
		vars["env"] = cty.MapValEmpty(cty.String)
	}
	return &hcl.EvalContext{Variables: vars}
}

// evalContextWithRun adds `run.id` on top of the base context.
func evalContextWithRun(run *runSchema) *hcl.EvalContext {
	ectx := baseEvalContext()
	ectx.Variables["run"] = cty.ObjectVal(map[string]cty.Value{
		"id": cty.NumberIntVal(int64(run.ID)),
	})
	return ectx
}

// translate validates the schema structs and builds the model.
func translate(run *runSchema, rest *restSchema) (*Config, error) {
	if run.ID < 1 {
		return nil, fmt.Errorf("run id %d is not valid", run.ID)
	}
	if len(run.Positions) == 0 {
		return nil, fmt.Errorf("run %d: at least one position is required", run.ID)
	}
	if rest.Paths == nil {
		return nil, fmt.Errorf("a paths block is required")
	}
	for name, v := range map[string]string{
		"input_dir":  rest.Paths.InputDir,
		"output_dir": rest.Paths.OutputDir,
		"qc_dir":     rest.Paths.QCDir,
		"log_dir":    rest.Paths.LogDir,
		"repository": rest.Paths.Repository,
	} {
		if v == "" {
			return nil, fmt.Errorf("paths: %s must not be empty", name)
		}
	}
	if rest.Metadata == nil {
		return nil, fmt.Errorf("a metadata block is required")
	}

	md := Metadata{
		Source:    rest.Metadata.Source,
		SheetPath: rest.Metadata.SheetPath,
		LIMSURL:   rest.Metadata.LIMSURL,
	}
	switch md.Source {
	case SourceSheet:
		if md.SheetPath == "" {
			return nil, fmt.Errorf("metadata: source %q requires sheet_path", SourceSheet)
		}
	case SourceLIMS:
		if md.LIMSURL == "" {
			return nil, fmt.Errorf("metadata: source %q requires lims_url", SourceLIMS)
		}
	default:
		return nil, fmt.Errorf("metadata: unknown source %q", md.Source)
	}

	sched := Scheduler{
		SlotsMin: defaultSlotsMin,
		SlotsMax: defaultSlotsMax,
		MemoryMB: defaultMemoryMB,
		Bsub:     "bsub",
		Bresume:  "bresume",
	}
	if rest.Scheduler != nil {
		s := rest.Scheduler
		sched.Queue = s.Queue
		if s.SlotsMin > 0 {
			sched.SlotsMin = s.SlotsMin
		}
		if s.SlotsMax > 0 {
			sched.SlotsMax = s.SlotsMax
		}
		if s.MemoryMB > 0 {
			sched.MemoryMB = s.MemoryMB
		}
		if s.Bsub != "" {
			sched.Bsub = s.Bsub
		}
		if s.Bresume != "" {
			sched.Bresume = s.Bresume
		}
	}
	if sched.SlotsMin > sched.SlotsMax {
		return nil, fmt.Errorf("scheduler: slots_min %d exceeds slots_max %d", sched.SlotsMin, sched.SlotsMax)
	}

	chem := run.Chemistry
	if chem == "" {
		chem = "classic"
	}

	return &Config{
		Run: Run{
			ID:          run.ID,
			Positions:   run.Positions,
			PairedEnd:   run.PairedEnd,
			GCLP:        run.GCLP,
			Chemistry:   chem,
			CycleCounts: run.CycleCounts,
		},
		Paths: Paths{
			InputDir:   rest.Paths.InputDir,
			OutputDir:  rest.Paths.OutputDir,
			QCDir:      rest.Paths.QCDir,
			LogDir:     rest.Paths.LogDir,
			Repository: rest.Paths.Repository,
		},
		Metadata:  md,
		Scheduler: sched,
	}, nil
}
