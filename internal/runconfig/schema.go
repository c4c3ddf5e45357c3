package runconfig

import "github.com/hashicorp/hcl/v2"

// fileSchema is the first decode pass over a configuration file. Only the
// run block is bound here; the rest of the body is re-decoded once the run
// variables are available for interpolation.
type fileSchema struct {
	Run    *runSchema `hcl:"run,block"`
	Remain hcl.Body   `hcl:",remain"`
}

// runSchema is the `run` block: the run-wide facts decisions depend on and
// the positions this pass covers.
type runSchema struct {
	ID          int    `hcl:"id"`
	Positions   []int  `hcl:"positions"`
	PairedEnd   bool   `hcl:"paired_end,optional"`
	GCLP        bool   `hcl:"gclp,optional"`
	Chemistry   string `hcl:"chemistry,optional"`
	CycleCounts []int  `hcl:"cycle_counts,optional"`
}

// restSchema is the second decode pass.
type restSchema struct {
	Paths     *pathsSchema     `hcl:"paths,block"`
	Metadata  *metadataSchema  `hcl:"metadata,block"`
	Scheduler *schedulerSchema `hcl:"scheduler,block"`
	Remain    hcl.Body         `hcl:",remain"`
}

type pathsSchema struct {
	InputDir   string `hcl:"input_dir"`
	OutputDir  string `hcl:"output_dir"`
	QCDir      string `hcl:"qc_dir"`
	LogDir     string `hcl:"log_dir"`
	Repository string `hcl:"repository"`
}

type metadataSchema struct {
	Source    string `hcl:"source"`
	SheetPath string `hcl:"sheet_path,optional"`
	LIMSURL   string `hcl:"lims_url,optional"`
}

type schedulerSchema struct {
	Queue    string `hcl:"queue,optional"`
	SlotsMin int    `hcl:"slots_min,optional"`
	SlotsMax int    `hcl:"slots_max,optional"`
	MemoryMB int    `hcl:"memory_mb,optional"`
	Bsub     string `hcl:"bsub,optional"`
	Bresume  string `hcl:"bresume,optional"`
}
