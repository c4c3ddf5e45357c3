// Package decision maps a lane/plex descriptor plus run-level context to the
// analysis variant that applies: target alignment on or off, aligner choice,
// RNA mode, human-contamination split variant, and bait-capture statistics.
package decision

// Aligner is one of the closed set of supported aligner invocations.
type Aligner string

const (
	AlignerNone   Aligner = ""
	AlignerBWAAln Aligner = "bwa_aln"
	AlignerBWAMem Aligner = "bwa_mem"
	AlignerSTAR   Aligner = "star"
)

// SplitMode is the human-contamination split variant. The value doubles as
// the QC subset label for the split output.
type SplitMode string

const (
	// SplitNone means no contamination split is requested.
	SplitNone SplitMode = ""
	// SplitXAHuman separates X/Y reads from autosomal reads of a human sample.
	SplitXAHuman SplitMode = "xahuman"
	// SplitYHuman separates Y-chromosome reads of a human sample.
	SplitYHuman SplitMode = "yhuman"
	// SplitHuman separates human-mapping reads out of a nonconsented
	// non-human sample.
	SplitHuman SplitMode = "human"
)

// Decision is the derived analysis variant for one descriptor. It is
// produced fresh per descriptor and never mutated after construction.
type Decision struct {
	TargetAlign  bool
	Aligner      Aligner
	RNAMode      bool
	Split        SplitMode
	BaitStats    bool
	AltReference bool

	// Paths resolved while deciding, carried forward for command synthesis.
	ReferencePath      string
	TranscriptomePath  string
	BaitPath           string
	HumanReferencePath string
}

// RunContext carries the run-wide facts decisions depend on.
type RunContext struct {
	RunID       int
	PairedEnd   bool
	GCLP        bool
	Chemistry   string
	CycleCounts []int
}

// Flowcell chemistry generations. Patterned flowcells imply the newer
// sequencer generation and force the long-read capable aligner.
const (
	ChemistryClassic   = "classic"
	ChemistryPatterned = "patterned"
)

// longReadCycleThreshold is the per-read cycle count at which the long-read
// capable aligner takes over from the legacy one.
const longReadCycleThreshold = 101

// MaxCycles returns the largest per-read cycle count, or zero when unknown.
func (rc RunContext) MaxCycles() int {
	max := 0
	for _, c := range rc.CycleCounts {
		if c > max {
			max = c
		}
	}
	return max
}
