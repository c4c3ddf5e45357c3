package command

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/seqworks/lanesub/internal/decision"
	"github.com/seqworks/lanesub/internal/metadata"
)

// Paths are the directories a task works against, resolved by the caller.
type Paths struct {
	InputDir  string
	OutputDir string
	QCDir     string
}

// Pipeline template names. The nonconsented human split changes the template
// along two axes: whether the split runs at all and whether target alignment
// runs alongside it.
const (
	tplAlign           = "stage2_align"
	tplAlignHumanSplit = "stage2_align_humansplit"
	tplHumanSplit      = "stage2_humansplit"
)

// QC check names appended after the pipeline invocation.
const (
	checkFlagstats   = "bam_flagstats"
	checkAlignFilter = "alignment_filter_metrics"
)

// Synthesizer renders one opaque command string per lane/plex.
type Synthesizer struct{}

// Render produces the full per-task invocation: working directory setup, the
// template engine call with injected parameters, and the chained QC
// sub-commands.
func (s *Synthesizer) Render(d metadata.Descriptor, dec decision.Decision, p Paths) string {
	wd := filepath.Join(p.OutputDir, d.ID())

	chain := NewChain().
		Then(New("mkdir", "-p", wd)).
		Then(New("cd", wd)).
		Then(s.pipeline(d, dec, p, wd))

	primary := ""
	if !dec.TargetAlign {
		primary = "unaligned"
	}
	chain.Then(qcCommand(d, checkFlagstats, primary, wd, p.QCDir))
	chain.Then(qcCommand(d, checkFlagstats, "phix", wd, p.QCDir))
	if dec.Split != decision.SplitNone {
		chain.Then(qcCommand(d, checkFlagstats, string(dec.Split), wd, p.QCDir))
	}
	chain.Then(qcCommand(d, checkAlignFilter, "", wd, p.QCDir))

	return chain.String()
}

// pipeline builds the template engine invocation.
func (s *Synthesizer) pipeline(d metadata.Descriptor, dec decision.Decision, p Paths, wd string) *Builder {
	b := New("vpipe", "run").
		Flag("template", templateFor(dec)).
		Flag("log", fmt.Sprintf("vpipe_%s.log", d.ID())).
		Flag("key", "id="+d.ID()).
		Flag("key", "indir="+p.InputDir).
		Flag("key", "outdir="+wd)

	if dec.TargetAlign {
		b.Flag("key", "reference="+dec.ReferencePath)
		aligner, method := alignerKeys(dec.Aligner)
		b.Flag("key", "aligner="+aligner)
		b.Flag("key", "alignment_method="+method)
	} else {
		applyUnalignedDegradation(b)
	}

	if dec.RNAMode {
		b.Flag("key", "transcriptome="+dec.TranscriptomePath)
		b.Flag("key", "library_strand="+libraryStrand(d.LibraryType))
	}

	if dec.Split != decision.SplitNone {
		// The split always maps against the fixed default human build,
		// whatever the sample's own species is.
		b.Flag("key", "human_reference="+dec.HumanReferencePath)
		b.Flag("key", "split_subset="+string(dec.Split))
	}

	if dec.BaitStats {
		b.Flag("key", "bait_intervals="+dec.BaitPath)
	}

	return b
}

// applyUnalignedDegradation emits the four no-target-alignment effects as
// one unit: align nodes pruned, unaligned passthrough forced, the reference
// unset on statistics nodes, and the default target label renamed. They are
// never applied separately.
func applyUnalignedDegradation(b *Builder) {
	b.Flag("prune", "align_target")
	b.Flag("key", "unaligned_passthrough=true")
	b.Flag("key", "stats_reference=")
	b.Flag("key", "primary_label=unaligned")
}

// templateFor selects the pipeline template.
func templateFor(dec decision.Decision) string {
	if dec.Split == decision.SplitHuman {
		if dec.TargetAlign {
			return tplAlignHumanSplit
		}
		return tplHumanSplit
	}
	return tplAlign
}

// alignerKeys maps an aligner choice to the executable and algorithm
// parameters the templates expect.
func alignerKeys(a decision.Aligner) (aligner, method string) {
	switch a {
	case decision.AlignerBWAAln:
		return "bwa", "aln"
	case decision.AlignerBWAMem:
		return "bwa", "mem"
	case decision.AlignerSTAR:
		return "star", "align"
	}
	return "", ""
}

// libraryStrand derives the strandedness parameter from the library type.
// dUTP protocols produce reverse-stranded libraries.
func libraryStrand(libraryType string) string {
	if strings.Contains(libraryType, "dUTP") {
		return "fr-firststrand"
	}
	return "fr-unstranded"
}

// qcCommand renders one QC sub-command. Named arguments are emitted in
// sorted order so the output is reproducible; an empty subset means the
// default output of the check.
func qcCommand(d metadata.Descriptor, check, subset, qcIn, qcOut string) *Builder {
	args := map[string]string{
		"check":    check,
		"id_run":   fmt.Sprint(d.RunID),
		"position": fmt.Sprint(d.Position),
		"qc_in":    qcIn,
		"qc_out":   qcOut,
	}
	if tag, ok := d.Tag(); ok {
		args["tag_index"] = fmt.Sprint(tag)
	}
	if subset != "" {
		args["subset"] = subset
	}

	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	b := New("qc")
	for _, k := range keys {
		b.Flag(k, args[k])
	}
	return b
}
