package decision

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/seqworks/lanesub/internal/ctxlog"
	"github.com/seqworks/lanesub/internal/metadata"
	"github.com/seqworks/lanesub/internal/refrepo"
)

// rnaLibraryPattern matches the RNA-like library type family (cDNA, RNA,
// DAFT protocols).
var rnaLibraryPattern = regexp.MustCompile(`(?:cD|R)NA|DAFT`)

// rnaSpecies is the closed set of species with curated transcriptomes.
var rnaSpecies = map[string]bool{
	"Homo_sapiens":          true,
	"Mus_musculus":          true,
	"Plasmodium_falciparum": true,
}

// Default human reference used for contamination splits, independent of the
// sample's own species.
const (
	DefaultHumanSpecies = "Homo_sapiens"
	DefaultHumanBuild   = "GRCh38_full_analysis_set_plus_decoy_hla"
)

// referenceFlavour is the repository index directory reference queries
// resolve against.
const referenceFlavour = "fasta"

// Engine derives an analysis Decision from a descriptor and run context.
// It is stateless apart from the resolver it queries.
type Engine struct {
	resolver refrepo.Resolver
}

// NewEngine returns an Engine backed by the given resolver.
func NewEngine(r refrepo.Resolver) *Engine {
	return &Engine{resolver: r}
}

// Decide applies the analysis rules in precedence order. Configuration
// conflicts return a *ConflictError; resolution failures degrade the
// corresponding feature and are logged, never fatal.
func (e *Engine) Decide(ctx context.Context, d metadata.Descriptor, rc RunContext) (Decision, error) {
	logger := ctxlog.FromContext(ctx).With("entity", d.ID())
	var dec Decision

	split, err := splitMode(d)
	if err != nil {
		return dec, err
	}
	dec.Split = split

	if err := checkSplitSpecies(d, split); err != nil {
		return dec, err
	}

	dec.RNAMode = e.rnaMode(ctx, logger, d, rc, &dec)

	if split == SplitHuman && !rc.PairedEnd {
		return dec, &ConflictError{
			Entity: d.ID(),
			Flags:  []string{"nonconsented_human_split"},
			Reason: "nonconsented human split requires a paired-end run",
		}
	}
	if dec.RNAMode && !rc.PairedEnd {
		return dec, &ConflictError{
			Entity: d.ID(),
			Reason: "RNA analysis requires a paired-end run",
		}
	}

	refPath, found := e.resolveOne(ctx, logger, refrepo.Query{
		Kind:    refrepo.KindReference,
		Species: d.Reference.Species,
		Build:   d.Reference.Build,
		Aligner: referenceFlavour,
	})
	dec.TargetAlign = found && d.AlignmentsRequested
	if dec.TargetAlign {
		dec.ReferencePath = refPath
	} else if d.AlignmentsRequested && !d.Reference.IsZero() {
		logger.Warn("no usable reference, disabling target alignment",
			"species", d.Reference.Species, "build", d.Reference.Build)
	}

	if dec.TargetAlign {
		dec.AltReference = refrepo.HasAltFile(dec.ReferencePath)
		dec.Aligner = chooseAligner(dec, rc)
	}

	if dec.TargetAlign && d.BaitName != "" {
		baitPath, ok := e.resolveOne(ctx, logger, refrepo.Query{
			Kind:     refrepo.KindBaits,
			BaitName: d.BaitName,
			Build:    d.Reference.Build,
		})
		if ok {
			dec.BaitStats = true
			dec.BaitPath = baitPath
		} else {
			logger.Warn("bait definition not resolvable, bait statistics disabled", "bait", d.BaitName)
		}
	}

	if split != SplitNone {
		humanPath, ok := e.resolveOne(ctx, logger, refrepo.Query{
			Kind:    refrepo.KindReference,
			Species: DefaultHumanSpecies,
			Build:   DefaultHumanBuild,
			Aligner: referenceFlavour,
		})
		if !ok {
			// A split is a privacy requirement, not an optional feature;
			// it cannot be silently dropped.
			return dec, fmt.Errorf("default human reference for %s split of %s did not resolve", split, d.ID())
		}
		dec.HumanReferencePath = humanPath
	}

	logger.Debug("decision made",
		"target_align", dec.TargetAlign,
		"aligner", string(dec.Aligner),
		"rna_mode", dec.RNAMode,
		"split", string(dec.Split),
		"bait_stats", dec.BaitStats,
		"alt_reference", dec.AltReference,
	)
	return dec, nil
}

// resolveOne narrows a resolver answer to a single path. Zero matches and
// ambiguous matches both report not-found; only the ambiguous case is logged
// at error level since it points at a repository problem.
func (e *Engine) resolveOne(ctx context.Context, logger *slog.Logger, q refrepo.Query) (string, bool) {
	paths, err := e.resolver.Resolve(ctx, q)
	if err != nil {
		logger.Error("resolver failure", "kind", string(q.Kind), "error", err)
		return "", false
	}
	switch len(paths) {
	case 0:
		return "", false
	case 1:
		return paths[0], true
	default:
		logger.Error("ambiguous repository match, treating as unresolved",
			"kind", string(q.Kind), "matches", len(paths))
		return "", false
	}
}

// splitMode enforces mutual exclusivity of the contamination split flags.
func splitMode(d metadata.Descriptor) (SplitMode, error) {
	var set []string
	mode := SplitNone
	if d.NonconsentedXYSplit {
		set = append(set, "nonconsented_xy_autosome_split")
		mode = SplitXAHuman
	}
	if d.SeparateYChromosome {
		set = append(set, "separate_y_chromosome")
		mode = SplitYHuman
	}
	if d.NonconsentedHumanSplit {
		set = append(set, "nonconsented_human_split")
		mode = SplitHuman
	}
	if len(set) > 1 {
		return SplitNone, &ConflictError{
			Entity: d.ID(),
			Flags:  set,
			Reason: "contamination split flags are mutually exclusive",
		}
	}
	return mode, nil
}

// checkSplitSpecies enforces the species gating: the X/Y and Y-only splits
// only make sense on a human reference, the nonconsented split only on a
// non-human one.
func checkSplitSpecies(d metadata.Descriptor, split SplitMode) error {
	switch split {
	case SplitXAHuman, SplitYHuman:
		if !d.Reference.IsHuman() {
			return &ConflictError{
				Entity: d.ID(),
				Flags:  []string{string(split)},
				Reason: fmt.Sprintf("split requires a human reference, got %q", d.Reference.Species),
			}
		}
	case SplitHuman:
		if d.Reference.IsHuman() {
			return &ConflictError{
				Entity: d.ID(),
				Flags:  []string{string(split)},
				Reason: "nonconsented human split requires a non-human reference",
			}
		}
	}
	return nil
}

// rnaMode tests the RNA analysis conditions. Every failing condition is
// non-fatal: the descriptor falls back to DNA analysis.
func (e *Engine) rnaMode(ctx context.Context, logger *slog.Logger, d metadata.Descriptor, rc RunContext, dec *Decision) bool {
	if !rnaLibraryPattern.MatchString(d.LibraryType) {
		return false
	}
	if !rnaSpecies[d.Reference.Species] {
		logger.Debug("RNA-like library but species has no transcriptome support",
			"library_type", d.LibraryType, "species", d.Reference.Species)
		return false
	}
	if !rc.PairedEnd {
		logger.Warn("RNA-like library on a single-end run, falling back to DNA analysis",
			"library_type", d.LibraryType)
		return false
	}
	path, ok := e.resolveOne(ctx, logger, refrepo.Query{
		Kind:    refrepo.KindTranscriptome,
		Species: d.Reference.Species,
		Build:   d.Reference.Build,
	})
	if !ok {
		logger.Warn("transcriptome index not resolvable, falling back to DNA analysis",
			"species", d.Reference.Species, "build", d.Reference.Build)
		return false
	}
	dec.TranscriptomePath = path
	return true
}

// chooseAligner applies the DNA-mode aligner rules. RNA mode always uses the
// splice-aware aligner. Alt-reference presence is the highest precedence
// override for DNA mode.
func chooseAligner(dec Decision, rc RunContext) Aligner {
	if dec.RNAMode {
		return AlignerSTAR
	}
	if dec.AltReference {
		return AlignerBWAMem
	}
	if rc.GCLP || rc.Chemistry == ChemistryPatterned || rc.MaxCycles() >= longReadCycleThreshold {
		return AlignerBWAMem
	}
	return AlignerBWAAln
}
