package decision

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seqworks/lanesub/internal/metadata"
	"github.com/seqworks/lanesub/internal/refrepo"
)

// fakeResolver answers queries from a canned table keyed by kind+species or
// kind+bait name.
type fakeResolver struct {
	refs           map[string][]string // species/build -> paths
	transcriptomes map[string][]string
	baits          map[string][]string
	err            error
}

func (f *fakeResolver) Resolve(_ context.Context, q refrepo.Query) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	switch q.Kind {
	case refrepo.KindReference:
		return f.refs[q.Species+"/"+q.Build], nil
	case refrepo.KindTranscriptome:
		return f.transcriptomes[q.Species+"/"+q.Build], nil
	case refrepo.KindBaits:
		return f.baits[q.BaitName+"/"+q.Build], nil
	}
	return nil, nil
}

func humanResolver() *fakeResolver {
	return &fakeResolver{
		refs: map[string][]string{
			"Homo_sapiens/GRCh38": {"/repo/references/Homo_sapiens/GRCh38/all/fasta/hs38.fa"},
			DefaultHumanSpecies + "/" + DefaultHumanBuild: {"/repo/references/Homo_sapiens/default/hs38d.fa"},
			"Mus_musculus/GRCm38":                         {"/repo/references/Mus_musculus/GRCm38/all/fasta/mm38.fa"},
		},
		transcriptomes: map[string][]string{
			"Homo_sapiens/GRCh38": {"/repo/transcriptomes/Homo_sapiens/GRCh38/star"},
		},
		baits: map[string][]string{
			"Human_all_exon_V8/GRCh38": {"/repo/baits/Human_all_exon_V8/GRCh38/S1.interval_list"},
		},
	}
}

func humanDesc() metadata.Descriptor {
	return metadata.Descriptor{
		RunID:               45678,
		Position:            3,
		LibraryType:         "Standard",
		Reference:           metadata.Genome{Species: "Homo_sapiens", Build: "GRCh38"},
		AlignmentsRequested: true,
	}
}

func pairedRun() RunContext {
	return RunContext{RunID: 45678, PairedEnd: true, Chemistry: ChemistryClassic, CycleCounts: []int{76, 76}}
}

func TestSplitFlagMutualExclusivity(t *testing.T) {
	e := NewEngine(humanResolver())
	d := humanDesc()
	d.SeparateYChromosome = true
	d.NonconsentedXYSplit = true

	_, err := e.Decide(context.Background(), d, pairedRun())
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "45678_3", conflict.Entity)
	assert.Contains(t, conflict.Flags, "separate_y_chromosome")
	assert.Contains(t, conflict.Flags, "nonconsented_xy_autosome_split")
}

func TestSplitSpeciesGating(t *testing.T) {
	e := NewEngine(humanResolver())

	t.Run("y split on non-human reference is fatal", func(t *testing.T) {
		d := humanDesc()
		d.Reference = metadata.Genome{Species: "Mus_musculus", Build: "GRCm38"}
		d.SeparateYChromosome = true
		_, err := e.Decide(context.Background(), d, pairedRun())
		var conflict *ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Contains(t, conflict.Reason, "human reference")
	})

	t.Run("xy split on non-human reference is fatal", func(t *testing.T) {
		d := humanDesc()
		d.Reference = metadata.Genome{}
		d.NonconsentedXYSplit = true
		_, err := e.Decide(context.Background(), d, pairedRun())
		assert.Error(t, err)
	})

	t.Run("nonconsented split on human reference is fatal", func(t *testing.T) {
		d := humanDesc()
		d.NonconsentedHumanSplit = true
		_, err := e.Decide(context.Background(), d, pairedRun())
		var conflict *ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Contains(t, conflict.Reason, "non-human reference")
	})

	t.Run("valid y split decision", func(t *testing.T) {
		d := humanDesc()
		d.SeparateYChromosome = true
		dec, err := e.Decide(context.Background(), d, pairedRun())
		require.NoError(t, err)
		assert.Equal(t, SplitYHuman, dec.Split)
		assert.NotEmpty(t, dec.HumanReferencePath)
	})
}

func TestRNAMode(t *testing.T) {
	t.Run("enabled when all conditions hold", func(t *testing.T) {
		e := NewEngine(humanResolver())
		d := humanDesc()
		d.LibraryType = "RNA PolyA"
		dec, err := e.Decide(context.Background(), d, pairedRun())
		require.NoError(t, err)
		assert.True(t, dec.RNAMode)
		assert.Equal(t, AlignerSTAR, dec.Aligner)
		assert.Equal(t, "/repo/transcriptomes/Homo_sapiens/GRCh38/star", dec.TranscriptomePath)
	})

	t.Run("cDNA and DAFT library types qualify", func(t *testing.T) {
		for _, lt := range []string{"cDNA prep", "DAFT-seq", "mRNA stranded"} {
			assert.True(t, rnaLibraryPattern.MatchString(lt), lt)
		}
		assert.False(t, rnaLibraryPattern.MatchString("Standard"))
	})

	t.Run("disabled without transcriptome, falls back to DNA", func(t *testing.T) {
		r := humanResolver()
		r.transcriptomes = nil
		e := NewEngine(r)
		d := humanDesc()
		d.LibraryType = "RNA PolyA"
		dec, err := e.Decide(context.Background(), d, pairedRun())
		require.NoError(t, err)
		assert.False(t, dec.RNAMode)
		assert.Equal(t, AlignerBWAAln, dec.Aligner)
	})

	t.Run("disabled for unsupported species", func(t *testing.T) {
		r := humanResolver()
		r.refs["Danio_rerio/GRCz11"] = []string{"/repo/references/Danio_rerio/GRCz11/all/fasta/dr11.fa"}
		e := NewEngine(r)
		d := humanDesc()
		d.LibraryType = "RNA PolyA"
		d.Reference = metadata.Genome{Species: "Danio_rerio", Build: "GRCz11"}
		dec, err := e.Decide(context.Background(), d, pairedRun())
		require.NoError(t, err)
		assert.False(t, dec.RNAMode)
		assert.True(t, dec.TargetAlign)
	})

	t.Run("disabled on single-end run without error", func(t *testing.T) {
		e := NewEngine(humanResolver())
		d := humanDesc()
		d.LibraryType = "RNA PolyA"
		rc := pairedRun()
		rc.PairedEnd = false
		dec, err := e.Decide(context.Background(), d, rc)
		require.NoError(t, err)
		assert.False(t, dec.RNAMode)
	})
}

func TestPairedOnlyGate(t *testing.T) {
	e := NewEngine(humanResolver())
	d := humanDesc()
	d.Reference = metadata.Genome{Species: "Mus_musculus", Build: "GRCm38"}
	d.NonconsentedHumanSplit = true
	rc := pairedRun()
	rc.PairedEnd = false

	_, err := e.Decide(context.Background(), d, rc)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Contains(t, conflict.Reason, "paired-end")
}

func TestTargetAlignment(t *testing.T) {
	t.Run("requires resolvable reference and request", func(t *testing.T) {
		e := NewEngine(humanResolver())
		dec, err := e.Decide(context.Background(), humanDesc(), pairedRun())
		require.NoError(t, err)
		assert.True(t, dec.TargetAlign)
		assert.NotEmpty(t, dec.ReferencePath)
	})

	t.Run("unresolvable reference degrades without error", func(t *testing.T) {
		e := NewEngine(&fakeResolver{})
		dec, err := e.Decide(context.Background(), humanDesc(), pairedRun())
		require.NoError(t, err)
		assert.False(t, dec.TargetAlign)
		assert.Equal(t, AlignerNone, dec.Aligner)
	})

	t.Run("ambiguous reference degrades without error", func(t *testing.T) {
		r := humanResolver()
		r.refs["Homo_sapiens/GRCh38"] = []string{"/a.fa", "/b.fa"}
		e := NewEngine(r)
		dec, err := e.Decide(context.Background(), humanDesc(), pairedRun())
		require.NoError(t, err)
		assert.False(t, dec.TargetAlign)
	})

	t.Run("alignments not requested disables target alignment", func(t *testing.T) {
		e := NewEngine(humanResolver())
		d := humanDesc()
		d.AlignmentsRequested = false
		dec, err := e.Decide(context.Background(), d, pairedRun())
		require.NoError(t, err)
		assert.False(t, dec.TargetAlign)
	})

	t.Run("resolver failure degrades without error", func(t *testing.T) {
		e := NewEngine(&fakeResolver{err: errors.New("nfs down")})
		dec, err := e.Decide(context.Background(), humanDesc(), pairedRun())
		require.NoError(t, err)
		assert.False(t, dec.TargetAlign)
	})
}

func TestAlignerChoice(t *testing.T) {
	decide := func(t *testing.T, rc RunContext, mutate func(*fakeResolver)) Decision {
		t.Helper()
		r := humanResolver()
		if mutate != nil {
			mutate(r)
		}
		e := NewEngine(r)
		dec, err := e.Decide(context.Background(), humanDesc(), rc)
		require.NoError(t, err)
		return dec
	}

	t.Run("legacy aligner on older chemistry below cycle threshold", func(t *testing.T) {
		dec := decide(t, pairedRun(), nil)
		assert.Equal(t, AlignerBWAAln, dec.Aligner)
	})

	t.Run("long-read aligner at cycle threshold", func(t *testing.T) {
		rc := pairedRun()
		rc.CycleCounts = []int{101, 101}
		dec := decide(t, rc, nil)
		assert.Equal(t, AlignerBWAMem, dec.Aligner)
	})

	t.Run("long-read aligner just below threshold stays legacy", func(t *testing.T) {
		rc := pairedRun()
		rc.CycleCounts = []int{100, 100}
		dec := decide(t, rc, nil)
		assert.Equal(t, AlignerBWAAln, dec.Aligner)
	})

	t.Run("GCLP mode forces long-read aligner", func(t *testing.T) {
		rc := pairedRun()
		rc.GCLP = true
		dec := decide(t, rc, nil)
		assert.Equal(t, AlignerBWAMem, dec.Aligner)
	})

	t.Run("patterned flowcell forces long-read aligner", func(t *testing.T) {
		rc := pairedRun()
		rc.Chemistry = ChemistryPatterned
		dec := decide(t, rc, nil)
		assert.Equal(t, AlignerBWAMem, dec.Aligner)
	})

	t.Run("alt reference file overrides every other condition", func(t *testing.T) {
		dir := t.TempDir()
		ref := filepath.Join(dir, "hs38.fa")
		require.NoError(t, os.WriteFile(ref, []byte{}, 0o644))
		require.NoError(t, os.WriteFile(ref+".alt", []byte{}, 0o644))

		dec := decide(t, pairedRun(), func(r *fakeResolver) {
			r.refs["Homo_sapiens/GRCh38"] = []string{ref}
		})
		assert.True(t, dec.AltReference)
		assert.Equal(t, AlignerBWAMem, dec.Aligner)
	})
}

func TestBaitStats(t *testing.T) {
	t.Run("enabled when bait resolves and target alignment is on", func(t *testing.T) {
		e := NewEngine(humanResolver())
		d := humanDesc()
		d.BaitName = "Human_all_exon_V8"
		dec, err := e.Decide(context.Background(), d, pairedRun())
		require.NoError(t, err)
		assert.True(t, dec.BaitStats)
		assert.NotEmpty(t, dec.BaitPath)
	})

	t.Run("disabled when bait does not resolve", func(t *testing.T) {
		e := NewEngine(humanResolver())
		d := humanDesc()
		d.BaitName = "Unknown_panel"
		dec, err := e.Decide(context.Background(), d, pairedRun())
		require.NoError(t, err)
		assert.False(t, dec.BaitStats)
	})

	t.Run("disabled when target alignment is off", func(t *testing.T) {
		e := NewEngine(&fakeResolver{baits: map[string][]string{
			"Human_all_exon_V8/GRCh38": {"/baits/p.interval_list"},
		}})
		d := humanDesc()
		d.BaitName = "Human_all_exon_V8"
		dec, err := e.Decide(context.Background(), d, pairedRun())
		require.NoError(t, err)
		assert.False(t, dec.BaitStats)
	})
}

func TestSpikedPhiXScenario(t *testing.T) {
	// Lane 3, pool with tags {1,2}, tag 2 spiked, paired-end, human
	// reference, RNA-incompatible library, classic chemistry, 76 cycles.
	e := NewEngine(humanResolver())
	rc := pairedRun()

	tag1, tag2 := 1, 2
	for _, tc := range []struct {
		tag    *int
		spiked bool
	}{
		{&tag1, false},
		{&tag2, true},
	} {
		d := humanDesc()
		d.TagIndex = tc.tag
		d.Pooled = true
		d.SpikedPhiX = tc.spiked

		dec, err := e.Decide(context.Background(), d, rc)
		require.NoError(t, err)
		assert.Equal(t, AlignerBWAAln, dec.Aligner)
		assert.False(t, dec.RNAMode)
	}
}
