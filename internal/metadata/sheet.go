package metadata

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/seqworks/lanesub/internal/ctxlog"
)

// sheetFile is the YAML document layout of a sample sheet.
type sheetFile struct {
	Run   int         `yaml:"run"`
	Lanes []sheetLane `yaml:"lanes"`
}

type sheetLane struct {
	Position int         `yaml:"position"`
	Pooled   bool        `yaml:"pooled"`
	SpikeTag *int        `yaml:"spike_tag"`
	Plexes   []sheetPlex `yaml:"plexes"`
	sheetSample `yaml:",inline"`
}

type sheetPlex struct {
	Tag         int `yaml:"tag"`
	sheetSample `yaml:",inline"`
}

// sheetSample holds the fields shared by lane and plex entries. Plex entries
// inherit the lane value for any field they leave unset.
type sheetSample struct {
	LibraryType            string `yaml:"library_type"`
	Reference              Genome `yaml:"reference"`
	Alignments             *bool  `yaml:"alignments"`
	BaitName               string `yaml:"bait"`
	NonconsentedXYSplit    bool   `yaml:"nonconsented_xy_split"`
	SeparateYChromosome    bool   `yaml:"separate_y_chromosome"`
	NonconsentedHumanSplit bool   `yaml:"nonconsented_human_split"`
}

// SheetSource reads descriptors from a YAML sample sheet. It exists for
// offline runs and tests; production runs use the LIMS client.
type SheetSource struct {
	Path string
}

// Descriptors implements Provider.
func (s *SheetSource) Descriptors(ctx context.Context, runID int, positions []int) ([]Descriptor, error) {
	logger := ctxlog.FromContext(ctx)

	raw, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("reading sample sheet: %w", err)
	}
	var sheet sheetFile
	if err := yaml.Unmarshal(raw, &sheet); err != nil {
		return nil, fmt.Errorf("parsing sample sheet %s: %w", s.Path, err)
	}
	if sheet.Run != runID {
		return nil, fmt.Errorf("sample sheet %s describes run %d, not run %d", s.Path, sheet.Run, runID)
	}

	wanted := make(map[int]bool, len(positions))
	for _, p := range positions {
		wanted[p] = true
	}

	var out []Descriptor
	for _, lane := range sheet.Lanes {
		if !wanted[lane.Position] {
			continue
		}
		if !lane.Pooled {
			out = append(out, lane.descriptor(runID))
			continue
		}
		for _, plex := range lane.Plexes {
			out = append(out, plex.descriptor(runID, lane))
		}
		logger.Debug("expanded pooled lane", "position", lane.Position, "plexes", len(lane.Plexes))
	}
	return out, nil
}

func (l sheetLane) descriptor(runID int) Descriptor {
	return Descriptor{
		RunID:                  runID,
		Position:               l.Position,
		LibraryType:            l.LibraryType,
		Reference:              l.Reference,
		Pooled:                 false,
		NonconsentedXYSplit:    l.NonconsentedXYSplit,
		SeparateYChromosome:    l.SeparateYChromosome,
		NonconsentedHumanSplit: l.NonconsentedHumanSplit,
		AlignmentsRequested:    l.Alignments == nil || *l.Alignments,
		BaitName:               l.BaitName,
	}
}

func (p sheetPlex) descriptor(runID int, lane sheetLane) Descriptor {
	tag := p.Tag
	s := p.sheetSample
	if s.LibraryType == "" {
		s.LibraryType = lane.LibraryType
	}
	if s.Reference.IsZero() {
		s.Reference = lane.Reference
	}
	if s.Alignments == nil {
		s.Alignments = lane.Alignments
	}
	if s.BaitName == "" {
		s.BaitName = lane.BaitName
	}
	return Descriptor{
		RunID:                  runID,
		Position:               lane.Position,
		TagIndex:               &tag,
		LibraryType:            s.LibraryType,
		Reference:              s.Reference,
		Pooled:                 true,
		NonconsentedXYSplit:    s.NonconsentedXYSplit,
		SeparateYChromosome:    s.SeparateYChromosome,
		NonconsentedHumanSplit: s.NonconsentedHumanSplit,
		SpikedPhiX:             lane.SpikeTag != nil && *lane.SpikeTag == tag,
		AlignmentsRequested:    s.Alignments == nil || *s.Alignments,
		BaitName:               s.BaitName,
	}
}
