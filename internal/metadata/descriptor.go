package metadata

import "fmt"

// Genome identifies a reference genome as species plus assembly build.
// The zero value means no reference is associated with the entity.
type Genome struct {
	Species string `yaml:"species" json:"species"`
	Build   string `yaml:"build" json:"build"`
}

// IsZero reports whether no reference genome is set.
func (g Genome) IsZero() bool {
	return g.Species == "" && g.Build == ""
}

// IsHuman reports whether the genome belongs to the human species.
func (g Genome) IsHuman() bool {
	return g.Species == "Homo_sapiens"
}

// Descriptor is the immutable per-lane or per-plex metadata record driving
// analysis decisions. Identity is (run id, position, tag index-or-absent);
// a nil TagIndex means the descriptor covers a whole lane.
type Descriptor struct {
	RunID    int
	Position int
	TagIndex *int

	LibraryType string
	Reference   Genome
	Pooled      bool

	// Contamination split flags. At most one may be set; the decision
	// engine enforces this.
	NonconsentedXYSplit    bool
	SeparateYChromosome    bool
	NonconsentedHumanSplit bool

	// SpikedPhiX is true iff this plex's tag equals the pool's designated
	// spike tag.
	SpikedPhiX bool

	AlignmentsRequested bool
	BaitName            string
}

// ID renders the lane/plex identity for diagnostics and output naming,
// e.g. "45678_3" for a lane and "45678_3#2" for a plex.
func (d Descriptor) ID() string {
	if d.TagIndex != nil {
		return fmt.Sprintf("%d_%d#%d", d.RunID, d.Position, *d.TagIndex)
	}
	return fmt.Sprintf("%d_%d", d.RunID, d.Position)
}

// Tag returns the tag index and whether one is present.
func (d Descriptor) Tag() (int, bool) {
	if d.TagIndex == nil {
		return 0, false
	}
	return *d.TagIndex, true
}
