package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/seqworks/lanesub/internal/ctxlog"
)

// limsLane mirrors the JSON payload returned by the LIMS for one position.
type limsLane struct {
	Position int        `json:"position"`
	Pooled   bool       `json:"pooled"`
	SpikeTag *int       `json:"spike_tag"`
	Plexes   []limsPlex `json:"plexes"`
	limsSample
}

type limsPlex struct {
	Tag int `json:"tag"`
	limsSample
}

type limsSample struct {
	LibraryType            string `json:"library_type"`
	Reference              Genome `json:"reference"`
	Alignments             bool   `json:"alignments"`
	BaitName               string `json:"bait"`
	NonconsentedXYSplit    bool   `json:"nonconsented_xy_split"`
	SeparateYChromosome    bool   `json:"separate_y_chromosome"`
	NonconsentedHumanSplit bool   `json:"nonconsented_human_split"`
}

// LIMSClient fetches descriptors from the laboratory information system over
// HTTP. One GET per requested position.
type LIMSClient struct {
	BaseURL string
	HTTP    *http.Client
}

// NewLIMSClient returns a client with a bounded request timeout.
func NewLIMSClient(baseURL string) *LIMSClient {
	return &LIMSClient{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Descriptors implements Provider.
func (c *LIMSClient) Descriptors(ctx context.Context, runID int, positions []int) ([]Descriptor, error) {
	logger := ctxlog.FromContext(ctx)

	var out []Descriptor
	for _, pos := range positions {
		lane, err := c.fetchLane(ctx, runID, pos)
		if err != nil {
			return nil, err
		}
		if !lane.Pooled {
			out = append(out, lane.descriptor(runID))
			continue
		}
		for _, plex := range lane.Plexes {
			out = append(out, plex.descriptor(runID, lane))
		}
		logger.Debug("fetched pooled lane from LIMS", "position", pos, "plexes", len(lane.Plexes))
	}
	return out, nil
}

func (c *LIMSClient) fetchLane(ctx context.Context, runID, position int) (limsLane, error) {
	var lane limsLane

	u, err := url.JoinPath(c.BaseURL, "runs", fmt.Sprint(runID), "positions", fmt.Sprint(position))
	if err != nil {
		return lane, fmt.Errorf("building LIMS URL: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return lane, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return lane, fmt.Errorf("querying LIMS for %d:%d: %w", runID, position, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return lane, fmt.Errorf("LIMS returned %s for %d:%d", resp.Status, runID, position)
	}
	if err := json.NewDecoder(resp.Body).Decode(&lane); err != nil {
		return lane, fmt.Errorf("decoding LIMS payload for %d:%d: %w", runID, position, err)
	}
	return lane, nil
}

func (l limsLane) descriptor(runID int) Descriptor {
	return Descriptor{
		RunID:                  runID,
		Position:               l.Position,
		LibraryType:            l.LibraryType,
		Reference:              l.Reference,
		NonconsentedXYSplit:    l.NonconsentedXYSplit,
		SeparateYChromosome:    l.SeparateYChromosome,
		NonconsentedHumanSplit: l.NonconsentedHumanSplit,
		AlignmentsRequested:    l.Alignments,
		BaitName:               l.BaitName,
	}
}

func (p limsPlex) descriptor(runID int, lane limsLane) Descriptor {
	tag := p.Tag
	return Descriptor{
		RunID:                  runID,
		Position:               lane.Position,
		TagIndex:               &tag,
		LibraryType:            p.LibraryType,
		Reference:              p.Reference,
		Pooled:                 true,
		NonconsentedXYSplit:    p.NonconsentedXYSplit,
		SeparateYChromosome:    p.SeparateYChromosome,
		NonconsentedHumanSplit: p.NonconsentedHumanSplit,
		SpikedPhiX:             lane.SpikeTag != nil && *lane.SpikeTag == tag,
		AlignmentsRequested:    p.Alignments,
		BaitName:               p.BaitName,
	}
}
