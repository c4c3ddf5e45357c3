// Package metadata defines the lane/plex descriptor model and the providers
// that obtain descriptors from a sample sheet or a LIMS service.
package metadata

import "context"

// Provider supplies descriptors for the requested positions of a run. A
// pooled lane yields one descriptor per plex; an unpooled lane yields a
// single lane-level descriptor.
type Provider interface {
	Descriptors(ctx context.Context, runID int, positions []int) ([]Descriptor, error)
}
