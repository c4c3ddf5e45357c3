// Package jobindex encodes lane and plex identity into scheduler array-job
// indices. Lane-level entities map to their position; plex-level entities map
// to position*10000+tag, which keeps the two spaces disjoint and makes the
// index a pure function of identity.
package jobindex

import "fmt"

// tagSpace is the number of array indices reserved per position for plex
// tags. Tag indices must fit in four decimal digits.
const tagSpace = 10000

// Index is a scheduler array-job index.
type Index int

// ForLane returns the array index for a lane-level entity.
func ForLane(position int) (Index, error) {
	if position < 1 {
		return 0, fmt.Errorf("jobindex: position %d is not a valid lane position", position)
	}
	return Index(position), nil
}

// ForPlex returns the array index for a plex-level entity.
func ForPlex(position, tag int) (Index, error) {
	if position < 1 {
		return 0, fmt.Errorf("jobindex: position %d is not a valid lane position", position)
	}
	if tag < 0 || tag >= tagSpace {
		return 0, fmt.Errorf("jobindex: tag index %d is outside the encodable range [0,%d)", tag, tagSpace)
	}
	return Index(position*tagSpace + tag), nil
}

// Position recovers the lane position an index was derived from.
func (i Index) Position() int {
	if i >= tagSpace {
		return int(i) / tagSpace
	}
	return int(i)
}

// String returns the decimal form used as the manifest key.
func (i Index) String() string {
	return fmt.Sprintf("%d", int(i))
}
