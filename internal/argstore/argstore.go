// Package argstore persists the per-index command mapping for one array
// submission. The manifest is written exactly once, named by the run-scoped
// root name plus the scheduler-assigned job id, and read back at execution
// time by each array task's wrapper.
package argstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/seqworks/lanesub/internal/jobindex"
)

// Manifest maps array-job indices to the literal command each task executes.
type Manifest struct {
	entries map[jobindex.Index]string
}

// New returns an empty manifest.
func New() *Manifest {
	return &Manifest{entries: make(map[jobindex.Index]string)}
}

// Add records the command for an index. A duplicate index means two
// descriptors collapsed onto one slot and is always a bug upstream.
func (m *Manifest) Add(idx jobindex.Index, cmd string) error {
	if _, dup := m.entries[idx]; dup {
		return fmt.Errorf("argstore: duplicate job index %s", idx)
	}
	m.entries[idx] = cmd
	return nil
}

// Len reports the number of slots.
func (m *Manifest) Len() int {
	return len(m.entries)
}

// Indexes returns the slot indices in ascending order, matching the array
// dimension ordering of the submission.
func (m *Manifest) Indexes() []jobindex.Index {
	out := make([]jobindex.Index, 0, len(m.entries))
	for idx := range m.entries {
		out = append(out, idx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Lookup returns the command stored for an index.
func (m *Manifest) Lookup(idx jobindex.Index) (string, bool) {
	cmd, ok := m.entries[idx]
	return cmd, ok
}

// FileName derives the manifest file name from the root name and job id.
// The job id is part of the name so each array task can discover the
// manifest from its own environment.
func FileName(root, jobID string) string {
	return fmt.Sprintf("%s_%s_args.json", root, jobID)
}

// Write serializes the whole manifest to dir in a single shot: the flat
// JSON object is staged in a temp file and renamed into place so consumers
// never observe a partial write.
func (m *Manifest) Write(dir, root, jobID string) (string, error) {
	flat := make(map[string]string, len(m.entries))
	for idx, cmd := range m.entries {
		flat[idx.String()] = cmd
	}
	raw, err := json.MarshalIndent(flat, "", "  ")
	if err != nil {
		return "", fmt.Errorf("argstore: encoding manifest: %w", err)
	}

	target := filepath.Join(dir, FileName(root, jobID))
	tmp, err := os.CreateTemp(dir, FileName(root, jobID)+".tmp*")
	if err != nil {
		return "", fmt.Errorf("argstore: staging manifest: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return "", fmt.Errorf("argstore: writing manifest: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("argstore: flushing manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("argstore: publishing manifest: %w", err)
	}
	return target, nil
}

// Load reads a manifest back. Used by the wrapper inside each array task;
// tasks only ever read, so concurrent loads need no locking.
func Load(dir, root, jobID string) (*Manifest, error) {
	raw, err := os.ReadFile(filepath.Join(dir, FileName(root, jobID)))
	if err != nil {
		return nil, fmt.Errorf("argstore: reading manifest: %w", err)
	}
	var flat map[string]string
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("argstore: decoding manifest: %w", err)
	}
	m := New()
	for key, cmd := range flat {
		var idx int
		if _, err := fmt.Sscanf(key, "%d", &idx); err != nil {
			return nil, fmt.Errorf("argstore: manifest key %q is not an index", key)
		}
		m.entries[jobindex.Index(idx)] = cmd
	}
	return m, nil
}
