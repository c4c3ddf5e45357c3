package refrepo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/seqworks/lanesub/internal/ctxlog"
)

// Repository is the filesystem Resolver. The expected layout is
//
//	<root>/references/<species>/<build>/all/<aligner>/*.fa
//	<root>/transcriptomes/<species>/<build>/star
//	<root>/baits/<bait name>/<build>/*.interval_list
type Repository struct {
	Root string
}

// NewRepository validates that the root exists and returns a Repository.
func NewRepository(root string) (*Repository, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("repository root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("repository root %s is not a directory", root)
	}
	return &Repository{Root: root}, nil
}

// Resolve implements Resolver.
func (r *Repository) Resolve(ctx context.Context, q Query) ([]string, error) {
	logger := ctxlog.FromContext(ctx)

	var pattern string
	switch q.Kind {
	case KindReference:
		if q.Species == "" || q.Build == "" || q.Aligner == "" {
			return nil, nil
		}
		pattern = filepath.Join(r.Root, "references", q.Species, q.Build, "all", q.Aligner, "*.fa")
	case KindTranscriptome:
		if q.Species == "" || q.Build == "" {
			return nil, nil
		}
		dir := filepath.Join(r.Root, "transcriptomes", q.Species, q.Build, "star")
		info, err := os.Stat(dir)
		if os.IsNotExist(err) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("transcriptome lookup: %w", err)
		}
		if !info.IsDir() {
			return nil, nil
		}
		return []string{dir}, nil
	case KindBaits:
		if q.BaitName == "" || q.Build == "" {
			return nil, nil
		}
		pattern = filepath.Join(r.Root, "baits", q.BaitName, q.Build, "*.interval_list")
	default:
		return nil, fmt.Errorf("unknown query kind %q", q.Kind)
	}

	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("scanning repository: %w", err)
	}
	logger.Debug("repository query", "kind", string(q.Kind), "pattern", pattern, "matches", len(paths))
	return paths, nil
}

// HasAltFile reports whether an alternate-allele contig indicator sits
// alongside the resolved reference. Its presence forces the long-read
// capable aligner.
func HasAltFile(refPath string) bool {
	_, err := os.Stat(refPath + ".alt")
	return err == nil
}
