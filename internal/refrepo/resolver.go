// Package refrepo resolves reference genome, transcriptome, and bait files
// from a conventionally laid out repository on a shared filesystem.
package refrepo

import "context"

// Kind selects what a query is looking for.
type Kind string

const (
	KindReference     Kind = "reference"
	KindTranscriptome Kind = "transcriptome"
	KindBaits         Kind = "baits"
)

// Query describes one resolution request. Species and Build select the
// genome; Aligner selects the index flavour for reference queries; BaitName
// selects the bait definition for bait queries.
type Query struct {
	Kind     Kind
	Species  string
	Build    string
	Aligner  string
	BaitName string
}

// Resolver resolves a query to zero, one, or many file paths. Zero paths
// means no match (the caller disables the dependent feature with a warning),
// more than one means the repository is ambiguous (the caller logs an error
// and treats the query as unmatched), and a non-nil error means the resolver
// itself failed.
type Resolver interface {
	Resolve(ctx context.Context, q Query) ([]string, error)
}
