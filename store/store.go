package store

import "context"

// Vector is an ordered embedding. Adapters treat it as immutable: a Vector
// handed to Add or Query is never modified, and vectors returned from Query
// do not alias adapter-internal state.
type Vector []float64

// Clone returns an independent copy of the vector.
func (v Vector) Clone() Vector {
	if v == nil {
		return nil
	}
	out := make(Vector, len(v))
	copy(out, v)
	return out
}

// Document is a stored embedding with its caller-assigned identifier and
// optional metadata. Adapters never generate identifiers; the caller assigns
// them before submission.
type Document struct {
	ID        string         `json:"id"`
	Embedding Vector         `json:"embedding"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// QueryOptions holds the recognized knobs for similarity queries. The set of
// fields is closed; backends reject anything they cannot honor at the
// boundary instead of ignoring it.
type QueryOptions struct {
	// Limit caps the number of returned documents. Zero means the backend
	// default.
	Limit int
}

// Store is the interface all vector store backends implement.
//
// Query results are fetched eagerly and returned as a slice in the backend's
// similarity order, closest first. No incremental delivery happens under the
// hood, so none is implied by the API.
type Store interface {
	// Setup creates the backing table/index. The options map is free-form at
	// the boundary; backends reject unknown keys with a *ConfigError before
	// performing any I/O.
	Setup(ctx context.Context, opts map[string]any) error

	// Drop removes the backing table/index and all documents in it.
	Drop(ctx context.Context) error

	// Add upserts the given documents. An empty slice is a no-op and performs
	// no I/O.
	Add(ctx context.Context, docs []Document) error

	// Query returns the documents nearest to vec, closest first.
	Query(ctx context.Context, vec Vector, opts QueryOptions) ([]Document, error)

	// Remove deletes documents by identifier. An empty list is a no-op and
	// performs no I/O.
	Remove(ctx context.Context, ids ...string) error
}
