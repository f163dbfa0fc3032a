// Package embed turns text into vectors for indexing and querying.
package embed

import (
	"context"

	"github.com/KamdynS/go-vecstore/store"
)

// Embedder provides text embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (store.Vector, error)
}
