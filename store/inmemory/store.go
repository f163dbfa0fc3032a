package inmemory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/KamdynS/go-vecstore/store"
)

// Store is an in-process vector store. It keeps every document in a map and
// ranks queries by brute-force cosine similarity, which is fine for tests and
// small corpora.
type Store struct {
	mu   sync.RWMutex
	docs map[string]store.Document
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{docs: make(map[string]store.Document)}
}

// Setup implements store.Store interface
func (s *Store) Setup(ctx context.Context, opts map[string]any) error {
	if err := store.ValidateOptions(opts); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.docs == nil {
		s.docs = make(map[string]store.Document)
	}
	return nil
}

// Drop implements store.Store interface
func (s *Store) Drop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = make(map[string]store.Document)
	return nil
}

// Add implements store.Store interface
func (s *Store) Add(ctx context.Context, docs []store.Document) error {
	if len(docs) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range docs {
		d.Embedding = d.Embedding.Clone()
		s.docs[d.ID] = d
	}
	return nil
}

// Query implements store.Store interface
func (s *Store) Query(ctx context.Context, vec store.Vector, opts store.QueryOptions) ([]store.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		doc   store.Document
		score float64
	}
	results := make([]scored, 0, len(s.docs))
	for _, d := range s.docs {
		results = append(results, scored{doc: d, score: cosine(vec, d.Embedding)})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].score > results[j].score })

	limit := opts.Limit
	if limit <= 0 || limit > len(results) {
		limit = len(results)
	}
	out := make([]store.Document, 0, limit)
	for _, r := range results[:limit] {
		d := r.doc
		d.Embedding = d.Embedding.Clone()
		out = append(out, d)
	}
	return out, nil
}

// Remove implements store.Store interface
func (s *Store) Remove(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.docs, id)
	}
	return nil
}

// cosine computes cosine similarity; mismatched or zero vectors score 0.
func cosine(a, b store.Vector) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

var _ store.Store = (*Store)(nil)
