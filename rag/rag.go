// Package rag provides chunking, indexing and retrieval helpers on top of a
// vector store and an embedder.
package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/KamdynS/go-vecstore/embed"
	"github.com/KamdynS/go-vecstore/store"
)

// Chunk splits text into roughly fixed-size chunks by byte count with simple
// paragraph awareness.
func Chunk(text string, approxChunkSize int) []string {
	if approxChunkSize <= 0 {
		approxChunkSize = 1200
	}
	paras := strings.Split(text, "\n\n")
	var chunks []string
	var cur strings.Builder
	for _, p := range paras {
		if cur.Len()+len(p) > approxChunkSize && cur.Len() > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
		if len(p) > approxChunkSize {
			// Hard split long paragraph
			for i := 0; i < len(p); i += approxChunkSize {
				end := i + approxChunkSize
				if end > len(p) {
					end = len(p)
				}
				if cur.Len() > 0 {
					chunks = append(chunks, cur.String())
					cur.Reset()
				}
				chunks = append(chunks, p[i:end])
			}
			continue
		}
		if cur.Len() > 0 {
			cur.WriteString("\n\n")
		}
		cur.WriteString(p)
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}

// Index chunks and embeds each source text and upserts the chunks into the
// store as one batch. Chunk identifiers are "<id>#<n>"; the chunk text and
// its source id travel in document metadata.
func Index(ctx context.Context, s store.Store, emb embed.Embedder, docs map[string]string) error {
	var batch []store.Document
	for id, content := range docs {
		for i, ch := range Chunk(content, 1200) {
			cid := fmt.Sprintf("%s#%d", id, i)
			vec, err := emb.Embed(ctx, ch)
			if err != nil {
				return fmt.Errorf("embed %s: %w", cid, err)
			}
			batch = append(batch, store.Document{
				ID:        cid,
				Embedding: vec,
				Metadata:  map[string]any{"content": ch, "source": id},
			})
		}
	}
	if err := s.Add(ctx, batch); err != nil {
		return fmt.Errorf("upsert chunks: %w", err)
	}
	return nil
}

// Retrieve embeds the question and returns the topK closest documents.
func Retrieve(ctx context.Context, s store.Store, emb embed.Embedder, question string, topK int) ([]store.Document, error) {
	if topK <= 0 {
		topK = 5
	}
	qvec, err := emb.Embed(ctx, question)
	if err != nil {
		return nil, err
	}
	return s.Query(ctx, qvec, store.QueryOptions{Limit: topK})
}

// BuildContext formats retrieved docs into a context string for prompts.
func BuildContext(docs []store.Document) string {
	var b strings.Builder
	for i, d := range docs {
		content, _ := d.Metadata["content"].(string)
		fmt.Fprintf(&b, "[D%d]\n%s\n\n", i+1, strings.TrimSpace(content))
	}
	return b.String()
}
