package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/KamdynS/go-vecstore/store"
)

// loadDocuments reads a JSON array of documents from path ("-" for stdin) and
// assigns a fresh UUID to any document without an id. ID assignment happens
// here so the store adapter keeps its caller-assigns-identifiers contract.
func loadDocuments(path string) ([]store.Document, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var docs []store.Document
	if err := json.NewDecoder(r).Decode(&docs); err != nil {
		return nil, fmt.Errorf("decode documents: %w", err)
	}
	for i := range docs {
		if docs[i].ID == "" {
			docs[i].ID = uuid.NewString()
		}
		if len(docs[i].Embedding) == 0 {
			return nil, fmt.Errorf("document %d (%s) has no embedding", i, docs[i].ID)
		}
	}
	return docs, nil
}

// parseVector parses a comma-separated float list, e.g. "0.1,0.2,0.3".
func parseVector(s string) (store.Vector, error) {
	parts := strings.Split(s, ",")
	out := make(store.Vector, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("bad component %q", p)
		}
		out = append(out, f)
	}
	return out, nil
}
