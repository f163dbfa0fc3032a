// Package pgvector implements store.Store on Postgres with the pgvector
// extension.
package pgvector

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/KamdynS/go-vecstore/store"
)

type Store struct {
	conn       *pgx.Conn
	table      string
	dimensions int
}

// New creates a pgvector-backed store. Dimensions is only used by Setup's
// CREATE TABLE.
func New(conn *pgx.Conn, table string, dimensions int) *Store {
	if table == "" {
		table = "documents"
	}
	if dimensions == 0 {
		dimensions = 1536
	}
	return &Store{conn: conn, table: table, dimensions: dimensions}
}

// Setup implements store.Store interface
func (s *Store) Setup(ctx context.Context, opts map[string]any) error {
	if err := store.ValidateOptions(opts); err != nil {
		return err
	}
	if _, err := s.conn.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("create extension: %w", err)
	}
	stmt := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (id text PRIMARY KEY, embedding vector(%d), metadata jsonb)",
		s.table, s.dimensions,
	)
	if _, err := s.conn.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	return nil
}

// Drop implements store.Store interface
func (s *Store) Drop(ctx context.Context) error {
	_, err := s.conn.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", s.table))
	return err
}

// Add implements store.Store interface. The whole batch goes out in one
// pgx.Batch round trip.
func (s *Store) Add(ctx context.Context, docs []store.Document) error {
	if len(docs) == 0 {
		return nil
	}
	stmt := fmt.Sprintf(
		"INSERT INTO %s (id, embedding, metadata) VALUES ($1, $2::vector, $3) ON CONFLICT (id) DO UPDATE SET embedding = excluded.embedding, metadata = excluded.metadata",
		s.table,
	)
	batch := &pgx.Batch{}
	for _, d := range docs {
		var meta []byte
		if d.Metadata != nil {
			b, err := json.Marshal(d.Metadata)
			if err != nil {
				return fmt.Errorf("encode metadata for %s: %w", d.ID, err)
			}
			meta = b
		}
		batch.Queue(stmt, d.ID, vectorLiteral(d.Embedding), meta)
	}
	return s.conn.SendBatch(ctx, batch).Close()
}

// Query implements store.Store interface
func (s *Store) Query(ctx context.Context, vec store.Vector, opts store.QueryOptions) ([]store.Document, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	stmt := fmt.Sprintf(
		"SELECT id, embedding::text, metadata FROM %s ORDER BY embedding <=> $1::vector LIMIT $2",
		s.table,
	)
	rows, err := s.conn.Query(ctx, stmt, vectorLiteral(vec), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []store.Document
	for rows.Next() {
		var (
			doc  store.Document
			text string
			meta []byte
		)
		if err := rows.Scan(&doc.ID, &text, &meta); err != nil {
			return nil, err
		}
		doc.Embedding, err = parseVectorLiteral(text)
		if err != nil {
			return nil, fmt.Errorf("row %s: %w", doc.ID, err)
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &doc.Metadata); err != nil {
				return nil, fmt.Errorf("row %s: decode metadata: %w", doc.ID, err)
			}
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// Remove implements store.Store interface
func (s *Store) Remove(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.conn.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ANY($1)", s.table), ids)
	return err
}

// vectorLiteral renders a vector in pgvector's text format, e.g. [0.1,0.2].
func vectorLiteral(v store.Vector) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	}
	b.WriteByte(']')
	return b.String()
}

func parseVectorLiteral(s string) (store.Vector, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil, fmt.Errorf("malformed vector literal %q", s)
	}
	inner := s[1 : len(s)-1]
	if inner == "" {
		return store.Vector{}, nil
	}
	parts := strings.Split(inner, ",")
	out := make(store.Vector, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("malformed vector literal %q: %w", s, err)
		}
		out = append(out, f)
	}
	return out, nil
}

var _ store.Store = (*Store)(nil)
