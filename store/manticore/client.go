// Package manticore implements store.Store over the ManticoreSearch HTTP
// interface. Schema management goes through /cli as raw SQL, document writes
// and deletes through /bulk as newline-delimited JSON actions, and similarity
// queries through /search as a knn request.
package manticore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/KamdynS/go-vecstore/store"
)

// Config holds Manticore connection details. BaseURL, Table and VectorField
// are fixed for the client's lifetime. Dimensions and Similarity only affect
// the CREATE TABLE emitted by Setup; the server enforces dimensionality on
// every write after that.
type Config struct {
	BaseURL     string
	Table       string
	VectorField string
	Dimensions  int
	Similarity  string
	Timeout     time.Duration

	// HTTPClient lets callers inject their own transport (pooling, TLS,
	// retries). When nil a default client with Timeout is used.
	HTTPClient *http.Client
}

// Client is a stateless Manticore vector store adapter. It is safe for
// sequential reuse across calls; any shared state lives in the injected HTTP
// client.
type Client struct {
	cfg    Config
	client *http.Client
}

const (
	defaultQueryLimit = 10

	// deleteChunkSize bounds the number of delete actions per /bulk request
	// to keep each payload within practical request-size limits.
	deleteChunkSize = 1000
)

// NewClient creates a Manticore adapter.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Table == "" {
		cfg.Table = "documents"
	}
	if cfg.VectorField == "" {
		cfg.VectorField = "embedding"
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = 1536
	}
	if cfg.Similarity == "" {
		cfg.Similarity = "cosine"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{cfg: cfg, client: hc}, nil
}

// cliOKPattern is the only success signal /cli gives for DDL statements.
var cliOKPattern = regexp.MustCompile(`Query OK, \d+ rows affected \([0-9.]+ sec\)`)

// Setup implements store.Store interface
func (c *Client) Setup(ctx context.Context, opts map[string]any) error {
	if err := store.ValidateOptions(opts); err != nil {
		return err
	}
	stmt := fmt.Sprintf(
		"CREATE TABLE %s (%s float_vector knn_type='hnsw' knn_dims='%d' hnsw_similarity='%s', metadata json)",
		c.cfg.Table, c.cfg.VectorField, c.cfg.Dimensions, c.cfg.Similarity,
	)
	return c.cli(ctx, stmt)
}

// Drop implements store.Store interface
func (c *Client) Drop(ctx context.Context) error {
	return c.cli(ctx, fmt.Sprintf("DROP TABLE %s", c.cfg.Table))
}

func (c *Client) cli(ctx context.Context, stmt string) error {
	url := c.cfg.BaseURL + "/cli"
	body, err := c.post(ctx, url, "text/plain", strings.NewReader(stmt))
	if err != nil {
		return err
	}
	if !cliOKPattern.Match(body) {
		return fmt.Errorf("manticore /cli: unexpected response: %s", truncate(string(body), 200))
	}
	return nil
}

type bulkAction struct {
	Table string         `json:"table"`
	ID    string         `json:"id"`
	Doc   map[string]any `json:"doc,omitempty"`
}

// Add implements store.Store interface. The whole batch goes out as one
// newline-delimited /bulk request regardless of size; only deletes are
// chunked.
func (c *Client) Add(ctx context.Context, docs []store.Document) error {
	if len(docs) == 0 {
		return nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, d := range docs {
		doc := map[string]any{c.cfg.VectorField: d.Embedding}
		if d.Metadata != nil {
			doc["metadata"] = d.Metadata
		}
		line := map[string]bulkAction{
			"insert": {Table: c.cfg.Table, ID: d.ID, Doc: doc},
		}
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("encode bulk insert: %w", err)
		}
	}
	_, err := c.post(ctx, c.cfg.BaseURL+"/bulk", "application/x-ndjson", &buf)
	return err
}

// Remove implements store.Store interface. Deletes are partitioned into
// chunks of at most deleteChunkSize identifiers and each chunk is its own
// /bulk request, issued strictly in order. A failing chunk aborts the rest;
// chunks already sent stay applied.
func (c *Client) Remove(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	for start := 0; start < len(ids); start += deleteChunkSize {
		end := start + deleteChunkSize
		if end > len(ids) {
			end = len(ids)
		}
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		for _, id := range ids[start:end] {
			line := map[string]bulkAction{
				"delete": {Table: c.cfg.Table, ID: id},
			}
			if err := enc.Encode(line); err != nil {
				return fmt.Errorf("encode bulk delete: %w", err)
			}
		}
		if _, err := c.post(ctx, c.cfg.BaseURL+"/bulk", "application/x-ndjson", &buf); err != nil {
			return err
		}
	}
	return nil
}

type knnClause struct {
	Field       string       `json:"field"`
	QueryVector store.Vector `json:"query_vector"`
	K           int          `json:"k"`
}

type searchRequest struct {
	Table string    `json:"table"`
	KNN   knnClause `json:"knn"`
}

type searchHit struct {
	ID     flexID         `json:"_id"`
	Score  float64        `json:"_score"`
	Source map[string]any `json:"_source"`
}

type searchResponse struct {
	Hits struct {
		Hits []searchHit `json:"hits"`
	} `json:"hits"`
}

// Query implements store.Store interface. The response is fetched in full
// before any document is produced; the returned slice is the server's
// similarity order, closest first.
func (c *Client) Query(ctx context.Context, vec store.Vector, opts store.QueryOptions) ([]store.Document, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	reqBody, err := json.Marshal(searchRequest{
		Table: c.cfg.Table,
		KNN:   knnClause{Field: c.cfg.VectorField, QueryVector: vec, K: limit},
	})
	if err != nil {
		return nil, fmt.Errorf("encode search request: %w", err)
	}
	url := c.cfg.BaseURL + "/search"
	body, err := c.post(ctx, url, "application/json", bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	docs := make([]store.Document, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		docs = append(docs, c.docFromHit(hit))
	}
	return docs, nil
}

// docFromHit rebuilds a Document from one response row: _id becomes the
// identifier, the configured vector field becomes the embedding, and the
// metadata sub-object is carried over when present.
func (c *Client) docFromHit(hit searchHit) store.Document {
	doc := store.Document{ID: string(hit.ID)}
	if raw, ok := hit.Source[c.cfg.VectorField]; ok {
		if vals, ok := raw.([]any); ok {
			vec := make(store.Vector, 0, len(vals))
			for _, v := range vals {
				if f, ok := v.(float64); ok {
					vec = append(vec, f)
				}
			}
			doc.Embedding = vec
		}
	}
	if raw, ok := hit.Source["metadata"]; ok {
		if meta, ok := raw.(map[string]any); ok {
			doc.Metadata = meta
		}
	}
	return doc
}

// post issues one request and returns the response body. A non-2xx status
// becomes a *store.RequestError carrying the status code and the exact URL;
// transport failures pass through wrapped, keeping their own semantics.
func (c *Client) post(ctx context.Context, url, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, store.NewRequestError(resp.StatusCode, url, truncate(string(respBody), 200))
	}
	return respBody, nil
}

// flexID decodes a hit identifier that the server may return as either a
// JSON string or a bare number.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexID(s)
		return nil
	}
	*f = flexID(bytes.TrimSpace(data))
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

var _ store.Store = (*Client)(nil)
