package manticore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/KamdynS/go-vecstore/store"
)

type recordedRequest struct {
	Path string
	Body string
}

// recorder captures every request the adapter sends so tests can assert on
// request counts and payload shape.
type recorder struct {
	mu       sync.Mutex
	requests []recordedRequest

	status int
	body   string
}

func (r *recorder) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		b, _ := io.ReadAll(req.Body)
		r.mu.Lock()
		r.requests = append(r.requests, recordedRequest{Path: req.URL.Path, Body: string(b)})
		r.mu.Unlock()
		if r.status != 0 {
			w.WriteHeader(r.status)
		}
		_, _ = w.Write([]byte(r.body))
	}
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.requests)
}

func (r *recorder) last() recordedRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.requests[len(r.requests)-1]
}

func newTestClient(t *testing.T, rec *recorder) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(rec.handler())
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{BaseURL: srv.URL, Table: "docs", VectorField: "vec", Dimensions: 3})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c, srv
}

const cliOK = "Query OK, 0 rows affected (0.001 sec)"

func TestSetupRejectsOptionsBeforeAnyRequest(t *testing.T) {
	rec := &recorder{body: cliOK}
	c, _ := newTestClient(t, rec)

	err := c.Setup(context.Background(), map[string]any{"shards": 4})
	if _, ok := store.IsConfigError(err); !ok {
		t.Fatalf("want ConfigError got %v", err)
	}
	if rec.count() != 0 {
		t.Fatalf("expected 0 requests, got %d", rec.count())
	}
}

func TestSetupEmitsCreateTable(t *testing.T) {
	rec := &recorder{body: cliOK}
	c, _ := newTestClient(t, rec)

	if err := c.Setup(context.Background(), nil); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if rec.count() != 1 {
		t.Fatalf("expected 1 request, got %d", rec.count())
	}
	got := rec.last()
	if got.Path != "/cli" {
		t.Fatalf("want /cli got %s", got.Path)
	}
	if !strings.Contains(got.Body, "CREATE TABLE docs") {
		t.Fatalf("missing create statement: %s", got.Body)
	}
	if !strings.Contains(got.Body, "vec float_vector") || !strings.Contains(got.Body, "knn_dims='3'") {
		t.Fatalf("vector field not declared: %s", got.Body)
	}
}

func TestDropEmitsDropTable(t *testing.T) {
	rec := &recorder{body: cliOK}
	c, _ := newTestClient(t, rec)

	if err := c.Drop(context.Background()); err != nil {
		t.Fatalf("drop: %v", err)
	}
	got := rec.last()
	if got.Path != "/cli" || !strings.Contains(got.Body, "DROP TABLE docs") {
		t.Fatalf("unexpected request: %+v", got)
	}
}

func TestCLIUnexpectedBodyFails(t *testing.T) {
	rec := &recorder{body: "ERROR 1064: syntax error"}
	c, _ := newTestClient(t, rec)

	if err := c.Setup(context.Background(), nil); err == nil {
		t.Fatal("expected error for non-OK cli body")
	}
	if err := c.Drop(context.Background()); err == nil {
		t.Fatal("expected error for non-OK cli body")
	}
}

func TestRequestErrorCarriesStatusAndURL(t *testing.T) {
	for _, tc := range []struct {
		name string
		path string
		call func(c *Client) error
	}{
		{"setup", "/cli", func(c *Client) error { return c.Setup(context.Background(), nil) }},
		{"drop", "/cli", func(c *Client) error { return c.Drop(context.Background()) }},
		{"add", "/bulk", func(c *Client) error {
			return c.Add(context.Background(), []store.Document{{ID: "a", Embedding: store.Vector{1}}})
		}},
		{"query", "/search", func(c *Client) error {
			_, err := c.Query(context.Background(), store.Vector{1}, store.QueryOptions{})
			return err
		}},
		{"remove", "/bulk", func(c *Client) error { return c.Remove(context.Background(), "a") }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rec := &recorder{status: http.StatusServiceUnavailable, body: "unavailable"}
			c, srv := newTestClient(t, rec)

			err := tc.call(c)
			re, ok := store.IsRequestError(err)
			if !ok {
				t.Fatalf("want RequestError got %v", err)
			}
			if re.StatusCode != http.StatusServiceUnavailable {
				t.Fatalf("want 503 got %d", re.StatusCode)
			}
			if re.URL != srv.URL+tc.path {
				t.Fatalf("want %s got %s", srv.URL+tc.path, re.URL)
			}
			if rec.count() != 1 {
				t.Fatalf("expected exactly 1 request, got %d", rec.count())
			}
		})
	}
}

func TestAddEmptyIsNoRequest(t *testing.T) {
	rec := &recorder{}
	c, _ := newTestClient(t, rec)

	if err := c.Add(context.Background(), nil); err != nil {
		t.Fatalf("add empty: %v", err)
	}
	if rec.count() != 0 {
		t.Fatalf("expected 0 requests, got %d", rec.count())
	}
}

func TestAddSendsOneBulkRequest(t *testing.T) {
	rec := &recorder{body: `{"items":[],"errors":false}`}
	c, _ := newTestClient(t, rec)

	docs := []store.Document{
		{ID: "id-1", Embedding: store.Vector{0.1, 0.2, 0.3}, Metadata: map[string]any{"lang": "en"}},
		{ID: "id-2", Embedding: store.Vector{0.4, 0.5, 0.6}},
	}
	if err := c.Add(context.Background(), docs); err != nil {
		t.Fatalf("add: %v", err)
	}
	if rec.count() != 1 {
		t.Fatalf("expected 1 request, got %d", rec.count())
	}
	got := rec.last()
	if got.Path != "/bulk" {
		t.Fatalf("want /bulk got %s", got.Path)
	}
	lines := strings.Split(strings.TrimSpace(got.Body), "\n")
	if len(lines) != 2 {
		t.Fatalf("want 2 bulk actions, got %d", len(lines))
	}
	var first struct {
		Insert struct {
			Table string         `json:"table"`
			ID    string         `json:"id"`
			Doc   map[string]any `json:"doc"`
		} `json:"insert"`
	}
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("decode line: %v", err)
	}
	if first.Insert.Table != "docs" || first.Insert.ID != "id-1" {
		t.Fatalf("unexpected action header: %+v", first.Insert)
	}
	if _, ok := first.Insert.Doc["vec"]; !ok {
		t.Fatalf("embedding not mapped to configured field: %+v", first.Insert.Doc)
	}
	meta, ok := first.Insert.Doc["metadata"].(map[string]any)
	if !ok || meta["lang"] != "en" {
		t.Fatalf("metadata not nested: %+v", first.Insert.Doc)
	}
}

func searchBody(hits ...string) string {
	return fmt.Sprintf(`{"took":1,"timed_out":false,"hits":{"total":%d,"hits":[%s]}}`,
		len(hits), strings.Join(hits, ","))
}

func TestQueryReconstructsDocumentsInOrder(t *testing.T) {
	rec := &recorder{body: searchBody(
		`{"_id":"id-1","_score":1.0,"_knn_dist":0.01,"_source":{"vec":[0.1,0.2],"metadata":{"lang":"en"}}}`,
		`{"_id":2,"_score":0.8,"_knn_dist":0.2,"_source":{"vec":[0.3,0.4]}}`,
	)}
	c, _ := newTestClient(t, rec)

	docs, err := c.Query(context.Background(), store.Vector{0.1, 0.2}, store.QueryOptions{Limit: 5})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("want 2 docs got %d", len(docs))
	}
	if docs[0].ID != "id-1" || docs[1].ID != "2" {
		t.Fatalf("order or ids wrong: %s, %s", docs[0].ID, docs[1].ID)
	}
	if len(docs[0].Embedding) != 2 || docs[0].Embedding[1] != 0.2 {
		t.Fatalf("embedding wrong: %v", docs[0].Embedding)
	}
	if docs[0].Metadata["lang"] != "en" {
		t.Fatalf("metadata wrong: %+v", docs[0].Metadata)
	}
	if docs[1].Metadata != nil {
		t.Fatalf("absent metadata should stay nil: %+v", docs[1].Metadata)
	}

	var req struct {
		Table string `json:"table"`
		KNN   struct {
			Field       string    `json:"field"`
			QueryVector []float64 `json:"query_vector"`
			K           int       `json:"k"`
		} `json:"knn"`
	}
	if err := json.Unmarshal([]byte(rec.last().Body), &req); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	if req.Table != "docs" || req.KNN.Field != "vec" || req.KNN.K != 5 {
		t.Fatalf("unexpected search request: %+v", req)
	}
}

func TestQueryEmptyHits(t *testing.T) {
	rec := &recorder{body: searchBody()}
	c, _ := newTestClient(t, rec)

	docs, err := c.Query(context.Background(), store.Vector{1, 0}, store.QueryOptions{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("want 0 docs got %d", len(docs))
	}
}

func TestRemoveEmptyIsNoRequest(t *testing.T) {
	rec := &recorder{}
	c, _ := newTestClient(t, rec)

	if err := c.Remove(context.Background()); err != nil {
		t.Fatalf("remove empty: %v", err)
	}
	if rec.count() != 0 {
		t.Fatalf("expected 0 requests, got %d", rec.count())
	}
}

func TestRemoveChunking(t *testing.T) {
	for _, tc := range []struct {
		ids      int
		requests int
	}{
		{1, 1},
		{3, 1},
		{1000, 1},
		{1001, 2},
		{2500, 3},
	} {
		t.Run(fmt.Sprintf("%d_ids", tc.ids), func(t *testing.T) {
			rec := &recorder{body: `{"items":[],"errors":false}`}
			c, _ := newTestClient(t, rec)

			ids := make([]string, tc.ids)
			for i := range ids {
				ids[i] = fmt.Sprintf("id-%d", i)
			}
			if err := c.Remove(context.Background(), ids...); err != nil {
				t.Fatalf("remove: %v", err)
			}
			if rec.count() != tc.requests {
				t.Fatalf("want %d requests got %d", tc.requests, rec.count())
			}
			total := 0
			for _, r := range rec.requests {
				if r.Path != "/bulk" {
					t.Fatalf("want /bulk got %s", r.Path)
				}
				total += len(strings.Split(strings.TrimSpace(r.Body), "\n"))
			}
			if total != tc.ids {
				t.Fatalf("want %d delete actions got %d", tc.ids, total)
			}
		})
	}
}

func TestRemoveDeleteActionShape(t *testing.T) {
	rec := &recorder{body: `{"items":[],"errors":false}`}
	c, _ := newTestClient(t, rec)

	if err := c.Remove(context.Background(), "id-9"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	var action struct {
		Delete struct {
			Table string `json:"table"`
			ID    string `json:"id"`
		} `json:"delete"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(rec.last().Body)), &action); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if action.Delete.Table != "docs" || action.Delete.ID != "id-9" {
		t.Fatalf("unexpected delete action: %+v", action.Delete)
	}
}

// Round-trip against a mock server that remembers what was inserted and
// replays it from /search.
func TestAddQueryRoundTrip(t *testing.T) {
	var inserted []store.Document
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		b, _ := io.ReadAll(req.Body)
		switch req.URL.Path {
		case "/bulk":
			for _, line := range strings.Split(strings.TrimSpace(string(b)), "\n") {
				var action struct {
					Insert struct {
						ID  string         `json:"id"`
						Doc map[string]any `json:"doc"`
					} `json:"insert"`
				}
				if err := json.Unmarshal([]byte(line), &action); err != nil {
					t.Errorf("bad bulk line: %v", err)
					continue
				}
				doc := store.Document{ID: action.Insert.ID}
				if vals, ok := action.Insert.Doc["vec"].([]any); ok {
					for _, v := range vals {
						doc.Embedding = append(doc.Embedding, v.(float64))
					}
				}
				inserted = append(inserted, doc)
			}
			_, _ = w.Write([]byte(`{"items":[],"errors":false}`))
		case "/search":
			hits := make([]string, 0, len(inserted))
			for _, d := range inserted {
				vec, _ := json.Marshal(d.Embedding)
				hits = append(hits, fmt.Sprintf(`{"_id":%q,"_score":1.0,"_source":{"vec":%s}}`, d.ID, vec))
			}
			_, _ = w.Write([]byte(searchBody(hits...)))
		default:
			t.Errorf("unexpected path %s", req.URL.Path)
		}
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL, Table: "docs", VectorField: "vec"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	want := store.Document{ID: "doc-42", Embedding: store.Vector{0.5, 0.25, 0.125}}
	if err := c.Add(context.Background(), []store.Document{want}); err != nil {
		t.Fatalf("add: %v", err)
	}
	got, err := c.Query(context.Background(), want.Embedding, store.QueryOptions{Limit: 1})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 1 || got[0].ID != want.ID {
		t.Fatalf("round trip lost identity: %+v", got)
	}
	for i := range want.Embedding {
		if got[0].Embedding[i] != want.Embedding[i] {
			t.Fatalf("round trip lost embedding: %v vs %v", got[0].Embedding, want.Embedding)
		}
	}
}

func TestNewClientDefaultsAndValidation(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("expected error for missing base URL")
	}
	c, err := NewClient(Config{BaseURL: "http://localhost:9308/"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if c.cfg.Table != "documents" || c.cfg.VectorField != "embedding" {
		t.Fatalf("defaults not applied: %+v", c.cfg)
	}
	if c.cfg.BaseURL != "http://localhost:9308" {
		t.Fatalf("trailing slash kept: %s", c.cfg.BaseURL)
	}
}
