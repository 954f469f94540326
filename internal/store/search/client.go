package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"go.uber.org/zap"

	"github.com/scirec/provisioner/internal/provision"
	"github.com/scirec/provisioner/internal/schema"
	"github.com/scirec/provisioner/pkg/config"
	"github.com/scirec/provisioner/pkg/logger"
)

// Client provisions and writes to the search/vector store. The index
// exclusively owns queryable vectors; the document store only records which
// model produced them.
type Client struct {
	es       *elasticsearch.Client
	specs    []schema.IndexSpec
	dims     int
	efSearch int
}

type Hit struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

func NewClient(cfg config.ElasticConfig, specs []schema.IndexSpec) (*Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	efSearch := cfg.EFSearch
	if efSearch <= 0 {
		efSearch = 100
	}

	logger.Info("Elasticsearch client initialized",
		zap.Strings("addresses", cfg.Addresses),
		zap.Int("vector_dim", cfg.VectorDim),
	)

	return &Client{
		es:       es,
		specs:    specs,
		dims:     cfg.VectorDim,
		efSearch: efSearch,
	}, nil
}

func (c *Client) Kind() string {
	return "elasticsearch"
}

// CheckReady accepts yellow-or-better health. Development clusters run a
// single node with zero replicas and never reach green.
func (c *Client) CheckReady(ctx context.Context) error {
	res, err := c.es.Cluster.Health(
		c.es.Cluster.Health.WithContext(ctx),
		c.es.Cluster.Health.WithWaitForStatus("yellow"),
		c.es.Cluster.Health.WithTimeout(2*time.Second),
	)
	if err != nil {
		return fmt.Errorf("cluster health: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("cluster health returned %s", res.Status())
	}

	var health struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(res.Body).Decode(&health); err != nil {
		return fmt.Errorf("failed to decode cluster health: %w", err)
	}
	if health.Status == "red" {
		return fmt.Errorf("cluster health is red")
	}
	return nil
}

func (c *Client) Structures() []string {
	names := make([]string, 0, len(c.specs))
	for _, s := range c.specs {
		names = append(names, s.Name)
	}
	return names
}

func (c *Client) Has(ctx context.Context, name string) (bool, error) {
	res, err := c.es.Indices.Exists([]string{name}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("failed to check index %s: %w", name, err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case 200:
		return true, nil
	case 404:
		return false, nil
	default:
		return false, fmt.Errorf("unexpected status %s checking index %s", res.Status(), name)
	}
}

func (c *Client) Create(ctx context.Context, name string) error {
	spec, err := c.spec(name)
	if err != nil {
		return err
	}

	body, err := spec.Body()
	if err != nil {
		return err
	}

	res, err := c.es.Indices.Create(name,
		c.es.Indices.Create.WithContext(ctx),
		c.es.Indices.Create.WithBody(strings.NewReader(body)),
	)
	if err != nil {
		return fmt.Errorf("failed to create index %s: %w", name, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index creation rejected for %s: %s", name, res.String())
	}
	return nil
}

func (c *Client) Drop(ctx context.Context, name string) error {
	res, err := c.es.Indices.Delete([]string{name},
		c.es.Indices.Delete.WithContext(ctx),
		c.es.Indices.Delete.WithIgnoreUnavailable(true),
	)
	if err != nil {
		return fmt.Errorf("failed to delete index %s: %w", name, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index deletion rejected for %s: %s", name, res.String())
	}
	return nil
}

func (c *Client) Count(ctx context.Context, name string) (int64, error) {
	res, err := c.es.Count(
		c.es.Count.WithContext(ctx),
		c.es.Count.WithIndex(name),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to count index %s: %w", name, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, fmt.Errorf("count rejected for %s: %s", name, res.Status())
	}

	var out struct {
		Count int64 `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("failed to decode count for %s: %w", name, err)
	}
	return out.Count, nil
}

// IndexVector writes one document with its embedding under the given ID.
// The ID must equal the document-store ID; it is the only join key between
// the two stores. A vector of the wrong length is rejected before any
// network round trip.
func (c *Client) IndexVector(ctx context.Context, index, id string, fields map[string]any, vec []float32) error {
	if len(vec) != c.dims {
		return fmt.Errorf("%w: got %d, index configured for %d", provision.ErrDimensionMismatch, len(vec), c.dims)
	}

	doc := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		doc[k] = v
	}
	doc["embedding"] = vec

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document %s: %w", id, err)
	}

	res, err := c.es.Index(index,
		bytes.NewReader(raw),
		c.es.Index.WithContext(ctx),
		c.es.Index.WithDocumentID(id),
		c.es.Index.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("failed to index document %s: %w", id, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("indexing rejected for %s: %s", id, res.String())
	}
	return nil
}

// GetVector reads an embedding back by ID.
func (c *Client) GetVector(ctx context.Context, index, id string) ([]float32, error) {
	res, err := c.es.Get(index, id, c.es.Get.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s: %w", id, err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		return nil, fmt.Errorf("document %s not found in %s", id, index)
	}
	if res.IsError() {
		return nil, fmt.Errorf("get rejected for %s: %s", id, res.Status())
	}

	var out struct {
		Source struct {
			Embedding []float32 `json:"embedding"`
		} `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", id, err)
	}
	return out.Source.Embedding, nil
}

// SearchSimilar runs an approximate nearest-neighbor query. The configured
// EFSearch becomes num_candidates: higher values trade latency for recall.
func (c *Client) SearchSimilar(ctx context.Context, index string, vec []float32, k int) ([]Hit, error) {
	if len(vec) != c.dims {
		return nil, fmt.Errorf("%w: got %d, index configured for %d", provision.ErrDimensionMismatch, len(vec), c.dims)
	}
	if k <= 0 {
		k = 10
	}

	numCandidates := c.efSearch
	if numCandidates < k {
		numCandidates = k
	}

	body := map[string]any{
		"knn": map[string]any{
			"field":          "embedding",
			"query_vector":   vec,
			"k":              k,
			"num_candidates": numCandidates,
		},
		"_source": false,
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal knn query: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(index),
		c.es.Search.WithBody(bytes.NewReader(raw)),
	)
	if err != nil {
		return nil, fmt.Errorf("knn search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("knn search rejected: %s", res.String())
	}

	var out struct {
		Hits struct {
			Hits []struct {
				ID    string  `json:"_id"`
				Score float64 `json:"_score"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode knn response: %w", err)
	}

	hits := make([]Hit, 0, len(out.Hits.Hits))
	for _, h := range out.Hits.Hits {
		hits = append(hits, Hit{ID: h.ID, Score: h.Score})
	}
	return hits, nil
}

func (c *Client) spec(name string) (schema.IndexSpec, error) {
	for _, s := range c.specs {
		if s.Name == name {
			return s, nil
		}
	}
	return schema.IndexSpec{}, fmt.Errorf("no index spec declared for %s", name)
}
