package schema

import (
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// Metric is the distance metric of a vector field. Cosine is the platform
// default: embedding magnitude tracks text length, not topical relevance.
type Metric string

const (
	MetricCosine    Metric = "cosine"
	MetricEuclidean Metric = "euclidean"
	MetricDot       Metric = "dot"
)

func (m Metric) valid() bool {
	switch m {
	case MetricCosine, MetricEuclidean, MetricDot:
		return true
	}
	return false
}

// elastic maps the logical metric onto the dense_vector similarity name.
func (m Metric) elastic() string {
	switch m {
	case MetricEuclidean:
		return "l2_norm"
	case MetricDot:
		return "dot_product"
	default:
		return "cosine"
	}
}

type FieldType string

const (
	FieldKeyword FieldType = "keyword"
	FieldText    FieldType = "text"
	FieldDate    FieldType = "date"
	FieldInteger FieldType = "integer"
	FieldFloat   FieldType = "float"
	FieldBoolean FieldType = "boolean"
)

type Field struct {
	Name string
	Type FieldType
}

// VectorParams configures the HNSW graph behind a dense_vector field.
// M and EFConstruction trade index build time for graph quality; EFSearch
// trades query latency for recall and is applied per query, not baked into
// the index.
type VectorParams struct {
	Dims           int
	Metric         Metric
	M              int
	EFConstruction int
	EFSearch       int
}

func DefaultVectorParams(dims int) VectorParams {
	return VectorParams{
		Dims:           dims,
		Metric:         MetricCosine,
		M:              16,
		EFConstruction: 100,
		EFSearch:       100,
	}
}

func (p VectorParams) Validate() error {
	if p.Dims <= 0 {
		return fmt.Errorf("vector dims must be positive, got %d", p.Dims)
	}
	if !p.Metric.valid() {
		return fmt.Errorf("unknown vector metric %q", p.Metric)
	}
	if p.M <= 0 {
		return fmt.Errorf("hnsw m must be positive, got %d", p.M)
	}
	if p.EFConstruction <= 0 {
		return fmt.Errorf("hnsw ef_construction must be positive, got %d", p.EFConstruction)
	}
	if p.EFSearch <= 0 {
		return fmt.Errorf("ef_search must be positive, got %d", p.EFSearch)
	}
	return nil
}

// IndexSpec declares one search index: analyzed and exact-match fields plus
// at most one vector field. Replicas default to zero; replica count is a
// deployment concern, so a single-node cluster reports yellow health and
// that is accepted as ready.
type IndexSpec struct {
	Name        string
	Shards      int
	Replicas    int
	Fields      []Field
	VectorField string
	Vector      VectorParams
}

func (s IndexSpec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("index name must not be empty")
	}
	if s.Shards < 1 {
		return fmt.Errorf("index %s: shards must be >= 1, got %d", s.Name, s.Shards)
	}
	if s.Replicas < 0 {
		return fmt.Errorf("index %s: replicas must be >= 0, got %d", s.Name, s.Replicas)
	}
	if s.VectorField != "" {
		if err := s.Vector.Validate(); err != nil {
			return fmt.Errorf("index %s: %w", s.Name, err)
		}
	}
	for _, f := range s.Fields {
		if f.Name == "" {
			return fmt.Errorf("index %s: field with empty name", s.Name)
		}
	}
	return nil
}

// Body renders the index creation request. Free-text fields share one
// analysis chain (lowercase, diacritic folding, english stopwords, stemming)
// and carry a "raw" keyword sub-field for sorting and aggregations.
func (s IndexSpec) Body() (string, error) {
	properties := make(map[string]any, len(s.Fields)+1)
	for _, f := range s.Fields {
		switch f.Type {
		case FieldText:
			properties[f.Name] = map[string]any{
				"type":     "text",
				"analyzer": "scientific_text",
				"fields": map[string]any{
					"raw": map[string]any{"type": "keyword"},
				},
			}
		default:
			properties[f.Name] = map[string]any{"type": string(f.Type)}
		}
	}
	if s.VectorField != "" {
		properties[s.VectorField] = map[string]any{
			"type":       "dense_vector",
			"dims":       s.Vector.Dims,
			"index":      true,
			"similarity": s.Vector.Metric.elastic(),
			"index_options": map[string]any{
				"type":            "hnsw",
				"m":               s.Vector.M,
				"ef_construction": s.Vector.EFConstruction,
			},
		}
	}

	body := map[string]any{
		"settings": map[string]any{
			"number_of_shards":   s.Shards,
			"number_of_replicas": s.Replicas,
			"analysis": map[string]any{
				"filter": map[string]any{
					"english_stop": map[string]any{
						"type":      "stop",
						"stopwords": "_english_",
					},
					"english_stemmer": map[string]any{
						"type":     "stemmer",
						"language": "english",
					},
				},
				"analyzer": map[string]any{
					"scientific_text": map[string]any{
						"type":      "custom",
						"tokenizer": "standard",
						"filter":    []string{"lowercase", "asciifolding", "english_stop", "english_stemmer"},
					},
				},
			},
		},
		"mappings": map[string]any{
			"properties": properties,
		},
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to render index body for %s: %w", s.Name, err)
	}
	return string(raw), nil
}

// CollectionIndex declares one secondary index on a document collection.
// Document identity itself needs no entry here: it rides on the mandatory
// _id primary key. Unique indexes on optional fields must be Sparse, or
// documents missing the field collide on null.
type CollectionIndex struct {
	Field              string
	Unique             bool
	Sparse             bool
	ExpireAfterSeconds int32
}

// CollectionSpec declares one document collection. Validators are enforced
// in warn mode: a violating write is logged by the store and proceeds, so
// minor upstream source drift never breaks ingestion.
type CollectionSpec struct {
	Name     string
	Required []string
	Enums    map[string][]string
	Indexes  []CollectionIndex
}

func (s CollectionSpec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("collection name must not be empty")
	}
	for _, idx := range s.Indexes {
		if idx.Field == "" {
			return fmt.Errorf("collection %s: index with empty field", s.Name)
		}
		if idx.ExpireAfterSeconds < 0 {
			return fmt.Errorf("collection %s: negative TTL on %s", s.Name, idx.Field)
		}
	}
	return nil
}

// Validator renders the $jsonSchema document, or nil when the collection
// declares no shape.
func (s CollectionSpec) Validator() bson.M {
	if len(s.Required) == 0 && len(s.Enums) == 0 {
		return nil
	}
	jsonSchema := bson.M{"bsonType": "object"}
	if len(s.Required) > 0 {
		jsonSchema["required"] = s.Required
	}
	if len(s.Enums) > 0 {
		props := bson.M{}
		for field, values := range s.Enums {
			props[field] = bson.M{"enum": values}
		}
		jsonSchema["properties"] = props
	}
	return bson.M{"$jsonSchema": jsonSchema}
}

type TableKind string

const (
	KindExtension TableKind = "extension"
	KindTable     TableKind = "table"
	KindView      TableKind = "view"
)

// TableSpec declares one relational structure. Declaration order is creation
// order, so extensions precede the tables using them and views come after
// the tables they read.
type TableSpec struct {
	Name   string
	Kind   TableKind
	Create string
	Drop   string
}

func (s TableSpec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("table name must not be empty")
	}
	if s.Create == "" {
		return fmt.Errorf("table %s: empty create statement", s.Name)
	}
	if s.Kind != KindExtension && s.Drop == "" {
		return fmt.Errorf("table %s: empty drop statement", s.Name)
	}
	return nil
}
