package schema

import (
	"fmt"

	"github.com/scirec/provisioner/internal/models"
)

// PipelineLogTTLSeconds expires pipeline logs 30 days after their timestamp.
const PipelineLogTTLSeconds = 30 * 24 * 60 * 60

// Params are the knobs an operator may tune before first provisioning.
// Changing Dims afterwards requires destructive recreation: vectors already
// indexed are incompatible with a different dimensionality.
type Params struct {
	ArticlesIndex  string
	ProfilesIndex  string
	Dims           int
	Shards         int
	HNSWM          int
	EFConstruction int
	EFSearch       int
}

// Registry is the declarative source of truth for every structure the
// platform depends on. It performs no I/O; the store clients turn its
// entries into live indexes, collections and tables.
type Registry struct {
	Indexes     []IndexSpec
	Collections []CollectionSpec
	Tables      []TableSpec
}

// New validates the parameters and assembles the full registry. Slice order
// is creation order.
func New(p Params) (*Registry, error) {
	if p.ArticlesIndex == "" || p.ProfilesIndex == "" {
		return nil, fmt.Errorf("index names must not be empty")
	}

	vector := DefaultVectorParams(p.Dims)
	if p.HNSWM > 0 {
		vector.M = p.HNSWM
	}
	if p.EFConstruction > 0 {
		vector.EFConstruction = p.EFConstruction
	}
	if p.EFSearch > 0 {
		vector.EFSearch = p.EFSearch
	}

	shards := p.Shards
	if shards <= 0 {
		shards = 2
	}

	r := &Registry{
		Indexes:     indexes(p, vector, shards),
		Collections: collections(),
		Tables:      tables(),
	}

	for _, s := range r.Indexes {
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}
	for _, s := range r.Collections {
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}
	for _, s := range r.Tables {
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func indexes(p Params, vector VectorParams, shards int) []IndexSpec {
	return []IndexSpec{
		{
			Name:     p.ArticlesIndex,
			Shards:   shards,
			Replicas: 0,
			Fields: []Field{
				{Name: "source", Type: FieldKeyword},
				{Name: "title", Type: FieldText},
				{Name: "abstract", Type: FieldText},
				{Name: "authors", Type: FieldKeyword},
				{Name: "keywords", Type: FieldKeyword},
				{Name: "mesh_terms", Type: FieldKeyword},
				{Name: "arxiv_categories", Type: FieldKeyword},
				{Name: "publication_date", Type: FieldDate},
				{Name: "doi", Type: FieldKeyword},
				{Name: "embedding_model", Type: FieldKeyword},
				{Name: "processing_status", Type: FieldKeyword},
			},
			VectorField: "embedding",
			Vector:      vector,
		},
		{
			Name:     p.ProfilesIndex,
			Shards:   1,
			Replicas: 0,
			Fields: []Field{
				{Name: "user_id", Type: FieldKeyword},
				{Name: "top_domains", Type: FieldKeyword},
				{Name: "top_keywords", Type: FieldKeyword},
				{Name: "computed_at", Type: FieldDate},
			},
			VectorField: "embedding",
			Vector:      vector,
		},
	}
}

func collections() []CollectionSpec {
	return []CollectionSpec{
		{
			Name:     "articles_raw",
			Required: []string{"source", "title", "collected_at", "processing_status"},
			Enums: map[string][]string{
				"source": models.ValidSources,
				"processing_status": {
					models.StatusRaw, models.StatusSilver, models.StatusGold, models.StatusError,
				},
			},
			Indexes: []CollectionIndex{
				{Field: "processing_status"},
				{Field: "collected_at"},
				// A PMID or arXiv ID names exactly one article; re-collecting
				// the same upstream record under a new _id must fail. Sparse,
				// as each identifier is set only for its own source.
				{Field: "pmid", Unique: true, Sparse: true},
				{Field: "arxiv_id", Unique: true, Sparse: true},
			},
		},
		{
			Name:     "articles_enriched",
			Required: []string{"combined_text", "embedding_model", "embedding_dims", "processed_at"},
			Indexes: []CollectionIndex{
				{Field: "processed_at"},
			},
		},
		{
			Name:     "user_profiles",
			Required: []string{"computed_at"},
		},
		{
			Name:     "pipeline_logs",
			Required: []string{"timestamp", "stage", "status"},
			Enums: map[string][]string{
				"stage":  {"bronze", "silver", "gold"},
				"status": {"success", "error", "running"},
			},
			Indexes: []CollectionIndex{
				{Field: "timestamp", ExpireAfterSeconds: PipelineLogTTLSeconds},
			},
		},
	}
}

func tables() []TableSpec {
	return []TableSpec{
		{
			Name:   "pgcrypto",
			Kind:   KindExtension,
			Create: `CREATE EXTENSION IF NOT EXISTS pgcrypto`,
		},
		{
			Name: "users",
			Kind: KindTable,
			Create: `
CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    email TEXT UNIQUE NOT NULL,
    username TEXT UNIQUE NOT NULL,
    password_hash TEXT NOT NULL,
    research_domains TEXT[] NOT NULL DEFAULT '{}',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
			Drop: `DROP TABLE IF EXISTS users CASCADE`,
		},
		{
			Name: "sessions",
			Kind: KindTable,
			Create: `
CREATE TABLE IF NOT EXISTS sessions (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    token TEXT UNIQUE NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    expires_at TIMESTAMPTZ NOT NULL
)`,
			Drop: `DROP TABLE IF EXISTS sessions CASCADE`,
		},
		{
			Name: "interactions",
			Kind: KindTable,
			Create: `
CREATE TABLE IF NOT EXISTS interactions (
    id BIGSERIAL PRIMARY KEY,
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    article_id TEXT NOT NULL,
    action_type TEXT NOT NULL,
    rating INTEGER CHECK (rating BETWEEN 1 AND 5),
    duration_seconds INTEGER,
    recommended_by TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
			Drop: `DROP TABLE IF EXISTS interactions CASCADE`,
		},
		{
			// ON DELETE SET NULL: recommendation history survives user
			// deletion for audit, unlike interactions.
			Name: "recommendation_logs",
			Kind: KindTable,
			Create: `
CREATE TABLE IF NOT EXISTS recommendation_logs (
    id BIGSERIAL PRIMARY KEY,
    user_id UUID REFERENCES users(id) ON DELETE SET NULL,
    article_id TEXT NOT NULL,
    algorithm TEXT NOT NULL,
    score DOUBLE PRECISION,
    position INTEGER,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
			Drop: `DROP TABLE IF EXISTS recommendation_logs CASCADE`,
		},
		{
			Name: "evaluation_results",
			Kind: KindTable,
			Create: `
CREATE TABLE IF NOT EXISTS evaluation_results (
    id BIGSERIAL PRIMARY KEY,
    run_id UUID NOT NULL DEFAULT gen_random_uuid(),
    algorithm TEXT NOT NULL,
    metric_name TEXT NOT NULL,
    metric_value DOUBLE PRECISION NOT NULL,
    evaluated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
			Drop: `DROP TABLE IF EXISTS evaluation_results CASCADE`,
		},
		{
			Name: "articles_metadata",
			Kind: KindTable,
			Create: `
CREATE TABLE IF NOT EXISTS articles_metadata (
    article_id TEXT PRIMARY KEY,
    source TEXT NOT NULL,
    title TEXT NOT NULL,
    publication_date DATE,
    citation_count INTEGER NOT NULL DEFAULT 0,
    view_count INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
			Drop: `DROP TABLE IF EXISTS articles_metadata CASCADE`,
		},
		{
			Name: "user_activity_summary",
			Kind: KindView,
			Create: `
CREATE OR REPLACE VIEW user_activity_summary AS
SELECT u.id AS user_id,
       u.username,
       COUNT(i.id) AS interaction_count,
       AVG(i.rating) AS avg_rating,
       MAX(i.created_at) AS last_activity
FROM users u
LEFT JOIN interactions i ON i.user_id = u.id
GROUP BY u.id, u.username`,
			Drop: `DROP VIEW IF EXISTS user_activity_summary`,
		},
		{
			Name: "article_popularity",
			Kind: KindView,
			Create: `
CREATE OR REPLACE VIEW article_popularity AS
SELECT i.article_id,
       COUNT(*) AS interaction_count,
       COUNT(*) FILTER (WHERE i.action_type = 'like') AS like_count,
       AVG(i.rating) AS avg_rating
FROM interactions i
GROUP BY i.article_id`,
			Drop: `DROP VIEW IF EXISTS article_popularity`,
		},
	}
}
