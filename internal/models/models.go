package models

import "time"

// Processing stages an article moves through. Only the enrichment pipeline
// mutates ProcessingStatus; every other field of a raw article is write-once.
const (
	StatusRaw    = "raw"
	StatusSilver = "silver"
	StatusGold   = "gold"
	StatusError  = "error"
)

// Article sources accepted by the ingestion side.
var ValidSources = []string{"pubmed", "arxiv", "s2orc", "manual"}

// ArticleRaw is the record as collected, before any enrichment. ID is
// source-prefixed (e.g. "pubmed_12345678") and is the join key against the
// search index: a document and its vector share the same ID and nothing else.
type ArticleRaw struct {
	ID               string    `bson:"_id" json:"id"`
	Source           string    `bson:"source" json:"source"`
	Title            string    `bson:"title" json:"title"`
	Abstract         string    `bson:"abstract" json:"abstract"`
	Authors          []string  `bson:"authors" json:"authors"`
	Keywords         []string  `bson:"keywords" json:"keywords"`
	PublicationDate  string    `bson:"publication_date" json:"publication_date"`
	DOI              string    `bson:"doi" json:"doi"`
	PMID             string    `bson:"pmid,omitempty" json:"pmid,omitempty"`
	MeshTerms        []string  `bson:"mesh_terms,omitempty" json:"mesh_terms,omitempty"`
	ArxivID          string    `bson:"arxiv_id,omitempty" json:"arxiv_id,omitempty"`
	ArxivCategories  []string  `bson:"arxiv_categories,omitempty" json:"arxiv_categories,omitempty"`
	CollectedAt      time.Time `bson:"collected_at" json:"collected_at"`
	ProcessingStatus string    `bson:"processing_status" json:"processing_status"`
}

// ArticleEnriched is derived 1:1 from ArticleRaw by ID. EmbeddingDims must
// match the search index's configured dimensionality at write time; the
// document store records which model produced the vector but never the
// vector itself.
type ArticleEnriched struct {
	ID                string    `bson:"_id" json:"id"`
	TitleClean        string    `bson:"title_clean" json:"title_clean"`
	AbstractClean     string    `bson:"abstract_clean" json:"abstract_clean"`
	CombinedText      string    `bson:"combined_text" json:"combined_text"`
	ExtractedKeywords []string  `bson:"extracted_keywords" json:"extracted_keywords"`
	EmbeddingModel    string    `bson:"embedding_model" json:"embedding_model"`
	EmbeddingDims     int       `bson:"embedding_dims" json:"embedding_dims"`
	SparkJobID        string    `bson:"spark_job_id" json:"spark_job_id"`
	ProcessedAt       time.Time `bson:"processed_at" json:"processed_at"`
}

// UserProfile is recomputed wholesale by the enrichment pipeline, never
// patched field by field. The profile vector lives in the search index under
// the same user_id.
type UserProfile struct {
	UserID           string    `bson:"_id" json:"user_id"`
	TopDomains       []string  `bson:"top_domains" json:"top_domains"`
	TopKeywords      []string  `bson:"top_keywords" json:"top_keywords"`
	RecentArticleIDs []string  `bson:"recent_article_ids" json:"recent_article_ids"`
	ComputedAt       time.Time `bson:"computed_at" json:"computed_at"`
}

// Interaction is an append-only event; deleted only via the owning user's
// cascade.
type Interaction struct {
	UserID          string    `json:"user_id"`
	ArticleID       string    `json:"article_id"`
	ActionType      string    `json:"action_type"`
	Rating          *int      `json:"rating,omitempty"`
	DurationSeconds *int      `json:"duration_seconds,omitempty"`
	RecommendedBy   string    `json:"recommended_by,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// PipelineLog is an append-only operational record; the document store
// expires it 30 days after Timestamp via a TTL index.
type PipelineLog struct {
	Timestamp  time.Time `bson:"timestamp" json:"timestamp"`
	Stage      string    `bson:"stage" json:"stage"`
	Status     string    `bson:"status" json:"status"`
	SparkJobID string    `bson:"spark_job_id" json:"spark_job_id"`
}
