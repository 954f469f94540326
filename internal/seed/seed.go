package seed

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scirec/provisioner/internal/metrics"
	"github.com/scirec/provisioner/internal/models"
	"github.com/scirec/provisioner/internal/store/document"
	"github.com/scirec/provisioner/internal/store/relational"
	"github.com/scirec/provisioner/internal/store/search"
	"github.com/scirec/provisioner/pkg/logger"
)

// Seeder inserts a handful of sample records so operators can verify the
// freshly provisioned structures end to end. Seeding is best-effort and
// re-runnable: duplicates are logged, not fatal.
type Seeder struct {
	search        *search.Client
	document      *document.Client
	relational    *relational.Client
	articlesIndex string
	dims          int
}

func New(searchC *search.Client, documentC *document.Client, relationalC *relational.Client, articlesIndex string, dims int) *Seeder {
	return &Seeder{
		search:        searchC,
		document:      documentC,
		relational:    relationalC,
		articlesIndex: articlesIndex,
		dims:          dims,
	}
}

func (s *Seeder) Run(ctx context.Context) error {
	now := time.Now().UTC()

	articles := []models.ArticleRaw{
		{
			ID:               "pubmed_38000001",
			Source:           "pubmed",
			Title:            "Deep learning approaches for genomic sequence analysis",
			Abstract:         "We review BERT-style language models applied to genomics.",
			Authors:          []string{"A. Benali", "S. Khelifi"},
			Keywords:         []string{"BERT", "genomics"},
			PMID:             "38000001",
			MeshTerms:        []string{"Deep Learning", "Genomics"},
			PublicationDate:  "2024-03-15",
			CollectedAt:      now,
			ProcessingStatus: models.StatusRaw,
		},
		{
			ID:               "arxiv_2401_00001",
			Source:           "arxiv",
			Title:            "Transformer embeddings for scientific literature retrieval",
			Abstract:         "A study of dense retrieval over scholarly abstracts.",
			Authors:          []string{"M. Haddad"},
			Keywords:         []string{"information retrieval"},
			ArxivID:          "2401.00001",
			ArxivCategories:  []string{"cs.IR", "cs.CL"},
			PublicationDate:  "2024-01-02",
			CollectedAt:      now,
			ProcessingStatus: models.StatusRaw,
		},
	}

	for _, a := range articles {
		if err := s.document.InsertRawArticle(ctx, a); err != nil {
			logger.Warn("Sample article not inserted", zap.String("id", a.ID), zap.Error(err))
		} else {
			metrics.SeedDocuments.WithLabelValues("mongodb").Inc()
		}

		vec := sampleVector(s.dims, a.ID)
		fields := map[string]any{
			"source":            a.Source,
			"title":             a.Title,
			"abstract":          a.Abstract,
			"keywords":          a.Keywords,
			"publication_date":  a.PublicationDate,
			"embedding_model":   "scibert-base",
			"processing_status": a.ProcessingStatus,
		}
		if err := s.search.IndexVector(ctx, s.articlesIndex, a.ID, fields, vec); err != nil {
			return fmt.Errorf("failed to seed vector for %s: %w", a.ID, err)
		}
		metrics.SeedDocuments.WithLabelValues("elasticsearch").Inc()
	}

	if err := s.document.InsertPipelineLog(ctx, models.PipelineLog{
		Timestamp:  now,
		Stage:      "bronze",
		Status:     "success",
		SparkJobID: uuid.NewString(),
	}); err != nil {
		logger.Warn("Sample pipeline log not inserted", zap.Error(err))
	} else {
		metrics.SeedDocuments.WithLabelValues("mongodb").Inc()
	}

	userID, err := s.relational.UpsertUser(ctx, "demo@scirec.local", "demo", "not-a-real-hash", []string{"bioinformatics"})
	if err != nil {
		logger.Warn("Sample user not inserted", zap.Error(err))
		return nil
	}
	metrics.SeedDocuments.WithLabelValues("postgres").Inc()

	rating := 5
	if err := s.relational.InsertInteraction(ctx, models.Interaction{
		UserID:        userID,
		ArticleID:     articles[0].ID,
		ActionType:    "like",
		Rating:        &rating,
		RecommendedBy: "content_based",
		Timestamp:     now,
	}); err != nil {
		logger.Warn("Sample interaction not inserted", zap.Error(err))
	} else {
		metrics.SeedDocuments.WithLabelValues("postgres").Inc()
	}

	logger.Info("Sample data seeded", zap.Int("articles", len(articles)))
	return nil
}

// sampleVector derives a deterministic pseudo-embedding from the article ID
// so repeated seeds write identical vectors.
func sampleVector(dims int, id string) []float32 {
	seed := 0
	for _, r := range id {
		seed = seed*31 + int(r)
	}
	vec := make([]float32, dims)
	for i := range vec {
		vec[i] = float32(math.Sin(float64(seed+i)) * 0.1)
	}
	return vec
}
