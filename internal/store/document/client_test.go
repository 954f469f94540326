package document

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scirec/provisioner/internal/models"
	"github.com/scirec/provisioner/internal/provision"
	"github.com/scirec/provisioner/internal/schema"
	"github.com/scirec/provisioner/pkg/config"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	specs := []schema.CollectionSpec{
		{Name: "articles_raw"},
		{Name: "articles_enriched"},
		{Name: "pipeline_logs"},
	}
	// mongo.Connect performs no I/O up front, so constructing a client
	// against a non-running endpoint is fine for contract tests.
	c, err := NewClient(context.Background(), config.MongoConfig{
		URI:      "mongodb://localhost:27017",
		Database: "scirec_test",
	}, specs, 768)
	require.NoError(t, err)
	return c
}

func TestInsertEnrichedRejectsDimsContractViolation(t *testing.T) {
	c := testClient(t)

	err := c.InsertEnrichedArticle(context.Background(), models.ArticleEnriched{
		ID:            "pubmed_1",
		EmbeddingDims: 384,
	})
	require.ErrorIs(t, err, provision.ErrDimensionMismatch)
}

func TestStructuresFollowDeclarationOrder(t *testing.T) {
	c := testClient(t)
	assert.Equal(t, []string{"articles_raw", "articles_enriched", "pipeline_logs"}, c.Structures())
	assert.Equal(t, "mongodb", c.Kind())
}

func TestSpecLookup(t *testing.T) {
	c := testClient(t)

	_, err := c.spec("pipeline_logs")
	require.NoError(t, err)

	_, err = c.spec("undeclared")
	require.Error(t, err)
}
