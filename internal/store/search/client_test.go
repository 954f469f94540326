package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scirec/provisioner/internal/provision"
	"github.com/scirec/provisioner/internal/schema"
	"github.com/scirec/provisioner/pkg/config"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	specs := []schema.IndexSpec{
		{Name: "articles", Shards: 1, VectorField: "embedding", Vector: schema.DefaultVectorParams(768)},
		{Name: "user_profiles", Shards: 1, VectorField: "embedding", Vector: schema.DefaultVectorParams(768)},
	}
	c, err := NewClient(config.ElasticConfig{
		Addresses: []string{"http://localhost:9200"},
		VectorDim: 768,
		EFSearch:  100,
	}, specs)
	require.NoError(t, err)
	return c
}

func TestIndexVectorRejectsWrongDimensionality(t *testing.T) {
	c := testClient(t)

	// Rejected before any network round trip, never truncated or padded.
	err := c.IndexVector(context.Background(), "articles", "pubmed_1", nil, make([]float32, 512))
	require.ErrorIs(t, err, provision.ErrDimensionMismatch)

	err = c.IndexVector(context.Background(), "articles", "pubmed_1", nil, make([]float32, 769))
	require.ErrorIs(t, err, provision.ErrDimensionMismatch)
}

func TestSearchSimilarRejectsWrongDimensionality(t *testing.T) {
	c := testClient(t)

	_, err := c.SearchSimilar(context.Background(), "articles", make([]float32, 10), 5)
	require.ErrorIs(t, err, provision.ErrDimensionMismatch)
}

func TestStructuresFollowDeclarationOrder(t *testing.T) {
	c := testClient(t)
	assert.Equal(t, []string{"articles", "user_profiles"}, c.Structures())
	assert.Equal(t, "elasticsearch", c.Kind())
}

func TestSpecLookup(t *testing.T) {
	c := testClient(t)

	_, err := c.spec("articles")
	require.NoError(t, err)

	_, err = c.spec("undeclared")
	require.Error(t, err)
}
