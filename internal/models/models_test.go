package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

// Article and profile identity rides on the collection's _id primary key, so
// the store's mandatory unique index enforces it without any extra index.

func TestArticleIDMapsToPrimaryKey(t *testing.T) {
	raw, err := bson.Marshal(ArticleRaw{
		ID:               "pubmed_38000001",
		Source:           "pubmed",
		CollectedAt:      time.Now().UTC(),
		ProcessingStatus: StatusRaw,
	})
	require.NoError(t, err)

	var doc bson.M
	require.NoError(t, bson.Unmarshal(raw, &doc))
	require.Equal(t, "pubmed_38000001", doc["_id"])
}

func TestEnrichedArticleIDMapsToPrimaryKey(t *testing.T) {
	raw, err := bson.Marshal(ArticleEnriched{ID: "arxiv_2401_00001", EmbeddingDims: 768})
	require.NoError(t, err)

	var doc bson.M
	require.NoError(t, bson.Unmarshal(raw, &doc))
	require.Equal(t, "arxiv_2401_00001", doc["_id"])
}

func TestUserProfileIDMapsToPrimaryKey(t *testing.T) {
	raw, err := bson.Marshal(UserProfile{UserID: "u-42", ComputedAt: time.Now().UTC()})
	require.NoError(t, err)

	var doc bson.M
	require.NoError(t, bson.Unmarshal(raw, &doc))
	require.Equal(t, "u-42", doc["_id"])
}
