package document

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/scirec/provisioner/internal/models"
	"github.com/scirec/provisioner/internal/provision"
	"github.com/scirec/provisioner/internal/schema"
	"github.com/scirec/provisioner/pkg/config"
	"github.com/scirec/provisioner/pkg/logger"
)

// Client provisions and writes the document store. Validators run in warn
// mode: the store logs violations and lets the write proceed, so ingestion
// survives minor upstream source drift.
type Client struct {
	cli   *mongo.Client
	db    *mongo.Database
	specs []schema.CollectionSpec
	dims  int
}

func NewClient(ctx context.Context, cfg config.MongoConfig, specs []schema.CollectionSpec, dims int) (*Client, error) {
	cli, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	logger.Info("MongoDB client initialized",
		zap.String("database", cfg.Database),
	)

	return &Client{
		cli:   cli,
		db:    cli.Database(cfg.Database),
		specs: specs,
		dims:  dims,
	}, nil
}

func (c *Client) Close(ctx context.Context) error {
	return c.cli.Disconnect(ctx)
}

func (c *Client) Kind() string {
	return "mongodb"
}

func (c *Client) CheckReady(ctx context.Context) error {
	if err := c.cli.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("mongodb ping: %w", err)
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
	found, err := c.db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return false, fmt.Errorf("failed to list collections: %w", err)
	}
	return len(found) > 0, nil
}

func (c *Client) Create(ctx context.Context, name string) error {
	spec, err := c.spec(name)
	if err != nil {
		return err
	}

	opts := options.CreateCollection()
	if validator := spec.Validator(); validator != nil {
		opts.SetValidator(validator).
			SetValidationAction("warn").
			SetValidationLevel("moderate")
	}

	if err := c.db.CreateCollection(ctx, name, opts); err != nil {
		return fmt.Errorf("failed to create collection %s: %w", name, err)
	}

	coll := c.db.Collection(name)
	for _, idx := range spec.Indexes {
		model := mongo.IndexModel{
			Keys:    bson.D{{Key: idx.Field, Value: 1}},
			Options: options.Index(),
		}
		if idx.Unique {
			model.Options.SetUnique(true)
		}
		if idx.Sparse {
			model.Options.SetSparse(true)
		}
		if idx.ExpireAfterSeconds > 0 {
			model.Options.SetExpireAfterSeconds(idx.ExpireAfterSeconds)
		}
		if _, err := coll.Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("failed to create index on %s.%s: %w", name, idx.Field, err)
		}
	}
	return nil
}

func (c *Client) Drop(ctx context.Context, name string) error {
	if err := c.db.Collection(name).Drop(ctx); err != nil {
		return fmt.Errorf("failed to drop collection %s: %w", name, err)
	}
	return nil
}

func (c *Client) Count(ctx context.Context, name string) (int64, error) {
	n, err := c.db.Collection(name).EstimatedDocumentCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count collection %s: %w", name, err)
	}
	return n, nil
}

// InsertRawArticle stores a collected article under its source-prefixed ID.
// A second insert with the same ID fails on the primary key.
func (c *Client) InsertRawArticle(ctx context.Context, a models.ArticleRaw) error {
	if _, err := c.db.Collection("articles_raw").InsertOne(ctx, a); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("article %s already exists: %w", a.ID, err)
		}
		return fmt.Errorf("failed to insert raw article %s: %w", a.ID, err)
	}
	return nil
}

// InsertEnrichedArticle refuses records whose recorded embedding_dims differ
// from the vector index's configured dimensionality: that is a structural
// contract violation, not a soft validation warning.
func (c *Client) InsertEnrichedArticle(ctx context.Context, a models.ArticleEnriched) error {
	if a.EmbeddingDims != c.dims {
		return fmt.Errorf("%w: record declares %d, index configured for %d",
			provision.ErrDimensionMismatch, a.EmbeddingDims, c.dims)
	}
	if _, err := c.db.Collection("articles_enriched").InsertOne(ctx, a); err != nil {
		return fmt.Errorf("failed to insert enriched article %s: %w", a.ID, err)
	}
	return nil
}

// UpsertUserProfile replaces the whole profile document. Profiles are
// recomputed wholesale by the enrichment pipeline, never patched.
func (c *Client) UpsertUserProfile(ctx context.Context, p models.UserProfile) error {
	_, err := c.db.Collection("user_profiles").ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: p.UserID}},
		p,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert profile %s: %w", p.UserID, err)
	}
	return nil
}

func (c *Client) InsertPipelineLog(ctx context.Context, l models.PipelineLog) error {
	if _, err := c.db.Collection("pipeline_logs").InsertOne(ctx, l); err != nil {
		return fmt.Errorf("failed to insert pipeline log: %w", err)
	}
	return nil
}

func (c *Client) spec(name string) (schema.CollectionSpec, error) {
	for _, s := range c.specs {
		if s.Name == name {
			return s, nil
		}
	}
	return schema.CollectionSpec{}, fmt.Errorf("no collection spec declared for %s", name)
}
