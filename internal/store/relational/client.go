package relational

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/scirec/provisioner/internal/models"
	"github.com/scirec/provisioner/internal/schema"
	"github.com/scirec/provisioner/pkg/logger"
)

// Client provisions the relational store: the pgcrypto extension first, then
// tables, then the views reading them, in registry declaration order.
type Client struct {
	pool  *pgxpool.Pool
	specs []schema.TableSpec
	sb    sq.StatementBuilderType
}

func NewClient(ctx context.Context, dsn string, specs []schema.TableSpec) (*Client, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	logger.Info("Postgres client initialized")

	return &Client{
		pool:  pool,
		specs: specs,
		sb:    sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}, nil
}

func (c *Client) Close() {
	if c != nil && c.pool != nil {
		c.pool.Close()
	}
}

func (c *Client) Kind() string {
	return "postgres"
}

func (c *Client) CheckReady(ctx context.Context) error {
	if err := c.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres ping: %w", err)
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
	spec, err := c.spec(name)
	if err != nil {
		return false, err
	}

	var exists bool
	if spec.Kind == schema.KindExtension {
		err = c.pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM pg_extension WHERE extname = $1)`, name).Scan(&exists)
	} else {
		err = c.pool.QueryRow(ctx,
			`SELECT to_regclass($1) IS NOT NULL`, name).Scan(&exists)
	}
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", name, err)
	}
	return exists, nil
}

func (c *Client) Create(ctx context.Context, name string) error {
	spec, err := c.spec(name)
	if err != nil {
		return err
	}
	if _, err := c.pool.Exec(ctx, spec.Create); err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	return nil
}

func (c *Client) Drop(ctx context.Context, name string) error {
	spec, err := c.spec(name)
	if err != nil {
		return err
	}
	if spec.Kind == schema.KindExtension {
		// Extensions are shared and idempotent to create; never dropped.
		return nil
	}
	if _, err := c.pool.Exec(ctx, spec.Drop); err != nil {
		return fmt.Errorf("failed to drop %s: %w", name, err)
	}
	return nil
}

func (c *Client) Count(ctx context.Context, name string) (int64, error) {
	spec, err := c.spec(name)
	if err != nil {
		return 0, err
	}
	if spec.Kind == schema.KindExtension {
		return 0, nil
	}

	query, args, err := c.sb.Select("COUNT(*)").From(name).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var n int64
	if err := c.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", name, err)
	}
	return n, nil
}

// UpsertUser creates a user row (or refreshes it by username) and returns
// its ID, so seeding stays re-runnable.
func (c *Client) UpsertUser(ctx context.Context, email, username, passwordHash string, domains []string) (string, error) {
	query, args, err := c.sb.Insert("users").
		Columns("email", "username", "password_hash", "research_domains").
		Values(email, username, passwordHash, domains).
		Suffix("ON CONFLICT (username) DO UPDATE SET email = EXCLUDED.email RETURNING id").
		ToSql()
	if err != nil {
		return "", fmt.Errorf("failed to build user insert: %w", err)
	}

	var id string
	if err := c.pool.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return "", fmt.Errorf("failed to insert user %s: %w", username, err)
	}

	logger.Debug("User inserted", zap.String("user_id", id))
	return id, nil
}

// InsertInteraction appends one interaction event, keeping the event's own
// timestamp so back-dated events are not recorded at insert time. Rating
// outside [1,5] is rejected by the table's CHECK constraint.
func (c *Client) InsertInteraction(ctx context.Context, i models.Interaction) error {
	query, args, err := c.interactionInsert(i).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build interaction insert: %w", err)
	}

	if _, err := c.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert interaction: %w", err)
	}
	return nil
}

func (c *Client) interactionInsert(i models.Interaction) sq.InsertBuilder {
	ts := i.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return c.sb.Insert("interactions").
		Columns("user_id", "article_id", "action_type", "rating", "duration_seconds", "recommended_by", "created_at").
		Values(i.UserID, i.ArticleID, i.ActionType, i.Rating, i.DurationSeconds, i.RecommendedBy, ts)
}

func (c *Client) spec(name string) (schema.TableSpec, error) {
	for _, s := range c.specs {
		if s.Name == name {
			return s, nil
		}
	}
	return schema.TableSpec{}, fmt.Errorf("no table spec declared for %s", name)
}
