package provision

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenHasStore struct {
	*fakeStore
}

func (b *brokenHasStore) Has(ctx context.Context, name string) (bool, error) {
	return false, errors.New("lookup timed out")
}

func TestReportCountsExistingStructures(t *testing.T) {
	store := newFakeStore("fake", "articles", "missing")
	store.existing["articles"] = true
	store.docs["articles"] = 42

	reports := NewReporter([]Store{store}).Report(context.Background())
	require.Len(t, reports, 2)

	assert.True(t, reports[0].Exists)
	assert.Equal(t, int64(42), reports[0].ApproxCount)

	assert.False(t, reports[1].Exists, "missing structure reported as absent, not an error")
	assert.Equal(t, int64(0), reports[1].ApproxCount)
}

func TestReportToleratesLookupFailures(t *testing.T) {
	store := &brokenHasStore{newFakeStore("fake", "articles")}

	reports := NewReporter([]Store{store}).Report(context.Background())
	require.Len(t, reports, 1)
	assert.False(t, reports[0].Exists)
}

// A store without Counter still reports existence.
type countlessStore struct {
	kind       string
	structures []string
}

func (c *countlessStore) Kind() string { return c.kind }

func (c *countlessStore) CheckReady(ctx context.Context) error { return nil }

func (c *countlessStore) Structures() []string { return c.structures }

func (c *countlessStore) Has(ctx context.Context, name string) (bool, error) {
	return true, nil
}

func (c *countlessStore) Create(ctx context.Context, name string) error { return nil }

func (c *countlessStore) Drop(ctx context.Context, name string) error { return nil }

func TestReportWithoutCounter(t *testing.T) {
	reports := NewReporter([]Store{&countlessStore{kind: "plain", structures: []string{"s"}}}).
		Report(context.Background())
	require.Len(t, reports, 1)
	assert.True(t, reports[0].Exists)
	assert.Equal(t, int64(0), reports[0].ApproxCount)
}
