package provision

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory Store. Document counts let destructive-reset
// tests observe data loss; ops records call order.
type fakeStore struct {
	kind       string
	structures []string
	existing   map[string]bool
	docs       map[string]int64
	createErr  map[string]error
	readyErr   error
	raceOn     string
	ops        []string
}

func newFakeStore(kind string, structures ...string) *fakeStore {
	return &fakeStore{
		kind:       kind,
		structures: structures,
		existing:   map[string]bool{},
		docs:       map[string]int64{},
		createErr:  map[string]error{},
	}
}

func (f *fakeStore) Kind() string { return f.kind }

func (f *fakeStore) CheckReady(ctx context.Context) error { return f.readyErr }

func (f *fakeStore) Structures() []string { return f.structures }

func (f *fakeStore) Has(ctx context.Context, name string) (bool, error) {
	return f.existing[name], nil
}

func (f *fakeStore) Create(ctx context.Context, name string) error {
	f.ops = append(f.ops, "create:"+name)
	if name == f.raceOn {
		// Another run created it between our check and our create.
		f.existing[name] = true
		return errors.New("resource already exists")
	}
	if err := f.createErr[name]; err != nil {
		return err
	}
	f.existing[name] = true
	f.docs[name] = 0
	return nil
}

func (f *fakeStore) Drop(ctx context.Context, name string) error {
	f.ops = append(f.ops, "drop:"+name)
	delete(f.existing, name)
	delete(f.docs, name)
	return nil
}

func (f *fakeStore) Count(ctx context.Context, name string) (int64, error) {
	return f.docs[name], nil
}

func testProber() *Prober {
	return &Prober{
		MaxAttempts: 2,
		Delay:       time.Millisecond,
		After:       immediateAfter,
	}
}

func immediateAfter(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

func TestProvisionIdempotentTwice(t *testing.T) {
	store := newFakeStore("fake", "articles", "user_profiles")
	orch := NewOrchestrator(testProber(), []Store{store})

	results, err := orch.Provision(context.Background(), ModeIdempotent)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, OutcomeCreated, r.Outcome)
	}

	results, err = orch.Provision(context.Background(), ModeIdempotent)
	require.NoError(t, err)
	for _, r := range results {
		assert.Equal(t, OutcomeAlreadyExists, r.Outcome)
	}

	// Existing structures are never dropped or recreated in idempotent mode.
	assert.Equal(t, []string{"create:articles", "create:user_profiles"}, store.ops)
}

func TestProvisionDestructiveResetsData(t *testing.T) {
	store := newFakeStore("fake", "articles")
	store.existing["articles"] = true
	store.docs["articles"] = 1234

	orch := NewOrchestrator(testProber(), []Store{store})

	results, err := orch.Provision(context.Background(), ModeDestructive)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, OutcomeCreated, results[0].Outcome)

	assert.Equal(t, []string{"drop:articles", "create:articles"}, store.ops)
	n, _ := store.Count(context.Background(), "articles")
	assert.Equal(t, int64(0), n)
}

func TestProvisionDestructiveOnAbsentStructure(t *testing.T) {
	store := newFakeStore("fake", "articles")
	orch := NewOrchestrator(testProber(), []Store{store})

	results, err := orch.Provision(context.Background(), ModeDestructive)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, results[0].Outcome)
	assert.Equal(t, []string{"create:articles"}, store.ops, "no drop when nothing exists")
}

func TestProvisionStopsAtFirstFailure(t *testing.T) {
	first := newFakeStore("first", "a", "b", "c")
	first.createErr["b"] = errors.New("mapping rejected")
	second := newFakeStore("second", "x")

	orch := NewOrchestrator(testProber(), []Store{first, second})

	results, err := orch.Provision(context.Background(), ModeIdempotent)
	require.Error(t, err)

	var structErr *StructureError
	require.ErrorAs(t, err, &structErr)
	assert.Equal(t, "b", structErr.Name)
	assert.Equal(t, "first", structErr.Store)

	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].Name)
	assert.Empty(t, second.ops, "later stores must not be touched after a failure")
}

func TestProvisionDeclarationOrder(t *testing.T) {
	store := newFakeStore("fake", "ext", "tbl", "view")
	orch := NewOrchestrator(testProber(), []Store{store})

	_, err := orch.Provision(context.Background(), ModeIdempotent)
	require.NoError(t, err)
	assert.Equal(t, []string{"create:ext", "create:tbl", "create:view"}, store.ops)
}

func TestProvisionToleratesLostCreationRace(t *testing.T) {
	store := newFakeStore("fake", "articles")
	store.raceOn = "articles"

	orch := NewOrchestrator(testProber(), []Store{store})

	results, err := orch.Provision(context.Background(), ModeIdempotent)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, OutcomeAlreadyExists, results[0].Outcome)
}

func TestProvisionAbortsWhenStoreUnavailable(t *testing.T) {
	store := newFakeStore("fake", "articles")
	store.readyErr = errors.New("connection refused")

	orch := NewOrchestrator(testProber(), []Store{store})

	_, err := orch.Provision(context.Background(), ModeIdempotent)
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Empty(t, store.ops, "no partial provisioning against an unavailable store")
}
