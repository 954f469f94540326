package provision

import "context"

// HealthChecker reports whether a backing store is at least minimally
// operational. Degraded-but-serving (e.g. a yellow single-node search
// cluster with zero replicas) counts as ready.
type HealthChecker interface {
	Kind() string
	CheckReady(ctx context.Context) error
}

// Store is the capability the orchestrator needs from one backing store:
// enumerate its declared structures in creation order and check, create or
// drop each by name. Implementations hold their registry entries; the
// orchestrator never inspects structure shape.
type Store interface {
	HealthChecker

	// Structures returns structure names in declaration order. The order
	// is the creation order; dependencies must precede their dependents.
	Structures() []string

	Has(ctx context.Context, name string) (bool, error)
	Create(ctx context.Context, name string) error
	Drop(ctx context.Context, name string) error
}

// Counter is optionally implemented by stores that can approximate how many
// documents or rows a structure holds. The reporter uses it; nothing else
// does.
type Counter interface {
	Count(ctx context.Context, name string) (int64, error)
}
