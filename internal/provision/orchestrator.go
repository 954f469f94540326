package provision

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/scirec/provisioner/internal/metrics"
	"github.com/scirec/provisioner/pkg/logger"
)

type Mode string

const (
	// ModeIdempotent creates missing structures and leaves existing ones
	// untouched. It never diffs an existing structure against its spec;
	// picking up shape changes requires an explicit destructive run.
	ModeIdempotent Mode = "idempotent"

	// ModeDestructive drops each structure first, losing its data. Gated
	// behind a non-default flag; intended for reset-from-scratch outside
	// production.
	ModeDestructive Mode = "destructive"
)

type Outcome string

const (
	OutcomeCreated       Outcome = "created"
	OutcomeAlreadyExists Outcome = "already_exists"
)

type Result struct {
	Store   string  `json:"store"`
	Name    string  `json:"name"`
	Outcome Outcome `json:"outcome"`
}

// Orchestrator turns registry entries into live structures, one store at a
// time, sequentially and in declaration order. The first failure aborts the
// run: downstream consumers assume every declared structure exists once
// provisioning reports success.
type Orchestrator struct {
	prober *Prober
	stores []Store
}

func NewOrchestrator(prober *Prober, stores []Store) *Orchestrator {
	return &Orchestrator{prober: prober, stores: stores}
}

func (o *Orchestrator) Provision(ctx context.Context, mode Mode) ([]Result, error) {
	results := make([]Result, 0)

	for _, store := range o.stores {
		if err := o.prober.AwaitReady(ctx, store); err != nil {
			return results, err
		}

		start := time.Now()
		for _, name := range store.Structures() {
			outcome, err := o.provisionOne(ctx, store, name, mode)
			if err != nil {
				return results, err
			}
			results = append(results, Result{Store: store.Kind(), Name: name, Outcome: outcome})
		}
		metrics.ProvisionDuration.WithLabelValues(store.Kind()).Observe(time.Since(start).Seconds())
	}

	return results, nil
}

func (o *Orchestrator) provisionOne(ctx context.Context, store Store, name string, mode Mode) (Outcome, error) {
	log := logger.Log.With(zap.String("store", store.Kind()), zap.String("structure", name))

	exists, err := store.Has(ctx, name)
	if err != nil {
		return "", &StructureError{Store: store.Kind(), Name: name, Err: err}
	}

	if exists {
		if mode == ModeIdempotent {
			log.Info("Structure already exists, skipping")
			return OutcomeAlreadyExists, nil
		}
		log.Warn("Dropping structure before recreation")
		if err := store.Drop(ctx, name); err != nil {
			return "", &StructureError{Store: store.Kind(), Name: name, Err: err}
		}
	}

	if err := store.Create(ctx, name); err != nil {
		// Two provisioning runs racing over an empty store can both see
		// "absent"; the loser's create fails although the structure is
		// there. Re-check and tolerate that loudly.
		if mode == ModeIdempotent {
			if nowExists, hasErr := store.Has(ctx, name); hasErr == nil && nowExists {
				log.Warn("Lost creation race, structure exists now", zap.Error(err))
				return OutcomeAlreadyExists, nil
			}
		}
		return "", &StructureError{Store: store.Kind(), Name: name, Err: err}
	}

	metrics.StructuresCreated.WithLabelValues(store.Kind(), string(mode)).Inc()
	log.Info("Structure created")
	return OutcomeCreated, nil
}
