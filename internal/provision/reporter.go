package provision

import (
	"context"

	"go.uber.org/zap"

	"github.com/scirec/provisioner/pkg/logger"
)

// StructureReport is one line of operator-facing liveness output. A missing
// structure is reported as absent, never as an error; nothing in the core
// consults these values for control flow.
type StructureReport struct {
	Store       string `json:"store"`
	Name        string `json:"name"`
	Exists      bool   `json:"exists"`
	ApproxCount int64  `json:"approx_count"`
}

type Reporter struct {
	stores []Store
}

func NewReporter(stores []Store) *Reporter {
	return &Reporter{stores: stores}
}

// Report queries each declared structure best-effort. Lookup failures
// degrade to exists=false with a warning rather than failing the report.
func (r *Reporter) Report(ctx context.Context) []StructureReport {
	reports := make([]StructureReport, 0)

	for _, store := range r.stores {
		counter, canCount := store.(Counter)

		for _, name := range store.Structures() {
			report := StructureReport{Store: store.Kind(), Name: name}

			exists, err := store.Has(ctx, name)
			if err != nil {
				logger.Warn("Report lookup failed",
					zap.String("store", store.Kind()),
					zap.String("structure", name),
					zap.Error(err),
				)
				reports = append(reports, report)
				continue
			}
			report.Exists = exists

			if exists && canCount {
				if n, err := counter.Count(ctx, name); err == nil {
					report.ApproxCount = n
				}
			}
			reports = append(reports, report)
		}
	}

	return reports
}
