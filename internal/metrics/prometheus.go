package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	StructuresCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scirec_provision_structures_created_total",
			Help: "Structures created per store and mode",
		},
		[]string{"store", "mode"},
	)

	ProvisionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scirec_provision_duration_seconds",
			Help:    "Per-store provisioning duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"store"},
	)

	ReadinessAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scirec_provision_readiness_attempts_total",
			Help: "Health-check attempts per store",
		},
		[]string{"store"},
	)

	SeedDocuments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scirec_provision_seed_documents_total",
			Help: "Sample records written per store",
		},
		[]string{"store"},
	)
)

func Init() {
	prometheus.MustRegister(StructuresCreated)
	prometheus.MustRegister(ProvisionDuration)
	prometheus.MustRegister(ReadinessAttempts)
	prometheus.MustRegister(SeedDocuments)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
