package admin

import (
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/scirec/provisioner/internal/metrics"
	"github.com/scirec/provisioner/internal/provision"
)

// New builds the operator surface: readiness, the provisioning report and
// Prometheus metrics. It is read-only; provisioning itself never goes
// through HTTP.
func New(reporter *provision.Reporter) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	app.Get("/report", func(c *fiber.Ctx) error {
		return c.JSON(reporter.Report(c.Context()))
	})

	app.Get("/metrics", metrics.MetricsHandler())

	return app
}
