package rest

import (
	"github.com/AzielCF/az-bot/pkg/msgworker"
	"github.com/gofiber/fiber/v2"
)

// InitRestWorkerPool exposes the message worker pool statistics.
func InitRestWorkerPool(app fiber.Router, pool *msgworker.MessageWorkerPool) {
	app.Get("/api/worker-pool/stats", func(c *fiber.Ctx) error {
		return GetWorkerPoolStats(c, pool)
	})
}

// GetWorkerPoolStats returns real-time worker pool statistics
func GetWorkerPoolStats(c *fiber.Ctx, pool *msgworker.MessageWorkerPool) error {
	if pool == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Message worker pool not initialized",
		})
	}

	return c.JSON(pool.GetStats())
}
