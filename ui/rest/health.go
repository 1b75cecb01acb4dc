package rest

import (
	"github.com/AzielCF/az-bot/domains/health"
	"github.com/AzielCF/az-bot/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type Health struct {
	Service health.IHealthUsecase
	BotName string
}

func InitRestHealth(app fiber.Router, service health.IHealthUsecase, botName string) Health {
	handler := Health{Service: service, BotName: botName}

	app.Get("/", handler.Index)
	app.Get("/healthz", handler.GetStatus)

	return handler
}

// Index is the liveness check used by hosting platforms. It never touches the session.
func (h *Health) Index(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.Status(fiber.StatusOK).SendString(h.BotName + " is running")
}

func (h *Health) GetStatus(c *fiber.Ctx) error {
	if h.Service == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(utils.ResponseData{
			Status:  fiber.StatusServiceUnavailable,
			Code:    "SERVICE_UNAVAILABLE",
			Message: "Health service not initialized",
		})
	}

	report := h.Service.GetStatus(c.UserContext())
	return c.JSON(utils.ResponseData{
		Status:  fiber.StatusOK,
		Code:    "SUCCESS",
		Message: "Health status retrieved",
		Results: report,
	})
}
