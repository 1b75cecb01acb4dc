package cmd

import (
	"github.com/AzielCF/az-bot/core/config"
	domainHealth "github.com/AzielCF/az-bot/domains/health"
	"github.com/AzielCF/az-bot/pkg/msgworker"
	"github.com/AzielCF/az-bot/ui/rest"
	"github.com/AzielCF/az-bot/ui/rest/middleware"
	"github.com/AzielCF/az-bot/ui/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// newServer builds the HTTP surface: liveness, health report, pool stats and /ws.
func newServer(cfg *config.Config, health domainHealth.IHealthUsecase, hub *websocket.Hub, pool *msgworker.MessageWorkerPool) *fiber.App {
	app := fiber.New(fiber.Config{
		Network:               "tcp",
		AppName:               cfg.App.BotName,
		DisableStartupMessage: true,
		ServerHeader:          "Hidden",
	})

	app.Use(requestid.New())
	app.Use(middleware.Recovery())
	if cfg.App.Debug {
		app.Use(logger.New())
	}

	rest.InitRestHealth(app, health, cfg.App.BotName)
	rest.InitRestWorkerPool(app, pool)
	hub.RegisterRoutes(app, health)

	return app
}
