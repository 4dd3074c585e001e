package router

import (
	"github.com/fluxbyte/paddlesync/app/controllers"
	"github.com/fluxbyte/paddlesync/internal/pkg/env"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// InstallRouter registers the webhook endpoint and its supporting routes.
func InstallRouter(app *fiber.App, wc *controllers.WebhookController) {
	app.Use(cors.New(cors.Config{
		AllowMethods: "POST,OPTIONS",
		AllowHeaders: "Content-Type, Paddle-Signature",
	}))

	app.Post("/webhook", wc.HandleWebhook)
	app.Options("/webhook", wc.HandlePreflight)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	// Diagnostic log ring, dev only.
	if env.IsDev() {
		app.Get("/debug/logs", wc.HandleDebugLogs)
	}
}
