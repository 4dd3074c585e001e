package main

import (
	"errors"
	"fmt"
	"log"

	"github.com/fluxbyte/paddlesync/app/controllers"
	"github.com/fluxbyte/paddlesync/internal/pkg/database"
	"github.com/fluxbyte/paddlesync/internal/pkg/env"
	"github.com/fluxbyte/paddlesync/internal/pkg/paddle"
	"github.com/fluxbyte/paddlesync/internal/pkg/router"
	"github.com/fluxbyte/paddlesync/internal/pkg/weblog"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()

	ring := weblog.New(weblog.DefaultCapacity)
	app := newFiberApp(ring)

	svc := paddle.NewServiceFromDB(database.GetDB(), ring)
	verifier := paddle.NewVerifier(
		env.GetEnv("PADDLE_WEBHOOK_SECRET", ""),
		env.GetEnv("APP_ENV", "prod"),
	)
	wc := controllers.NewWebhookController(svc, verifier, ring, ring)

	router.InstallRouter(app, wc)

	return app
}

// newFiberApp builds the fiber instance with the recovery and error handling
// middleware. Panics anywhere in the request lifecycle end up here as errors
// and are answered with a generic 500; internal detail goes to the log,
// never to the caller.
func newFiberApp(ring *weblog.RingLogger) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit: 1 << 20, // webhook payloads are small JSON documents
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			requestID := uuid.NewString()
			ring.Errorf("request %s: unhandled error: %v", requestID, err)
			code := fiber.StatusInternalServerError
			msg := "internal server error"
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
				if code < fiber.StatusInternalServerError {
					msg = fe.Message
				}
			}
			return c.Status(code).JSON(fiber.Map{
				"error":     msg,
				"requestId": requestID,
			})
		},
	})
	app.Use(recover.New(), logger.New())
	app.Get("/metrics", monitor.New())
	return app
}
