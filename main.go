package main

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"assesshub/config"
	"assesshub/middleware"
	"assesshub/routes"
	"assesshub/store"
	"assesshub/worker"
)

func main() {
	logger := log.New(os.Stdout, "SERVER: ", log.Ldate|log.Ltime|log.Lshortfile)

	if err := config.LoadConfig(); err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	if config.AppConfig.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         config.AppConfig.SentryDSN,
			Environment: config.AppConfig.Environment,
		}); err != nil {
			logger.Printf("Failed to initialize Sentry: %v", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	if err := config.ConnectDB(); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	kv := store.NewFromConfig()

	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(middleware.CORS())

	routes.SetupRoutes(app, config.DB, kv)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if interval := config.AppConfig.ReconcileInterval; interval > 0 {
		reconcileWorker := worker.NewReconcileWorker(config.DB, log.New(os.Stdout, "RECONCILE: ", log.LstdFlags), interval)
		go reconcileWorker.Start(ctx)
	}

	logger.Printf("🚀 Server starting on port %s", config.AppConfig.ServerPort)
	if err := app.Listen(":" + config.AppConfig.ServerPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}

// errorHandler translates unhandled errors to the uniform JSON body
// without echoing internals to the client; the cause goes to Sentry.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
	}

	if code >= fiber.StatusInternalServerError {
		sentry.CaptureException(err)
	}

	return c.Status(code).JSON(fiber.Map{
		"error": message,
	})
}
