// Package app assembles the Fiber application: services, handlers, the
// routing table and the fallback error handling.
package app

import (
	"errors"
	"log"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"

	"taskapi/internal/config"
	"taskapi/internal/handlers"
	"taskapi/internal/middleware"
	"taskapi/internal/repositories"
	"taskapi/internal/services"
	"taskapi/internal/validation"
)

// App bundles the HTTP application with the services behind it.
type App struct {
	Fiber       *fiber.App
	AuthService *services.AuthService
	TaskService *services.TaskService
}

// New wires repositories, services and handlers on top of db. events may be
// nil, in which case task events are not published.
func New(cfg *config.Config, db *gorm.DB, events services.EventPublisher) *App {
	validator := validation.New()

	userRepo := repositories.NewGORMUserRepository(db)
	taskRepo := repositories.NewGORMTaskRepository(db)
	revokedRepo := repositories.NewGORMRevokedTokenRepository(db)

	authService := services.NewAuthService(userRepo, revokedRepo, validator, cfg.JWT.Secret, cfg.JWT.TTL)
	taskService := services.NewTaskService(taskRepo, validator, events).
		WithDefaultPerPage(cfg.Tasks.PerPage)

	authHandler := handlers.NewAuthHandler(authService)
	taskHandler := handlers.NewTaskHandler(taskService)

	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler(cfg.Server.MethodNotAllowedStatus),
	})

	// --- Middleware ---
	app.Use(recover.New())
	if cfg.Server.RequestLog {
		app.Use(logger.New()) // Request logger
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(handlers.Envelope{Status: true, Message: "healthy"})
	})

	// --- API Routes ---
	api := app.Group("/api")
	authRequired := middleware.AuthRequired(authService)
	handlers.Mount(api, authRequired, authHandler.Routes())
	handlers.Mount(api, authRequired, taskHandler.Routes())

	return &App{
		Fiber:       app,
		AuthService: authService,
		TaskService: taskService,
	}
}

// errorHandler renders routing misses and unexpected failures in the
// standard envelope. Fiber reports 405 when the path exists under another
// method; methodNotAllowedStatus lets deployments answer 419 instead.
func errorHandler(methodNotAllowedStatus int) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			switch fe.Code {
			case fiber.StatusNotFound:
				return handlers.Fail(c, fiber.StatusNotFound, handlers.MessageInvalidEndpoint)
			case fiber.StatusMethodNotAllowed:
				return handlers.Fail(c, methodNotAllowedStatus, handlers.MessageMethodUnsupported)
			}
			if fe.Code < fiber.StatusInternalServerError {
				return handlers.Fail(c, fe.Code, http.StatusText(fe.Code))
			}
		}

		log.Printf("Unhandled error on %s %s: %v", c.Method(), c.Path(), err)
		return handlers.Fail(c, fiber.StatusInternalServerError, handlers.MessageServerError)
	}
}
