package handler

import (
	"context"
	"net/http"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"catalogapi/internal/config"
	"catalogapi/internal/http/middleware"
	"catalogapi/internal/service"
)

// Options carries the boundary settings of RegisterRoutes.
// A nil Metrics handler leaves /metrics unregistered.
type Options struct {
	Upload  config.UploadConfig
	Auth    config.AuthConfig
	Media   config.MediaConfig
	Metrics http.Handler
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers only translate between HTTP and the product service.
func RegisterRoutes(app *fiber.App, ping func(context.Context) error, svc service.ProductService, opts Options) {
	app.Get("/health", HealthCheck(ping))
	// Simple liveness probe
	app.Get("/healthz", LivenessProbe())

	if opts.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(opts.Metrics))
	}

	// Locally promoted images are served from the media directory.
	if opts.Media.Storage == config.MediaStorageLocal {
		app.Static(opts.Media.URLPrefix, filepath.Join(opts.Media.Root, opts.Media.Dir))
	}

	optionalAuth := middleware.Auth(opts.Auth, false)
	requiredAuth := middleware.Auth(opts.Auth, true)

	api := app.Group("/api/product")
	api.Get("/", optionalAuth, ListProducts(svc))
	api.Get("/GetAll", optionalAuth, ListProducts(svc))
	api.Get("/mine", requiredAuth, ListMyProducts(svc))
	api.Get("/:id", optionalAuth, GetProduct(svc))
	api.Post("/", requiredAuth, CreateProduct(svc, opts.Upload))
	api.Put("/:id", requiredAuth, UpdateProduct(svc, opts.Upload))
	api.Delete("/:id", requiredAuth, DeleteProduct(svc))
}
