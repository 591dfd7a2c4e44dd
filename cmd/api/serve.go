package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"catalogapi/docs"
	"catalogapi/internal/config"
	"catalogapi/internal/events"
	handlers "catalogapi/internal/http/handler"
	"catalogapi/internal/http/middleware"
	"catalogapi/internal/moderation"
	"catalogapi/internal/otel"
	"catalogapi/internal/scanner"
	"catalogapi/internal/service"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(cfg func() *config.AppConfig) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the catalog HTTP API",
		Example: `  # Serve with the settings from the environment / .env
  catalogapi serve

  # Create the schema first
  catalogapi serve --migrate`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), cfg(), migrate)
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "Ensure the schema or indexes before serving")
	return cmd
}

func serve(ctx context.Context, cfg *config.AppConfig, migrate bool) error {
	ctx = log.Logger.WithContext(ctx)

	shutdownTracing, err := otel.Init(ctx)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		c, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(c); err != nil {
			log.Warn().Err(err).Msg("tracing shutdown failed")
		}
	}()

	b, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		c, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := b.close(c); err != nil {
			log.Warn().Err(err).Msg("closing store failed")
		}
	}()
	if migrate {
		if err := b.migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	media, err := newMediaStore(cfg)
	if err != nil {
		return err
	}

	scan, err := scanner.NewSightengine(scanner.Config{
		Endpoint:        cfg.Scanner.Endpoint,
		APIUser:         cfg.Scanner.APIUser,
		APISecret:       cfg.Scanner.APISecret,
		Models:          cfg.Scanner.Models,
		Timeout:         cfg.Scanner.Timeout,
		BreakerCooldown: cfg.Scanner.BreakerCooldown,
	})
	if err != nil {
		return fmt.Errorf("initialize scanner: %w", err)
	}

	var publisher events.Publisher = events.Noop{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	}
	defer publisher.Close()

	metrics, err := service.NewMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("register pipeline metrics: %w", err)
	}

	opts := []service.Option{service.WithPublisher(publisher), service.WithMetrics(metrics)}
	if cfg.PromotionPolicy == config.PromotionPolicyRollback {
		opts = append(opts, service.WithRollbackOnPromotionFailure())
	}

	// Initialize services
	gate := moderation.NewGate(moderation.Config{ExtraTerms: cfg.Moderation.ExtraTerms})
	productSvc := service.NewProductService(b.repo, media, gate, scan, opts...)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		// Room for the form fields around a maximum-size image.
		BodyLimit: int(cfg.Upload.MaxBytes) + 1<<20,
	})

	promMiddleware, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("register http metrics: %w", err)
	}

	// Register global middleware
	app.Use(otelfiber.Middleware())
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())
	app.Use(promMiddleware.Handler())

	// Register HTTP routes with injected service
	handlers.RegisterRoutes(app, b.ping, productSvc, handlers.Options{
		Upload:  cfg.Upload,
		Auth:    cfg.Auth,
		Media:   cfg.Media,
		Metrics: promhttp.Handler(),
	})

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	addr := ":" + cfg.Port
	serverErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", addr).
			Str("store", cfg.StoreDriver).
			Str("media", cfg.Media.Storage).
			Int("moderation_terms", len(gate.Terms())).
			Bool("events", len(cfg.Kafka.Brokers) > 0).
			Msg("catalog api listening")
		serverErr <- app.Listen(addr)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-serverErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	}
}
