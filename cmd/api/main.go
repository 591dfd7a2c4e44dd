package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"catalogapi/internal/config"
)

// @title Catalog API
// @version 1.0
// @description Product catalog with text and image moderation.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfg *config.AppConfig

	cmd := &cobra.Command{
		Use:   "catalogapi",
		Short: "Product catalog API with content moderation",
		Long: `catalogapi serves the product catalog. Every create and update is screened
by the text moderation gate and the visual content scanner before the record
and its image are stored.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load configuration from environment variables (.env auto-loaded if present)
			cfg = config.Load()
			setupLogging(cfg.LogLevel)
		},
	}

	cmd.AddCommand(
		newServeCmd(func() *config.AppConfig { return cfg }),
		newMigrateCmd(func() *config.AppConfig { return cfg }),
	)
	return cmd
}

// setupLogging installs the global JSON logger, also used as the fallback of zerolog.Ctx.
func setupLogging(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	if lvl, err := zerolog.ParseLevel(level); err == nil && lvl != zerolog.NoLevel {
		zerolog.SetGlobalLevel(lvl)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Str("service", "catalogapi").Logger()
	zerolog.DefaultContextLogger = &log.Logger
}
