package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"catalogapi/internal/config"
)

func newMigrateCmd(cfg func() *config.AppConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the product schema (PostgreSQL) or indexes (MongoDB)",
		Long: `Ensures the backing store selected by STORE_DRIVER is ready.
It is idempotent: an existing schema is left untouched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := log.Logger.WithContext(cmd.Context())

			b, err := openBackend(ctx, cfg())
			if err != nil {
				return err
			}
			defer func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = b.close(closeCtx)
			}()

			return b.migrate(ctx)
		},
	}
}
