package migration

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var productIndexes = []mongo.IndexModel{
	{
		Keys:    bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}},
		Options: options.Index().SetName("idx_products_created_at"),
	},
	{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("idx_products_user_id_created_at"),
	},
}

// EnsureIndexes creates the listing indexes of the products collection. Existing indexes are kept.
func EnsureIndexes(ctx context.Context, coll *mongo.Collection) error {
	names, err := coll.Indexes().CreateMany(ctx, productIndexes)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).
			Str("component", "database").
			Str("event", "db_migration_failed").
			Str("collection", coll.Name()).
			Msg("failed to create indexes")
		return fmt.Errorf("create indexes on %s: %w", coll.Name(), err)
	}

	zerolog.Ctx(ctx).Info().
		Str("component", "database").
		Str("event", "db_migration_success").
		Str("collection", coll.Name()).
		Strs("indexes", names).
		Msg("indexes ensured")
	return nil
}
