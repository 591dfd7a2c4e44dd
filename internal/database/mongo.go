package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"

	"catalogapi/internal/config"
)

var mongoConnect = mongo.Connect

// NewMongo connects to MongoDB with command tracing and returns the configured database.
// The caller disconnects through db.Client().
func NewMongo(ctx context.Context, c config.MongoConfig) (*mongo.Database, error) {
	if c.URI == "" || c.Database == "" {
		return nil, errors.New("invalid mongo config: uri and database are required")
	}

	opts := options.Client().
		ApplyURI(c.URI).
		SetMonitor(otelmongo.NewMonitor())

	client, err := mongoConnect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	zerolog.Ctx(ctx).Info().
		Str("component", "database").
		Str("mongo_database", c.Database).
		Msg("mongo connected")

	return client.Database(c.Database), nil
}
