package repository

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/abhi542/MouldLensAI/internal/common"
)

// Open connects to the document store and returns the client. Created once
// at process start and shared across requests.
func Open(ctx context.Context, cfg common.MongoConfig, logger *slog.Logger) (*mongo.Client, error) {
	logger.Info("connecting to document store", "uri", cfg.URI, "database", cfg.Database)

	dialCtx := ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}

	client, err := mongo.Connect(dialCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		logger.Error("failed to connect to document store", "error", err)
		return nil, err
	}
	logger.Info("successfully connected to document store")
	return client, nil
}

// Close disconnects gracefully.
func Close(client *mongo.Client, logger *slog.Logger) {
	if client == nil {
		return
	}
	logger.Info("closing document store connection")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		logger.Error("failed to close document store connection", "error", err)
		return
	}
	logger.Info("document store connection closed")
}

// HealthCheck pings the primary to catch URI issues early.
func HealthCheck(ctx context.Context, client *mongo.Client, timeout time.Duration, logger *slog.Logger) error {
	logger.Debug("pinging document store")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return err
	}
	logger.Debug("document store ping successful")
	return nil
}
