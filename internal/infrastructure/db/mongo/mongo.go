package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultTimeout = 10 * time.Second

// Config captures the minimal settings required to establish a MongoDB connection.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Connect establishes a MongoDB client, verifies connectivity with a ping, and
// returns both the client and the selected database.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	return client, client.Database(cfg.Database), nil
}

// HealthCheck reports MongoDB reachability for the readiness probe.
type HealthCheck struct {
	db *mongo.Database
}

func NewHealthCheck(db *mongo.Database) *HealthCheck {
	return &HealthCheck{db: db}
}

func (h *HealthCheck) Name() string { return "mongodb" }

func (h *HealthCheck) Check(ctx context.Context) error {
	if err := h.db.Client().Ping(ctx, nil); err != nil {
		return err
	}
	return h.db.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
}
