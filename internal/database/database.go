package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Fannysbth/kel1paw/internal/config"
)

// Database wraps the MongoDB client and the application database handle.
type Database struct {
	Client *mongo.Client
	DB     *mongo.Database

	cfg *config.MongoConfig
}

// New connects to MongoDB and verifies the connection with a ping.
func New(cfg *config.MongoConfig) (*Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(cfg.URI).
		SetTimeout(cfg.OpTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &Database{
		Client: client,
		DB:     client.Database(cfg.Database),
		cfg:    cfg,
	}, nil
}

// Close disconnects the client, draining in-flight operations.
func (d *Database) Close(ctx context.Context) error {
	return d.Client.Disconnect(ctx)
}

// Run executes one store operation bounded by the configured op timeout,
// retrying once on transient upstream failures.
func (d *Database) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	return Retry(ctx, d.cfg.RetryBackoff, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, d.cfg.OpTimeout)
		defer cancel()
		return fn(attemptCtx)
	})
}

// HealthCheck pings the server within the configured op timeout.
func (d *Database) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.OpTimeout)
	defer cancel()

	if err := d.Client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// EnsureIndexes declares the uniqueness and search indexes the repositories
// rely on. The unique indexes are the authoritative arbiters for the
// one-project-per-owner, one-rating-per-user, one-request-per-project and
// one-approved-request-per-requester invariants; application pre-checks only
// produce friendlier errors.
func (d *Database) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		"users": {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "googleId", Value: 1}},
				Options: options.Index().SetSparse(true),
			},
		},
		"projects": {
			{
				Keys:    bson.D{{Key: "ownerId", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{
				Keys: bson.D{{Key: "title", Value: "text"}, {Key: "summary", Value: "text"}},
			},
			{
				Keys: bson.D{{Key: "theme", Value: 1}, {Key: "status", Value: 1}},
			},
		},
		"comments": {
			{
				Keys: bson.D{{Key: "projectId", Value: 1}, {Key: "createdAt", Value: -1}},
			},
		},
		"ratings": {
			{
				Keys:    bson.D{{Key: "projectId", Value: 1}, {Key: "userId", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		"requests": {
			{
				Keys:    bson.D{{Key: "projectId", Value: 1}, {Key: "requesterId", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{
				// At most one approved request per requester, across all
				// projects. Partial so pending/superseded rows don't collide.
				Keys: bson.D{{Key: "requesterId", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetPartialFilterExpression(bson.D{{Key: "status", Value: "approved"}}),
			},
		},
	}

	for collection, models := range indexes {
		if _, err := d.DB.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes for %s: %w", collection, err)
		}
	}

	return nil
}
