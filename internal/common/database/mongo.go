// internal/common/database/mongo.go
package database

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"msme-lender-platform/internal/common/config"
	"msme-lender-platform/internal/common/logger"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConnector abstracts driver connect/ping so connection setup can be
// tested without a server.
type MongoConnector interface {
	Connect(ctx context.Context, opts *options.ClientOptions) (*mongo.Client, error)
	Ping(ctx context.Context, client *mongo.Client) error
}

type DefaultMongoConnector struct{}

func (d *DefaultMongoConnector) Connect(ctx context.Context, opts *options.ClientOptions) (*mongo.Client, error) {
	return mongo.Connect(ctx, opts)
}

func (d *DefaultMongoConnector) Ping(ctx context.Context, client *mongo.Client) error {
	return client.Ping(ctx, nil)
}

// MongoClient holds the driver client and the selected database.
type MongoClient struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// NewMongo connects to MongoDB and selects the configured database.
func NewMongo(ctx context.Context, cfg config.MongoConfig, log logger.Logger) (*MongoClient, error) {
	return connectWithConnector(ctx, cfg, &DefaultMongoConnector{}, log)
}

func connectWithConnector(ctx context.Context, cfg config.MongoConfig, connector MongoConnector, log logger.Logger) (*MongoClient, error) {
	safeURI := redactMongoURI(cfg.URI)
	timeout := config.GetDuration(cfg.Timeout)

	log.Info("Connecting to MongoDB", map[string]interface{}{
		"uri":      safeURI,
		"database": cfg.Database,
	})

	clientOpts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout).
		SetHeartbeatInterval(10 * time.Second).
		SetMaxPoolSize(20)

	client, err := connector.Connect(ctx, clientOpts)
	if err != nil {
		log.Error("Failed to connect to MongoDB", map[string]interface{}{
			"uri":   safeURI,
			"error": err,
		})
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := connector.Ping(ctx, client); err != nil {
		log.Error("MongoDB ping failed", map[string]interface{}{
			"uri":   safeURI,
			"error": err,
		})
		return nil, fmt.Errorf("mongo ping failed: %w", err)
	}

	return &MongoClient{
		Client:   client,
		Database: client.Database(cfg.Database),
	}, nil
}

// Close disconnects the client.
func (m *MongoClient) Close(ctx context.Context) error {
	if m.Client == nil {
		return nil
	}
	return m.Client.Disconnect(ctx)
}

// redactMongoURI hides credentials in a connection string.
func redactMongoURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.User == nil {
		return uri
	}
	u.User = url.UserPassword("***", "***")
	return u.String()
}
