package db

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// extractDBName parses the database name from the URI, falling back to def
func extractDBName(uri, def string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return def
	}
	if u.Path != "" && u.Path != "/" {
		return u.Path[1:]
	}
	return def
}

// ConnectMongoDB establishes a connection to MongoDB and returns the database
// named by the URI path, or fallbackName when the URI carries none.
func ConnectMongoDB(ctx context.Context, uri, fallbackName string) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Verify connection with a ping
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client, client.Database(extractDBName(uri, fallbackName)), nil
}
