// Package mongo connects the two logical document databases: one for
// credential accounts and sessions, one for activity logs.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// Databases bundles the shared client and the two named databases.
type Databases struct {
	client *mongo.Client
	Auth   *mongo.Database
	Logs   *mongo.Database
}

// Connect dials Mongo once and returns handles to both databases.
func Connect(ctx context.Context, uri, authDB, logsDB string) (*Databases, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &Databases{
		client: client,
		Auth:   client.Database(authDB),
		Logs:   client.Database(logsDB),
	}, nil
}

// Close disconnects the underlying client.
func (d *Databases) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}
