package db

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/myflix-app/apiserver/config"
)

// OpenMongo connects to MongoDB, pings the primary and returns the client
// together with the configured database.
func OpenMongo(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, *mongo.Database, error) {
	if strings.TrimSpace(cfg.URI) == "" {
		return nil, nil, fmt.Errorf("mongo uri is required")
	}

	client, err := mongo.Connect(options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(defaultPingTimeout))
	if err != nil {
		return nil, nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}

	return client, client.Database(cfg.Database), nil
}

// MongoURL returns cfg.URI with the database set as its path, the form the
// golang-migrate mongodb driver expects.
func MongoURL(cfg config.MongoConfig) (string, error) {
	u, err := url.Parse(cfg.URI)
	if err != nil {
		return "", fmt.Errorf("parse mongo uri: %w", err)
	}
	u.Path = "/" + cfg.Database
	return u.String(), nil
}

// MigrationsURL is the golang-migrate source for driver, relative to root.
func MigrationsURL(root, driver string) string {
	return "file://" + strings.TrimRight(root, "/") + "/internal/db/migrations/" + driver
}
