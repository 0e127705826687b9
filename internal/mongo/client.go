package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type Client struct {
	DB *mongo.Database
	c  *mongo.Client
}

func NewClient(ctx context.Context, uri, db string) (*Client, error) {
	opts := options.Client().ApplyURI(uri).SetServerSelectionTimeout(5 * time.Second)
	cl, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Client{DB: cl.Database(db), c: cl}, nil
}

// Ping verifies the server is reachable before the run proceeds.
func (c *Client) Ping(ctx context.Context) error {
	return c.c.Ping(ctx, readpref.Primary())
}

func (c *Client) Close(ctx context.Context) { _ = c.c.Disconnect(ctx) }
