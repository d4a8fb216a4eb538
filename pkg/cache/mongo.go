package cache

import (
	"context"
	"errors"
	"time"

	crdb "github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConfig locates the collection that holds cache entries.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// MongoCache stores one document per key. A TTL index on expires_at lets
// the server purge expired entries; Get also checks expiry because the
// purge runs only periodically.
type MongoCache struct {
	client *mongo.Client
	coll   *mongo.Collection
	owned  bool
}

type mongoEntry struct {
	Key       string     `bson:"_id"`
	Data      []byte     `bson:"data"`
	ExpiresAt *time.Time `bson:"expires_at,omitempty"`
}

// NewMongoCache connects to cfg.URI and prepares the collection.
func NewMongoCache(ctx context.Context, cfg MongoConfig) (*MongoCache, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, crdb.Wrapf(err, "connect mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, crdb.Wrapf(err, "ping mongo")
	}
	c, err := NewMongoCacheFromCollection(ctx, client.Database(cfg.Database).Collection(cfg.Collection))
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	c.client, c.owned = client, true
	return c, nil
}

// NewMongoCacheFromCollection uses an existing collection and ensures its
// TTL index. Close leaves the client connected.
func NewMongoCacheFromCollection(ctx context.Context, coll *mongo.Collection) (*MongoCache, error) {
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		return nil, crdb.Wrapf(err, "create ttl index")
	}
	return &MongoCache{client: coll.Database().Client(), coll: coll}, nil
}

// Get reads the document for key.
func (c *MongoCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var e mongoEntry
	err := c.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&e)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, crdb.Wrapf(err, "mongo find %s", key)
	}
	if e.ExpiresAt != nil && time.Now().After(*e.ExpiresAt) {
		return nil, false, nil
	}
	return e.Data, true, nil
}

// Set upserts the document for key.
func (c *MongoCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	e := mongoEntry{Key: key, Data: data}
	if ttl > 0 {
		at := time.Now().Add(ttl).UTC()
		e.ExpiresAt = &at
	}
	err := RetryWithBackoff(ctx, func() error {
		_, err := c.coll.ReplaceOne(ctx, bson.M{"_id": key}, e, options.Replace().SetUpsert(true))
		if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
			return Retryable(crdb.Mark(err, ErrNetwork))
		}
		return err
	})
	if err != nil {
		return crdb.Wrapf(err, "mongo replace %s", key)
	}
	return nil
}

// Delete removes the document for key.
func (c *MongoCache) Delete(ctx context.Context, key string) error {
	if _, err := c.coll.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return crdb.Wrapf(err, "mongo delete %s", key)
	}
	return nil
}

// Close disconnects the client when the cache opened it.
func (c *MongoCache) Close() error {
	if !c.owned {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.client.Disconnect(ctx)
}

var _ Cache = (*MongoCache)(nil)
