package mirror

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	mongoopts "go.mongodb.org/mongo-driver/mongo/options"
)

// MongoBackend mirrors documents into a MongoDB database.
type MongoBackend struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoBackend creates a client for uri. Only an invalid URI fails: an
// unreachable server is logged after waiting at most timeout, and the driver
// keeps reconnecting in the background, so mirror writes fail individually
// until it comes back.
func NewMongoBackend(ctx context.Context, uri, database string, timeout time.Duration) (*MongoBackend, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client, err := mongo.Connect(ctx, mongoopts.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		log.Printf("[MIRROR] MongoDB not reachable yet: %v", err)
	}
	return &MongoBackend{client: client, db: client.Database(database)}, nil
}

func (m *MongoBackend) EnsureCollections(ctx context.Context, names []string) error {
	existing, err := m.db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}
	have := make(map[string]bool, len(existing))
	for _, name := range existing {
		have[name] = true
	}
	for _, name := range names {
		if have[name] {
			continue
		}
		if err := m.db.CreateCollection(ctx, name); err != nil && !isNamespaceExists(err) {
			return fmt.Errorf("failed to create collection %s: %w", name, err)
		}
	}
	return nil
}

func (m *MongoBackend) Insert(ctx context.Context, collection string, doc Document) error {
	_, err := m.db.Collection(collection).InsertOne(ctx, bson.M(doc))
	return err
}

func (m *MongoBackend) Upsert(ctx context.Context, collection string, filter, set, setOnInsert Document) error {
	update := bson.M{"$set": bson.M(set)}
	if len(setOnInsert) > 0 {
		update["$setOnInsert"] = bson.M(setOnInsert)
	}
	_, err := m.db.Collection(collection).UpdateOne(ctx, bson.M(filter), update, mongoopts.Update().SetUpsert(true))
	return err
}

func (m *MongoBackend) Delete(ctx context.Context, collection string, filter Document) (int64, error) {
	res, err := m.db.Collection(collection).DeleteOne(ctx, bson.M(filter))
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (m *MongoBackend) Count(ctx context.Context, collection string, filter Document) (int64, error) {
	return m.db.Collection(collection).CountDocuments(ctx, bson.M(filter))
}

func (m *MongoBackend) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

func (m *MongoBackend) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// isNamespaceExists reports a concurrent create of the same collection.
func isNamespaceExists(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Code == 48 || cmdErr.Name == "NamespaceExists"
	}
	return false
}
