// Package mongostore keeps the engine's documents in MongoDB. Conditional
// writes are single UpdateOne calls whose filter carries the precondition.
package mongostore

import (
	"context"
	"errors"
	"fmt"

	"spinwheel/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	wheelsCollection  = "wheels"
	resultsCollection = "spinresults"
	usersCollection   = "users"
	loginsCollection  = "logins"
)

// Store is a store.Store backed by a MongoDB database.
type Store struct {
	client  *mongo.Client
	wheels  *mongo.Collection
	results *mongo.Collection
	users   *mongo.Collection
	logins  *mongo.Collection
}

var _ store.Store = (*Store)(nil)

// Open connects to uri, checks the primary is reachable and creates the
// indexes the store relies on.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	db := client.Database(database)
	s := &Store{
		client:  client,
		wheels:  db.Collection(wheelsCollection),
		results: db.Collection(resultsCollection),
		users:   db.Collection(usersCollection),
		logins:  db.Collection(loginsCollection),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	indexes := []struct {
		coll   *mongo.Collection
		models []mongo.IndexModel
	}{
		{s.wheels, []mongo.IndexModel{
			{Keys: bson.D{{Key: "routeName", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "updatedAt", Value: -1}}},
		}},
		{s.results, []mongo.IndexModel{
			{Keys: bson.D{{Key: "routeName", Value: 1}, {Key: "outTime", Value: -1}}},
			{Keys: bson.D{{Key: "wheelId", Value: 1}, {Key: "createdAt", Value: -1}}},
		}},
		{s.users, []mongo.IndexModel{
			{Keys: bson.D{{Key: "surname", Value: 1}, {Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
		}},
		{s.logins, []mongo.IndexModel{
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		}},
	}
	for _, ix := range indexes {
		if _, err := ix.coll.Indexes().CreateMany(ctx, ix.models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", ix.coll.Name(), err)
		}
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// translate maps driver errors onto the store's sentinel errors.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return store.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return store.ErrConflict
	}
	return err
}

func exists(ctx context.Context, coll *mongo.Collection, id string) (bool, error) {
	n, err := coll.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
