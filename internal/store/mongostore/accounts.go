package mongostore

import (
	"context"
	"time"

	"spinwheel/internal/models"
	"spinwheel/internal/store"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// FindOrCreateUser upserts on the (surname, name) unique index. Two
// concurrent first wins can race on the insert; the loser retries as a read.
func (s *Store) FindOrCreateUser(ctx context.Context, surname, name string) (*models.User, error) {
	filter := bson.M{"surname": surname, "name": name}
	for attempt := 0; ; attempt++ {
		now := time.Now()
		update := bson.M{"$setOnInsert": bson.M{
			"_id":           uuid.NewString(),
			"phone":         "",
			"email":         "",
			"loyaltyPoints": 0,
			"pointsHistory": bson.A{},
			"createdAt":     now,
			"updatedAt":     now,
		}}
		opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

		var u models.User
		err := s.users.FindOneAndUpdate(ctx, filter, update, opts).Decode(&u)
		if err == nil {
			return &u, nil
		}
		if !mongo.IsDuplicateKeyError(err) || attempt > 0 {
			return nil, translate(err)
		}
	}
}

// AwardPoints increments the balance and appends the ledger entry in a single
// document update.
func (s *Store) AwardPoints(ctx context.Context, userID string, entry models.PointsEntry) (*models.User, error) {
	update := bson.M{
		"$inc":  bson.M{"loyaltyPoints": entry.Points},
		"$push": bson.M{"pointsHistory": entry},
		"$set":  bson.M{"updatedAt": entry.Timestamp},
	}
	var u models.User
	err := s.users.FindOneAndUpdate(ctx, bson.M{"_id": userID}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&u)
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *Store) ListLogins(ctx context.Context) ([]*models.Login, error) {
	cur, err := s.logins.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "onboard", Value: 1}}))
	if err != nil {
		return nil, err
	}
	out := make([]*models.Login, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) findLogin(ctx context.Context, filter bson.M) (*models.Login, error) {
	var l models.Login
	if err := s.logins.FindOne(ctx, filter).Decode(&l); err != nil {
		return nil, translate(err)
	}
	return &l, nil
}

func (s *Store) GetLogin(ctx context.Context, id string) (*models.Login, error) {
	return s.findLogin(ctx, bson.M{"_id": id})
}

func (s *Store) FindLoginByUsername(ctx context.Context, username string) (*models.Login, error) {
	return s.findLogin(ctx, bson.M{"username": username})
}

func (s *Store) CreateLogin(ctx context.Context, l *models.Login) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	_, err := s.logins.InsertOne(ctx, l)
	return translate(err)
}

func (s *Store) UpdateLogin(ctx context.Context, l *models.Login) error {
	res, err := s.logins.ReplaceOne(ctx, bson.M{"_id": l.ID}, l)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteLogin(ctx context.Context, id string) error {
	res, err := s.logins.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
