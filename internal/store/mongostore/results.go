package mongostore

import (
	"context"
	"regexp"
	"time"

	"spinwheel/internal/models"
	"spinwheel/internal/store"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var newestFirst = bson.D{{Key: "createdAt", Value: -1}}

func (s *Store) CreateSpinResult(ctx context.Context, r *models.SpinResult) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	_, err := s.results.InsertOne(ctx, r)
	return translate(err)
}

func (s *Store) GetSpinResult(ctx context.Context, id string) (*models.SpinResult, error) {
	var r models.SpinResult
	if err := s.results.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

// ClaimOutcome matches only a result without a winner, so at most one spin
// is ever recorded per session.
func (s *Store) ClaimOutcome(ctx context.Context, id string, o models.Outcome) (bool, error) {
	set := bson.M{
		"winner":      o.Winner,
		"prizeType":   o.PrizeType.OrDefault(),
		"prizeAmount": o.PrizeAmount,
		"outTime":     o.OutTime,
		"updatedAt":   o.OutTime,
	}
	if o.UserID != "" {
		set["userId"] = o.UserID
	}
	res, err := s.results.UpdateOne(ctx, bson.M{"_id": id, "winner": nil}, bson.M{"$set": set})
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 1 {
		return true, nil
	}
	ok, err := exists(ctx, s.results, id)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, store.ErrNotFound
	}
	return false, nil
}

func (s *Store) LinkUser(ctx context.Context, id, userID string) error {
	res, err := s.results.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"userId": userID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) FindRecentSpin(ctx context.Context, routeName, deviceID, ip string, since time.Time) (*models.SpinResult, error) {
	var match bson.A
	if deviceID != "" {
		match = append(match, bson.M{"sessionId": deviceID})
	}
	if ip != "" {
		match = append(match, bson.M{"ipAddress": ip})
	}
	if len(match) == 0 {
		return nil, store.ErrNotFound
	}
	filter := bson.M{
		"routeName": routeName,
		"winner":    bson.M{"$ne": nil},
		"outTime":   bson.M{"$gte": since},
		"$or":       match,
	}
	var r models.SpinResult
	opts := options.FindOne().SetSort(bson.D{{Key: "outTime", Value: -1}})
	if err := s.results.FindOne(ctx, filter, opts).Decode(&r); err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

func (s *Store) listResults(ctx context.Context, filter bson.M) ([]*models.SpinResult, error) {
	cur, err := s.results.Find(ctx, filter, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, err
	}
	out := make([]*models.SpinResult, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) ListSpinResultsByWheel(ctx context.Context, wheelID string) ([]*models.SpinResult, error) {
	return s.listResults(ctx, bson.M{"wheelId": wheelID})
}

func (s *Store) ListSpinResultsByRoute(ctx context.Context, routeName string) ([]*models.SpinResult, error) {
	return s.listResults(ctx, bson.M{"routeName": routeName})
}

func (s *Store) SetApproved(ctx context.Context, id string, approved bool) (*models.SpinResult, error) {
	var r models.SpinResult
	err := s.results.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"approved": approved}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&r)
	if err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

func (s *Store) DeleteSpinResultsByRoute(ctx context.Context, routeName string) (int64, error) {
	pattern := primitive.Regex{Pattern: "^" + regexp.QuoteMeta(routeName) + "$", Options: "i"}
	res, err := s.results.DeleteMany(ctx, bson.M{"routeName": pattern})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
