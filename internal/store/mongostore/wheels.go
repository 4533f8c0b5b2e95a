package mongostore

import (
	"context"
	"fmt"

	"spinwheel/internal/models"
	"spinwheel/internal/store"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *Store) ListWheels(ctx context.Context) ([]*models.Wheel, error) {
	cur, err := s.wheels.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	out := make([]*models.Wheel, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) findWheel(ctx context.Context, filter bson.M) (*models.Wheel, error) {
	var w models.Wheel
	if err := s.wheels.FindOne(ctx, filter).Decode(&w); err != nil {
		return nil, translate(err)
	}
	return &w, nil
}

func (s *Store) GetWheel(ctx context.Context, id string) (*models.Wheel, error) {
	return s.findWheel(ctx, bson.M{"_id": id})
}

func (s *Store) GetWheelByRoute(ctx context.Context, routeName string) (*models.Wheel, error) {
	return s.findWheel(ctx, bson.M{"routeName": routeName})
}

func (s *Store) CreateWheel(ctx context.Context, w *models.Wheel) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	_, err := s.wheels.InsertOne(ctx, w)
	return translate(err)
}

func (s *Store) UpdateWheel(ctx context.Context, w *models.Wheel) error {
	res, err := s.wheels.ReplaceOne(ctx, bson.M{"_id": w.ID}, w)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) UpdateSegments(ctx context.Context, wheelID string, segments []models.Segment) error {
	if segments == nil {
		segments = []models.Segment{}
	}
	res, err := s.wheels.UpdateOne(ctx, bson.M{"_id": wheelID}, bson.M{"$set": bson.M{"segments": segments}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DecrementRemaining takes one unit with a filtered $inc, so two spins can
// never both take the last unit. A segment whose counter was never written
// is first seeded from its limit under the same kind of guard.
func (s *Store) DecrementRemaining(ctx context.Context, wheelID string, index int) (bool, error) {
	w, err := s.findWheel(ctx, bson.M{"_id": wheelID})
	if err != nil {
		return false, err
	}
	if index < 0 || index >= len(w.Segments) || !w.Segments[index].Limited() {
		return false, nil
	}

	remaining := fmt.Sprintf("segments.%d.dailyRemaining", index)
	limit := fmt.Sprintf("segments.%d.dailyLimit", index)

	if seg := w.Segments[index]; seg.DailyRemaining == nil {
		_, err := s.wheels.UpdateOne(ctx,
			bson.M{"_id": wheelID, remaining: nil, limit: *seg.DailyLimit},
			bson.M{"$set": bson.M{remaining: *seg.DailyLimit}})
		if err != nil {
			return false, fmt.Errorf("seed counter: %w", err)
		}
	}

	res, err := s.wheels.UpdateOne(ctx,
		bson.M{"_id": wheelID, remaining: bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{remaining: -1}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (s *Store) DeleteWheel(ctx context.Context, id string) error {
	res, err := s.wheels.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
