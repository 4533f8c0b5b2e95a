package gormstore

import (
	"context"
	"fmt"
	"time"

	"spinwheel/internal/models"
	"spinwheel/internal/store"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// wheelRow keeps the lookup keys as columns and the rest of the wheel as a
// JSON document.
type wheelRow struct {
	ID         string    `gorm:"primaryKey;type:varchar(36)"`
	RouteName  string    `gorm:"uniqueIndex;not null"`
	Doc        string    `gorm:"type:text;not null"`
	ModifiedAt time.Time `gorm:"index"`
}

func (wheelRow) TableName() string { return "wheels" }

func encodeWheel(w *models.Wheel) (*wheelRow, error) {
	doc, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("encode wheel %s: %w", w.ID, err)
	}
	return &wheelRow{ID: w.ID, RouteName: w.RouteName, Doc: string(doc), ModifiedAt: utc(w.UpdatedAt)}, nil
}

func (r *wheelRow) decode() (*models.Wheel, error) {
	var w models.Wheel
	if err := json.Unmarshal([]byte(r.Doc), &w); err != nil {
		return nil, fmt.Errorf("decode wheel %s: %w", r.ID, err)
	}
	w.ID = r.ID
	w.RouteName = r.RouteName
	return &w, nil
}

func (s *Store) ListWheels(ctx context.Context) ([]*models.Wheel, error) {
	var rows []wheelRow
	if err := s.db.WithContext(ctx).Order("modified_at desc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*models.Wheel, 0, len(rows))
	for i := range rows {
		w, err := rows[i].decode()
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

func (s *Store) getWheel(ctx context.Context, query string, arg string) (*models.Wheel, error) {
	var row wheelRow
	if err := s.db.WithContext(ctx).Where(query, arg).First(&row).Error; err != nil {
		return nil, translate(err)
	}
	return row.decode()
}

func (s *Store) GetWheel(ctx context.Context, id string) (*models.Wheel, error) {
	return s.getWheel(ctx, "id = ?", id)
}

func (s *Store) GetWheelByRoute(ctx context.Context, routeName string) (*models.Wheel, error) {
	return s.getWheel(ctx, "route_name = ?", routeName)
}

func (s *Store) CreateWheel(ctx context.Context, w *models.Wheel) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	row, err := encodeWheel(w)
	if err != nil {
		return err
	}
	return translate(s.db.WithContext(ctx).Create(row).Error)
}

func (s *Store) UpdateWheel(ctx context.Context, w *models.Wheel) error {
	row, err := encodeWheel(w)
	if err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Model(&wheelRow{}).Where("id = ?", w.ID).Updates(map[string]any{
		"route_name":  row.RouteName,
		"doc":         row.Doc,
		"modified_at": row.ModifiedAt,
	})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// UpdateSegments swaps the segment array inside the stored document without
// touching any other field.
func (s *Store) UpdateSegments(ctx context.Context, wheelID string, segments []models.Segment) error {
	if segments == nil {
		segments = []models.Segment{}
	}
	raw, err := json.Marshal(segments)
	if err != nil {
		return fmt.Errorf("encode segments: %w", err)
	}
	res := s.db.WithContext(ctx).Model(&wheelRow{}).Where("id = ?", wheelID).
		Update("doc", gorm.Expr("json_set(doc, '$.segments', json(?))", string(raw)))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// remainingExpr reads a segment's counter, falling back to its limit when no
// counter has been written yet. It takes the remaining and limit paths.
const remainingExpr = "COALESCE(json_extract(doc, ?), json_extract(doc, ?))"

// DecrementRemaining is a single conditional UPDATE: the row only changes if
// the segment is limited and its counter is above zero at write time.
func (s *Store) DecrementRemaining(ctx context.Context, wheelID string, index int) (bool, error) {
	if index < 0 {
		return false, nil
	}
	base := fmt.Sprintf("$.segments[%d]", index)
	remainingPath, limitPath := base+".dailyRemaining", base+".dailyLimit"

	res := s.db.WithContext(ctx).Model(&wheelRow{}).
		Where("id = ?", wheelID).
		Where("json_type(doc, ?) = 'integer'", limitPath).
		Where(remainingExpr+" > 0", remainingPath, limitPath).
		Update("doc", gorm.Expr("json_set(doc, ?, "+remainingExpr+" - 1)", remainingPath, remainingPath, limitPath))
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 1 {
		return true, nil
	}

	var n int64
	if err := s.db.WithContext(ctx).Model(&wheelRow{}).Where("id = ?", wheelID).Count(&n).Error; err != nil {
		return false, err
	}
	if n == 0 {
		return false, store.ErrNotFound
	}
	return false, nil
}

func (s *Store) DeleteWheel(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&wheelRow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}
