package gormstore

import (
	"context"
	"fmt"
	"time"

	"spinwheel/internal/models"
	"spinwheel/internal/store"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

type spinResultRow struct {
	ID              string `gorm:"primaryKey;type:varchar(36)"`
	WheelID         string `gorm:"index;not null"`
	RouteName       string `gorm:"index;not null"`
	Surname         string
	Name            string
	AmountSpent     string
	CustomFieldData string `gorm:"type:text"`
	FormEnabled     bool
	InTime          time.Time
	OutTime         *time.Time `gorm:"index"`
	Winner          *string
	PrizeType       string
	PrizeAmount     string
	UserID          string
	Approved        bool
	UserAgent       string
	IPAddress       string `gorm:"index"`
	DeviceID        string `gorm:"index"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (spinResultRow) TableName() string { return "spin_results" }

func toResultRow(r *models.SpinResult) (*spinResultRow, error) {
	custom := "{}"
	if len(r.CustomFieldData) > 0 {
		b, err := json.Marshal(r.CustomFieldData)
		if err != nil {
			return nil, fmt.Errorf("encode custom fields: %w", err)
		}
		custom = string(b)
	}
	return &spinResultRow{
		ID:              r.ID,
		WheelID:         r.WheelID,
		RouteName:       r.RouteName,
		Surname:         r.Surname,
		Name:            r.Name,
		AmountSpent:     r.AmountSpent,
		CustomFieldData: custom,
		FormEnabled:     r.FormEnabled,
		InTime:          utc(r.InTime),
		OutTime:         utcPtr(r.OutTime),
		Winner:          r.Winner,
		PrizeType:       string(r.PrizeType),
		PrizeAmount:     r.PrizeAmount,
		UserID:          r.UserID,
		Approved:        r.Approved,
		UserAgent:       r.UserAgent,
		IPAddress:       r.IPAddress,
		DeviceID:        r.DeviceID,
		CreatedAt:       utc(r.CreatedAt),
		UpdatedAt:       utc(r.UpdatedAt),
	}, nil
}

func (row *spinResultRow) model() (*models.SpinResult, error) {
	custom := map[string]string{}
	if row.CustomFieldData != "" {
		if err := json.Unmarshal([]byte(row.CustomFieldData), &custom); err != nil {
			return nil, fmt.Errorf("decode custom fields of %s: %w", row.ID, err)
		}
	}
	return &models.SpinResult{
		ID:              row.ID,
		WheelID:         row.WheelID,
		RouteName:       row.RouteName,
		Surname:         row.Surname,
		Name:            row.Name,
		AmountSpent:     row.AmountSpent,
		CustomFieldData: custom,
		FormEnabled:     row.FormEnabled,
		InTime:          row.InTime,
		OutTime:         row.OutTime,
		Winner:          row.Winner,
		PrizeType:       models.PrizeType(row.PrizeType),
		PrizeAmount:     row.PrizeAmount,
		UserID:          row.UserID,
		Approved:        row.Approved,
		UserAgent:       row.UserAgent,
		IPAddress:       row.IPAddress,
		DeviceID:        row.DeviceID,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}, nil
}

func resultModels(rows []spinResultRow) ([]*models.SpinResult, error) {
	out := make([]*models.SpinResult, 0, len(rows))
	for i := range rows {
		r, err := rows[i].model()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *Store) CreateSpinResult(ctx context.Context, r *models.SpinResult) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	row, err := toResultRow(r)
	if err != nil {
		return err
	}
	return translate(s.db.WithContext(ctx).Create(row).Error)
}

func (s *Store) GetSpinResult(ctx context.Context, id string) (*models.SpinResult, error) {
	var row spinResultRow
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, translate(err)
	}
	return row.model()
}

func (s *Store) resultExists(ctx context.Context, id string) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&spinResultRow{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// ClaimOutcome only updates a row whose winner is still NULL.
func (s *Store) ClaimOutcome(ctx context.Context, id string, o models.Outcome) (bool, error) {
	var applied models.SpinResult
	o.Apply(&applied)

	updates := map[string]any{
		"winner":       *applied.Winner,
		"prize_type":   string(applied.PrizeType),
		"prize_amount": applied.PrizeAmount,
		"out_time":     o.OutTime.UTC(),
		"updated_at":   o.OutTime.UTC(),
	}
	if o.UserID != "" {
		updates["user_id"] = o.UserID
	}
	res := s.db.WithContext(ctx).Model(&spinResultRow{}).
		Where("id = ? AND winner IS NULL", id).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 1 {
		return true, nil
	}
	ok, err := s.resultExists(ctx, id)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, store.ErrNotFound
	}
	return false, nil
}

func (s *Store) LinkUser(ctx context.Context, id, userID string) error {
	res := s.db.WithContext(ctx).Model(&spinResultRow{}).Where("id = ?", id).Update("user_id", userID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) FindRecentSpin(ctx context.Context, routeName, deviceID, ip string, since time.Time) (*models.SpinResult, error) {
	q := s.db.WithContext(ctx).
		Where("route_name = ? AND winner IS NOT NULL AND out_time >= ?", routeName, since.UTC())
	switch {
	case deviceID != "" && ip != "":
		q = q.Where("(device_id = ? OR ip_address = ?)", deviceID, ip)
	case deviceID != "":
		q = q.Where("device_id = ?", deviceID)
	case ip != "":
		q = q.Where("ip_address = ?", ip)
	default:
		return nil, store.ErrNotFound
	}

	var row spinResultRow
	if err := q.Order("out_time desc").First(&row).Error; err != nil {
		return nil, translate(err)
	}
	return row.model()
}

func (s *Store) ListSpinResultsByWheel(ctx context.Context, wheelID string) ([]*models.SpinResult, error) {
	var rows []spinResultRow
	if err := s.db.WithContext(ctx).Where("wheel_id = ?", wheelID).Order("created_at desc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return resultModels(rows)
}

func (s *Store) ListSpinResultsByRoute(ctx context.Context, routeName string) ([]*models.SpinResult, error) {
	var rows []spinResultRow
	if err := s.db.WithContext(ctx).Where("route_name = ?", routeName).Order("created_at desc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return resultModels(rows)
}

func (s *Store) SetApproved(ctx context.Context, id string, approved bool) (*models.SpinResult, error) {
	res := s.db.WithContext(ctx).Model(&spinResultRow{}).Where("id = ?", id).Update("approved", approved)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetSpinResult(ctx, id)
}

func (s *Store) DeleteSpinResultsByRoute(ctx context.Context, routeName string) (int64, error) {
	res := s.db.WithContext(ctx).Where("LOWER(route_name) = LOWER(?)", routeName).Delete(&spinResultRow{})
	return res.RowsAffected, res.Error
}
