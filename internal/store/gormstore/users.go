package gormstore

import (
	"context"
	"time"

	"spinwheel/internal/models"
	"spinwheel/internal/store"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type userRow struct {
	ID            string `gorm:"primaryKey;type:varchar(36)"`
	Surname       string `gorm:"index:idx_user_name"`
	Name          string `gorm:"index:idx_user_name"`
	Phone         string
	Email         string
	LoyaltyPoints int `gorm:"not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (userRow) TableName() string { return "users" }

// pointsEntryRow is one line of the loyalty ledger.
type pointsEntryRow struct {
	ID           int64  `gorm:"primaryKey"`
	UserID       string `gorm:"index;not null"`
	WheelID      string
	SpinResultID string
	Points       int
	Prize        string
	Timestamp    time.Time
}

func (pointsEntryRow) TableName() string { return "user_points_history" }

func loadUser(tx *gorm.DB, id string) (*models.User, error) {
	var row userRow
	if err := tx.Where("id = ?", id).First(&row).Error; err != nil {
		return nil, translate(err)
	}
	var entries []pointsEntryRow
	if err := tx.Where("user_id = ?", id).Order("id asc").Find(&entries).Error; err != nil {
		return nil, err
	}
	u := &models.User{
		ID:            row.ID,
		Surname:       row.Surname,
		Name:          row.Name,
		Phone:         row.Phone,
		Email:         row.Email,
		LoyaltyPoints: row.LoyaltyPoints,
		PointsHistory: make([]models.PointsEntry, 0, len(entries)),
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
	for _, e := range entries {
		u.PointsHistory = append(u.PointsHistory, models.PointsEntry{
			WheelID:      e.WheelID,
			SpinResultID: e.SpinResultID,
			Points:       e.Points,
			Prize:        e.Prize,
			Timestamp:    e.Timestamp,
		})
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	return loadUser(s.db.WithContext(ctx), id)
}

func (s *Store) FindOrCreateUser(ctx context.Context, surname, name string) (*models.User, error) {
	var user *models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		var row userRow
		err := tx.Where("surname = ? AND name = ?", surname, name).
			Attrs(userRow{ID: uuid.NewString(), Surname: surname, Name: name, CreatedAt: now, UpdatedAt: now}).
			FirstOrCreate(&row).Error
		if err != nil {
			return err
		}
		user, err = loadUser(tx, row.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// AwardPoints bumps the balance and appends the ledger entry in one
// transaction.
func (s *Store) AwardPoints(ctx context.Context, userID string, entry models.PointsEntry) (*models.User, error) {
	var user *models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&userRow{}).Where("id = ?", userID).Updates(map[string]any{
			"loyalty_points": gorm.Expr("loyalty_points + ?", entry.Points),
			"updated_at":     utc(entry.Timestamp),
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return store.ErrNotFound
		}
		if err := tx.Create(&pointsEntryRow{
			UserID:       userID,
			WheelID:      entry.WheelID,
			SpinResultID: entry.SpinResultID,
			Points:       entry.Points,
			Prize:        entry.Prize,
			Timestamp:    utc(entry.Timestamp),
		}).Error; err != nil {
			return err
		}
		var err error
		user, err = loadUser(tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}
