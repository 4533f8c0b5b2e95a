package gormstore

import (
	"context"
	"time"

	"spinwheel/internal/models"
	"spinwheel/internal/store"

	"github.com/google/uuid"
)

type loginRow struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	Username  string `gorm:"uniqueIndex;not null"`
	Password  string `gorm:"not null"`
	RouteName string
	Onboard   time.Time
	Access    string `gorm:"default:enable"`
}

func (loginRow) TableName() string { return "logins" }

func toLoginRow(l *models.Login) *loginRow {
	return &loginRow{
		ID:        l.ID,
		Username:  l.Username,
		Password:  l.PasswordHash,
		RouteName: l.RouteName,
		Onboard:   utc(l.Onboard),
		Access:    l.Access,
	}
}

func (r *loginRow) model() *models.Login {
	return &models.Login{
		ID:           r.ID,
		Username:     r.Username,
		PasswordHash: r.Password,
		RouteName:    r.RouteName,
		Onboard:      r.Onboard,
		Access:       r.Access,
	}
}

func (s *Store) ListLogins(ctx context.Context) ([]*models.Login, error) {
	var rows []loginRow
	if err := s.db.WithContext(ctx).Order("onboard asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*models.Login, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].model())
	}
	return out, nil
}

func (s *Store) findLogin(ctx context.Context, query, arg string) (*models.Login, error) {
	var row loginRow
	if err := s.db.WithContext(ctx).Where(query, arg).First(&row).Error; err != nil {
		return nil, translate(err)
	}
	return row.model(), nil
}

func (s *Store) GetLogin(ctx context.Context, id string) (*models.Login, error) {
	return s.findLogin(ctx, "id = ?", id)
}

func (s *Store) FindLoginByUsername(ctx context.Context, username string) (*models.Login, error) {
	return s.findLogin(ctx, "username = ?", username)
}

func (s *Store) CreateLogin(ctx context.Context, l *models.Login) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return translate(s.db.WithContext(ctx).Create(toLoginRow(l)).Error)
}

func (s *Store) UpdateLogin(ctx context.Context, l *models.Login) error {
	row := toLoginRow(l)
	res := s.db.WithContext(ctx).Model(&loginRow{}).Where("id = ?", l.ID).Updates(map[string]any{
		"username":   row.Username,
		"password":   row.Password,
		"route_name": row.RouteName,
		"access":     row.Access,
	})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteLogin(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&loginRow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}
