package services

import (
	"context"
	"errors"
	"time"

	"home-price-api/models"

	"gorm.io/gorm"
)

// PredictionStore persists PricePrediction rows. The session-scoped methods
// treat a token mismatch exactly like a missing row and return ErrNotFound.
type PredictionStore interface {
	Create(ctx context.Context, p *models.PricePrediction) error
	ListBySession(ctx context.Context, token string, limit int, after *Cursor) ([]models.PricePrediction, error)
	UpdateInSession(ctx context.Context, id uint, token string, mutate func(*models.PricePrediction) error) (*models.PricePrediction, error)
	DeleteInSession(ctx context.Context, id uint, token string) error
	Get(ctx context.Context, id uint) (*models.PricePrediction, error)
	All(ctx context.Context) ([]models.PricePrediction, error)
}

// Cursor marks the last row of a page in (created_at DESC, id DESC) order.
// A zero ID matches on CreatedAt alone.
type Cursor struct {
	CreatedAt time.Time
	ID        uint
}

// CursorFor returns the cursor positioned at p.
func CursorFor(p models.PricePrediction) Cursor {
	return Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
}

type GormPredictionStore struct {
	db *gorm.DB
}

func NewGormPredictionStore(db *gorm.DB) *GormPredictionStore {
	return &GormPredictionStore{db: db}
}

// AutoMigrate creates or updates the price_predictions table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.PricePrediction{})
}

func (s *GormPredictionStore) Create(ctx context.Context, p *models.PricePrediction) error {
	return s.db.WithContext(ctx).Create(p).Error
}

// ListBySession returns the session's rows newest first. A limit of zero
// means no limit; after restricts to rows sorting strictly past the cursor.
func (s *GormPredictionStore) ListBySession(ctx context.Context, token string, limit int, after *Cursor) ([]models.PricePrediction, error) {
	query := s.db.WithContext(ctx).
		Where("session_token = ?", token).
		Order("created_at DESC").
		Order("id DESC")

	switch {
	case after == nil:
	case after.ID == 0:
		query = query.Where("created_at < ?", after.CreatedAt)
	default:
		query = query.Where("created_at < ? OR (created_at = ? AND id < ?)", after.CreatedAt, after.CreatedAt, after.ID)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	rows := []models.PricePrediction{}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateInSession loads the row matching id and token, applies mutate and
// saves it in one transaction. An error from mutate rolls back and is
// returned unchanged.
func (s *GormPredictionStore) UpdateInSession(ctx context.Context, id uint, token string, mutate func(*models.PricePrediction) error) (*models.PricePrediction, error) {
	var updated models.PricePrediction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND session_token = ?", id, token).First(&updated).Error; err != nil {
			return translateNotFound(err)
		}
		if err := mutate(&updated); err != nil {
			return err
		}
		return tx.Save(&updated).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *GormPredictionStore) DeleteInSession(ctx context.Context, id uint, token string) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND session_token = ?", id, token).
		Delete(&models.PricePrediction{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormPredictionStore) Get(ctx context.Context, id uint) (*models.PricePrediction, error) {
	var p models.PricePrediction
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &p, nil
}

func (s *GormPredictionStore) All(ctx context.Context) ([]models.PricePrediction, error) {
	rows := []models.PricePrediction{}
	if err := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
