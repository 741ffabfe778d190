package services

import (
	"context"
	"errors"
	"time"

	"home-price-api/models"
)

// PredictionService implements the create path and the session-scoped
// list, update and delete operations.
type PredictionService struct {
	store      PredictionStore
	model      *PriceModel
	cache      *CacheService
	sessionTTL time.Duration
}

// NewPredictionService wires the store, the fitted model and an optional
// cache. A nil cache disables caching and events.
func NewPredictionService(store PredictionStore, model *PriceModel, cache *CacheService, sessionTTL time.Duration) (*PredictionService, error) {
	if store == nil {
		return nil, errors.New("prediction store is required")
	}
	if model == nil {
		return nil, errors.New("price model is required")
	}
	return &PredictionService{store: store, model: model, cache: cache, sessionTTL: sessionTTL}, nil
}

func (s *PredictionService) Model() *PriceModel {
	return s.model
}

func (s *PredictionService) Create(ctx context.Context, raw map[string]any) (*models.PricePrediction, error) {
	sub, err := ValidateSubmission(raw)
	if err != nil {
		return nil, err
	}

	p := &models.PricePrediction{
		SessionToken:   sub.SessionToken,
		Name:           sub.Name,
		SquareFootage:  sub.SquareFootage,
		Bedrooms:       sub.Bedrooms,
		PredictedPrice: s.model.Predict(sub.SquareFootage, sub.Bedrooms),
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, newError(ErrorInternal, "failed to save prediction", err)
	}

	predictionsCreated.Inc()
	predictedPrice.Observe(p.PredictedPrice)
	s.afterChange(ctx, models.EventCreated, p.SessionToken, p.ID, p)
	return p, nil
}

// ListSession returns every record for token, newest first. With a
// positive limit the result is truncated and after acts as a cursor.
// Only the full list is cached; it is filed under the session generation
// read before the query, so a write landing mid-query makes the fill stale
// rather than visible.
func (s *PredictionService) ListSession(ctx context.Context, token string, limit int, after *Cursor) ([]models.PricePrediction, error) {
	if token == "" {
		return nil, newError(ErrorMissingSessionToken, reasonSessionQuery, nil)
	}

	full := limit <= 0 && after == nil
	var gen int64 = -1
	if full {
		var (
			rows []models.PricePrediction
			hit  bool
		)
		rows, gen, hit = s.cache.GetSessionList(ctx, token)
		if hit {
			sessionCacheLookups.WithLabelValues("hit").Inc()
			return rows, nil
		}
		sessionCacheLookups.WithLabelValues("miss").Inc()
	}

	rows, err := s.store.ListBySession(ctx, token, limit, after)
	if err != nil {
		return nil, newError(ErrorInternal, "database query failed", err)
	}

	if full {
		s.cache.SetSessionList(ctx, token, gen, rows, s.sessionTTL)
	}
	return rows, nil
}

// UpdateInSession applies a sparse update to the record owned by token.
// The record is located before the body is validated, so callers without
// the right token always see not-found. A rejected patch rolls back.
func (s *PredictionService) UpdateInSession(ctx context.Context, id uint, token string, raw map[string]any) (*models.PricePrediction, error) {
	if token == "" {
		return nil, newError(ErrorMissingSessionToken, reasonSessionQuery, nil)
	}

	updated, err := s.store.UpdateInSession(ctx, id, token, func(p *models.PricePrediction) error {
		patch, err := ValidatePatch(raw)
		if err != nil {
			return err
		}
		if patch.Name != nil {
			p.Name = *patch.Name
		}
		if patch.SquareFootage != nil {
			p.SquareFootage = *patch.SquareFootage
		}
		if patch.Bedrooms != nil {
			p.Bedrooms = *patch.Bedrooms
		}
		if patch.ChangesMeasurements() {
			p.PredictedPrice = s.model.Predict(p.SquareFootage, p.Bedrooms)
		}
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}

	predictionsUpdated.Inc()
	s.afterChange(ctx, models.EventUpdated, token, updated.ID, updated)
	return updated, nil
}

func (s *PredictionService) DeleteInSession(ctx context.Context, id uint, token string) error {
	if token == "" {
		return newError(ErrorMissingSessionToken, reasonSessionQuery, nil)
	}
	if err := s.store.DeleteInSession(ctx, id, token); err != nil {
		return storeError(err)
	}

	predictionsDeleted.Inc()
	s.afterChange(ctx, models.EventDeleted, token, id, nil)
	return nil
}

func (s *PredictionService) afterChange(ctx context.Context, eventType, token string, id uint, p *models.PricePrediction) {
	s.cache.InvalidateSession(ctx, token, s.sessionTTL)
	s.cache.PublishEvent(ctx, models.PredictionEvent{
		Type:         eventType,
		SessionToken: token,
		ID:           id,
		Prediction:   p,
	})
}

func storeError(err error) error {
	if errors.Is(err, ErrNotFound) {
		return newError(ErrorNotFound, notFoundReason, err)
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return newError(ErrorInternal, "database operation failed", err)
}
