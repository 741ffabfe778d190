package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"home-price-api/config"
	"home-price-api/models"

	"github.com/redis/go-redis/v9"
)

// EventsChannel carries JSON-encoded models.PredictionEvent values.
const EventsChannel = "homeprice:predictions"

// CacheService wraps redis. Every method is a no-op when redis is
// unreachable, so the API keeps working straight from the database.
type CacheService struct {
	client *redis.Client
}

func NewCacheService(cfg config.RedisConfig) (*CacheService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	var lastErr error
	for i := 0; i < 10; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		lastErr = client.Ping(ctx).Err()
		cancel()
		if lastErr == nil {
			return &CacheService{client: client}, nil
		}
		log.Printf("Redis ping attempt %d/10 failed: %v", i+1, lastErr)
		time.Sleep(2 * time.Second)
	}

	client.Close()
	return &CacheService{client: nil}, fmt.Errorf("redis ping failed after 10 attempts: %w", lastErr)
}

// NewCacheServiceFromClient wraps an existing client; nil disables caching.
func NewCacheServiceFromClient(client *redis.Client) *CacheService {
	return &CacheService{client: client}
}

func (s *CacheService) Available() bool {
	return s != nil && s.client != nil
}

func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) error {
	if !s.Available() {
		return redis.Nil
	}
	val, err := s.client.Get(ctx, key).Result()
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(val), dest)
}

func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Available() {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

func (s *CacheService) Delete(ctx context.Context, key string) error {
	if !s.Available() {
		return nil
	}
	return s.client.Del(ctx, key).Err()
}

func (s *CacheService) Publish(ctx context.Context, channel string, message interface{}) error {
	if !s.Available() {
		return nil
	}
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return s.client.Publish(ctx, channel, data).Err()
}

func (s *CacheService) Subscribe(ctx context.Context, channel string) *redis.PubSub {
	if !s.Available() {
		return nil
	}
	return s.client.Subscribe(ctx, channel)
}

func (s *CacheService) Close() error {
	if !s.Available() {
		return nil
	}
	return s.client.Close()
}

// minGenerationTTL bounds how long an idle session's generation counter
// survives. It must outlive every list entry filed under an older value.
const minGenerationTTL = time.Hour

func sessionKey(token string, gen int64) string {
	return fmt.Sprintf("predictions:session:%s:%d", token, gen)
}

func generationKey(token string) string {
	return "predictions:session:" + token + ":gen"
}

// sessionGeneration reads the session's write counter; a missing counter
// is generation 0. It returns -1 when redis cannot be read.
func (s *CacheService) sessionGeneration(ctx context.Context, token string) int64 {
	if !s.Available() {
		return -1
	}
	gen, err := s.client.Get(ctx, generationKey(token)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0
	}
	if err != nil {
		log.Printf("session generation read failed: %v", err)
		return -1
	}
	return gen
}

// GetSessionList returns the cached full list for token along with the
// generation it was looked up under. hit is false on a miss, when redis is
// unavailable, or when the entry cannot be decoded. Pass gen back to
// SetSessionList after reading the database.
func (s *CacheService) GetSessionList(ctx context.Context, token string) (rows []models.PricePrediction, gen int64, hit bool) {
	gen = s.sessionGeneration(ctx, token)
	if gen < 0 {
		return nil, gen, false
	}
	err := s.Get(ctx, sessionKey(token, gen), &rows)
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("session cache read failed: %v", err)
		}
		return nil, gen, false
	}
	if rows == nil {
		rows = []models.PricePrediction{}
	}
	return rows, gen, true
}

// SetSessionList files rows under gen. If a write bumped the generation
// since gen was read, the entry lands on a key no reader will look up.
// A non-positive ttl disables the cache.
func (s *CacheService) SetSessionList(ctx context.Context, token string, gen int64, rows []models.PricePrediction, ttl time.Duration) {
	if gen < 0 || ttl <= 0 {
		return
	}
	if err := s.Set(ctx, sessionKey(token, gen), rows, ttl); err != nil {
		log.Printf("session cache write failed: %v", err)
	}
}

// InvalidateSession bumps the session generation, orphaning every cached
// list for token. ttl is the list entry TTL.
func (s *CacheService) InvalidateSession(ctx context.Context, token string, ttl time.Duration) {
	if !s.Available() {
		return
	}
	genTTL := 2 * ttl
	if genTTL < minGenerationTTL {
		genTTL = minGenerationTTL
	}

	key := generationKey(token)
	pipe := s.client.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, genTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("session cache invalidate failed: %v", err)
	}
}

func (s *CacheService) PublishEvent(ctx context.Context, event models.PredictionEvent) {
	if err := s.Publish(ctx, EventsChannel, event); err != nil {
		log.Printf("redis publish failed for prediction=%d: %v", event.ID, err)
	}
}
