package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/hostelhub/hostel-booking-backend/internal/config"
	"github.com/hostelhub/hostel-booking-backend/internal/models"
)

const buildingsCacheKey = "hostel:buildings:v1"

// CacheService is a read-through cache for the nested buildings view,
// backed by Redis. Entries carry a TTL as the staleness bound and are
// invalidated by the allocation engine after every successful mutation.
//
// A nil *CacheService is valid and disables caching; every method is
// nil-safe so callers never branch on cache availability.
type CacheService struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

// NewCacheService connects to Redis. Returns nil (caching disabled) when no
// address is configured or the server is unreachable at startup.
func NewCacheService(cfg config.RedisConfig, logger *logrus.Logger) *CacheService {
	if cfg.Addr == "" {
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Warn("Redis unreachable, building cache disabled")
		rdb.Close()
		return nil
	}

	return &CacheService{rdb: rdb, ttl: cfg.CacheTTL, logger: logger}
}

// GetBuildings returns the cached buildings view and whether it was present
func (s *CacheService) GetBuildings(ctx context.Context) ([]models.BuildingWithRooms, bool) {
	if s == nil {
		return nil, false
	}

	data, err := s.rdb.Get(ctx, buildingsCacheKey).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		s.logger.WithError(err).Warn("Failed to read buildings cache")
		return nil, false
	}

	var buildings []models.BuildingWithRooms
	if err := json.Unmarshal(data, &buildings); err != nil {
		s.logger.WithError(err).Warn("Corrupt buildings cache entry, dropping it")
		s.rdb.Del(ctx, buildingsCacheKey)
		return nil, false
	}

	return buildings, true
}

// SetBuildings stores the buildings view with the configured TTL
func (s *CacheService) SetBuildings(ctx context.Context, buildings []models.BuildingWithRooms) {
	if s == nil {
		return
	}

	data, err := json.Marshal(buildings)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to encode buildings for cache")
		return
	}

	if err := s.rdb.Set(ctx, buildingsCacheKey, data, s.ttl).Err(); err != nil {
		s.logger.WithError(err).Warn("Failed to write buildings cache")
	}
}

// InvalidateBuildings drops the cached view after an occupancy mutation
func (s *CacheService) InvalidateBuildings(ctx context.Context) {
	if s == nil {
		return
	}

	if err := s.rdb.Del(ctx, buildingsCacheKey).Err(); err != nil {
		s.logger.WithError(err).Warn("Failed to invalidate buildings cache")
	}
}

// Close releases the Redis connection
func (s *CacheService) Close() error {
	if s == nil {
		return nil
	}
	return s.rdb.Close()
}
