package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/safestreets/safemap/internal/models"
)

// CachedGeocoder is a read-through Redis cache in front of another Geocoder.
// Only successful lookups are cached; failures always hit the backing
// geocoder again.
type CachedGeocoder struct {
	next        Geocoder
	redisClient *redis.Client
	ttl         time.Duration
	logger      *logrus.Logger
}

// NewCachedGeocoder wraps next with a Redis cache using the given TTL.
func NewCachedGeocoder(next Geocoder, redisClient *redis.Client, ttl time.Duration, logger *logrus.Logger) *CachedGeocoder {
	return &CachedGeocoder{
		next:        next,
		redisClient: redisClient,
		ttl:         ttl,
		logger:      logger,
	}
}

func cacheKey(postcode string) string {
	return fmt.Sprintf("geocode:%s", Normalize(postcode))
}

// Geocode returns the cached coordinates for the postcode, falling back to
// the backing geocoder on a miss. Cache errors never fail the lookup.
func (c *CachedGeocoder) Geocode(ctx context.Context, postcode string) (models.Coordinates, error) {
	key := cacheKey(postcode)
	log := c.logger.WithField("cache_key", key)

	val, err := c.redisClient.Get(ctx, key).Bytes()
	if err == nil {
		var coords models.Coordinates
		if err := json.Unmarshal(val, &coords); err == nil {
			return coords, nil
		}
		log.WithError(err).Warn("Failed to unmarshal cached coordinates")
	} else if !errors.Is(err, redis.Nil) {
		log.WithError(err).Warn("Failed to read geocode cache")
	}

	coords, err := c.next.Geocode(ctx, postcode)
	if err != nil {
		return models.Coordinates{}, err
	}

	payload, err := json.Marshal(coords)
	if err != nil {
		log.WithError(err).Warn("Failed to marshal coordinates for cache")
		return coords, nil
	}
	if err := c.redisClient.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		log.WithError(err).Warn("Failed to write geocode cache")
	}
	return coords, nil
}
