package geocode

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safestreets/safemap/internal/models"
)

type stubGeocoder struct {
	coords models.Coordinates
	err    error
	calls  int
}

func (s *stubGeocoder) Geocode(_ context.Context, _ string) (models.Coordinates, error) {
	s.calls++
	if s.err != nil {
		return models.Coordinates{}, s.err
	}
	return s.coords, nil
}

// commandRecorder captures the redis commands the cache attempts, whether or
// not the server is reachable.
type commandRecorder struct {
	commands []string
}

func (r *commandRecorder) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (r *commandRecorder) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		r.commands = append(r.commands, cmd.Name())
		return next(ctx, cmd)
	}
}

func (r *commandRecorder) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

// unreachableRedis returns a client whose every command fails, plus the
// recorder of what was attempted.
func unreachableRedis() (*redis.Client, *commandRecorder) {
	client := redis.NewClient(&redis.Options{
		Addr:            "127.0.0.1:1",
		DialTimeout:     100 * time.Millisecond,
		MaxRetries:      -1,
		PoolSize:        1,
		MinIdleConns:    0,
		ConnMaxIdleTime: time.Millisecond,
	})
	recorder := &commandRecorder{}
	client.AddHook(recorder)
	return client, recorder
}

func TestCachedGeocoder_CacheErrorsDoNotFailLookup(t *testing.T) {
	client, recorder := unreachableRedis()
	defer client.Close()

	coords := models.Coordinates{Latitude: 51.501009, Longitude: -0.141588}
	stub := &stubGeocoder{coords: coords}
	cached := NewCachedGeocoder(stub, client, time.Hour, testLogger())

	got, err := cached.Geocode(context.Background(), "SW1A 1AA")

	require.NoError(t, err)
	assert.Equal(t, coords, got)
	assert.Equal(t, 1, stub.calls)
	// Both the read and the write-back were attempted despite the dead cache.
	assert.Contains(t, recorder.commands, "get")
	assert.Contains(t, recorder.commands, "set")
}

func TestCachedGeocoder_FailedLookupNotCached(t *testing.T) {
	client, recorder := unreachableRedis()
	defer client.Close()

	stub := &stubGeocoder{err: ErrInvalidPostcode}
	cached := NewCachedGeocoder(stub, client, time.Hour, testLogger())

	_, err := cached.Geocode(context.Background(), "ZZ99 9ZZ")

	assert.ErrorIs(t, err, ErrInvalidPostcode)
	assert.Equal(t, 1, stub.calls)
	assert.Contains(t, recorder.commands, "get")
	assert.NotContains(t, recorder.commands, "set")
}

func TestCachedGeocoder_MissFallsThroughEachTime(t *testing.T) {
	client, _ := unreachableRedis()
	defer client.Close()

	stub := &stubGeocoder{coords: models.Coordinates{Latitude: 51.5, Longitude: -0.12}}
	cached := NewCachedGeocoder(stub, client, time.Hour, testLogger())

	_, err := cached.Geocode(context.Background(), "SW1A 1AA")
	require.NoError(t, err)
	_, err = cached.Geocode(context.Background(), "SW1A 1AA")
	require.NoError(t, err)

	// The cache never stores anything, so the backing geocoder is hit twice.
	assert.Equal(t, 2, stub.calls)
}

func TestCacheKey_NormalizesPostcode(t *testing.T) {
	assert.Equal(t, "geocode:SW1A 1AA", cacheKey(" sw1a 1aa "))
}
