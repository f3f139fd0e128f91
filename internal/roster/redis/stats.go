package redis

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const checkedInKey = "roster:checked_in_count"

// Stats caches the arrived-guest counter so the stats endpoint does not hit
// the guest table on every poll. The database stays authoritative: the key
// expires and is re-warmed from a real count.
type Stats struct {
	Client *redis.Client
	Logger *log.Logger
}

func NewStats(client *redis.Client) *Stats {
	return &Stats{
		Client: client,
		Logger: log.Default(),
	}
}

// statsTTL returns the counter TTL from the environment, default 5 minutes.
func (s *Stats) statsTTL() time.Duration {
	defaultTTL := 5 * time.Minute

	ttlStr := os.Getenv("ROSTER_STATS_TTL_MINUTES")
	if ttlStr == "" {
		return defaultTTL
	}
	ttlMin, err := strconv.Atoi(ttlStr)
	if err != nil || ttlMin <= 0 {
		s.Logger.Println("REDIS: invalid ROSTER_STATS_TTL_MINUTES value '" + ttlStr + "', using default 5 minutes")
		return defaultTTL
	}
	return time.Duration(ttlMin) * time.Minute
}

// IncrCheckedIn bumps the counter for a first arrival. A miss (expired or
// never warmed) is left alone; the next read warms it from the database.
func (s *Stats) IncrCheckedIn(ctx context.Context) error {
	_, err := s.Client.Get(ctx, checkedInKey).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	return s.Client.Incr(ctx, checkedInKey).Err()
}

// CheckedInCount reads the cached counter. The second return is false on a
// cache miss.
func (s *Stats) CheckedInCount(ctx context.Context) (int64, bool, error) {
	val, err := s.Client.Get(ctx, checkedInKey).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	return count, true, nil
}

// SetCheckedInCount warms the counter from an authoritative database count.
func (s *Stats) SetCheckedInCount(ctx context.Context, count int64) error {
	return s.Client.Set(ctx, checkedInKey, count, s.statsTTL()).Err()
}
