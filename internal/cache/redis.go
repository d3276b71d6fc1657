package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Summary cache keys are reports:summary:<landlord>:v<version>:<from>:<to>:<property>.
// The version is bumped on every invalidation, so a summary built from data
// read before a payment change lands under a key nobody reads anymore.
const (
	SummaryKeyFmt    = "reports:summary:%d:v%d:%s:%s:%d"
	LandlordKeyMatch = "reports:summary:%d:*"
	VersionKeyFmt    = "reports:version:%d"
)

var client *redis.Client

// Init connects to Redis. On failure the client stays nil and every cache
// call below becomes a miss or a no-op, so the service keeps working.
func Init(addr, password string, db int) error {
	client = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		client = nil
		return err
	}
	return nil
}

// SetClient swaps the package client, mainly for tests
func SetClient(c *redis.Client) {
	client = c
}

func GetClient() *redis.Client {
	return client
}

func Close() {
	if client != nil {
		client.Close()
		client = nil
	}
}

// SummaryKey identifies one portfolio summary request at a report version.
// Open range ends are written as "-".
func SummaryKey(landlordID int, version int64, from, to string, propertyID int) string {
	if from == "" {
		from = "-"
	}
	if to == "" {
		to = "-"
	}
	return fmt.Sprintf(SummaryKeyFmt, landlordID, version, from, to, propertyID)
}

// GetCached returns cached data for a key
func GetCached(ctx context.Context, key string) ([]byte, bool) {
	if client == nil {
		return nil, false
	}
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// SetCached stores data with a TTL
func SetCached(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if client == nil {
		return
	}
	if err := client.Set(ctx, key, data, ttl).Err(); err != nil {
		log.Printf("[Redis] set %s: %v", key, err)
	}
}

// InvalidatePattern removes all keys matching a glob pattern. SCAN is used
// instead of KEYS so a large keyspace does not block Redis.
func InvalidatePattern(ctx context.Context, pattern string) {
	if client == nil {
		return
	}
	iter := client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		log.Printf("[Redis] scan %s: %v", pattern, err)
		return
	}
	if len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

// ReportsVersion returns the current report version of a landlord, 0 when
// none was ever stored or Redis is unavailable
func ReportsVersion(ctx context.Context, landlordID int) int64 {
	if client == nil {
		return 0
	}
	v, err := client.Get(ctx, fmt.Sprintf(VersionKeyFmt, landlordID)).Int64()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[Redis] get version for landlord %d: %v", landlordID, err)
		}
		return 0
	}
	return v
}

// InvalidateLandlordReports bumps the landlord's report version and drops
// every cached summary of that landlord. Called after any payment is
// recorded, voided, restored or deleted.
func InvalidateLandlordReports(ctx context.Context, landlordID int) {
	if client == nil {
		return
	}
	if err := client.Incr(ctx, fmt.Sprintf(VersionKeyFmt, landlordID)).Err(); err != nil {
		log.Printf("[Redis] bump version for landlord %d: %v", landlordID, err)
	}
	InvalidatePattern(ctx, fmt.Sprintf(LandlordKeyMatch, landlordID))
}

// IsHealthy returns true if Redis connection is working
func IsHealthy(ctx context.Context) bool {
	if client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return client.Ping(ctx).Err() == nil
}
