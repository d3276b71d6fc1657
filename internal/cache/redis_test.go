package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSummaryKey(t *testing.T) {
	assert.Equal(t, "reports:summary:4:v0:2024-01-01:2024-12-31:0", SummaryKey(4, 0, "2024-01-01", "2024-12-31", 0))
	assert.Equal(t, "reports:summary:4:v3:-:-:9", SummaryKey(4, 3, "", "", 9))
}

func TestNilClientDegradesGracefully(t *testing.T) {
	SetClient(nil)
	ctx := context.Background()

	SetCached(ctx, "k", []byte("v"), time.Minute)
	_, ok := GetCached(ctx, "k")
	assert.False(t, ok)

	InvalidateLandlordReports(ctx, 1)
	assert.Equal(t, int64(0), ReportsVersion(ctx, 1))
	assert.False(t, IsHealthy(ctx))
	Close()
}
