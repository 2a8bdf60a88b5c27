package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheSetRejectsUnencodableValue(t *testing.T) {
	cache := NewCacheService(nil)

	err := cache.Set(context.Background(), "schedule:2024-01-15", make(chan int), time.Minute)
	require.Error(t, err)
	// The key travels with the error so log lines identify the entry.
	assert.Contains(t, err.Error(), "schedule:2024-01-15")
}

func TestCacheDeleteWithoutKeysIsNoop(t *testing.T) {
	cache := NewCacheService(nil)
	assert.NoError(t, cache.Delete(context.Background()))
}

func TestCacheKeys(t *testing.T) {
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "schedule:2024-01-15", ScheduleCacheKey(date))
	assert.Equal(t, "roster:2", RosterCacheKey("2"))
}
