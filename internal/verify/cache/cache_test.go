package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driveid/internal/verify/models"
)

func freshResult() *models.SourceResult {
	return &models.SourceResult{
		Source:     "nin",
		Succeeded:  true,
		Verified:   true,
		MatchScore: 0.91,
		CheckedAt:  time.Now(),
	}
}

func TestGetOrFetchCachesSuccess(t *testing.T) {
	c := New(NewInMemoryStore(), true)
	ctx := context.Background()
	key := Key("nin", "12345678901")

	calls := 0
	fetch := func(context.Context) (*models.SourceResult, error) {
		calls++
		return freshResult(), nil
	}

	first, err := c.GetOrFetch(ctx, key, time.Minute, fetch)
	require.NoError(t, err)
	assert.False(t, first.FromCache)

	second, err := c.GetOrFetch(ctx, key, time.Minute, fetch)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, 1, calls, "warm cache must not re-fetch")

	// Identical except for the cache flag.
	assert.Equal(t, first.MatchScore, second.MatchScore)
	assert.Equal(t, first.Verified, second.Verified)
}

func TestGetOrFetchSkipsFailedResults(t *testing.T) {
	c := New(NewInMemoryStore(), true)
	ctx := context.Background()
	key := Key("nin", "12345678901")

	calls := 0
	fetch := func(context.Context) (*models.SourceResult, error) {
		calls++
		return &models.SourceResult{Source: "nin", Succeeded: false, ErrorKind: "API_FAILURE"}, nil
	}

	for range 2 {
		result, err := c.GetOrFetch(ctx, key, time.Minute, fetch)
		require.NoError(t, err)
		assert.False(t, result.FromCache)
	}
	assert.Equal(t, 2, calls, "failed results are never cached")
}

func TestGetOrFetchDisabledCache(t *testing.T) {
	c := New(nil, true)
	ctx := context.Background()

	calls := 0
	fetch := func(context.Context) (*models.SourceResult, error) {
		calls++
		return freshResult(), nil
	}

	for range 3 {
		_, err := c.GetOrFetch(ctx, Key("nin", "12345678901"), time.Minute, fetch)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, calls)
}

func TestGetOrFetchSingleFlight(t *testing.T) {
	c := New(NewInMemoryStore(), false) // no persistence, dedup only
	ctx := context.Background()
	key := Key("nin", "12345678901")

	var calls atomic.Int32
	gate := make(chan struct{})
	fetch := func(context.Context) (*models.SourceResult, error) {
		calls.Add(1)
		<-gate
		return freshResult(), nil
	}

	const workers = 8
	var wg sync.WaitGroup
	results := make([]*models.SourceResult, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := c.GetOrFetch(ctx, key, time.Minute, fetch)
			require.NoError(t, err)
			results[i] = r
		}()
	}

	// Let the goroutines pile up on the in-flight call, then release it.
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load(), "concurrent callers share one call")
	for _, r := range results {
		assert.Equal(t, results[0].MatchScore, r.MatchScore)
	}
}

func TestGetOrFetchPropagatesFetchError(t *testing.T) {
	c := New(NewInMemoryStore(), true)
	wantErr := errors.New("provider exploded")

	_, err := c.GetOrFetch(context.Background(), Key("bvn", "1"), time.Minute,
		func(context.Context) (*models.SourceResult, error) { return nil, wantErr })
	assert.ErrorIs(t, err, wantErr)
}
