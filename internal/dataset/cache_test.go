package dataset

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dgallion1/teascroll/internal/logger"
	"github.com/dgallion1/teascroll/internal/metrics"
	"github.com/dgallion1/teascroll/internal/source"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheLoadsOnceUnderConcurrency(t *testing.T) {
	var calls atomic.Int32
	load := func(ctx context.Context) (*Bundle, Report, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return Empty(), Report{}, nil
	}
	c := NewCache(load, logger.Discard(), nil)

	const n = 32
	got := make([]*Bundle, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = c.Get(context.Background())
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for i := 1; i < n; i++ {
		assert.Same(t, got[0], got[i])
	}
	assert.True(t, c.Cached())
	assert.True(t, c.Report().Cached)
}

func TestCacheFailureIsNotRetained(t *testing.T) {
	var calls atomic.Int32
	good := Empty()
	load := func(ctx context.Context) (*Bundle, Report, error) {
		if calls.Add(1) == 1 {
			return nil, Report{Sources: []SourceReport{{Source: source.Routes, Status: StatusMalformed}}}, errors.New("bad routes")
		}
		return good, Report{}, nil
	}
	m := metrics.New()
	c := NewCache(load, logger.Discard(), m)

	first := c.Get(context.Background())
	require.NotNil(t, first)
	assert.Equal(t, Empty(), first)
	assert.False(t, c.Cached())
	assert.Len(t, c.Report().Malformed(), 1)

	second := c.Get(context.Background())
	assert.Same(t, good, second)
	assert.True(t, c.Cached())
	assert.Same(t, good, c.Get(context.Background()))
	assert.Equal(t, 2, c.Loads())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.DatasetLoads.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DatasetLoads.WithLabelValues("cached")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SourceStatus.WithLabelValues(string(source.Routes))))
}

func TestCacheFallbackIsFreshEachTime(t *testing.T) {
	load := func(ctx context.Context) (*Bundle, Report, error) {
		return nil, Report{}, errors.New("boom")
	}
	c := NewCache(load, logger.Discard(), nil)

	a := c.Get(context.Background())
	b := c.Get(context.Background())
	assert.NotSame(t, a, b)
	assert.Equal(t, 2, c.Loads())
}
