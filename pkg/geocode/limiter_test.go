package geocode

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/coworking-map/internal/resilience"
)

func TestRateLimited_SpacesCalls(t *testing.T) {
	var stamps []time.Time
	next := ClientFunc(func(_ context.Context, _ string) (*Result, error) {
		stamps = append(stamps, time.Now())
		return &Result{Matched: true}, nil
	})

	rl := NewRateLimited(next, 30*time.Millisecond, resilience.ConstantPolicy(0, 0))
	for i := 0; i < 3; i++ {
		_, err := rl.Geocode(context.Background(), "x")
		require.NoError(t, err)
	}

	require.Len(t, stamps, 3)
	for i := 1; i < len(stamps); i++ {
		// Allow a little slack for limiter token accounting.
		assert.GreaterOrEqual(t, stamps[i].Sub(stamps[i-1]), 25*time.Millisecond)
	}
}

func TestRateLimited_RetriesTransientThreeTimes(t *testing.T) {
	transient := resilience.NewTransientError(errors.New("timed out"), 503)
	next := &scriptedClient{responses: []scripted{{err: transient}}}

	rl := NewRateLimited(next, 0, resilience.ConstantPolicy(DefaultMaxRetries, time.Millisecond))
	_, err := rl.Geocode(context.Background(), "x")

	require.Error(t, err)
	assert.Equal(t, DefaultMaxRetries+1, next.Calls(), "first attempt plus three retries")
}

func TestRateLimited_RecoversAfterTransient(t *testing.T) {
	transient := resilience.NewTransientError(errors.New("timed out"), 503)
	next := &scriptedClient{responses: []scripted{{err: transient}, {err: transient}, matched("nominatim", 48.85, 2.35)}}

	rl := NewRateLimited(next, 0, resilience.ConstantPolicy(DefaultMaxRetries, time.Millisecond))
	result, err := rl.Geocode(context.Background(), "x")

	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.Equal(t, 3, next.Calls())
}

func TestRateLimited_CriticalNotSwallowed(t *testing.T) {
	next := &scriptedClient{responses: []scripted{{err: resilience.NewCriticalError(errors.New("forbidden"), 403)}}}

	rl := NewRateLimited(next, 0, resilience.ConstantPolicy(DefaultMaxRetries, time.Millisecond))
	_, err := rl.Geocode(context.Background(), "x")

	require.Error(t, err)
	assert.True(t, resilience.IsCritical(err))
	assert.Equal(t, 1, next.Calls())
}

func TestRateLimited_CancelledWhileWaiting(t *testing.T) {
	next := ClientFunc(func(_ context.Context, _ string) (*Result, error) {
		return &Result{Matched: true}, nil
	})
	rl := NewRateLimited(next, time.Hour, resilience.ConstantPolicy(0, 0))

	_, err := rl.Geocode(context.Background(), "first")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = rl.Geocode(ctx, "second")
	require.Error(t, err)
	assert.True(t, resilience.IsCritical(err))
}

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, 3, p.MaxRetries)
	assert.Equal(t, 2*time.Second, p.Wait)
	assert.NotNil(t, p.OnRetry)
}

func TestRetryPolicy(t *testing.T) {
	p := RetryPolicy(5, 10*time.Millisecond)
	assert.Equal(t, 5, p.MaxRetries)
	assert.Equal(t, 10*time.Millisecond, p.Wait)
	assert.NotNil(t, p.OnRetry)
}
