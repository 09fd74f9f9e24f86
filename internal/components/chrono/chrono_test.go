package chrono

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFakeImplSleep(t *testing.T) {
	start := time.Date(2024, 9, 1, 8, 30, 0, 0, time.UTC)
	clock := NewFakeImpl(start)

	require.NoError(t, clock.Sleep(context.Background(), time.Second))
	require.NoError(t, clock.Sleep(context.Background(), 4*time.Second))

	require.Equal(t, start.Add(5*time.Second), clock.Now())
	require.Equal(t, []time.Duration{time.Second, 4 * time.Second}, clock.Sleeps())
}

func TestFakeImplSleepCancelled(t *testing.T) {
	clock := NewFakeImpl(time.Time{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := clock.Sleep(ctx, time.Second)
	require.ErrorIs(t, err, context.Canceled)
}

func TestStandardImplSleepCancelled(t *testing.T) {
	clock := NewStandardImpl(time.UTC)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := clock.Sleep(ctx, time.Hour)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, time.UTC, clock.Now().Location())
}

func TestStandardImplSleepZero(t *testing.T) {
	clock := NewStandardImpl(nil)
	require.NoError(t, clock.Sleep(context.Background(), 0))
}
