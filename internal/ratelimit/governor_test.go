package ratelimit

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestAdmitUpToLimitThenRefuse(t *testing.T) {
	clock := newFakeClock()
	g := New(clock.Now, Window{Name: "daily", Limit: 3, Period: time.Hour})

	for i := 0; i < 3; i++ {
		require.NoError(t, g.Admit(), "call %d", i)
	}

	clock.Advance(10 * time.Minute)
	err := g.Admit()
	require.Error(t, err)

	var limitErr *LimitError
	require.True(t, errors.As(err, &limitErr))
	assert.Equal(t, "daily", limitErr.Window)
	assert.Equal(t, 3, limitErr.Limit)
	assert.Equal(t, 50*time.Minute, limitErr.RetryAfter)
}

func TestAdmitAgainAfterPeriod(t *testing.T) {
	clock := newFakeClock()
	g := New(clock.Now, Window{Name: "daily", Limit: 2, Period: time.Hour})

	require.NoError(t, g.Admit())
	require.NoError(t, g.Admit())
	require.Error(t, g.Admit())

	clock.Advance(time.Hour)
	require.NoError(t, g.Admit())

	usage := g.Usage()
	require.Len(t, usage, 1)
	assert.Equal(t, 1, usage[0].Count)
}

func TestRefusalIsNotCounted(t *testing.T) {
	clock := newFakeClock()
	g := New(clock.Now,
		Window{Name: "daily", Limit: 10, Period: 24 * time.Hour},
		Window{Name: "short", Limit: 1, Period: time.Minute},
	)

	require.NoError(t, g.Admit())
	for i := 0; i < 5; i++ {
		require.Error(t, g.Admit())
	}

	usage := g.Usage()
	assert.Equal(t, 1, usage[0].Count, "refused calls must not consume the daily quota")
	assert.Equal(t, 1, usage[1].Count)
}

func TestCheckDoesNotCount(t *testing.T) {
	clock := newFakeClock()
	g := New(clock.Now, Window{Name: "daily", Limit: 1, Period: time.Hour})

	for i := 0; i < 3; i++ {
		require.NoError(t, g.Check())
	}
	assert.Equal(t, 0, g.Usage()[0].Count)

	require.NoError(t, g.Admit())
	err := g.Check()
	var limitErr *LimitError
	require.True(t, errors.As(err, &limitErr))
	assert.Equal(t, "daily", limitErr.Window)
	assert.Equal(t, time.Hour, limitErr.RetryAfter)
	assert.Equal(t, 1, g.Usage()[0].Count)
}

func TestLongestWaitIsReported(t *testing.T) {
	clock := newFakeClock()
	g := New(clock.Now,
		Window{Name: "short", Limit: 1, Period: time.Minute},
		Window{Name: "daily", Limit: 1, Period: 24 * time.Hour},
	)

	require.NoError(t, g.Admit())
	err := g.Admit()

	var limitErr *LimitError
	require.True(t, errors.As(err, &limitErr))
	assert.Equal(t, "daily", limitErr.Window)
	assert.Equal(t, 24*time.Hour, limitErr.RetryAfter)
}

func TestDisabledWindowNeverRefuses(t *testing.T) {
	g := New(nil, Window{Name: "off", Limit: 0, Period: time.Minute})

	for i := 0; i < 100; i++ {
		require.NoError(t, g.Admit())
	}
}

func TestObserveOnlyRaisesCount(t *testing.T) {
	clock := newFakeClock()
	g := New(clock.Now, Window{Name: "daily", Limit: 10, Period: 24 * time.Hour})

	require.NoError(t, g.Admit())
	assert.True(t, g.Observe("daily", 9, 0))
	require.NoError(t, g.Admit())
	require.Error(t, g.Admit())

	assert.True(t, g.Observe("daily", 2, 20))
	usage := g.Usage()
	assert.Equal(t, 10, usage[0].Count)
	assert.Equal(t, 20, usage[0].Limit)

	assert.False(t, g.Observe("missing", 1, 1))
}

func TestConcurrentAdmitNeverOvershoots(t *testing.T) {
	g := New(nil, Window{Name: "daily", Limit: 50, Period: time.Hour})

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
	)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.Admit() == nil {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, admitted)
}
