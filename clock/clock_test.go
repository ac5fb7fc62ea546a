package clock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealSleep(t *testing.T) {
	clk := Real()

	start := time.Now()
	require.NoError(t, clk.Sleep(context.Background(), 10*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestRealSleepCancellation(t *testing.T) {
	clk := Real()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, clk.Sleep(ctx, time.Hour), context.Canceled)
}

func TestFakeAfterFiresOnAdvance(t *testing.T) {
	fake := NewFake(time.Unix(1700000000, 0))

	ch := fake.After(time.Second)
	select {
	case <-ch:
		t.Fatal("timer fired before advance")
	default:
	}

	fake.Advance(999 * time.Millisecond)
	select {
	case <-ch:
		t.Fatal("timer fired early")
	default:
	}

	fake.Advance(time.Millisecond)
	select {
	case <-ch:
	default:
		t.Fatal("timer did not fire at deadline")
	}
}

func TestFakeAfterNonPositive(t *testing.T) {
	fake := NewFake(time.Unix(1700000000, 0))

	select {
	case <-fake.After(0):
	default:
		t.Fatal("zero-duration timer should fire immediately")
	}
}

func TestFakeSleepCancellation(t *testing.T) {
	fake := NewFake(time.Unix(1700000000, 0))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- fake.Sleep(ctx, time.Minute)
	}()

	fake.BlockUntil(1)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestFakeNowAdvances(t *testing.T) {
	start := time.Unix(1700000000, 0)
	fake := NewFake(start)

	assert.Equal(t, start, fake.Now())
	fake.Advance(90 * time.Second)
	assert.Equal(t, start.Add(90*time.Second), fake.Now())
}
