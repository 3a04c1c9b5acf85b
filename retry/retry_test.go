package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTemporary = errors.New("temporary error")

func testPolicy() Policy {
	return Policy{
		Name:       "test",
		MaxRetries: 3,
		BaseDelay:  time.Second,
		Factor:     2,
	}
}

// recordingRunner returns a Runner that records delays instead of sleeping.
func recordingRunner(delays *[]time.Duration, rnd func() float64) Runner {
	return Runner{
		Sleep: func(ctx context.Context, d time.Duration) error {
			*delays = append(*delays, d)
			return ctx.Err()
		},
		Rand: rnd,
	}
}

func TestDo_Success(t *testing.T) {
	attempts := 0
	var delays []time.Duration
	err := recordingRunner(&delays, nil).Do(context.Background(), testPolicy(), func(ctx context.Context) error {
		attempts++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, attempts, "should succeed on first try")
	assert.Empty(t, delays)
}

func TestDo_EventualSuccess(t *testing.T) {
	attempts := 0
	var delays []time.Duration
	err := recordingRunner(&delays, nil).Do(context.Background(), testPolicy(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errTemporary
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts, "should succeed on third attempt")
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, delays)
}

func TestDo_Exhausted(t *testing.T) {
	attempts := 0
	var delays []time.Duration
	err := recordingRunner(&delays, nil).Do(context.Background(), testPolicy(), func(ctx context.Context) error {
		attempts++
		return errTemporary
	})
	require.Error(t, err)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 4, exhausted.Attempts)
	assert.Equal(t, "test", exhausted.Policy)
	assert.ErrorIs(t, err, errTemporary, "should wrap the last error")
	assert.Equal(t, 4, attempts, "one call plus three retries")
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, delays)
}

func TestDo_NonRetryable(t *testing.T) {
	permanent := errors.New("permanent")
	p := testPolicy()
	p.Retryable = func(err error) bool { return errors.Is(err, errTemporary) }

	attempts := 0
	var delays []time.Duration
	err := recordingRunner(&delays, nil).Do(context.Background(), p, func(ctx context.Context) error {
		attempts++
		return permanent
	})
	assert.Equal(t, permanent, err, "non-retryable errors are returned as-is")
	assert.Equal(t, 1, attempts)
	assert.Empty(t, delays)
}

func TestDo_FullJitter(t *testing.T) {
	p := testPolicy()
	p.Jitter = FullJitter

	var delays []time.Duration
	err := recordingRunner(&delays, func() float64 { return 0.5 }).Do(context.Background(), p, func(ctx context.Context) error {
		return errTemporary
	})
	require.Error(t, err)
	assert.Equal(t, []time.Duration{500 * time.Millisecond, time.Second, 2 * time.Second}, delays)
}

func TestDo_OnRetry(t *testing.T) {
	var retries []int
	r := Runner{
		Sleep: func(ctx context.Context, d time.Duration) error { return nil },
		OnRetry: func(p Policy, retry int, delay time.Duration, err error) {
			assert.ErrorIs(t, err, errTemporary)
			retries = append(retries, retry)
		},
	}
	_ = r.Do(context.Background(), testPolicy(), func(ctx context.Context) error { return errTemporary })
	assert.Equal(t, []int{1, 2, 3}, retries)
}

func TestDo_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	operation := func(ctx context.Context) error {
		attempts++
		if attempts == 2 {
			cancel() // Cancel after second attempt
		}
		return errTemporary
	}

	p := testPolicy()
	p.MaxRetries = 10
	p.BaseDelay = time.Millisecond

	err := Do(ctx, p, operation)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled, "should return context.Canceled")
	assert.LessOrEqual(t, attempts, 2, "should stop when context is canceled")
}

func TestDo_RealSleep(t *testing.T) {
	p := testPolicy()
	p.BaseDelay = 5 * time.Millisecond

	start := time.Now()
	attempts := 0
	err := Do(context.Background(), p, func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errTemporary
		}
		return nil
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
}

func TestDo_InvalidPolicy(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
	}{
		{"negative retries", Policy{Name: "p", MaxRetries: -1, Factor: 2}},
		{"negative delay", Policy{Name: "p", BaseDelay: -time.Second, Factor: 2}},
		{"factor below one", Policy{Name: "p", Factor: 0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			err := Do(context.Background(), tt.policy, func(ctx context.Context) error {
				attempts++
				return nil
			})
			assert.ErrorIs(t, err, ErrInvalidPolicy)
			assert.Equal(t, 0, attempts, "should not attempt with an invalid policy")
		})
	}
}

func TestPolicy_Backoff(t *testing.T) {
	p := testPolicy()
	assert.Equal(t, time.Duration(0), p.Backoff(0))
	assert.Equal(t, time.Second, p.Backoff(1))
	assert.Equal(t, 2*time.Second, p.Backoff(2))
	assert.Equal(t, 4*time.Second, p.Backoff(3))
}

func TestPolicy_DelayBounds(t *testing.T) {
	p := testPolicy()
	p.Jitter = FullJitter

	assert.Equal(t, time.Duration(0), p.Delay(3, func() float64 { return 0 }))
	for retry := 1; retry <= 3; retry++ {
		d := p.Delay(retry, func() float64 { return 0.999999 })
		assert.LessOrEqual(t, d, p.Backoff(retry))
		assert.Greater(t, d, time.Duration(0))
	}
}

func TestPolicy_ShouldRetry(t *testing.T) {
	p := testPolicy()
	assert.True(t, p.ShouldRetry(errTemporary, 0))
	assert.True(t, p.ShouldRetry(errTemporary, 2))
	assert.False(t, p.ShouldRetry(errTemporary, 3))
	assert.False(t, p.ShouldRetry(nil, 0))
}

func TestJitterString(t *testing.T) {
	assert.Equal(t, "none", NoJitter.String())
	assert.Equal(t, "full", FullJitter.String())
}
