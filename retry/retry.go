// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package retry

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep waits for d with context awareness.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Runner executes operations under a Policy. The zero value uses real
// timers and math/rand.
type Runner struct {
	// Sleep replaces the wait between attempts. Defaults to Sleep.
	Sleep SleepFunc

	// Rand returns values in [0, 1) for jitter. Defaults to rand.Float64.
	Rand func() float64

	// OnRetry is called before each wait with the retry number (1-based),
	// the chosen delay and the error that caused it.
	OnRetry func(p Policy, retry int, delay time.Duration, err error)
}

// Wait sleeps before the given retry and returns the delay it used.
func (r Runner) Wait(ctx context.Context, p Policy, retry int, cause error) (time.Duration, error) {
	rnd := r.Rand
	if rnd == nil {
		rnd = rand.Float64
	}
	sleep := r.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	delay := p.Delay(retry, rnd)
	if r.OnRetry != nil {
		r.OnRetry(p, retry, delay, cause)
	}
	return delay, sleep(ctx, delay)
}

// Do runs operation until it succeeds, returns a non-retryable error, or the
// policy runs out of retries. When retries run out the last error is
// returned wrapped in an ExhaustedError.
func (r Runner) Do(ctx context.Context, p Policy, operation func(ctx context.Context) error) error {
	if err := p.Validate(); err != nil {
		return err
	}

	for retries := 0; ; retries++ {
		// Check context before attempting
		if err := ctx.Err(); err != nil {
			return err
		}

		err := operation(ctx)
		if err == nil {
			if retries > 0 {
				slog.Debug("operation succeeded after retry", "policy", p.Name, "attempt", retries+1)
			}
			return nil
		}

		if !p.ShouldRetry(err, retries) {
			if retries >= p.MaxRetries && (p.Retryable == nil || p.Retryable(err)) {
				return &ExhaustedError{Policy: p.Name, Attempts: retries + 1, Err: err}
			}
			return err
		}

		slog.Debug("operation failed, will retry", "policy", p.Name, "attempt", retries+1, "maxAttempts", p.MaxRetries+1, "err", err)

		if _, err := r.Wait(ctx, p, retries+1, err); err != nil {
			return err
		}
	}
}

// Do runs operation under p with the default Runner.
func Do(ctx context.Context, p Policy, operation func(ctx context.Context) error) error {
	return Runner{}.Do(ctx, p, operation)
}
