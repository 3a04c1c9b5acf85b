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
	"fmt"
	"math"
	"time"
)

// Jitter selects how a computed backoff delay is randomized.
type Jitter int

const (
	// NoJitter waits exactly the computed delay.
	NoJitter Jitter = iota
	// FullJitter waits a uniformly random duration in [0, computed delay].
	FullJitter
)

func (j Jitter) String() string {
	if j == FullJitter {
		return "full"
	}
	return "none"
}

// Policy is a named retry policy. Policies are plain values so every call
// site states which one it uses.
type Policy struct {
	// Name identifies the policy in logs and metrics.
	Name string

	// MaxRetries is the number of retries after the first call.
	// A call is attempted at most MaxRetries+1 times.
	MaxRetries int

	// BaseDelay is the wait before the first retry.
	BaseDelay time.Duration

	// Factor multiplies the delay for each subsequent retry.
	Factor float64

	// Jitter randomizes the computed delay.
	Jitter Jitter

	// Retryable decides which errors are retried. Errors it rejects are
	// returned immediately. A nil Retryable retries every error.
	Retryable func(error) bool
}

// Validate checks that the policy can be executed.
func (p Policy) Validate() error {
	if p.MaxRetries < 0 {
		return fmt.Errorf("%w: %s: negative MaxRetries", ErrInvalidPolicy, p.Name)
	}
	if p.BaseDelay < 0 {
		return fmt.Errorf("%w: %s: negative BaseDelay", ErrInvalidPolicy, p.Name)
	}
	if p.Factor < 1 {
		return fmt.Errorf("%w: %s: Factor must be at least 1", ErrInvalidPolicy, p.Name)
	}
	return nil
}

// Backoff returns the un-jittered delay before the given retry (1-based):
// BaseDelay * Factor^(retry-1).
func (p Policy) Backoff(retry int) time.Duration {
	if retry < 1 {
		return 0
	}
	return time.Duration(float64(p.BaseDelay) * math.Pow(p.Factor, float64(retry-1)))
}

// Delay returns the wait before the given retry (1-based) after applying jitter.
// rnd must return values in [0, 1).
func (p Policy) Delay(retry int, rnd func() float64) time.Duration {
	d := p.Backoff(retry)
	if p.Jitter == FullJitter && d > 0 {
		return time.Duration(rnd() * float64(d))
	}
	return d
}

// ShouldRetry reports whether err may be retried when retries have already
// been used.
func (p Policy) ShouldRetry(err error, retries int) bool {
	if err == nil || retries >= p.MaxRetries {
		return false
	}
	return p.Retryable == nil || p.Retryable(err)
}
