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


package extraction

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/poiesic/tabulate/source"
	"github.com/tmc/langchaingo/llms"
)

var (
	// ErrMalformedPayload indicates a service answered without an error but
	// with nothing usable.
	ErrMalformedPayload = errors.New("malformed extraction payload")

	// ErrThrottled can be returned by services to signal throttling.
	ErrThrottled = errors.New("service throttled")

	// ErrUnavailable can be returned by services to signal a temporary outage.
	ErrUnavailable = errors.New("service unavailable")

	// ErrServiceRequired is returned when a Client is built without a service.
	ErrServiceRequired = errors.New("extraction service required")

	// ErrUnsupportedFormat indicates a file the service cannot read.
	ErrUnsupportedFormat = errors.New("unsupported document format")
)

// TransientError is a failure expected to resolve on retry.
type TransientError struct {
	Service string
	Err     error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: transient: %v", e.Service, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// TaskFailure is a call that completed but reported a processing failure.
type TaskFailure struct {
	Service string
	Err     error
}

func (e *TaskFailure) Error() string {
	return fmt.Sprintf("%s: task failed: %v", e.Service, e.Err)
}

func (e *TaskFailure) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is a *TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsTaskFailure reports whether err is a *TaskFailure.
func IsTaskFailure(err error) bool {
	var tf *TaskFailure
	return errors.As(err, &tf)
}

// Classify wraps a raw service error as *TransientError or *TaskFailure.
// Already classified errors and context cancellation pass through unchanged.
func Classify(service string, err error) error {
	if err == nil {
		return nil
	}
	if IsTransient(err) || IsTaskFailure(err) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if isTransientCause(err) {
		return &TransientError{Service: service, Err: err}
	}
	return &TaskFailure{Service: service, Err: err}
}

func isTransientCause(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, ErrThrottled) ||
		errors.Is(err, ErrUnavailable) ||
		errors.Is(err, source.ErrUnavailable) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	if llms.IsRateLimitError(err) || llms.IsTimeoutError(err) || llms.IsProviderUnavailableError(err) {
		return true
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.StatusCode)
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusRequestTimeout ||
		code >= http.StatusInternalServerError
}
