package extraction

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/tabulate/core"
	"golang.org/x/time/rate"
)

// Client dispatches documents to the service for their modality.
// It makes exactly one service call per Extract and never retries.
type Client struct {
	services map[core.Modality]Service
	limiter  *rate.Limiter
	timeout  time.Duration
	logger   *slog.Logger
}

var _ Extractor = (*Client)(nil)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithRateLimiter makes every call wait for a token from limiter first.
func WithRateLimiter(limiter *rate.Limiter) ClientOption {
	return func(c *Client) {
		c.limiter = limiter
	}
}

// WithTimeout bounds each service call. Zero disables the bound.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
	}
}

// FromConfig returns the client options described by cfg.
func FromConfig(cfg *Config) []ClientOption {
	opts := []ClientOption{WithTimeout(cfg.CallTimeout)}
	if cfg.RateLimit > 0 {
		opts = append(opts, WithRateLimiter(rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)))
	}
	return opts
}

// NewClient creates a client over the given services. All three are required.
func NewClient(services Services, opts ...ClientOption) (*Client, error) {
	if services.Vision == nil || services.Document == nil || services.Audio == nil {
		return nil, ErrServiceRequired
	}
	c := &Client{
		services: map[core.Modality]Service{
			core.ModalityImage:    services.Vision,
			core.ModalityDocument: services.Document,
			core.ModalityAudio:    services.Audio,
		},
		logger: slog.Default().With("component", "extraction-client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Extract invokes the service for modality once.
func (c *Client) Extract(ctx context.Context, modality core.Modality, task core.DocumentTask) (Payload, error) {
	service := modality.String()
	svc, ok := c.services[modality]
	if !ok {
		return nil, &TaskFailure{Service: service, Err: fmt.Errorf("no service for modality %d", modality)}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			// Wait fails early, with a plain error, when the next token lies
			// past the context deadline.
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, Classify(service, ctxErr)
			}
			return nil, &TransientError{Service: service, Err: fmt.Errorf("%w: %v", ErrThrottled, err)}
		}
	}

	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	payload, err := svc.Invoke(callCtx, task)
	if err != nil {
		err = Classify(service, err)
		c.logger.Debug("extraction call failed",
			"file", task.FileName,
			"service", service,
			"duration", time.Since(start),
			"transient", IsTransient(err),
			"err", err)
		return nil, err
	}
	if payload == nil {
		return nil, &TaskFailure{Service: service, Err: fmt.Errorf("%w: %s returned no payload", ErrMalformedPayload, task.FileName)}
	}

	c.logger.Debug("extraction call succeeded",
		"file", task.FileName,
		"service", service,
		"duration", time.Since(start),
		"fields", len(payload))
	return payload, nil
}
