package retry

import (
	"context"
	"fmt"
	"net/http"
	"time"

	errs "igresolver/pkg/errors"
	"igresolver/pkg/logger"
)

// Call performs one HTTP request attempt
type Call func() (*http.Response, error)

// Executor retries individual upstream HTTP calls. Rate-limited responses
// back off per RateLimitBackoff, transport failures per TransportBackoff,
// and any other non-2xx response is terminal for the attempt chain.
type Executor struct {
	// MaxAttempts is the maximum number of attempts per call
	MaxAttempts int
	// RateLimitBackoff spaces out retries after 429 responses
	RateLimitBackoff BackoffStrategy
	// TransportBackoff spaces out retries after connection failures
	TransportBackoff BackoffStrategy
	// Logger for retry attempts
	Logger logger.Logger

	// sleep is injectable so tests can record delays instead of waiting
	sleep func(ctx context.Context, d time.Duration) error
}

// NewExecutor creates an executor with the given attempt budget and delays.
// Rate-limited responses double the base delay per attempt without jitter;
// transport failures wait a flat delay.
func NewExecutor(maxAttempts int, baseDelay, transportDelay time.Duration, log logger.Logger) *Executor {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	if transportDelay <= 0 {
		transportDelay = time.Second
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Executor{
		MaxAttempts: maxAttempts,
		RateLimitBackoff: &ExponentialBackoff{
			BaseDelay:  baseDelay,
			MaxDelay:   60 * time.Second,
			Multiplier: 2.0,
		},
		TransportBackoff: &ConstantBackoff{Delay: transportDelay},
		Logger:           log,
		sleep:            sleepContext,
	}
}

// DefaultExecutor returns an executor with production defaults
func DefaultExecutor(log logger.Logger) *Executor {
	return NewExecutor(3, time.Second, time.Second, log)
}

// Do runs the call, retrying per the executor's policy, and returns the
// first successful response. The caller owns the returned body.
func (e *Executor) Do(ctx context.Context, call Call) (*http.Response, error) {
	var lastErr error

	for attempt := 1; attempt <= e.MaxAttempts; attempt++ {
		resp, err := call()
		if err != nil {
			lastErr = errs.New(errs.ErrorTypeNetwork, fmt.Sprintf("transport failure: %v", err))
			if attempt == e.MaxAttempts {
				break
			}
			delay := e.TransportBackoff.NextDelay(attempt)
			e.Logger.WarnWithFields("transport failure, retrying", map[string]interface{}{
				"attempt": attempt,
				"delay":   delay,
				"error":   err.Error(),
			})
			if err := e.sleep(ctx, delay); err != nil {
				return nil, fmt.Errorf("retry cancelled: %w", err)
			}
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			lastErr = errs.NewWithCode(errs.ErrorTypeRateLimit, "rate limit exceeded", resp.StatusCode)
			if attempt == e.MaxAttempts {
				break
			}
			delay := e.RateLimitBackoff.NextDelay(attempt)
			e.Logger.WarnWithFields("rate limited, backing off", map[string]interface{}{
				"attempt": attempt,
				"delay":   delay,
			})
			if err := e.sleep(ctx, delay); err != nil {
				return nil, fmt.Errorf("retry cancelled: %w", err)
			}
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		// Any other status is terminal for this attempt chain
		resp.Body.Close()
		return nil, errs.NewWithCode(
			errs.ErrorTypeUpstream,
			fmt.Sprintf("upstream returned status %d", resp.StatusCode),
			resp.StatusCode,
		)
	}

	return nil, lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
