package resolver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	errs "igresolver/pkg/errors"
	"igresolver/pkg/instagram"
	"igresolver/pkg/logger"
)

// DefaultCacheTTL bounds how long a successful resolution is reused
const DefaultCacheTTL = 5 * time.Minute

// Resolver orchestrates the strategy chain with per-key caching and
// concurrent-request deduplication. Each Resolver owns its cache and
// in-flight registry; independent instances share no state.
type Resolver struct {
	strategies []Strategy
	cache      *Cache
	inflight   singleflight.Group
	logger     logger.Logger
}

// Option configures a Resolver
type Option func(*Resolver)

// WithCacheTTL overrides the default cache TTL
func WithCacheTTL(ttl time.Duration) Option {
	return func(r *Resolver) {
		r.cache = NewCache(ttl)
	}
}

// WithLogger sets the resolver's logger
func WithLogger(log logger.Logger) Option {
	return func(r *Resolver) {
		r.logger = log
	}
}

// New creates a Resolver around an upstream client with the standard
// strategy chain: authenticated API, structured endpoint, page scrape,
// semi-public JSON, in that order.
func New(client UpstreamClient, opts ...Option) *Resolver {
	return NewWithStrategies([]Strategy{
		NewAuthenticatedAPIStrategy(client),
		NewStructuredEndpointStrategy(client),
		NewPageScrapeStrategy(client),
		NewSemiPublicJSONStrategy(client),
	}, opts...)
}

// NewWithStrategies creates a Resolver with an explicit strategy chain,
// tried strictly in the given order
func NewWithStrategies(strategies []Strategy, opts ...Option) *Resolver {
	r := &Resolver{
		strategies: strategies,
		cache:      NewCache(DefaultCacheTTL),
		logger:     logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Cache exposes the result cache for sweep scheduling
func (r *Resolver) Cache() *Cache {
	return r.cache
}

// Resolve is the sole entry point: it classifies the raw reference and
// resolves it into media assets. All failures come back as typed outcomes,
// never as panics or process-fatal errors.
func (r *Resolver) Resolve(ctx context.Context, rawReference, sessionToken string) Outcome {
	ref, err := instagram.Classify(rawReference)
	if err != nil {
		if typedErr, ok := err.(*errs.Error); ok {
			return FailureOutcome(typedErr)
		}
		return FailureOutcome(errs.New(errs.ErrorTypeInvalidReference, err.Error()))
	}

	key := Key{ContentID: ref.ContentID, HasCredential: sessionToken != ""}

	if outcome, ok := r.cache.Get(key); ok {
		r.logger.DebugWithFields("cache hit", map[string]interface{}{
			"content_id": key.ContentID,
		})
		return outcome
	}

	// Concurrent callers for the same key share one chain execution; the
	// closure only ever returns a nil error, so every waiter observes the
	// same outcome and the in-flight entry always settles. The chain runs
	// detached from the initiating caller's context: a caller that gives up
	// must not abort the shared execution under the other waiters.
	result, _, _ := r.inflight.Do(key.String(), func() (interface{}, error) {
		if outcome, ok := r.cache.Get(key); ok {
			return outcome, nil
		}

		outcome := r.runChain(context.WithoutCancel(ctx), ref, sessionToken)
		if outcome.Success() {
			r.cache.Set(key, outcome)
		}
		return outcome, nil
	})

	return result.(Outcome)
}

// runChain tries each eligible strategy in order and returns the first
// success, or the aggregate failure once every strategy has failed
func (r *Resolver) runChain(ctx context.Context, ref *instagram.PostReference, sessionToken string) Outcome {
	hasCredential := sessionToken != ""
	var failures []string

	for _, strategy := range r.strategies {
		if !hasCredential {
			if gated, ok := strategy.(CredentialGated); ok && gated.RequiresCredential() {
				continue
			}
		}

		assets, err := runStrategy(ctx, strategy, ref, sessionToken)
		if err == nil {
			r.logger.InfoWithFields("resolved", map[string]interface{}{
				"content_id": ref.ContentID,
				"kind":       string(ref.Kind),
				"strategy":   strategy.Name(),
				"assets":     len(assets),
			})
			return SuccessOutcome(assets)
		}

		failures = append(failures, fmt.Sprintf("%s: %v", strategy.Name(), err))
		r.logger.DebugWithFields("strategy failed, falling through", map[string]interface{}{
			"content_id": ref.ContentID,
			"strategy":   strategy.Name(),
			"error":      err.Error(),
		})
	}

	message := "could not resolve media; the content may be private. " +
		"Try supplying a session token"
	if hasCredential {
		message = "could not resolve media; the content may be private or " +
			"the session token may have expired"
	}

	r.logger.WarnWithFields("all strategies exhausted", map[string]interface{}{
		"content_id": ref.ContentID,
		"failures":   strings.Join(failures, "; "),
	})

	return FailureOutcome(errs.New(errs.ErrorTypeExhausted, message))
}
