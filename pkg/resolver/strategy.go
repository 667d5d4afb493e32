package resolver

import (
	"context"
	"fmt"

	errs "igresolver/pkg/errors"
	"igresolver/pkg/instagram"
)

// UpstreamClient is the subset of the instagram client that strategies use
type UpstreamClient interface {
	FetchBody(ctx context.Context, url, sessionToken string) ([]byte, error)
	FetchJSON(ctx context.Context, url, sessionToken string, target interface{}) error
}

// Strategy is one upstream-data-source-specific resolution attempt.
// Strategies are stateless: everything they need arrives as arguments,
// and they never touch the resolver's cache or in-flight registry.
type Strategy interface {
	// Name identifies the strategy in logs and failure summaries
	Name() string
	// Attempt tries to resolve the reference into assets. sessionToken may
	// be empty. A nil error implies a non-empty asset list.
	Attempt(ctx context.Context, ref *instagram.PostReference, sessionToken string) ([]MediaAsset, error)
}

// CredentialGated marks strategies that cannot do anything useful without
// a session token; the resolver skips them instead of recording a failure
type CredentialGated interface {
	RequiresCredential() bool
}

// runStrategy executes one strategy, converting panics and empty results
// into structured failures so a misbehaving strategy never aborts the chain
func runStrategy(ctx context.Context, s Strategy, ref *instagram.PostReference, sessionToken string) (assets []MediaAsset, err error) {
	defer func() {
		if r := recover(); r != nil {
			assets = nil
			err = errs.New(errs.ErrorTypeUnknown, fmt.Sprintf("%s strategy panicked: %v", s.Name(), r))
		}
	}()

	assets, err = s.Attempt(ctx, ref, sessionToken)
	if err != nil {
		return nil, err
	}
	if len(assets) == 0 {
		return nil, errs.New(errs.ErrorTypeNoMediaFound, fmt.Sprintf("%s strategy extracted no media", s.Name()))
	}
	return assets, nil
}
