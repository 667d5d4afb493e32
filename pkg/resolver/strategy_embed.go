package resolver

import (
	"context"

	errs "igresolver/pkg/errors"
	"igresolver/pkg/instagram"
)

// StructuredEndpointStrategy resolves through the public embed metadata
// endpoint. It needs no credential but only ever yields the post's primary
// image, so it sits between the authenticated API and raw page scraping.
type StructuredEndpointStrategy struct {
	client UpstreamClient
}

// NewStructuredEndpointStrategy creates the embed metadata strategy
func NewStructuredEndpointStrategy(client UpstreamClient) *StructuredEndpointStrategy {
	return &StructuredEndpointStrategy{client: client}
}

// Name identifies the strategy
func (s *StructuredEndpointStrategy) Name() string {
	return "structured_endpoint"
}

// Attempt resolves the reference through the embed metadata endpoint
func (s *StructuredEndpointStrategy) Attempt(ctx context.Context, ref *instagram.PostReference, sessionToken string) ([]MediaAsset, error) {
	// Stories are never exposed through the embed endpoint
	if ref.Kind == instagram.KindStory {
		return nil, errs.New(errs.ErrorTypeNoMediaFound, "stories are not embeddable")
	}

	var response instagram.OEmbedResponse
	url := instagram.GetOEmbedURL(ref)
	if err := s.client.FetchJSON(ctx, url, sessionToken, &response); err != nil {
		return nil, err
	}

	if response.ThumbnailURL == "" {
		return nil, errs.New(errs.ErrorTypeNoMediaFound, "embed metadata carried no media URL")
	}

	id := response.MediaID
	if id == "" {
		id = ref.ContentID
	}

	return []MediaAsset{{
		ID:          id,
		Kind:        MediaKindImage,
		SourceURL:   response.ThumbnailURL,
		Width:       response.ThumbnailWidth,
		Height:      response.ThumbnailHeight,
		Caption:     response.Title,
		OwnerHandle: response.AuthorName,
	}}, nil
}
