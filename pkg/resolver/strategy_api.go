package resolver

import (
	"context"

	errs "igresolver/pkg/errors"
	"igresolver/pkg/instagram"
)

// AuthenticatedAPIStrategy resolves through the internal media API using a
// caller-supplied session token. It is the structurally richest source and
// the only one that can enumerate carousels reliably, so it runs first
// whenever a credential is present.
type AuthenticatedAPIStrategy struct {
	client UpstreamClient
}

// NewAuthenticatedAPIStrategy creates the authenticated API strategy
func NewAuthenticatedAPIStrategy(client UpstreamClient) *AuthenticatedAPIStrategy {
	return &AuthenticatedAPIStrategy{client: client}
}

// Name identifies the strategy
func (s *AuthenticatedAPIStrategy) Name() string {
	return "authenticated_api"
}

// RequiresCredential reports that this strategy is useless without a token
func (s *AuthenticatedAPIStrategy) RequiresCredential() bool {
	return true
}

// Attempt resolves the reference through the internal API
func (s *AuthenticatedAPIStrategy) Attempt(ctx context.Context, ref *instagram.PostReference, sessionToken string) ([]MediaAsset, error) {
	if sessionToken == "" {
		return nil, errs.New(errs.ErrorTypeAuth, "session token required")
	}

	if ref.Kind == instagram.KindStory {
		return s.attemptMediaInfo(ctx, ref, sessionToken)
	}
	return s.attemptGraphQL(ctx, ref, sessionToken)
}

func (s *AuthenticatedAPIStrategy) attemptGraphQL(ctx context.Context, ref *instagram.PostReference, sessionToken string) ([]MediaAsset, error) {
	var response instagram.GraphQLResponse
	url := instagram.GetGraphQLURL(ref.ContentID)
	if err := s.client.FetchJSON(ctx, url, sessionToken, &response); err != nil {
		return nil, err
	}

	if response.Data == nil || response.Data.ShortcodeMedia == nil {
		return nil, errs.New(errs.ErrorTypeParsing, "response carried no media node")
	}

	return assetsFromMediaNode(response.Data.ShortcodeMedia), nil
}

func (s *AuthenticatedAPIStrategy) attemptMediaInfo(ctx context.Context, ref *instagram.PostReference, sessionToken string) ([]MediaAsset, error) {
	var response instagram.MediaInfoResponse
	url := instagram.GetMediaInfoURL(ref.ContentID)
	if err := s.client.FetchJSON(ctx, url, sessionToken, &response); err != nil {
		return nil, err
	}

	var assets []MediaAsset
	for _, item := range response.Items {
		assets = append(assets, assetsFromMediaInfoItem(item)...)
	}
	return assets, nil
}

// assetsFromMediaNode flattens a GraphQL media node into assets. Carousel
// children are each classified by their own is_video flag, never the parent's.
func assetsFromMediaNode(media *instagram.Media) []MediaAsset {
	caption := media.Caption()
	owner := media.OwnerUsername()

	if media.EdgeSidecarToChildren != nil && len(media.EdgeSidecarToChildren.Edges) > 0 {
		var assets []MediaAsset
		for _, edge := range media.EdgeSidecarToChildren.Edges {
			if edge == nil || edge.Node == nil {
				continue
			}
			assets = append(assets, assetFromSingleNode(edge.Node, caption, owner))
		}
		return assets
	}

	return []MediaAsset{assetFromSingleNode(media, caption, owner)}
}

func assetFromSingleNode(node *instagram.Media, caption, owner string) MediaAsset {
	asset := MediaAsset{
		ID:          node.ID,
		Kind:        MediaKindImage,
		SourceURL:   node.DisplayURL,
		Caption:     caption,
		OwnerHandle: owner,
	}
	if node.IsVideo && node.VideoURL != "" {
		asset.Kind = MediaKindVideo
		asset.SourceURL = node.VideoURL
		asset.ThumbnailURL = node.DisplayURL
	}
	if node.Dimensions != nil {
		asset.Width = node.Dimensions.Width
		asset.Height = node.Dimensions.Height
	}
	return asset
}

// assetsFromMediaInfoItem flattens a media-info item, recursing into
// carousel children
func assetsFromMediaInfoItem(item *instagram.MediaInfoItem) []MediaAsset {
	if item == nil {
		return nil
	}

	if item.MediaType == instagram.MediaTypeCarousel && len(item.CarouselMedia) > 0 {
		var assets []MediaAsset
		for _, child := range item.CarouselMedia {
			assets = append(assets, assetsFromMediaInfoItem(child)...)
		}
		return assets
	}

	asset := MediaAsset{ID: item.ID, Kind: MediaKindImage}
	if item.Caption != nil {
		asset.Caption = item.Caption.Text
	}
	if item.User != nil {
		asset.OwnerHandle = item.User.Username
	}

	if item.MediaType == instagram.MediaTypeVideo && len(item.VideoVersions) > 0 {
		best := item.VideoVersions[0]
		asset.Kind = MediaKindVideo
		asset.SourceURL = best.URL
		asset.Width = best.Width
		asset.Height = best.Height
		if item.ImageVersions2 != nil && len(item.ImageVersions2.Candidates) > 0 {
			asset.ThumbnailURL = item.ImageVersions2.Candidates[0].URL
		}
		return []MediaAsset{asset}
	}

	if item.ImageVersions2 != nil && len(item.ImageVersions2.Candidates) > 0 {
		best := item.ImageVersions2.Candidates[0]
		asset.SourceURL = best.URL
		asset.Width = best.Width
		asset.Height = best.Height
		return []MediaAsset{asset}
	}

	// Item with no usable renditions contributes nothing
	return nil
}
