package resolver

import (
	"context"

	"github.com/tidwall/gjson"

	errs "igresolver/pkg/errors"
	"igresolver/pkg/instagram"
)

// SemiPublicJSONStrategy resolves through the machine-readable variant of
// the page endpoint. The response shape has changed repeatedly upstream, so
// the traversal is a set of narrow typed lookups with explicit fallback
// rather than one rigid schema.
type SemiPublicJSONStrategy struct {
	client UpstreamClient
}

// NewSemiPublicJSONStrategy creates the semi-public JSON strategy
func NewSemiPublicJSONStrategy(client UpstreamClient) *SemiPublicJSONStrategy {
	return &SemiPublicJSONStrategy{client: client}
}

// Name identifies the strategy
func (s *SemiPublicJSONStrategy) Name() string {
	return "semi_public_json"
}

// Attempt resolves the reference through the JSON page variant
func (s *SemiPublicJSONStrategy) Attempt(ctx context.Context, ref *instagram.PostReference, sessionToken string) ([]MediaAsset, error) {
	body, err := s.client.FetchBody(ctx, instagram.GetSemiPublicJSONURL(ref), sessionToken)
	if err != nil {
		return nil, err
	}

	doc := string(body)
	if !gjson.Valid(doc) {
		return nil, errs.New(errs.ErrorTypeParsing, "page endpoint did not return JSON")
	}

	// Older deployments nest the media under graphql, newer ones under items
	if media := gjson.Get(doc, "graphql.shortcode_media"); media.Exists() {
		return assetsFromShortcodeJSON(media), nil
	}
	if items := gjson.Get(doc, "items"); items.Exists() && items.IsArray() {
		var assets []MediaAsset
		for _, item := range items.Array() {
			assets = append(assets, assetsFromItemJSON(item)...)
		}
		return assets, nil
	}

	return nil, errs.New(errs.ErrorTypeNoMediaFound, "no media found in JSON response")
}

// assetsFromShortcodeJSON flattens a graphql-shaped media document. Each
// sidecar child is classified by its own is_video field.
func assetsFromShortcodeJSON(media gjson.Result) []MediaAsset {
	caption := media.Get("edge_media_to_caption.edges.0.node.text").String()
	owner := media.Get("owner.username").String()

	children := media.Get("edge_sidecar_to_children.edges")
	if children.Exists() && len(children.Array()) > 0 {
		var assets []MediaAsset
		for _, edge := range children.Array() {
			node := edge.Get("node")
			if !node.Exists() {
				continue
			}
			assets = append(assets, assetFromShortcodeNode(node, caption, owner))
		}
		return assets
	}

	return []MediaAsset{assetFromShortcodeNode(media, caption, owner)}
}

func assetFromShortcodeNode(node gjson.Result, caption, owner string) MediaAsset {
	asset := MediaAsset{
		ID:          node.Get("id").String(),
		Kind:        MediaKindImage,
		SourceURL:   node.Get("display_url").String(),
		Width:       int(node.Get("dimensions.width").Int()),
		Height:      int(node.Get("dimensions.height").Int()),
		Caption:     caption,
		OwnerHandle: owner,
	}
	if node.Get("is_video").Bool() && node.Get("video_url").String() != "" {
		asset.Kind = MediaKindVideo
		asset.SourceURL = node.Get("video_url").String()
		asset.ThumbnailURL = node.Get("display_url").String()
	}
	return asset
}

// assetsFromItemJSON flattens an items-shaped media document, recursing
// into carousel children
func assetsFromItemJSON(item gjson.Result) []MediaAsset {
	if carousel := item.Get("carousel_media"); carousel.Exists() && len(carousel.Array()) > 0 {
		var assets []MediaAsset
		for _, child := range carousel.Array() {
			assets = append(assets, assetsFromItemJSON(child)...)
		}
		return assets
	}

	asset := MediaAsset{
		ID:          item.Get("id").String(),
		Kind:        MediaKindImage,
		Caption:     item.Get("caption.text").String(),
		OwnerHandle: item.Get("user.username").String(),
	}

	if video := item.Get("video_versions.0"); video.Exists() {
		asset.Kind = MediaKindVideo
		asset.SourceURL = video.Get("url").String()
		asset.Width = int(video.Get("width").Int())
		asset.Height = int(video.Get("height").Int())
		asset.ThumbnailURL = item.Get("image_versions2.candidates.0.url").String()
	} else if image := item.Get("image_versions2.candidates.0"); image.Exists() {
		asset.SourceURL = image.Get("url").String()
		asset.Width = int(image.Get("width").Int())
		asset.Height = int(image.Get("height").Int())
	}

	if asset.SourceURL == "" {
		return nil
	}
	return []MediaAsset{asset}
}
