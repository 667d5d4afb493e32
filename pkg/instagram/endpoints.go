package instagram

import (
	"fmt"
	"net/url"
)

const (
	// BaseURL is the base URL for Instagram
	BaseURL = "https://www.instagram.com"

	// OEmbedEndpoint is the public embed metadata endpoint
	OEmbedEndpoint = "/api/v1/oembed/"

	// GraphQLEndpoint is the endpoint for shortcode media queries
	GraphQLEndpoint = "/graphql/query/"

	// MediaInfoEndpoint is the endpoint pattern for media-by-id lookups
	MediaInfoEndpoint = "/api/v1/media/%s/info/"

	// ShortcodeQueryHash is the query hash for fetching media by shortcode
	ShortcodeQueryHash = "b3055c01b4b222b8a47dc12b090e4e64"
)

// GetPageURL constructs the canonical public page URL for a reference
func GetPageURL(ref *PostReference) string {
	switch ref.Kind {
	case KindReel:
		return fmt.Sprintf("%s/reel/%s/", BaseURL, ref.ContentID)
	case KindStory:
		return ref.Raw
	default:
		return fmt.Sprintf("%s/p/%s/", BaseURL, ref.ContentID)
	}
}

// GetOEmbedURL constructs the URL for the public embed metadata endpoint
func GetOEmbedURL(ref *PostReference) string {
	params := url.Values{}
	params.Set("url", GetPageURL(ref))

	return fmt.Sprintf("%s%s?%s", BaseURL, OEmbedEndpoint, params.Encode())
}

// GetGraphQLURL constructs the URL for fetching media by shortcode
func GetGraphQLURL(shortcode string) string {
	params := url.Values{}
	params.Set("query_hash", ShortcodeQueryHash)
	params.Set("variables", fmt.Sprintf(`{"shortcode":"%s"}`, shortcode))

	return fmt.Sprintf("%s%s?%s", BaseURL, GraphQLEndpoint, params.Encode())
}

// GetMediaInfoURL constructs the URL for fetching media by numeric id,
// used for story references whose id is a media pk rather than a shortcode
func GetMediaInfoURL(mediaID string) string {
	return BaseURL + fmt.Sprintf(MediaInfoEndpoint, mediaID)
}

// GetSemiPublicJSONURL constructs the machine-readable variant of the page URL
func GetSemiPublicJSONURL(ref *PostReference) string {
	return GetPageURL(ref) + "?__a=1&__d=dis"
}
