package resolver

import (
	"context"
	"encoding/json"
	"html"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	errs "igresolver/pkg/errors"
	"igresolver/pkg/instagram"
)

// PageScrapeStrategy fetches the public page HTML and extracts media
// locations from known embedded-JSON and meta-tag patterns. It has no
// structured contract with the upstream, so patterns are applied in a
// fixed priority order and the first match wins.
type PageScrapeStrategy struct {
	client UpstreamClient
}

// NewPageScrapeStrategy creates the page scrape strategy
func NewPageScrapeStrategy(client UpstreamClient) *PageScrapeStrategy {
	return &PageScrapeStrategy{client: client}
}

// Name identifies the strategy
func (s *PageScrapeStrategy) Name() string {
	return "page_scrape"
}

var (
	inlineVideoURLPattern   = regexp.MustCompile(`"video_url"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	inlineDisplayURLPattern = regexp.MustCompile(`"display_url"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	jsonLDPattern           = regexp.MustCompile(`(?s)<script type="application/ld\+json"[^>]*>(.*?)</script>`)
	ogVideoPattern          = regexp.MustCompile(`<meta (?:property|name)="og:video(?::secure_url)?" content="([^"]+)"`)
	ogImagePattern          = regexp.MustCompile(`<meta (?:property|name)="og:image" content="([^"]+)"`)
	ogTitlePattern          = regexp.MustCompile(`<meta (?:property|name)="og:title" content="([^"]*)"`)
	inlineUsernamePattern   = regexp.MustCompile(`"username"\s*:\s*"([a-zA-Z0-9._]+)"`)
)

// Attempt fetches the page and applies the extraction patterns in order
func (s *PageScrapeStrategy) Attempt(ctx context.Context, ref *instagram.PostReference, sessionToken string) ([]MediaAsset, error) {
	body, err := s.client.FetchBody(ctx, instagram.GetPageURL(ref), sessionToken)
	if err != nil {
		return nil, err
	}
	page := string(body)

	sourceURL, kind, ok := extractMediaURL(page)
	if !ok {
		return nil, errs.New(errs.ErrorTypeNoMediaFound, "no media pattern matched in page")
	}

	asset := MediaAsset{
		ID:          ref.ContentID,
		Kind:        kind,
		SourceURL:   sourceURL,
		Caption:     extractPageCaption(page),
		OwnerHandle: extractPageOwner(page),
	}
	if kind == MediaKindVideo {
		if thumb, ok := extractOGContent(page, ogImagePattern); ok {
			asset.ThumbnailURL = thumb
		}
	}

	return []MediaAsset{asset}, nil
}

// extractMediaURL applies the extraction patterns in their fixed priority
// order: inline video_url, JSON-LD contentUrl, og:video, inline display_url,
// og:image. The first pattern that yields a URL wins.
func extractMediaURL(page string) (string, MediaKind, bool) {
	if url, ok := extractInlineJSONField(page, inlineVideoURLPattern); ok {
		return url, MediaKindVideo, true
	}
	if url, kind, ok := extractJSONLDContentURL(page); ok {
		return url, kind, true
	}
	if url, ok := extractOGContent(page, ogVideoPattern); ok {
		return url, MediaKindVideo, true
	}
	if url, ok := extractInlineJSONField(page, inlineDisplayURLPattern); ok {
		return url, MediaKindImage, true
	}
	if url, ok := extractOGContent(page, ogImagePattern); ok {
		return url, MediaKindImage, true
	}
	return "", "", false
}

// extractInlineJSONField pulls a URL out of an embedded-JSON field,
// decoding JSON string escapes
func extractInlineJSONField(page string, pattern *regexp.Regexp) (string, bool) {
	matches := pattern.FindStringSubmatch(page)
	if matches == nil {
		return "", false
	}
	url := unescapeJSONString(matches[1])
	if url == "" {
		return "", false
	}
	return url, true
}

// extractJSONLDContentURL pulls the content URL out of a JSON-LD block.
// The media kind follows the declared @type, not the surrounding post.
func extractJSONLDContentURL(page string) (string, MediaKind, bool) {
	matches := jsonLDPattern.FindStringSubmatch(page)
	if matches == nil {
		return "", "", false
	}
	doc := matches[1]

	contentURL := gjson.Get(doc, "contentUrl")
	if !contentURL.Exists() {
		contentURL = gjson.Get(doc, "video.contentUrl")
	}
	if !contentURL.Exists() || contentURL.String() == "" {
		return "", "", false
	}

	kind := MediaKindImage
	docType := gjson.Get(doc, "@type").String()
	if strings.Contains(docType, "Video") || gjson.Get(doc, "video").Exists() {
		kind = MediaKindVideo
	}
	return contentURL.String(), kind, true
}

// extractOGContent pulls a URL out of an Open Graph meta tag, decoding
// HTML entity escapes
func extractOGContent(page string, pattern *regexp.Regexp) (string, bool) {
	matches := pattern.FindStringSubmatch(page)
	if matches == nil {
		return "", false
	}
	url := html.UnescapeString(matches[1])
	if url == "" {
		return "", false
	}
	return url, true
}

func extractPageCaption(page string) string {
	matches := ogTitlePattern.FindStringSubmatch(page)
	if matches == nil {
		return ""
	}
	title := html.UnescapeString(matches[1])
	// og:title shape is `user on Instagram: "caption"`
	if idx := strings.Index(title, `: "`); idx >= 0 {
		title = strings.TrimSuffix(title[idx+3:], `"`)
	}
	return title
}

func extractPageOwner(page string) string {
	matches := inlineUsernamePattern.FindStringSubmatch(page)
	if matches == nil {
		return ""
	}
	return matches[1]
}

// unescapeJSONString decodes JSON string escapes (\/ and & most
// commonly) falling back to a plain separator replacement
func unescapeJSONString(s string) string {
	var out string
	if err := json.Unmarshal([]byte(`"`+s+`"`), &out); err == nil {
		return out
	}
	return strings.ReplaceAll(s, `\/`, "/")
}
