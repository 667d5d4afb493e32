package resolver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "igresolver/pkg/errors"
	"igresolver/pkg/instagram"
)

// fakeUpstream is a scripted UpstreamClient that records the last URL
type fakeUpstream struct {
	body    string
	bodyErr error
	json    string
	jsonErr error
	lastURL string
}

func (f *fakeUpstream) FetchBody(ctx context.Context, url, sessionToken string) ([]byte, error) {
	f.lastURL = url
	if f.bodyErr != nil {
		return nil, f.bodyErr
	}
	return []byte(f.body), nil
}

func (f *fakeUpstream) FetchJSON(ctx context.Context, url, sessionToken string, target interface{}) error {
	f.lastURL = url
	if f.jsonErr != nil {
		return f.jsonErr
	}
	return json.Unmarshal([]byte(f.json), target)
}

func postRef(id string) *instagram.PostReference {
	return &instagram.PostReference{
		Raw:       "https://www.instagram.com/p/" + id + "/",
		ContentID: id,
		Kind:      instagram.KindPost,
	}
}

func storyRef(id string) *instagram.PostReference {
	return &instagram.PostReference{
		Raw:       "https://www.instagram.com/stories/someuser/" + id + "/",
		ContentID: id,
		Kind:      instagram.KindStory,
	}
}

func TestAuthenticatedAPIRequiresToken(t *testing.T) {
	strategy := NewAuthenticatedAPIStrategy(&fakeUpstream{})

	_, err := strategy.Attempt(context.Background(), postRef("ABC123"), "")

	require.Error(t, err)
	typed, ok := err.(*errs.Error)
	require.True(t, ok)
	assert.Equal(t, errs.ErrorTypeAuth, typed.Type)
}

func TestAuthenticatedAPICarousel(t *testing.T) {
	client := &fakeUpstream{json: `{
		"data": {
			"xdt_shortcode_media": {
				"id": "parent",
				"is_video": false,
				"owner": {"username": "someuser"},
				"edge_media_to_caption": {"edges": [{"node": {"text": "three things"}}]},
				"edge_sidecar_to_children": {"edges": [
					{"node": {"id": "c1", "is_video": true, "video_url": "https://cdn.example.net/c1.mp4", "display_url": "https://cdn.example.net/c1.jpg", "dimensions": {"width": 1080, "height": 1920}}},
					{"node": {"id": "c2", "is_video": true, "video_url": "https://cdn.example.net/c2.mp4", "display_url": "https://cdn.example.net/c2.jpg"}},
					{"node": {"id": "c3", "is_video": false, "display_url": "https://cdn.example.net/c3.jpg"}}
				]}
			}
		},
		"status": "ok"
	}`}
	strategy := NewAuthenticatedAPIStrategy(client)

	assets, err := strategy.Attempt(context.Background(), postRef("ABC123"), "token")

	require.NoError(t, err)
	require.Len(t, assets, 3)
	assert.Contains(t, client.lastURL, "graphql")

	assert.Equal(t, MediaKindVideo, assets[0].Kind)
	assert.Equal(t, "https://cdn.example.net/c1.mp4", assets[0].SourceURL)
	assert.Equal(t, "https://cdn.example.net/c1.jpg", assets[0].ThumbnailURL)
	assert.Equal(t, 1080, assets[0].Width)
	assert.Equal(t, 1920, assets[0].Height)

	assert.Equal(t, MediaKindVideo, assets[1].Kind)
	assert.Equal(t, MediaKindImage, assets[2].Kind)
	assert.Equal(t, "https://cdn.example.net/c3.jpg", assets[2].SourceURL)

	// Children inherit the parent caption and owner
	for _, asset := range assets {
		assert.Equal(t, "three things", asset.Caption)
		assert.Equal(t, "someuser", asset.OwnerHandle)
	}
}

func TestAuthenticatedAPISingleVideo(t *testing.T) {
	client := &fakeUpstream{json: `{
		"data": {
			"xdt_shortcode_media": {
				"id": "solo",
				"is_video": true,
				"video_url": "https://cdn.example.net/solo.mp4",
				"display_url": "https://cdn.example.net/solo.jpg"
			}
		}
	}`}
	strategy := NewAuthenticatedAPIStrategy(client)

	assets, err := strategy.Attempt(context.Background(), postRef("ABC123"), "token")

	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, MediaKindVideo, assets[0].Kind)
	assert.Equal(t, "https://cdn.example.net/solo.mp4", assets[0].SourceURL)
	assert.Equal(t, "https://cdn.example.net/solo.jpg", assets[0].ThumbnailURL)
}

func TestAuthenticatedAPIStoryUsesMediaInfo(t *testing.T) {
	client := &fakeUpstream{json: `{
		"items": [{
			"id": "3131",
			"media_type": 2,
			"video_versions": [{"url": "https://cdn.example.net/story.mp4", "width": 720, "height": 1280}],
			"image_versions2": {"candidates": [{"url": "https://cdn.example.net/story.jpg"}]},
			"user": {"username": "someuser"}
		}],
		"status": "ok"
	}`}
	strategy := NewAuthenticatedAPIStrategy(client)

	assets, err := strategy.Attempt(context.Background(), storyRef("3131"), "token")

	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Contains(t, client.lastURL, "/media/3131/info/")
	assert.Equal(t, MediaKindVideo, assets[0].Kind)
	assert.Equal(t, "https://cdn.example.net/story.mp4", assets[0].SourceURL)
	assert.Equal(t, "https://cdn.example.net/story.jpg", assets[0].ThumbnailURL)
	assert.Equal(t, "someuser", assets[0].OwnerHandle)
}

func TestStructuredEndpointRejectsStories(t *testing.T) {
	strategy := NewStructuredEndpointStrategy(&fakeUpstream{})

	_, err := strategy.Attempt(context.Background(), storyRef("3131"), "")

	require.Error(t, err)
	typed, ok := err.(*errs.Error)
	require.True(t, ok)
	assert.Equal(t, errs.ErrorTypeNoMediaFound, typed.Type)
}

func TestStructuredEndpointSuccess(t *testing.T) {
	client := &fakeUpstream{json: `{
		"title": "a caption",
		"author_name": "someuser",
		"media_id": "9000",
		"thumbnail_url": "https://cdn.example.net/thumb.jpg",
		"thumbnail_width": 640,
		"thumbnail_height": 640
	}`}
	strategy := NewStructuredEndpointStrategy(client)

	assets, err := strategy.Attempt(context.Background(), postRef("ABC123"), "")

	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Contains(t, client.lastURL, "oembed")
	assert.Equal(t, "9000", assets[0].ID)
	assert.Equal(t, MediaKindImage, assets[0].Kind)
	assert.Equal(t, "https://cdn.example.net/thumb.jpg", assets[0].SourceURL)
	assert.Equal(t, 640, assets[0].Width)
	assert.Equal(t, "a caption", assets[0].Caption)
	assert.Equal(t, "someuser", assets[0].OwnerHandle)
}

func TestStructuredEndpointEmptyThumbnail(t *testing.T) {
	client := &fakeUpstream{json: `{"title": "a caption", "author_name": "someuser"}`}
	strategy := NewStructuredEndpointStrategy(client)

	_, err := strategy.Attempt(context.Background(), postRef("ABC123"), "")

	require.Error(t, err)
	typed, ok := err.(*errs.Error)
	require.True(t, ok)
	assert.Equal(t, errs.ErrorTypeNoMediaFound, typed.Type)
}

func TestPageScrapeInlineVideoURLWinsOverMetaTags(t *testing.T) {
	client := &fakeUpstream{body: `<html><head>
		<meta property="og:image" content="https://cdn.example.net/fallback.jpg?a=1&amp;b=2" />
		</head><body>
		<script>{"video_url":"https:\/\/cdn.example.net\/clip.mp4?efg=abc&dl=1","username":"someuser"}</script>
		</body></html>`}
	strategy := NewPageScrapeStrategy(client)

	assets, err := strategy.Attempt(context.Background(), postRef("ABC123"), "")

	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, MediaKindVideo, assets[0].Kind)
	assert.Equal(t, "https://cdn.example.net/clip.mp4?efg=abc&dl=1", assets[0].SourceURL)
	assert.Equal(t, "https://cdn.example.net/fallback.jpg?a=1&b=2", assets[0].ThumbnailURL)
	assert.Equal(t, "someuser", assets[0].OwnerHandle)
}

func TestPageScrapeJSONLDVideo(t *testing.T) {
	client := &fakeUpstream{body: `<html><head>
		<script type="application/ld+json">{"@type":"VideoObject","contentUrl":"https://cdn.example.net/ld.mp4"}</script>
		</head></html>`}
	strategy := NewPageScrapeStrategy(client)

	assets, err := strategy.Attempt(context.Background(), postRef("ABC123"), "")

	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, MediaKindVideo, assets[0].Kind)
	assert.Equal(t, "https://cdn.example.net/ld.mp4", assets[0].SourceURL)
}

func TestPageScrapeOGImageFallback(t *testing.T) {
	client := &fakeUpstream{body: `<html><head>
		<meta property="og:image" content="https://cdn.example.net/photo.jpg" />
		<meta property="og:title" content="someuser on Instagram: &quot;sunset&quot;" />
		</head></html>`}
	strategy := NewPageScrapeStrategy(client)

	assets, err := strategy.Attempt(context.Background(), postRef("ABC123"), "")

	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, MediaKindImage, assets[0].Kind)
	assert.Equal(t, "https://cdn.example.net/photo.jpg", assets[0].SourceURL)
	assert.Equal(t, "sunset", assets[0].Caption)
	assert.Empty(t, assets[0].ThumbnailURL, "image assets carry no separate thumbnail")
}

func TestPageScrapeNoMatch(t *testing.T) {
	client := &fakeUpstream{body: `<html><body>log in to continue</body></html>`}
	strategy := NewPageScrapeStrategy(client)

	_, err := strategy.Attempt(context.Background(), postRef("ABC123"), "")

	require.Error(t, err)
	typed, ok := err.(*errs.Error)
	require.True(t, ok)
	assert.Equal(t, errs.ErrorTypeNoMediaFound, typed.Type)
}

func TestSemiPublicJSONInvalidBody(t *testing.T) {
	client := &fakeUpstream{body: `<html>login page</html>`}
	strategy := NewSemiPublicJSONStrategy(client)

	_, err := strategy.Attempt(context.Background(), postRef("ABC123"), "")

	require.Error(t, err)
	typed, ok := err.(*errs.Error)
	require.True(t, ok)
	assert.Equal(t, errs.ErrorTypeParsing, typed.Type)
}

func TestSemiPublicJSONGraphQLShape(t *testing.T) {
	client := &fakeUpstream{body: `{
		"graphql": {
			"shortcode_media": {
				"id": "parent",
				"owner": {"username": "someuser"},
				"edge_media_to_caption": {"edges": [{"node": {"text": "pair"}}]},
				"edge_sidecar_to_children": {"edges": [
					{"node": {"id": "c1", "is_video": true, "video_url": "https://cdn.example.net/c1.mp4", "display_url": "https://cdn.example.net/c1.jpg"}},
					{"node": {"id": "c2", "is_video": false, "display_url": "https://cdn.example.net/c2.jpg", "dimensions": {"width": 1080, "height": 1350}}}
				]}
			}
		}
	}`}
	strategy := NewSemiPublicJSONStrategy(client)

	assets, err := strategy.Attempt(context.Background(), postRef("ABC123"), "")

	require.NoError(t, err)
	require.Len(t, assets, 2)
	assert.True(t, strings.Contains(client.lastURL, "__a=1"))

	assert.Equal(t, MediaKindVideo, assets[0].Kind)
	assert.Equal(t, "https://cdn.example.net/c1.mp4", assets[0].SourceURL)
	assert.Equal(t, MediaKindImage, assets[1].Kind)
	assert.Equal(t, 1080, assets[1].Width)
	assert.Equal(t, "pair", assets[1].Caption)
	assert.Equal(t, "someuser", assets[1].OwnerHandle)
}

func TestSemiPublicJSONItemsShape(t *testing.T) {
	client := &fakeUpstream{body: `{
		"items": [{
			"id": "9000",
			"user": {"username": "someuser"},
			"carousel_media": [
				{"id": "9001", "video_versions": [{"url": "https://cdn.example.net/a.mp4", "width": 720, "height": 1280}], "image_versions2": {"candidates": [{"url": "https://cdn.example.net/a.jpg"}]}},
				{"id": "9002", "image_versions2": {"candidates": [{"url": "https://cdn.example.net/b.jpg", "width": 1080, "height": 1080}]}}
			]
		}]
	}`}
	strategy := NewSemiPublicJSONStrategy(client)

	assets, err := strategy.Attempt(context.Background(), postRef("ABC123"), "")

	require.NoError(t, err)
	require.Len(t, assets, 2)
	assert.Equal(t, MediaKindVideo, assets[0].Kind)
	assert.Equal(t, "https://cdn.example.net/a.mp4", assets[0].SourceURL)
	assert.Equal(t, "https://cdn.example.net/a.jpg", assets[0].ThumbnailURL)
	assert.Equal(t, MediaKindImage, assets[1].Kind)
	assert.Equal(t, "https://cdn.example.net/b.jpg", assets[1].SourceURL)
}

func TestSemiPublicJSONNoRecognizedShape(t *testing.T) {
	client := &fakeUpstream{body: `{"seo_category_infos": []}`}
	strategy := NewSemiPublicJSONStrategy(client)

	_, err := strategy.Attempt(context.Background(), postRef("ABC123"), "")

	require.Error(t, err)
	typed, ok := err.(*errs.Error)
	require.True(t, ok)
	assert.Equal(t, errs.ErrorTypeNoMediaFound, typed.Type)
}
