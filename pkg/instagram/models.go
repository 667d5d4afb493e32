package instagram

// OEmbedResponse represents the public embed metadata endpoint response
type OEmbedResponse struct {
	Title           string `json:"title"`
	AuthorName      string `json:"author_name"`
	MediaID         string `json:"media_id"`
	Type            string `json:"type"`
	ThumbnailURL    string `json:"thumbnail_url"`
	ThumbnailWidth  int    `json:"thumbnail_width"`
	ThumbnailHeight int    `json:"thumbnail_height"`
}

// GraphQLResponse represents the top-level shortcode media query response
type GraphQLResponse struct {
	Data   *GraphQLData `json:"data"`
	Status string       `json:"status"`
}

// GraphQLData wraps the media node in the response
type GraphQLData struct {
	ShortcodeMedia *Media `json:"xdt_shortcode_media"`
}

// Media represents a single media node, possibly with sidecar children
type Media struct {
	Typename              string                 `json:"__typename"`
	ID                    string                 `json:"id"`
	Shortcode             string                 `json:"shortcode"`
	DisplayURL            string                 `json:"display_url"`
	VideoURL              string                 `json:"video_url"`
	IsVideo               bool                   `json:"is_video"`
	Dimensions            *Dimensions            `json:"dimensions"`
	Owner                 *Owner                 `json:"owner"`
	EdgeMediaToCaption    *EdgeMediaToCaption    `json:"edge_media_to_caption"`
	EdgeSidecarToChildren *EdgeSidecarToChildren `json:"edge_sidecar_to_children"`
}

// Dimensions holds media pixel dimensions
type Dimensions struct {
	Height int `json:"height"`
	Width  int `json:"width"`
}

// Owner identifies the posting account
type Owner struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// EdgeMediaToCaption wraps caption edges
type EdgeMediaToCaption struct {
	Edges []*CaptionEdge `json:"edges"`
}

// CaptionEdge wraps a single caption node
type CaptionEdge struct {
	Node *CaptionNode `json:"node"`
}

// CaptionNode holds the caption text
type CaptionNode struct {
	Text string `json:"text"`
}

// EdgeSidecarToChildren wraps carousel child edges
type EdgeSidecarToChildren struct {
	Edges []*SidecarEdge `json:"edges"`
}

// SidecarEdge wraps a single carousel child
type SidecarEdge struct {
	Node *Media `json:"node"`
}

// Caption returns the first caption text, or empty if the post has none
func (m *Media) Caption() string {
	if m.EdgeMediaToCaption == nil || len(m.EdgeMediaToCaption.Edges) == 0 {
		return ""
	}
	if node := m.EdgeMediaToCaption.Edges[0].Node; node != nil {
		return node.Text
	}
	return ""
}

// OwnerUsername returns the posting account's handle, or empty if unknown
func (m *Media) OwnerUsername() string {
	if m.Owner == nil {
		return ""
	}
	return m.Owner.Username
}

// MediaInfoResponse represents the media-by-id endpoint response used
// for story references
type MediaInfoResponse struct {
	Items  []*MediaInfoItem `json:"items"`
	Status string           `json:"status"`
}

// MediaInfoItem is one media item in a media-info response
type MediaInfoItem struct {
	ID             string           `json:"id"`
	MediaType      int              `json:"media_type"`
	ImageVersions2 *ImageVersions   `json:"image_versions2"`
	VideoVersions  []*VideoVersion  `json:"video_versions"`
	Caption        *MediaCaption    `json:"caption"`
	User           *MediaUser       `json:"user"`
	CarouselMedia  []*MediaInfoItem `json:"carousel_media"`
}

// Media types reported by the media-info endpoint
const (
	MediaTypeImage    = 1
	MediaTypeVideo    = 2
	MediaTypeCarousel = 8
)

// ImageVersions holds image rendition candidates, best first
type ImageVersions struct {
	Candidates []*MediaVersion `json:"candidates"`
}

// VideoVersion is one video rendition
type VideoVersion struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Type   int    `json:"type"`
}

// MediaVersion is one image rendition
type MediaVersion struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// MediaCaption holds the item caption
type MediaCaption struct {
	Text string `json:"text"`
}

// MediaUser identifies the posting account in media-info responses
type MediaUser struct {
	Username string `json:"username"`
}
