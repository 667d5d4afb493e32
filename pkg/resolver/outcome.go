package resolver

import (
	errs "igresolver/pkg/errors"
)

// MediaKind distinguishes downloadable media types
type MediaKind string

const (
	MediaKindVideo MediaKind = "video"
	MediaKindImage MediaKind = "image"
)

// MediaAsset is one resolved downloadable unit
type MediaAsset struct {
	ID           string
	Kind         MediaKind
	SourceURL    string
	ThumbnailURL string
	Width        int
	Height       int
	Caption      string
	OwnerHandle  string
}

// Outcome is the terminal result of a resolution attempt: either a non-empty
// ordered asset list, or a typed failure. Never both.
type Outcome struct {
	Assets []MediaAsset
	Err    *errs.Error
}

// Success reports whether the outcome carries resolved assets
func (o Outcome) Success() bool {
	return o.Err == nil && len(o.Assets) > 0
}

// SuccessOutcome builds a successful outcome; an empty asset list is
// converted to a no_media_found failure so Success never carries nothing
func SuccessOutcome(assets []MediaAsset) Outcome {
	if len(assets) == 0 {
		return FailureOutcome(errs.New(errs.ErrorTypeNoMediaFound, "no media found"))
	}
	return Outcome{Assets: assets}
}

// FailureOutcome builds a failed outcome
func FailureOutcome(err *errs.Error) Outcome {
	return Outcome{Err: err}
}

// Response is the serializable wire shape of an outcome
type Response struct {
	Success bool        `json:"success"`
	Media   []MediaItem `json:"media,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// MediaItem is the wire shape of a single asset
type MediaItem struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
	Caption      string `json:"caption,omitempty"`
	Username     string `json:"username,omitempty"`
}

// ToResponse converts an outcome to its wire shape
func (o Outcome) ToResponse() Response {
	if !o.Success() {
		msg := "resolution failed"
		if o.Err != nil {
			msg = o.Err.Message
		}
		return Response{Success: false, Error: msg}
	}

	media := make([]MediaItem, len(o.Assets))
	for i, asset := range o.Assets {
		media[i] = MediaItem{
			ID:           asset.ID,
			Type:         string(asset.Kind),
			URL:          asset.SourceURL,
			ThumbnailURL: asset.ThumbnailURL,
			Width:        asset.Width,
			Height:       asset.Height,
			Caption:      asset.Caption,
			Username:     asset.OwnerHandle,
		}
	}
	return Response{Success: true, Media: media}
}
