package instagram

import (
	"regexp"
	"strings"

	errs "igresolver/pkg/errors"
)

// ContentKind identifies what kind of content a reference points at
type ContentKind string

const (
	KindPost    ContentKind = "post"
	KindReel    ContentKind = "reel"
	KindStory   ContentKind = "story"
	KindUnknown ContentKind = "unknown"
)

// PostReference is a classified post/reel/story reference. Values are
// immutable once classified; Kind is never KindUnknown on a valid reference.
type PostReference struct {
	Raw       string
	ContentID string
	Kind      ContentKind
}

var (
	storyPattern = regexp.MustCompile(`instagram\.com/stories/([a-zA-Z0-9._]+)/(\d+)`)
	reelPattern  = regexp.MustCompile(`instagram\.com/(?:[a-zA-Z0-9._]+/)?reels?/([a-zA-Z0-9_-]+)`)
	postPattern  = regexp.MustCompile(`instagram\.com/(?:[a-zA-Z0-9._]+/)?p/([a-zA-Z0-9_-]+)`)
)

// Classify parses a raw reference string into a PostReference. It performs
// no network I/O; unrecognized input fails with a typed invalid_reference
// error before any strategy runs.
func Classify(raw string) (*PostReference, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, errs.New(errs.ErrorTypeInvalidReference, "empty reference")
	}

	if matches := storyPattern.FindStringSubmatch(trimmed); matches != nil {
		return &PostReference{
			Raw:       trimmed,
			ContentID: matches[2],
			Kind:      KindStory,
		}, nil
	}

	// Reels must be checked before posts: "/reel/" also contains no "/p/"
	// segment but share URLs can carry both markers
	if matches := reelPattern.FindStringSubmatch(trimmed); matches != nil {
		return &PostReference{
			Raw:       trimmed,
			ContentID: matches[1],
			Kind:      KindReel,
		}, nil
	}

	if matches := postPattern.FindStringSubmatch(trimmed); matches != nil {
		return &PostReference{
			Raw:       trimmed,
			ContentID: matches[1],
			Kind:      KindPost,
		}, nil
	}

	return nil, errs.New(errs.ErrorTypeInvalidReference, "not a recognized post, reel, or story reference")
}
