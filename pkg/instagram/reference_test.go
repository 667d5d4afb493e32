package instagram

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "igresolver/pkg/errors"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantKind  ContentKind
		wantID    string
	}{
		{
			name:     "reel URL",
			raw:      "https://www.instagram.com/reel/ABC123/",
			wantKind: KindReel,
			wantID:   "ABC123",
		},
		{
			name:     "reels plural URL",
			raw:      "https://www.instagram.com/reels/DEF-456_x/",
			wantKind: KindReel,
			wantID:   "DEF-456_x",
		},
		{
			name:     "post URL",
			raw:      "https://www.instagram.com/p/XYZ789/",
			wantKind: KindPost,
			wantID:   "XYZ789",
		},
		{
			name:     "post URL without trailing slash",
			raw:      "https://instagram.com/p/XYZ789",
			wantKind: KindPost,
			wantID:   "XYZ789",
		},
		{
			name:     "post URL with query string",
			raw:      "https://www.instagram.com/p/Cabc_123/?igsh=xyz",
			wantKind: KindPost,
			wantID:   "Cabc_123",
		},
		{
			name:     "user-scoped post URL",
			raw:      "https://www.instagram.com/someuser/p/Qrs456/",
			wantKind: KindPost,
			wantID:   "Qrs456",
		},
		{
			name:     "story URL",
			raw:      "https://www.instagram.com/stories/some.user/3141592653589793/",
			wantKind: KindStory,
			wantID:   "3141592653589793",
		},
		{
			name:     "surrounding whitespace",
			raw:      "  https://www.instagram.com/reel/Trimmed1/  ",
			wantKind: KindReel,
			wantID:   "Trimmed1",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ref, err := Classify(test.raw)
			require.NoError(t, err)
			assert.Equal(t, test.wantKind, ref.Kind)
			assert.Equal(t, test.wantID, ref.ContentID)
			assert.NotEqual(t, KindUnknown, ref.Kind)
		})
	}
}

func TestClassifyInvalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"explore page", "https://instagram.com/explore/"},
		{"profile page", "https://www.instagram.com/someuser/"},
		{"empty string", ""},
		{"whitespace only", "   "},
		{"story without numeric id", "https://www.instagram.com/stories/someuser/"},
		{"unrelated URL", "https://example.com/p/ignored"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Classify(test.raw)
			require.Error(t, err)

			var typedErr *errs.Error
			require.True(t, errors.As(err, &typedErr))
			assert.Equal(t, errs.ErrorTypeInvalidReference, typedErr.Type)
		})
	}
}

func TestClassifyCaseSensitiveID(t *testing.T) {
	ref, err := Classify("https://www.instagram.com/p/AbCdEf/")
	require.NoError(t, err)
	assert.Equal(t, "AbCdEf", ref.ContentID)
}
