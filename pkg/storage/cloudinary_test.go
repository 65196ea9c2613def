package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractPublicID(t *testing.T) {
	t.Parallel()
	tests := []struct {
		url  string
		want string
	}{
		{"https://res.cloudinary.com/demo/image/upload/v1712/skillquest/avatars/abc.webp", "skillquest/avatars/abc"},
		{"https://res.cloudinary.com/demo/image/upload/avatars/abc.png", "avatars/abc"},
		{"https://res.cloudinary.com/demo/image/upload/videos/clip.webp", "videos/clip"},
		{"https://example.com/no-upload-segment.png", ""},
		{"https://res.cloudinary.com/demo/image/upload/v99", ""},
		{"::not a url", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extractPublicID(tt.url), tt.url)
	}
}

func TestAvatarFolder(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "avatars", avatarFolder(""))
	assert.Equal(t, "skillquest/avatars", avatarFolder("skillquest"))
}
