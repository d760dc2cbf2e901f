package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAvatarObjectPath(t *testing.T) {
	assert.Equal(t, "avatars/u-1/abc.png", AvatarObjectPath("u-1", "abc", "Me.PNG"))
	assert.Equal(t, "avatars/u-1/abc", AvatarObjectPath("u-1", "abc", "noext"))
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "https://storage.googleapis.com/bkt/avatars/u-1/a.jpg", PublicURL("bkt", "avatars/u-1/a.jpg"))
}
