package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	assert.Equal(t, "liked your post.", T("notifications.like_post"))
	assert.Equal(t, "Decline", T("actions.decline"))
	assert.Equal(t, "notifications.missing", T("notifications.missing"))
}

func TestPlural(t *testing.T) {
	assert.Equal(t, "No followers", Plural("followers_count", 0))
	assert.Equal(t, "1 follower", Plural("followers_count", 1))
	assert.Equal(t, "12 followers", Plural("followers_count", 12))
	assert.Equal(t, "0 likes", Plural("likes_count", 0))
	assert.Equal(t, "7", Plural("unknown", 7))
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load([]byte("notifications: [1, 2"))
	require.Error(t, err)
}
