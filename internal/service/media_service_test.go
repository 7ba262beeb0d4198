package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"murmur/internal/models"
	"murmur/internal/storage"
	"murmur/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xwebp "golang.org/x/image/webp"
)

func TestNormalizeImage_BoundsAndEncodesWebP(t *testing.T) {
	out, err := NormalizeImage(Upload{Filename: "wide.png", ContentType: "image/png", Content: testutil.PNG(t, 3000, 1500)}, 0)
	require.NoError(t, err)

	cfg, err := xwebp.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, MaxImageSide, cfg.Width)
	assert.Equal(t, 1024, cfg.Height)
}

func TestNormalizeImage_KeepsSmallImages(t *testing.T) {
	out, err := NormalizeImage(Upload{Content: testutil.PNG(t, 40, 30)}, 0)
	require.NoError(t, err)

	cfg, err := xwebp.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Width)
	assert.Equal(t, 30, cfg.Height)
}

func TestNormalizeImage_Rejects(t *testing.T) {
	small := testutil.PNG(t, 10, 10)
	tests := []struct {
		name     string
		up       Upload
		maxBytes int64
	}{
		{name: "empty", up: Upload{}},
		{name: "too large", up: Upload{Content: small}, maxBytes: 8},
		{name: "not an image", up: Upload{Content: []byte(strings.Repeat("plain text ", 20))}},
		{name: "content type mismatch", up: Upload{ContentType: "image/jpeg", Content: small}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeImage(tt.up, tt.maxBytes)
			assert.True(t, models.IsCode(err, models.CodeValidation), "got %v", err)
		})
	}
}

func newMediaFixture(t *testing.T) (*MediaService, *mediaRepoStub, *storage.Local) {
	t.Helper()
	local, err := storage.NewLocal(t.TempDir(), "https://cdn.test")
	require.NoError(t, err)
	repo := &mediaRepoStub{}
	return NewMediaService(repo, storage.NewDisks(local), 1), repo, local
}

func TestMediaService_ReplaceUserImage(t *testing.T) {
	svc, repo, local := newMediaFixture(t)
	ctx := context.Background()
	up := Upload{Filename: "me.png", ContentType: "image/png", Content: testutil.PNG(t, 64, 64)}

	first, err := svc.ReplaceUserImage(ctx, 5, models.MediaProfile, up)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(first.FilePath, "profile_images/5/"))
	assert.True(t, strings.HasSuffix(first.FilePath, ".webp"))
	assert.Equal(t, "https://cdn.test/"+first.FilePath, first.URL)
	exists, err := local.Exists(ctx, first.FilePath)
	require.NoError(t, err)
	assert.True(t, exists)

	second, err := svc.ReplaceUserImage(ctx, 5, models.MediaProfile, up)
	require.NoError(t, err)
	assert.NotEqual(t, first.FilePath, second.FilePath)
	exists, err = local.Exists(ctx, first.FilePath)
	require.NoError(t, err)
	assert.False(t, exists)
	require.Len(t, repo.rows, 1)
	assert.Equal(t, []uint{first.ID}, repo.deleted)
}

func TestMediaService_ReplaceUserImageCleansUpOnInsertFailure(t *testing.T) {
	svc, repo, _ := newMediaFixture(t)
	repo.createErr = models.NewInternalError(errors.New("db down"))

	_, err := svc.ReplaceUserImage(context.Background(), 5, models.MediaCover, Upload{Content: testutil.PNG(t, 16, 16)})
	assert.True(t, models.IsCode(err, models.CodeInternal))
	assert.Empty(t, repo.rows)
}

func TestMediaService_RejectsUnknownKind(t *testing.T) {
	svc, _, _ := newMediaFixture(t)

	_, err := svc.ReplaceUserImage(context.Background(), 5, models.MediaVideo, Upload{Content: testutil.PNG(t, 16, 16)})
	assert.True(t, models.IsCode(err, models.CodeValidation))
}

func TestMediaService_RemoveUserImage(t *testing.T) {
	svc, repo, local := newMediaFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.RemoveUserImage(ctx, 5, models.MediaCover))

	m, err := svc.ReplaceUserImage(ctx, 5, models.MediaCover, Upload{Content: testutil.PNG(t, 16, 16)})
	require.NoError(t, err)
	require.NoError(t, svc.RemoveUserImage(ctx, 5, models.MediaCover))
	assert.Empty(t, repo.rows)
	exists, err := local.Exists(ctx, m.FilePath)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestIsMatchingContentType(t *testing.T) {
	assert.True(t, isMatchingContentType("image/jpg", "image/jpeg"))
	assert.True(t, isMatchingContentType("image/PNG; charset=binary", "image/png"))
	assert.False(t, isMatchingContentType("image/gif", "image/png"))
}
