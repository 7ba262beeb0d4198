package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"mime"
	"net/http"
	"strings"

	"murmur/internal/middleware"
	"murmur/internal/models"
	"murmur/internal/repository"
	"murmur/internal/storage"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

const (
	MaxImageSide            = 2048
	WebPQuality             = 80
	DefaultImageMaxUploadMB = 10
)

// Upload is an uploaded file as received from a multipart form.
type Upload struct {
	Filename    string
	ContentType string
	Content     []byte
}

// MediaStore writes files and resolves stored media. *storage.Disks
// implements it.
type MediaStore interface {
	Default() storage.Store
	Resolve(m *models.Media)
	Remove(ctx context.Context, m *models.Media) error
}

// MediaService stores profile and cover images.
type MediaService struct {
	media    repository.MediaRepository
	store    MediaStore
	maxBytes int64
}

// NewMediaService returns a MediaService accepting uploads up to maxMB.
func NewMediaService(media repository.MediaRepository, store MediaStore, maxMB int) *MediaService {
	if maxMB <= 0 {
		maxMB = DefaultImageMaxUploadMB
	}
	return &MediaService{media: media, store: store, maxBytes: int64(maxMB) * 1024 * 1024}
}

// NormalizeImage decodes an uploaded image, bounds it to MaxImageSide on
// both axes and re-encodes it as WebP.
func NormalizeImage(up Upload, maxBytes int64) ([]byte, error) {
	if len(up.Content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if maxBytes > 0 && int64(len(up.Content)) > maxBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", maxBytes/(1024*1024)))
	}
	detected := http.DetectContentType(up.Content)
	if !isAllowedImageMIME(detected) {
		return nil, models.NewValidationError("Invalid image type")
	}
	decoded, format, err := image.Decode(bytes.NewReader(up.Content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}
	if provided := normalizeContentType(up.ContentType); strings.HasPrefix(provided, "image/") && !isMatchingContentType(provided, decodedFormatToMime(format)) {
		return nil, models.NewValidationError("Image content type mismatch")
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, resizeToFit(decoded, MaxImageSide, MaxImageSide), &webp.Options{Quality: WebPQuality}); err != nil {
		return nil, models.NewInternalError(err)
	}
	return buf.Bytes(), nil
}

// ReplaceUserImage stores up as the user's profile or cover image. The
// previous file is deleted first.
func (s *MediaService) ReplaceUserImage(ctx context.Context, userID uint, fileType string, up Upload) (*models.Media, error) {
	if fileType != models.MediaProfile && fileType != models.MediaCover {
		return nil, models.NewValidationError("Unknown image kind")
	}
	encoded, err := NormalizeImage(up, s.maxBytes)
	if err != nil {
		return nil, err
	}
	if err := s.RemoveUserImage(ctx, userID, fileType); err != nil {
		return nil, err
	}

	dst := s.store.Default()
	key := fmt.Sprintf("%s_images/%d/%s.webp", fileType, userID, uuid.NewString())
	if err := dst.Put(ctx, key, bytes.NewReader(encoded), int64(len(encoded)), "image/webp"); err != nil {
		return nil, models.NewInternalError(err)
	}
	m := &models.Media{
		OwnerKind: models.TargetUser,
		OwnerID:   userID,
		FilePath:  key,
		FileType:  fileType,
		Disk:      dst.Disk(),
	}
	if err := s.media.Create(ctx, m); err != nil {
		if derr := dst.Delete(ctx, key); derr != nil {
			middleware.Logger.WarnContext(ctx, "delete orphaned upload", "key", key, "error", derr)
		}
		return nil, err
	}
	s.store.Resolve(m)
	return m, nil
}

// RemoveUserImage deletes the user's profile or cover image if there is one.
func (s *MediaService) RemoveUserImage(ctx context.Context, userID uint, fileType string) error {
	old, err := s.media.Find(ctx, models.TargetUser, userID, fileType)
	if err != nil || old == nil {
		return err
	}
	if err := s.store.Remove(ctx, old); err != nil {
		return models.NewInternalError(err)
	}
	return s.media.Delete(ctx, old.ID)
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 || (w <= maxWidth && h <= maxHeight) {
		return src
	}

	scale := float64(maxWidth) / float64(w)
	if s := float64(maxHeight) / float64(h); s < scale {
		scale = s
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func isMatchingContentType(provided, detected string) bool {
	p := normalizeContentType(provided)
	d := normalizeContentType(detected)
	if p == d {
		return true
	}
	return (p == "image/jpg" && d == "image/jpeg") || (p == "image/jpeg" && d == "image/jpg")
}

func decodedFormatToMime(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return ""
	}
}
