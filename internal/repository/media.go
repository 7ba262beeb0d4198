package repository

import (
	"context"
	"errors"

	"murmur/internal/models"

	"gorm.io/gorm"
)

// MediaResolver fills the public URL of a media row.
type MediaResolver interface {
	Resolve(m *models.Media)
}

// MediaRepository persists media rows keyed by (owner kind, owner id).
type MediaRepository interface {
	Find(ctx context.Context, kind models.TargetKind, ownerID uint, fileType string) (*models.Media, error)
	ForOwners(ctx context.Context, kind models.TargetKind, ownerIDs []uint) ([]models.Media, error)
	Create(ctx context.Context, m *models.Media) error
	Delete(ctx context.Context, id uint) error
}

type mediaRepository struct {
	db *gorm.DB
}

// NewMediaRepository creates a new media repository
func NewMediaRepository(db *gorm.DB) MediaRepository {
	return &mediaRepository{db: db}
}

// Find returns the newest media of fileType owned by (kind, ownerID), or nil.
func (r *mediaRepository) Find(ctx context.Context, kind models.TargetKind, ownerID uint, fileType string) (*models.Media, error) {
	var m models.Media
	err := r.db.WithContext(ctx).
		Where("owner_kind = ? AND owner_id = ? AND file_type = ?", kind, ownerID, fileType).
		Order("id DESC").
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &m, nil
}

func (r *mediaRepository) ForOwners(ctx context.Context, kind models.TargetKind, ownerIDs []uint) ([]models.Media, error) {
	return loadMedia(ctx, readDB(r.db), kind, ownerIDs)
}

func (r *mediaRepository) Create(ctx context.Context, m *models.Media) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *mediaRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Media{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func loadMedia(ctx context.Context, db *gorm.DB, kind models.TargetKind, ownerIDs []uint) ([]models.Media, error) {
	if len(ownerIDs) == 0 {
		return nil, nil
	}
	var media []models.Media
	if err := db.WithContext(ctx).
		Where("owner_kind = ? AND owner_id IN ?", kind, ownerIDs).
		Order("id ASC").
		Find(&media).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return media, nil
}

// attachUserMedia sets ProfileImage and CoverImage on users. Later rows win.
func attachUserMedia(ctx context.Context, db *gorm.DB, resolver MediaResolver, users ...*models.User) error {
	ids := make([]uint, 0, len(users))
	byID := make(map[uint][]*models.User, len(users))
	for _, u := range users {
		if u == nil || u.ID == 0 {
			continue
		}
		if _, ok := byID[u.ID]; !ok {
			ids = append(ids, u.ID)
		}
		byID[u.ID] = append(byID[u.ID], u)
	}
	media, err := loadMedia(ctx, db, models.TargetUser, ids)
	if err != nil {
		return err
	}
	for i := range media {
		m := media[i]
		if resolver != nil {
			resolver.Resolve(&m)
		}
		for _, u := range byID[m.OwnerID] {
			img := m
			switch m.FileType {
			case models.MediaProfile:
				u.ProfileImage = &img
			case models.MediaCover:
				u.CoverImage = &img
			}
		}
	}
	return nil
}

// attachPostMedia sets Media on posts.
func attachPostMedia(ctx context.Context, db *gorm.DB, resolver MediaResolver, posts []models.Post) error {
	ids := make([]uint, len(posts))
	index := make(map[uint]int, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
		index[posts[i].ID] = i
		posts[i].Media = []models.Media{}
	}
	media, err := loadMedia(ctx, db, models.TargetPost, ids)
	if err != nil {
		return err
	}
	for _, m := range media {
		if resolver != nil {
			resolver.Resolve(&m)
		}
		i := index[m.OwnerID]
		posts[i].Media = append(posts[i].Media, m)
	}
	return nil
}
