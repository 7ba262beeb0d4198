// Package storage persists uploaded media on the local filesystem or in an
// S3-compatible bucket and resolves public URLs for stored files.
package storage

import (
	"context"
	"fmt"
	"io"

	"murmur/internal/config"
	"murmur/internal/models"
)

// Disk names.
const (
	DiskLocal = "local"
	DiskS3    = "s3"
)

// Store is one storage backend.
type Store interface {
	// Disk returns the name recorded on media rows written by this store.
	Disk() string
	// Put stores r under key. size is -1 when unknown.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Exists reports whether key is stored.
	Exists(ctx context.Context, key string) (bool, error)
	// URL returns the public URL of key.
	URL(key string) string
}

// Disks routes media rows to the store that wrote them and writes new files
// to the default store.
type Disks struct {
	def   Store
	byKey map[string]Store
}

// NewDisks returns Disks writing to def and able to resolve every store given.
func NewDisks(def Store, others ...Store) *Disks {
	d := &Disks{def: def, byKey: map[string]Store{def.Disk(): def}}
	for _, s := range others {
		d.byKey[s.Disk()] = s
	}
	return d
}

// Open builds the configured disks. The local disk is always available so
// files written before a move to S3 keep resolving.
func Open(ctx context.Context, cfg *config.Config) (*Disks, error) {
	local, err := NewLocal(cfg.MediaLocalPath, cfg.MediaPublicURL)
	if err != nil {
		return nil, err
	}
	if cfg.MediaDisk != DiskS3 {
		return NewDisks(local), nil
	}
	s3, err := NewS3(ctx, S3Config{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		Bucket:          cfg.S3Bucket,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
		UsePathStyle:    cfg.S3UsePathStyle,
		PublicURL:       cfg.S3PublicURL,
	})
	if err != nil {
		return nil, err
	}
	return NewDisks(s3, local), nil
}

// Default returns the store new uploads go to.
func (d *Disks) Default() Store { return d.def }

// Get returns the store for disk.
func (d *Disks) Get(disk string) (Store, error) {
	s, ok := d.byKey[disk]
	if !ok {
		return nil, fmt.Errorf("unknown media disk %q", disk)
	}
	return s, nil
}

// Resolve fills m.URL from its disk and path. Unknown disks leave it empty.
func (d *Disks) Resolve(m *models.Media) {
	if m == nil {
		return
	}
	if s, ok := d.byKey[m.Disk]; ok {
		m.URL = s.URL(m.FilePath)
	}
}

// ResolveUser resolves the profile and cover images attached to u.
func (d *Disks) ResolveUser(u *models.User) {
	if u == nil {
		return
	}
	d.Resolve(u.ProfileImage)
	d.Resolve(u.CoverImage)
}

// Remove deletes the file behind m from its disk.
func (d *Disks) Remove(ctx context.Context, m *models.Media) error {
	s, err := d.Get(m.Disk)
	if err != nil {
		return err
	}
	return s.Delete(ctx, m.FilePath)
}
