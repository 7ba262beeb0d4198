package database

import (
	"context"
	"fmt"
	"log/slog"

	"murmur/internal/middleware"

	"gorm.io/gorm"
)

// feedIndexes back the candidate queries of the feed composer. Both sqlite
// and postgres accept this syntax.
var feedIndexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_posts_author_recent ON posts (user_id, created_at DESC) WHERE deleted_at IS NULL",
	"CREATE INDEX IF NOT EXISTS idx_posts_public_recent ON posts (created_at DESC) WHERE is_private = false AND deleted_at IS NULL",
	"CREATE INDEX IF NOT EXISTS idx_follows_accepted ON follows (follower_id, followee_id) WHERE state = 'accepted'",
	"CREATE INDEX IF NOT EXISTS idx_notifications_unread ON notifications (recipient_id) WHERE is_read = false",
}

// ApplySchema migrates every persistent model and creates the partial indexes.
func ApplySchema(ctx context.Context, db *gorm.DB) error {
	middleware.Logger.InfoContext(ctx, "running gorm automigrate", slog.String("dialect", db.Dialector.Name()))
	if err := db.WithContext(ctx).AutoMigrate(PersistentModels()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	for _, stmt := range feedIndexes {
		if err := db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

// DropSchema drops every table ApplySchema creates, dependents first.
func DropSchema(ctx context.Context, db *gorm.DB) error {
	m := db.WithContext(ctx).Migrator()
	if err := m.DropTable("post_hashtags"); err != nil {
		return fmt.Errorf("drop post_hashtags: %w", err)
	}
	all := PersistentModels()
	for i := len(all) - 1; i >= 0; i-- {
		if err := m.DropTable(all[i]); err != nil {
			return fmt.Errorf("drop %T: %w", all[i], err)
		}
	}
	return nil
}

// TableStatus reports whether a schema-managed table exists.
type TableStatus struct {
	Table  string
	Exists bool
}

// SchemaStatus lists the schema-managed tables and whether each exists.
func SchemaStatus(ctx context.Context, db *gorm.DB) ([]TableStatus, error) {
	tx := db.WithContext(ctx)
	out := make([]TableStatus, 0, len(PersistentModels()))
	for _, model := range PersistentModels() {
		stmt := &gorm.Statement{DB: tx}
		if err := stmt.Parse(model); err != nil {
			return nil, fmt.Errorf("parse %T: %w", model, err)
		}
		out = append(out, TableStatus{Table: stmt.Schema.Table, Exists: tx.Migrator().HasTable(model)})
	}
	return out, nil
}
