package database

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"murmur/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestConfigurePool(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	cfg := &config.Config{
		DBDriver:                 "postgres",
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           5,
		DBConnMaxLifetimeMinutes: 15,
	}
	require.NoError(t, configurePool(db, cfg))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 10, sqlDB.Stats().MaxOpenConnections)

	cfg.DBDriver = "sqlite"
	require.NoError(t, configurePool(db, cfg))
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestApplySchema_Sqlite(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, ApplySchema(context.Background(), db))

	for _, table := range []string{"users", "posts", "follows", "likes", "favorites", "reposts", "media", "notifications", "chat_messages", "hashtags", "post_hashtags"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.True(t, db.Migrator().HasIndex("follows", "idx_follower_followee"))

	// Idempotent on an existing schema.
	require.NoError(t, ApplySchema(context.Background(), db))
}

func TestSchemaStatusAndDrop(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	ctx := context.Background()

	status, err := SchemaStatus(ctx, db)
	require.NoError(t, err)
	require.Len(t, status, len(PersistentModels()))
	for _, s := range status {
		assert.False(t, s.Exists, s.Table)
	}

	require.NoError(t, ApplySchema(ctx, db))
	status, err = SchemaStatus(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, "users", status[0].Table)
	for _, s := range status {
		assert.True(t, s.Exists, s.Table)
	}

	require.NoError(t, DropSchema(ctx, db))
	assert.False(t, db.Migrator().HasTable("post_hashtags"))
	assert.False(t, db.Migrator().HasTable("users"))

	// The schema can be rebuilt after a drop.
	require.NoError(t, ApplySchema(ctx, db))
}

func TestConnect_Sqlite(t *testing.T) {
	cfg := &config.Config{DBDriver: "sqlite", DBPath: ":memory:", Env: "test"}
	db, err := Connect(cfg)
	require.NoError(t, err)
	assert.Same(t, db, DB)
	assert.Nil(t, GetReadDB())
	assert.NoError(t, db.Exec("SELECT count(*) FROM posts").Error)
}

func TestCustomGormLogger_LogMode(t *testing.T) {
	l := NewGormLogger(slog.Default(), logger.Warn)
	quiet := l.LogMode(logger.Silent).(*CustomGormLogger)
	assert.Equal(t, logger.Silent, quiet.Config.LogLevel)
	assert.Equal(t, logger.Warn, l.Config.LogLevel)

	// Silent never invokes the statement callback.
	quiet.Trace(context.Background(), time.Now(), func() (string, int64) {
		t.Fatal("trace callback called in silent mode")
		return "", 0
	}, nil)
}
