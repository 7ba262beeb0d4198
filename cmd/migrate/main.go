// Command migrate runs schema operations for the backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"murmur/internal/config"
	"murmur/internal/database"
	"murmur/internal/middleware"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	if err := run(); err != nil {
		middleware.Logger.Error("migrate failed", "error", err)
		os.Exit(1)
	}
}

func usage() error {
	return fmt.Errorf("usage: go run ./cmd/migrate [-force] <up|status|drop>")
}

func run() error {
	force := flag.Bool("force", false, "Allow drop outside development")
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	middleware.Configure(os.Stdout, cfg.LogLevel, cfg.Env)

	// Connect applies the schema itself outside production; open the raw
	// connection so status and drop see the database as it is.
	db, err := gorm.Open(database.Dialector(cfg), &gorm.Config{
		Logger: database.NewGormLogger(middleware.Logger, logger.Warn),
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	ctx := context.Background()
	switch strings.ToLower(strings.TrimSpace(flag.Arg(0))) {
	case "up":
		if err := database.ApplySchema(ctx, db); err != nil {
			return err
		}
		middleware.Logger.Info("schema applied")
	case "status":
		status, err := database.SchemaStatus(ctx, db)
		if err != nil {
			return err
		}
		for _, s := range status {
			middleware.Logger.Info("table", "name", s.Table, "exists", s.Exists)
		}
	case "drop":
		if cfg.Env != "development" && !*force {
			return fmt.Errorf("refusing to drop the %s database without -force", cfg.Env)
		}
		if err := database.DropSchema(ctx, db); err != nil {
			return err
		}
		middleware.Logger.Warn("schema dropped", "driver", cfg.DBDriver)
	default:
		return usage()
	}
	return nil
}
