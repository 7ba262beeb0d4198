// Command seed fills the database with demo users, follows, posts and engagement.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"murmur/internal/bootstrap"
	"murmur/internal/config"
	"murmur/internal/middleware"
	"murmur/internal/seed"
)

func main() {
	opts := seed.DefaultOptions()
	flag.IntVar(&opts.Users, "users", opts.Users, "Number of users to create")
	flag.IntVar(&opts.PostsPerUser, "posts", opts.PostsPerUser, "Posts per user")
	flag.Float64Var(&opts.PrivateRatio, "private", opts.PrivateRatio, "Share of private accounts")
	flag.Float64Var(&opts.FollowRatio, "follow", opts.FollowRatio, "Probability that one user follows another")
	flag.Int64Var(&opts.Seed, "seed", time.Now().UnixNano(), "Random seed")
	flag.BoolVar(&opts.FastHash, "fast", false, "Hash the demo password at minimum bcrypt cost")
	clean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		middleware.Logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	middleware.Configure(os.Stdout, cfg.LogLevel, cfg.Env)

	db, _, err := bootstrap.InitRuntime(cfg, bootstrap.Options{})
	if err != nil {
		middleware.Logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	s, err := seed.NewSeeder(db, opts)
	if err != nil {
		middleware.Logger.Error("failed to create seeder", "error", err)
		os.Exit(1)
	}
	if *clean {
		if err := s.ClearAll(ctx); err != nil {
			middleware.Logger.Error("cleanup failed", "error", err)
			os.Exit(1)
		}
	}

	res, err := s.Run(ctx)
	if err != nil {
		middleware.Logger.Error("seeding failed", "error", err)
		os.Exit(1)
	}
	middleware.Logger.Info("seeding complete",
		"users", res.Users,
		"posts", res.Posts,
		"follows", res.Follows,
		"pending", res.Pending,
		"likes", res.Likes,
		"reposts", res.Reposts,
		"comments", res.Comments,
		"password", "password123",
	)
}
