package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"anoa.com/skillquest/internal/bootstrap"
	"anoa.com/skillquest/internal/config"
	"anoa.com/skillquest/internal/server"
	"anoa.com/skillquest/pkg/database"
	"anoa.com/skillquest/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.AppEnv)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	if err := bootstrap.Migrate(db); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}
	if err := bootstrap.SeedRoles(db); err != nil {
		log.Fatal("failed to seed roles", zap.Error(err))
	}
	if cfg.IsDevelopment() {
		if err := bootstrap.SeedAdminUser(db, log); err != nil {
			log.Fatal("failed to seed admin user", zap.Error(err))
		}
	}

	redisClient := connectRedis(ctx, cfg.RedisURL, log)
	if redisClient != nil {
		defer redisClient.Close()
	}

	srv, err := server.NewServer(ctx, cfg, db, redisClient, log)
	if err != nil {
		log.Fatal("failed to build server", zap.Error(err))
	}
	if err := srv.Run(ctx); err != nil {
		log.Fatal("server exited with error", zap.Error(err))
	}
	log.Info("server stopped")
}

// connectRedis returns nil when Redis is not configured or unreachable.
func connectRedis(ctx context.Context, url string, log *zap.Logger) *redis.Client {
	if url == "" {
		return nil
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Warn("invalid REDIS_URL, continuing without redis", zap.Error(err))
		return nil
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("redis unreachable, continuing without redis", zap.Error(err))
		_ = client.Close()
		return nil
	}
	log.Info("connected to redis", zap.String("addr", opt.Addr))
	return client
}
