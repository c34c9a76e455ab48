package di

import (
	"context"
	"fmt"
	"time"

	"user-registry/cmd/api/infrastructure"
	"user-registry/internal/adapter/cache"
	"user-registry/internal/adapter/db/postgres"
	ginhandler "user-registry/internal/adapter/gin/handler"
	"user-registry/internal/adapter/repository/cached"
	"user-registry/internal/adapter/storage"
	"user-registry/internal/config"
	"user-registry/internal/usecase/user"
	redisclient "user-registry/pkg/redis"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	DB          *gorm.DB
	RedisClient *redisclient.Client
	Photos      *storage.LocalPhotoStore
	UserUC      user.Usecase
	GinHandler  *ginhandler.UserHandler
}

// NewContainer prepares storage, connects to the database, creates the users
// table and wires the request path. Any failure aborts startup and releases
// whatever was already opened.
func NewContainer(ctx context.Context, cfg *config.Config, l *zap.Logger) (c *Container, err error) {
	// Validate configuration before initializing any dependencies
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	c = &Container{Config: cfg, Logger: l}
	defer func() {
		if err != nil {
			_ = c.Close()
			c = nil
		}
	}()

	// Storage directory must exist before the first upload
	photos := storage.NewLocalPhotoStore(cfg.Storage.Path, l)
	if err := photos.EnsureDir(); err != nil {
		return c, err
	}
	c.Photos = photos

	// Initialize database
	c.DB, err = infrastructure.NewDatabase(cfg, l)
	if err != nil {
		return c, fmt.Errorf("failed to initialize database: %w", err)
	}

	dbRepo := postgres.NewUserRepoPG(c.DB, l)
	if err := dbRepo.Migrate(ctx); err != nil {
		return c, err
	}

	// Initialize optional listing cache
	c.RedisClient, err = infrastructure.NewRedisClient(cfg, l)
	if err != nil {
		return c, fmt.Errorf("failed to initialize Redis: %w", err)
	}

	var repo user.Repository = dbRepo
	if c.RedisClient != nil {
		listCache := cache.NewRedisUserListCache(
			c.RedisClient.Client,
			time.Duration(cfg.Redis.CacheTTL)*time.Second,
			l,
		)
		repo = cached.NewCachedUserRepository(dbRepo, listCache, l)
	}

	// Initialize use case
	c.UserUC = user.New(repo, photos, cfg.Storage.MaxPhotoBytes, l)

	// Initialize Gin handler
	c.GinHandler = ginhandler.NewUserHandler(c.UserUC, l)

	return c, nil
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	var errs []error

	// Close Redis connection
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	// Close database connection
	if c.DB != nil {
		if err := infrastructure.CloseDatabase(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("container close errors: %v", errs)
	}

	return nil
}
