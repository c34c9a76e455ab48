package cached

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"user-registry/internal/adapter/cache"
	domain "user-registry/internal/domain/user"
	"user-registry/internal/usecase/user"
)

// CachedUserRepository implements user.Repository with a read-through cache
// on the listing. Writes go straight to the database and drop the cached list.
type CachedUserRepository struct {
	dbRepo user.Repository
	cache  cache.UserListCache
	log    *zap.Logger
	group  singleflight.Group
}

// NewCachedUserRepository creates a new instance of CachedUserRepository.
func NewCachedUserRepository(dbRepo user.Repository, c cache.UserListCache, log *zap.Logger) user.Repository {
	return &CachedUserRepository{
		dbRepo: dbRepo,
		cache:  c,
		log:    log,
	}
}

// Create inserts through the DB repository and invalidates the listing.
func (r *CachedUserRepository) Create(ctx context.Context, reg *domain.Registration) (int64, error) {
	id, err := r.dbRepo.Create(ctx, reg)
	if err != nil {
		return 0, err
	}

	if err := r.cache.Invalidate(ctx); err != nil {
		r.log.Warn("failed to invalidate user listing after create", zap.Int64("id", id), zap.Error(err))
	}

	return id, nil
}

// List serves the listing from cache, loading it once per miss.
func (r *CachedUserRepository) List(ctx context.Context) ([]domain.User, error) {
	cachedUsers, err := r.cache.Get(ctx)
	if err != nil {
		r.log.Warn("cache get error, falling back to database", zap.Error(err))
	} else if cachedUsers != nil {
		return cachedUsers, nil
	}

	// Concurrent misses share one database query, detached from the
	// cancellation of whichever caller started it.
	loadCtx := context.WithoutCancel(ctx)
	result, err, _ := r.group.Do(cache.ListKey, func() (any, error) {
		users, err := r.dbRepo.List(loadCtx)
		if err != nil {
			return nil, err
		}

		if err := r.cache.Set(loadCtx, users); err != nil {
			r.log.Warn("failed to cache user listing", zap.Error(err))
		}

		return users, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]domain.User), nil
}
