package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"goshortlink/cache/cacher"
	"goshortlink/models"
	"goshortlink/repository"
)

const (
	DefaultClearInterval = 24 * time.Hour
	DefaultExp           = 1 * time.Hour

	cacheHitExp  = 24 * time.Hour
	cacheMissExp = 1 * time.Hour
)

// New decorates a UrlStore with read-through caching on the short code
// lookup, the only query on the redirect hot path. All writes go straight to
// the database; the ones that change what a code resolves to also invalidate
// the cached entry.
func New(db repository.UrlStore, engine cacher.Engine, logger *zap.Logger) repository.UrlStore {
	return &cacheLogic{
		db:     db,
		cache:  engine,
		logger: logger,
	}
}

type cacheLogic struct {
	db     repository.UrlStore
	cache  cacher.Engine
	logger *zap.Logger
}

// GetByCode caches results retrieved from the database, including not-found
// answers so a hammered dead code does not hammer the database.
func (r *cacheLogic) GetByCode(ctx context.Context, code string) (*models.Url, error) {
	cached, found, err := r.cache.Get(code)
	if err != nil && err != cacher.ErrEntryNotFound {
		r.logger.Warn("cache get failed, falling through to database",
			zap.String("code", code), zap.Error(err))
		return r.db.GetByCode(ctx, code)
	}
	if found {
		return entry2url(code, cached)
	}

	// cache miss
	// TODO: use bloomfilter to filter out the non-existed key to reduce the caching load
	won, err := r.cache.Check(code)
	if err != nil {
		r.logger.Warn("cache check failed, falling through to database",
			zap.String("code", code), zap.Error(err))
		return r.db.GetByCode(ctx, code)
	}
	if won {
		defer func() {
			if err := r.cache.Uncheck(code); err != nil {
				r.logger.Warn("cache uncheck failed", zap.String("code", code), zap.Error(err))
			}
		}()
		// In case of cache stampede, Check() ensures that only one
		// goroutine recomputes the value for a given code.
		url, err := r.db.GetByCode(ctx, code)
		exp := cacheHitExp
		if err != nil {
			exp = cacheMissExp
		}
		if setErr := r.cache.Set(code, url2entry(url, err), exp); setErr != nil {
			r.logger.Warn("cache set failed", zap.String("code", code), zap.Error(setErr))
		}
		return url, err
	}
	//
	// In case of cache stampede, this implementation chooses to guarantee
	// availability, so losers just answer record not found.
	return nil, repository.ErrRecordNotFound
}

// Create just wraps db.Create(). A fresh code cannot be cached yet.
func (r *cacheLogic) Create(ctx context.Context, url *models.Url) error {
	return r.db.Create(ctx, url)
}

func (r *cacheLogic) GetByID(ctx context.Context, id uint) (*models.Url, error) {
	return r.db.GetByID(ctx, id)
}

func (r *cacheLogic) CodeExists(ctx context.Context, code string) (bool, error) {
	return r.db.CodeExists(ctx, code)
}

func (r *cacheLogic) ByCompany(ctx context.Context, companyID uint) ([]models.Url, error) {
	return r.db.ByCompany(ctx, companyID)
}

// UpdateExpiresAt wraps db.UpdateExpiresAt() and drops the cached entry, as
// the new expiry may revive or kill the redirect.
func (r *cacheLogic) UpdateExpiresAt(ctx context.Context, id uint, expiresAt *time.Time) error {
	if err := r.db.UpdateExpiresAt(ctx, id, expiresAt); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *cacheLogic) IncrementClicks(ctx context.Context, id uint) error {
	return r.db.IncrementClicks(ctx, id)
}

func (r *cacheLogic) RecordClick(ctx context.Context, click *models.UrlClick) error {
	return r.db.RecordClick(ctx, click)
}

// Delete wraps db.Delete() and drops the cached entry.
func (r *cacheLogic) Delete(ctx context.Context, id uint) error {
	url, err := r.db.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := r.db.Delete(ctx, id); err != nil {
		return err
	}
	if err := r.cache.Delete(url.ShortCode); err != nil && err != cacher.ErrEntryNotFound {
		r.logger.Warn("cache delete failed", zap.String("code", url.ShortCode), zap.Error(err))
	}
	return nil
}

func (r *cacheLogic) invalidate(ctx context.Context, id uint) {
	url, err := r.db.GetByID(ctx, id)
	if err != nil {
		r.logger.Warn("cache invalidation lookup failed", zap.Uint("id", id), zap.Error(err))
		return
	}
	if err := r.cache.Delete(url.ShortCode); err != nil && err != cacher.ErrEntryNotFound {
		r.logger.Warn("cache delete failed", zap.String("code", url.ShortCode), zap.Error(err))
	}
}

// The cache stores only what the redirect path needs, so a hit reconstructs
// a partial url row. Callers on the hot path read LongUrl, ExpiresAt and ID
// and nothing else.
func url2entry(url *models.Url, err error) *cacher.Entry {
	if err != nil {
		return &cacher.Entry{Err: err}
	}
	return &cacher.Entry{
		UrlID:     url.ID,
		LongUrl:   url.LongUrl,
		ExpiresAt: url.ExpiresAt,
	}
}

func entry2url(code string, entry *cacher.Entry) (*models.Url, error) {
	if entry.Err != nil {
		return nil, entry.Err
	}
	return &models.Url{
		ID:        entry.UrlID,
		LongUrl:   entry.LongUrl,
		ShortCode: code,
		ExpiresAt: entry.ExpiresAt,
	}, nil
}
