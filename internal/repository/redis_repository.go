package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	customError "github.com/segyhp/circulation-notices/pkg/errors"
)

const templateCachePrefix = "notice-template:"

type cachedTemplateRepository struct {
	next  TemplateRepository
	redis redis.Cmdable
	ttl   time.Duration
}

// NewCachedTemplateRepository caches positive template existence answers in Redis.
// A missing template deletes notices, so that answer always comes from storage.
// Cache failures fall through to the wrapped repository.
func NewCachedTemplateRepository(next TemplateRepository, client redis.Cmdable, ttl time.Duration) TemplateRepository {
	return &cachedTemplateRepository{next: next, redis: client, ttl: ttl}
}

func (r *cachedTemplateRepository) Exists(ctx context.Context, templateID uuid.UUID) (bool, error) {
	key := templateCachePrefix + templateID.String()

	if cached, err := r.redis.Get(ctx, key).Result(); err == nil && cached == "1" {
		return true, nil
	}

	exists, err := r.next.Exists(ctx, templateID)
	if err != nil || !exists {
		return exists, err
	}

	// a failed cache write only costs a lookup next time
	_ = r.redis.Set(ctx, key, "1", r.ttl).Err()

	return true, nil
}

type redisBatchLock struct {
	redis redis.Cmdable
	token string
}

func NewRedisBatchLock(client redis.Cmdable) BatchLock {
	return &redisBatchLock{redis: client, token: uuid.NewString()}
}

func (l *redisBatchLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := l.redis.SetNX(ctx, key, l.token, ttl).Result()
	if err != nil {
		return false, customError.WrapCacheError(err)
	}
	return ok, nil
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Release drops the lock only if this process still owns it
func (l *redisBatchLock) Release(ctx context.Context, key string) error {
	err := releaseScript.Run(ctx, l.redis, []string{key}, l.token).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return customError.WrapCacheError(err)
	}
	return nil
}
