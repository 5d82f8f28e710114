package directory

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smsystem2000/sm-auth-services/internal/model"
)

type SchoolStore interface {
	GetSchool(ctx context.Context, schoolID string) (model.School, error)
}

// Directory maps a school id to its database locator and activation
// status. School records are provisioned elsewhere and read-only here,
// so the optional Redis cache needs no invalidation beyond its TTL.
type Directory struct {
	store SchoolStore
	redis *redis.Client
	ttl   time.Duration
}

func New(store SchoolStore, redisClient *redis.Client, ttl time.Duration) *Directory {
	return &Directory{store: store, redis: redisClient, ttl: ttl}
}

func (d *Directory) Resolve(ctx context.Context, schoolID string) (model.School, error) {
	if school, ok := d.cached(ctx, schoolID); ok {
		return school, nil
	}
	school, err := d.store.GetSchool(ctx, schoolID)
	if err != nil {
		return model.School{}, err
	}
	d.cache(ctx, school)
	return school, nil
}

func (d *Directory) cached(ctx context.Context, schoolID string) (model.School, bool) {
	if d.redis == nil {
		return model.School{}, false
	}
	value, err := d.redis.Get(ctx, schoolKey(schoolID)).Result()
	if err != nil {
		// redis.Nil and transient errors are both cache misses.
		return model.School{}, false
	}
	var school model.School
	if err := json.Unmarshal([]byte(value), &school); err != nil {
		return model.School{}, false
	}
	return school, true
}

func (d *Directory) cache(ctx context.Context, school model.School) {
	if d.redis == nil {
		return
	}
	data, err := json.Marshal(school)
	if err != nil {
		return
	}
	_ = d.redis.Set(ctx, schoolKey(school.SchoolID), data, d.ttl).Err()
}

func schoolKey(schoolID string) string {
	return "school:" + schoolID
}
