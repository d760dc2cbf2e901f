package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-account-service/internal/domain/entity"
	"github.com/oksasatya/go-account-service/internal/domain/repository"
	"github.com/oksasatya/go-account-service/pkg/helpers"
)

// kv is the slice of a key-value store the user cache needs.
type kv interface {
	GetJSON(ctx context.Context, key string, dest *cachedUser) (bool, error)
	SetJSON(ctx context.Context, key string, v *cachedUser, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

type redisKV struct {
	rdb redis.Cmdable
}

func (k redisKV) GetJSON(ctx context.Context, key string, dest *cachedUser) (bool, error) {
	return helpers.RedisGetJSON(ctx, k.rdb, key, dest)
}

func (k redisKV) SetJSON(ctx context.Context, key string, v *cachedUser, ttl time.Duration) error {
	return helpers.RedisSetJSON(ctx, k.rdb, key, v, ttl)
}

func (k redisKV) Del(ctx context.Context, key string) error {
	return helpers.RedisDel(ctx, k.rdb, key)
}

// cachedUser mirrors entity.User including the credential fields the
// entity keeps out of its JSON form.
type cachedUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Hash      string    `json:"hash"`
	Salt      string    `json:"salt"`
	Image     string    `json:"image,omitempty"`
	Deleted   bool      `json:"deleted"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func fromEntity(u *entity.User) *cachedUser {
	c := cachedUser(*u)
	return &c
}

func (c *cachedUser) toEntity() *entity.User {
	u := entity.User(*c)
	return &u
}

func userKey(id string) string {
	return "user:" + id
}

// UserRepository is a read-through cache over another UserRepository.
// Lookups by id are served from the cache; every write refreshes or drops the entry.
type UserRepository struct {
	next   repository.UserRepository
	kv     kv
	ttl    time.Duration
	logger *logrus.Logger
}

func NewUserRepository(next repository.UserRepository, rdb redis.Cmdable, ttl time.Duration, logger *logrus.Logger) *UserRepository {
	return &UserRepository{next: next, kv: redisKV{rdb: rdb}, ttl: ttl, logger: logger}
}

func (r *UserRepository) put(ctx context.Context, u *entity.User) {
	if err := r.kv.SetJSON(ctx, userKey(u.ID), fromEntity(u), r.ttl); err != nil {
		helpers.LogWarn(r.logger, "user cache write failed", err, logrus.Fields{"user_id": u.ID})
	}
}

func (r *UserRepository) drop(ctx context.Context, id string) {
	if err := r.kv.Del(ctx, userKey(id)); err != nil {
		helpers.LogWarn(r.logger, "user cache invalidate failed", err, logrus.Fields{"user_id": id})
	}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	if err := r.next.Create(ctx, u); err != nil {
		return err
	}
	r.put(ctx, u)
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	var c cachedUser
	hit, err := r.kv.GetJSON(ctx, userKey(id), &c)
	if err != nil {
		helpers.LogWarn(r.logger, "user cache read failed", err, logrus.Fields{"user_id": id})
	}
	if hit {
		return c.toEntity(), nil
	}

	u, err := r.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.put(ctx, u)
	return u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.next.GetByEmail(ctx, email)
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	err := r.next.Update(ctx, u)
	// the entry is stale whether or not the write went through
	r.drop(ctx, u.ID)
	return err
}

func (r *UserRepository) List(ctx context.Context, f repository.UserFilter, skip, limit int64) ([]*entity.User, error) {
	return r.next.List(ctx, f, skip, limit)
}

func (r *UserRepository) Count(ctx context.Context, f repository.UserFilter) (int64, error) {
	return r.next.Count(ctx, f)
}

var _ repository.UserRepository = (*UserRepository)(nil)
