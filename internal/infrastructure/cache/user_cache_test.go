package cache

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-account-service/internal/domain/entity"
	"github.com/oksasatya/go-account-service/internal/domain/repository"
	"github.com/oksasatya/go-account-service/pkg/helpers"
)

type mapKV struct {
	m      map[string]cachedUser
	getErr error
}

func (k *mapKV) GetJSON(_ context.Context, key string, dest *cachedUser) (bool, error) {
	if k.getErr != nil {
		return false, k.getErr
	}
	v, ok := k.m[key]
	if ok {
		*dest = v
	}
	return ok, nil
}

func (k *mapKV) SetJSON(_ context.Context, key string, v *cachedUser, _ time.Duration) error {
	k.m[key] = *v
	return nil
}

func (k *mapKV) Del(_ context.Context, key string) error {
	delete(k.m, key)
	return nil
}

type countingRepo struct {
	repository.UserRepository
	users map[string]*entity.User
	gets  int
	upErr error
}

func (c *countingRepo) Create(_ context.Context, u *entity.User) error {
	u.ID = "id-" + u.Username
	cp := *u
	c.users[u.ID] = &cp
	return nil
}

func (c *countingRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	c.gets++
	u, ok := c.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (c *countingRepo) Update(_ context.Context, u *entity.User) error {
	if c.upErr != nil {
		return c.upErr
	}
	cp := *u
	c.users[u.ID] = &cp
	return nil
}

func newCached() (*UserRepository, *countingRepo, *mapKV) {
	next := &countingRepo{users: map[string]*entity.User{}}
	kv := &mapKV{m: map[string]cachedUser{}}
	logger := helpers.NewLoggerTo(&bytes.Buffer{}, "test", "test")
	return &UserRepository{next: next, kv: kv, ttl: time.Minute, logger: logger}, next, kv
}

func TestCreateWarmsCacheWithCredentials(t *testing.T) {
	r, next, kv := newCached()
	ctx := context.Background()
	u := &entity.User{Email: "a@b.co", Username: "ab", Hash: "h", Salt: "s"}
	require.NoError(t, r.Create(ctx, u))
	assert.Contains(t, kv.m, "user:id-ab")

	got, err := r.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "h", got.Hash)
	assert.Equal(t, "s", got.Salt)
	assert.Zero(t, next.gets)
}

func TestGetByIDReadThrough(t *testing.T) {
	r, next, kv := newCached()
	ctx := context.Background()
	next.users["x"] = &entity.User{ID: "x", Username: "x"}

	_, err := r.GetByID(ctx, "x")
	require.NoError(t, err)
	_, err = r.GetByID(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, 1, next.gets)
	assert.Contains(t, kv.m, "user:x")

	_, err = r.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NotContains(t, kv.m, "user:missing")
}

func TestCacheReadErrorFallsBack(t *testing.T) {
	r, next, kv := newCached()
	next.users["x"] = &entity.User{ID: "x"}
	kv.getErr = errors.New("redis down")

	u, err := r.GetByID(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "x", u.ID)
}

func TestUpdateInvalidates(t *testing.T) {
	r, next, kv := newCached()
	ctx := context.Background()
	u := &entity.User{Email: "a@b.co", Username: "ab"}
	require.NoError(t, r.Create(ctx, u))

	u.Deleted = true
	require.NoError(t, r.Update(ctx, u))
	assert.NotContains(t, kv.m, "user:id-ab")

	got, err := r.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.Deleted)
	assert.Equal(t, 1, next.gets)

	next.upErr = errors.New("write failed")
	assert.Error(t, r.Update(ctx, u))
	assert.NotContains(t, kv.m, "user:id-ab")
}
