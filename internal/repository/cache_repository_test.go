package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	appErrors "github.com/globlecampus/campus-api/pkg/errors"
)

func newCacheRepo(t *testing.T) *CacheRepository {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCacheRepository(client, nil)
}

func TestCacheRepositorySetAndGet(t *testing.T) {
	repo := newCacheRepo(t)
	ctx := context.Background()

	type payload struct {
		Total int `json:"total"`
	}
	require.NoError(t, repo.Set(ctx, "dashboard:admin", payload{Total: 42}, time.Minute))

	var got payload
	require.NoError(t, repo.Get(ctx, "dashboard:admin", &got))
	require.Equal(t, 42, got.Total)
}

func TestCacheRepositoryMissingKeyIsCacheMiss(t *testing.T) {
	repo := newCacheRepo(t)

	var dest map[string]interface{}
	err := repo.Get(context.Background(), "dashboard:absent", &dest)
	require.ErrorIs(t, err, appErrors.ErrCacheMiss)
}

func TestCacheRepositoryDeleteByPattern(t *testing.T) {
	repo := newCacheRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "report:7d", map[string]int{"a": 1}, time.Minute))
	require.NoError(t, repo.Set(ctx, "report:30d", map[string]int{"b": 2}, time.Minute))
	require.NoError(t, repo.Set(ctx, "dashboard:admin", map[string]int{"c": 3}, time.Minute))

	require.NoError(t, repo.DeleteByPattern(ctx, "report:*"))

	var dest map[string]int
	require.ErrorIs(t, repo.Get(ctx, "report:7d", &dest), appErrors.ErrCacheMiss)
	require.NoError(t, repo.Get(ctx, "dashboard:admin", &dest))
}

func TestCacheRepositoryNilClientDegradesGracefully(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "k", "v", time.Minute))
	var dest string
	require.ErrorIs(t, repo.Get(ctx, "k", &dest), appErrors.ErrCacheMiss)
	require.NoError(t, repo.DeleteByPattern(ctx, "*"))
	require.NoError(t, repo.Close())
}
