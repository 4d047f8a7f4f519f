package auth

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-food-storefront/internal/redisx"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStoreRoundTrip(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()
	s := NewRedisStore(client, "sess-1")

	_, err := s.Load(ctx)
	assert.ErrorIs(t, err, ErrNoToken)

	require.NoError(t, s.Save(ctx, "tok"))
	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok", got)
	assert.Equal(t, redisx.TTLSessionToken, mr.TTL("session:sess-1:token"))

	require.NoError(t, s.Delete(ctx))
	require.NoError(t, s.Delete(ctx))
	_, err = s.Load(ctx)
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestRedisStoresAreIsolatedPerSession(t *testing.T) {
	_, client := setupTestRedis(t)
	ctx := context.Background()

	a := NewRedisStore(client, "a")
	b := NewRedisStore(client, "b")
	require.NoError(t, a.Save(ctx, "token-a"))

	_, err := b.Load(ctx)
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestManagerTreatsStoreFailureAsAbsent(t *testing.T) {
	mr, client := setupTestRedis(t)
	m := NewManager(NewRedisStore(client, "s"))
	require.NoError(t, m.Set(context.Background(), "tok"))

	mr.Close()
	_, ok := m.Get(context.Background())
	assert.False(t, ok)
}
