package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drivers(t *testing.T) map[string]Store {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	sqliteStore, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)

	stores := map[string]Store{
		"memory": NewMemoryStore(),
		"redis":  NewRedisStore(client),
		"sqlite": sqliteStore,
	}
	t.Cleanup(func() {
		for _, s := range stores {
			s.Close()
		}
	})
	return stores
}

func TestStore_GetMissing(t *testing.T) {
	for name, s := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(context.Background(), "missing")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_SetGetOverwrite(t *testing.T) {
	for name, s := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Set(ctx, "mx3:cart", []byte(`[]`)))
			require.NoError(t, s.Set(ctx, "mx3:cart", []byte(`[{"id":"1"}]`)))

			got, err := s.Get(ctx, "mx3:cart")
			require.NoError(t, err)
			assert.Equal(t, `[{"id":"1"}]`, string(got))
		})
	}
}

func TestStore_Delete(t *testing.T) {
	for name, s := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Set(ctx, "mx3:token", []byte("abc")))
			require.NoError(t, s.Delete(ctx, "mx3:token"))

			_, err := s.Get(ctx, "mx3:token")
			assert.ErrorIs(t, err, ErrNotFound)

			// deleting an absent key is not an error
			assert.NoError(t, s.Delete(ctx, "mx3:token"))
		})
	}
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kv.db")

	s, err := NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "mx3:token", []byte("tok")))
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, "mx3:token")
	require.NoError(t, err)
	assert.Equal(t, "tok", string(got))
}

func TestSQLiteStore_RecordsSchemaVersion(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteStore(ctx, filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	defer s.Close()

	var version int
	var dirty bool
	require.NoError(t, s.db.QueryRowContext(ctx, "SELECT version, dirty FROM schema_migrations").Scan(&version, &dirty))
	assert.Equal(t, 1, version)
	assert.False(t, dirty)
}

func TestRedisStore_NoExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStore(client)
	defer s.Close()

	require.NoError(t, s.Set(context.Background(), "mx3:user", []byte(`{}`)))
	assert.True(t, mr.Exists("mx3:user"))
	assert.Zero(t, mr.TTL("mx3:user"))
}

func TestRedisStore_ServerDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	s := NewRedisStore(client)
	defer s.Close()
	mr.Close()

	_, err := s.Get(context.Background(), "mx3:cart")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.ErrorContains(t, err, "redis get failed")
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	s := NewMemoryStore()
	value := []byte("abc")
	require.NoError(t, s.Set(context.Background(), "k", value))
	value[0] = 'z'

	got, err := s.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
	assert.True(t, s.Has("k"))
}

func TestNewKeys(t *testing.T) {
	keys := NewKeys("mx3")
	assert.Equal(t, "mx3:token", keys.Token)
	assert.Equal(t, "mx3:user", keys.Identity)
	assert.Equal(t, "mx3:cart", keys.Cart)
}
