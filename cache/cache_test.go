package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestKey(t *testing.T) {
	base := Key("https://example.com/docs")

	assert.Equal(t, base, Key("https://EXAMPLE.com/docs/"))
	assert.Equal(t, base, Key("https://example.com/docs#intro"))
	assert.Equal(t, base, Key("  https://example.com/docs  "))
	assert.NotEqual(t, base, Key("https://example.com/docs?page=2"))
	assert.NotEqual(t, base, Key("http://example.com/docs"))
	assert.Contains(t, base, "audit:")
}

func TestNormalizeURL(t *testing.T) {
	assert.Equal(t, "https://example.com", NormalizeURL("HTTPS://Example.COM/"))
	assert.Equal(t, "https://example.com/a?b=1", NormalizeURL("https://example.com/a/?b=1#top"))
}

func TestMemory_GetSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(10, 0)
	defer m.Close()

	_, found, err := m.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	value := []byte("report")
	require.NoError(t, m.Set(ctx, "k", value, time.Minute))
	value[0] = 'X'

	got, found, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "report", string(got), "stored values are copied")

	got[0] = 'Y'
	again, _, _ := m.Get(ctx, "k")
	assert.Equal(t, "report", string(again), "returned values are copied")

	require.NoError(t, m.Delete(ctx, "k"))
	_, found, _ = m.Get(ctx, "k")
	assert.False(t, found)
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	m := NewMemory(10, 0)
	defer m.Close()
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Second))

	_, found, _ := m.Get(ctx, "k")
	assert.True(t, found)

	now = now.Add(2 * time.Second)
	_, found, _ = m.Get(ctx, "k")
	assert.False(t, found, "expired entries are not returned")
	assert.Equal(t, 1, m.Len(), "until cleanup runs")

	m.Cleanup()
	assert.Equal(t, 0, m.Len())
}

func TestMemory_EvictsOldest(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	m := NewMemory(2, 0)
	defer m.Close()
	m.now = func() time.Time { return now }

	for _, key := range []string{"a", "b", "c"} {
		require.NoError(t, m.Set(ctx, key, []byte(key), time.Hour))
		now = now.Add(time.Second)
	}

	assert.Equal(t, 2, m.Len())
	_, found, _ := m.Get(ctx, "a")
	assert.False(t, found, "oldest entry is evicted")
	_, found, _ = m.Get(ctx, "c")
	assert.True(t, found)

	m.SetMaxEntries(1)
	assert.Equal(t, 1, m.Len())

	m.Clear()
	assert.Equal(t, 0, m.Len())
}

func TestRedis(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	r, err := NewRedis(ctx, RedisConfig{Addr: mr.Addr()}, zap.NewNop())
	require.NoError(t, err)
	defer r.Close()

	_, found, err := r.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, r.Set(ctx, "k", []byte(`{"overallScore":95}`), time.Minute))

	got, found, err := r.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `{"overallScore":95}`, string(got))

	mr.FastForward(2 * time.Minute)
	_, found, err = r.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found, "redis expires the key")

	require.NoError(t, r.Set(ctx, "k2", []byte("v"), time.Minute))
	require.NoError(t, r.Delete(ctx, "k2"))
	assert.False(t, mr.Exists("k2"))
}

func TestNewRedis_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedis(context.Background(), RedisConfig{Addr: addr}, nil)
	assert.Error(t, err)

	_, err = NewRedis(context.Background(), RedisConfig{}, nil)
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	var c Cache = Nop{}
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	_, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}
