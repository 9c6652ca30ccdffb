package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// =============================================================================
// 🧪 Manager 测试
// =============================================================================

type model struct {
	ID     string `json:"id"`
	Active bool   `json:"active"`
}

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *Manager) {
	t.Helper()
	mr := miniredis.RunT(t)

	cfg := DefaultConfig()
	cfg.Addr = mr.Addr()
	cfg.DefaultTTL = time.Minute

	m, err := NewManager(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return mr, m
}

func TestNewManager_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := DefaultConfig()
	cfg.Addr = addr
	cfg.DialTimeout = 200 * time.Millisecond
	_, err := NewManager(context.Background(), cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to redis")
}

func TestNewManager_EmptyAddr(t *testing.T) {
	_, err := NewManager(context.Background(), Config{}, nil)
	assert.Error(t, err)
}

func TestManager_JSONRoundTripWithPrefix(t *testing.T) {
	mr, m := setupTestRedis(t)
	ctx := context.Background()

	in := []model{{ID: "sdxl", Active: true}, {ID: "svd"}}
	require.NoError(t, m.SetJSON(ctx, "models:http://gpu-box", in, 0))

	// 键带前缀存储，使用默认 TTL
	assert.True(t, mr.Exists("easyvideo:models:http://gpu-box"))
	assert.Equal(t, time.Minute, mr.TTL("easyvideo:models:http://gpu-box"))

	var out []model
	require.NoError(t, m.GetJSON(ctx, "models:http://gpu-box", &out))
	assert.Equal(t, in, out)
}

func TestManager_Miss(t *testing.T) {
	_, m := setupTestRedis(t)

	var out []model
	err := m.GetJSON(context.Background(), "absent", &out)
	assert.True(t, IsCacheMiss(err))
}

func TestManager_Expiry(t *testing.T) {
	mr, m := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, m.SetJSON(ctx, "presets:image", []string{"a"}, 10*time.Second))
	mr.FastForward(11 * time.Second)

	var out []string
	assert.True(t, IsCacheMiss(m.GetJSON(ctx, "presets:image", &out)))
}

func TestManager_CorruptValue(t *testing.T) {
	mr, m := setupTestRedis(t)
	require.NoError(t, mr.Set("easyvideo:broken", "{not json"))

	var out []model
	err := m.GetJSON(context.Background(), "broken", &out)
	require.Error(t, err)
	assert.False(t, IsCacheMiss(err))
}

func TestManager_Delete(t *testing.T) {
	mr, m := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, m.SetJSON(ctx, "a", 1, 0))
	require.NoError(t, m.SetJSON(ctx, "b", 2, 0))
	require.NoError(t, m.Delete(ctx, "a", "b"))
	require.NoError(t, m.Delete(ctx))

	assert.False(t, mr.Exists("easyvideo:a"))
	assert.False(t, mr.Exists("easyvideo:b"))
}

func TestManager_Closed(t *testing.T) {
	_, m := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, m.Ping(ctx))
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	var out any
	assert.ErrorIs(t, m.GetJSON(ctx, "k", &out), ErrClosed)
	assert.ErrorIs(t, m.SetJSON(ctx, "k", 1, 0), ErrClosed)
	assert.ErrorIs(t, m.Delete(ctx, "k"), ErrClosed)
	assert.ErrorIs(t, m.Ping(ctx), ErrClosed)
}
