package generation

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/BaSui01/easyvideo/internal/cache"
	"github.com/BaSui01/easyvideo/testutil"
	"github.com/BaSui01/easyvideo/testutil/mocks"
)

var _ Cache = (*cache.Manager)(nil)

func newRedisCache(t *testing.T) (*miniredis.Miniredis, *cache.Manager) {
	t.Helper()
	mr := miniredis.RunT(t)
	cfg := cache.DefaultConfig()
	cfg.Addr = mr.Addr()
	m, err := cache.NewManager(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return mr, m
}

func TestClient_ModelsCached(t *testing.T) {
	backend := mocks.NewBackend(t)
	_, rc := newRedisCache(t)
	c := newTestClient(t, backend, WithCache(rc, time.Minute))
	ctx := testutil.TestContext(t)

	first, err := c.GetModels(ctx)
	require.NoError(t, err)
	second, err := c.GetModels(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, backend.CallsTo(http.MethodGet, "/api/generation/models"), 1)

	_, err = c.SwitchModel(ctx, SwitchModelRequest{ModelID: "sdxl", Type: KindImage})
	require.NoError(t, err)

	models, err := c.GetModels(ctx)
	require.NoError(t, err)
	assert.Len(t, backend.CallsTo(http.MethodGet, "/api/generation/models"), 2)
	for _, m := range models {
		if m.ID == "sdxl" {
			assert.True(t, m.Active)
		}
	}
}

func TestClient_PresetsCachedPerKind(t *testing.T) {
	backend := mocks.NewBackend(t)
	_, rc := newRedisCache(t)
	c := newTestClient(t, backend, WithCache(rc, 0))
	ctx := testutil.TestContext(t)

	_, err := c.GetPresets(ctx, KindImage)
	require.NoError(t, err)
	_, err = c.GetPresets(ctx, KindImage)
	require.NoError(t, err)
	_, err = c.GetPresets(ctx, KindVideo)
	require.NoError(t, err)
	assert.Len(t, backend.CallsTo(http.MethodGet, "/api/generation/presets/image"), 1)
	assert.Len(t, backend.CallsTo(http.MethodGet, "/api/generation/presets/video"), 1)

	saved, err := c.SavePreset(ctx, KindImage, Preset{Name: "wide", Params: json.RawMessage(`{"width":1344}`)})
	require.NoError(t, err)

	presets, err := c.GetPresets(ctx, KindImage)
	require.NoError(t, err)
	require.Len(t, presets, 1)
	assert.Equal(t, saved.ID, presets[0].ID)

	require.NoError(t, c.DeletePreset(ctx, KindImage, saved.ID))
	presets, err = c.GetPresets(ctx, KindImage)
	require.NoError(t, err)
	assert.Empty(t, presets)
	assert.Len(t, backend.CallsTo(http.MethodGet, "/api/generation/presets/image"), 3)
}

func TestClient_CacheKeyedByBackend(t *testing.T) {
	_, rc := newRedisCache(t)
	ctx := testutil.TestContext(t)

	a := mocks.NewBackend(t)
	b := mocks.NewBackend(t)
	ca := newTestClient(t, a, WithCache(rc, time.Minute))
	cb := newTestClient(t, b, WithCache(rc, time.Minute))

	_, err := ca.GetModels(ctx)
	require.NoError(t, err)
	_, err = cb.GetModels(ctx)
	require.NoError(t, err)

	assert.Len(t, a.CallsTo(http.MethodGet, "/api/generation/models"), 1)
	assert.Len(t, b.CallsTo(http.MethodGet, "/api/generation/models"), 1)
}

func TestClient_CacheUnavailableFallsThrough(t *testing.T) {
	backend := mocks.NewBackend(t)
	mr, rc := newRedisCache(t)
	c := newTestClient(t, backend, WithCache(rc, time.Minute))
	ctx := testutil.TestContext(t)

	mr.Close()

	models, err := c.GetModels(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, models)

	_, err = c.SwitchModel(ctx, SwitchModelRequest{ModelID: "sdxl"})
	require.NoError(t, err)
}
