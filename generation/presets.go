package generation

import (
	"context"
	"net/http"
)

// GetPresets 列出某类生成的参数预设. 配置了 Cache 时优先读缓存.
func (c *Client) GetPresets(ctx context.Context, kind Kind) ([]Preset, error) {
	k, err := pathSegment(opGetPresets, string(kind), msgInvalidKind)
	if err != nil {
		return nil, err
	}
	return cachedList(ctx, c, c.cacheKey("presets", k), func() ([]Preset, error) {
		presets, err := call[[]Preset](ctx, c, opGetPresets, http.MethodGet, apiPrefix+"/presets/"+k, nil, nil)
		if err != nil {
			return nil, err
		}
		return *presets, nil
	})
}

// SavePreset 保存预设，返回服务端分配 ID 后的预设.
func (c *Client) SavePreset(ctx context.Context, kind Kind, preset Preset) (*Preset, error) {
	k, err := pathSegment(opSavePreset, string(kind), msgInvalidKind)
	if err != nil {
		return nil, err
	}
	saved, err := call[Preset](ctx, c, opSavePreset, http.MethodPost, apiPrefix+"/presets/"+k, nil, preset)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, c.cacheKey("presets", k))
	return saved, nil
}

// DeletePreset 删除预设.
func (c *Client) DeletePreset(ctx context.Context, kind Kind, presetID string) error {
	k, err := pathSegment(opDeletePreset, string(kind), msgInvalidKind)
	if err != nil {
		return err
	}
	id, err := pathSegment(opDeletePreset, presetID, msgInvalidID)
	if err != nil {
		return err
	}
	if err := c.callVoid(ctx, opDeletePreset, http.MethodDelete, apiPrefix+"/presets/"+k+"/"+id, nil); err != nil {
		return err
	}
	c.invalidate(ctx, c.cacheKey("presets", k))
	return nil
}
