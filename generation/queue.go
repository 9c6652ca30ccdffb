package generation

import (
	"context"
	"net/http"
)

// GetQueue 获取当前队列中的任务.
func (c *Client) GetQueue(ctx context.Context) (*Queue, error) {
	return call[Queue](ctx, c, opGetQueue, http.MethodGet, apiPrefix+"/queue", nil, nil)
}

// GetQueueStatus 获取队列概况.
func (c *Client) GetQueueStatus(ctx context.Context) (*QueueStatus, error) {
	return call[QueueStatus](ctx, c, opGetQueueStatus, http.MethodGet, apiPrefix+"/queue/status", nil, nil)
}

// ClearQueue 清空等待中的任务.
func (c *Client) ClearQueue(ctx context.Context) error {
	return c.callVoid(ctx, opClearQueue, http.MethodDelete, apiPrefix+"/queue", nil)
}

// PauseQueue 暂停队列调度.
func (c *Client) PauseQueue(ctx context.Context) error {
	return c.callVoid(ctx, opPauseQueue, http.MethodPost, apiPrefix+"/queue/pause", nil)
}

// ResumeQueue 恢复队列调度.
func (c *Client) ResumeQueue(ctx context.Context) error {
	return c.callVoid(ctx, opResumeQueue, http.MethodPost, apiPrefix+"/queue/resume", nil)
}

// GetModels 列出后端可用模型. 配置了 Cache 时优先读缓存.
func (c *Client) GetModels(ctx context.Context) ([]ModelInfo, error) {
	return cachedList(ctx, c, c.cacheKey("models"), func() ([]ModelInfo, error) {
		models, err := call[[]ModelInfo](ctx, c, opGetModels, http.MethodGet, apiPrefix+"/models", nil, nil)
		if err != nil {
			return nil, err
		}
		return *models, nil
	})
}

// SwitchModel 切换当前使用的模型，成功后失效模型列表缓存.
func (c *Client) SwitchModel(ctx context.Context, req SwitchModelRequest) (*ModelInfo, error) {
	model, err := call[ModelInfo](ctx, c, opSwitchModel, http.MethodPost, apiPrefix+"/switch-model", nil, req)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, c.cacheKey("models"))
	return model, nil
}
