package generation

import (
	"context"
	"net/http"
)

// TextToImage 提交文生图任务.
func (c *Client) TextToImage(ctx context.Context, req TextToImageRequest) (*ImageResult, error) {
	return call[ImageResult](ctx, c, opTextToImage, http.MethodPost, apiPrefix+"/text-to-image", nil, req)
}

// ImageToVideo 提交图生视频任务.
func (c *Client) ImageToVideo(ctx context.Context, req ImageToVideoRequest) (*VideoResult, error) {
	return call[VideoResult](ctx, c, opImageToVideo, http.MethodPost, apiPrefix+"/image-to-video", nil, req)
}

// OptimizePrompt 请求后端优化提示词.
func (c *Client) OptimizePrompt(ctx context.Context, req OptimizePromptRequest) (*OptimizedPrompt, error) {
	return call[OptimizedPrompt](ctx, c, opOptimizePrompt, http.MethodPost, apiPrefix+"/optimize-prompt", nil, req)
}

// GenerateStoryboard 根据脚本生成故事板.
func (c *Client) GenerateStoryboard(ctx context.Context, req StoryboardRequest) (*StoryboardResult, error) {
	return call[StoryboardResult](ctx, c, opStoryboard, http.MethodPost, apiPrefix+"/storyboard", nil, req)
}

// Batch 提交批量生成任务. 使用 NewBatch 构造请求.
func (c *Client) Batch(ctx context.Context, req BatchRequest) (*BatchResult, error) {
	return call[BatchResult](ctx, c, opBatch, http.MethodPost, apiPrefix+"/batch", nil, req)
}
