package generation

import (
	"context"
	"net/http"

	"github.com/BaSui01/easyvideo/types"
)

// GetTaskStatus 获取单个任务的当前状态.
func (c *Client) GetTaskStatus(ctx context.Context, taskID string) (*types.GenerationTask, error) {
	id, err := pathSegment(opGetTaskStatus, taskID, msgInvalidID)
	if err != nil {
		return nil, err
	}
	return call[types.GenerationTask](ctx, c, opGetTaskStatus, http.MethodGet, apiPrefix+"/task/"+id, nil, nil)
}

// CancelTask 取消任务. 对已结束的任务，返回服务端给出的结果.
func (c *Client) CancelTask(ctx context.Context, taskID string) error {
	id, err := pathSegment(opCancelTask, taskID, msgInvalidID)
	if err != nil {
		return err
	}
	return c.callVoid(ctx, opCancelTask, http.MethodDelete, apiPrefix+"/task/"+id, nil)
}

// RetryTask 重新执行失败或已取消的任务.
func (c *Client) RetryTask(ctx context.Context, taskID string) (*types.GenerationTask, error) {
	id, err := pathSegment(opRetryTask, taskID, msgInvalidID)
	if err != nil {
		return nil, err
	}
	return call[types.GenerationTask](ctx, c, opRetryTask, http.MethodPost, apiPrefix+"/task/"+id+"/retry", nil, nil)
}

// GetTasks 分页查询任务列表.
func (c *Client) GetTasks(ctx context.Context, q TaskQuery) (*TaskPage, error) {
	return call[TaskPage](ctx, c, opGetTasks, http.MethodGet, apiPrefix+"/tasks", q.Values(), nil)
}
