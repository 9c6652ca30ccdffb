package generation

import (
	"context"
	"fmt"
	"sync"

	"github.com/BaSui01/easyvideo/types"
	"golang.org/x/sync/errgroup"
)

const opWaitForTask = "wait_for_task"

// ProgressEvent 是 WatchProgress 推送的事件，三个字段只会设置其一:
// Update 为普通进度，Err 为终止错误，Done 表示完成（Update 重复最后一条进度）.
type ProgressEvent struct {
	Update *ProgressUpdate
	Err    error
	Done   bool
}

// WatchProgress is the channel form of ListenToProgress. The channel is
// closed after the terminal event or once ctx is cancelled. The consumer
// must keep receiving or cancel ctx.
func (c *Client) WatchProgress(ctx context.Context, taskID string) <-chan ProgressEvent {
	ch := make(chan ProgressEvent, 8)
	ctx, cancel := context.WithCancel(ctx)

	send := func(ev ProgressEvent) {
		select {
		case ch <- ev:
		case <-ctx.Done():
		}
	}
	sub := c.ListenToProgress(ctx, taskID, ProgressHandler{
		OnProgress: func(u ProgressUpdate) { send(ProgressEvent{Update: &u}) },
		OnError:    func(err error) { send(ProgressEvent{Err: err}) },
		OnComplete: func(u ProgressUpdate) { send(ProgressEvent{Update: &u, Done: true}) },
	})

	go func() {
		<-sub.Done()
		cancel()
		close(ch)
	}()
	return ch
}

// WaitForTask 阻塞直到任务结束. 任务以 failed 结束时返回最后一条进度
// 和 TASK_FAILED 错误.
func (c *Client) WaitForTask(ctx context.Context, taskID string, onProgress func(ProgressUpdate)) (*ProgressUpdate, error) {
	var (
		final   *ProgressUpdate
		failure error
	)
	sub := c.ListenToProgress(ctx, taskID, ProgressHandler{
		OnProgress: onProgress,
		OnError:    func(err error) { failure = err },
		OnComplete: func(u ProgressUpdate) { final = &u },
	})

	select {
	case <-sub.Done():
	case <-ctx.Done():
		sub.Unsubscribe()
		<-sub.Done()
	}

	switch {
	case failure != nil:
		return nil, failure
	case final == nil:
		cause := ctx.Err()
		if cause == nil {
			cause = context.Canceled
		}
		return nil, types.NewError(types.ErrCanceled, msgRequestCancel).WithCause(cause).WithOperation(opWaitForTask)
	case final.Status == types.TaskStatusFailed:
		msg := final.Message
		if msg == "" {
			msg = msgTaskFailed
		}
		return final, types.NewError(types.ErrTaskFailed, msg).WithOperation(opWaitForTask)
	}
	return final, nil
}

// WaitForTasks waits for every task concurrently. The first failure cancels
// the remaining waits; results holds the final update of each task that
// reached one. onProgress may be called from several goroutines at once.
func (c *Client) WaitForTasks(ctx context.Context, taskIDs []string, onProgress func(taskID string, u ProgressUpdate)) (map[string]*ProgressUpdate, error) {
	g, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	results := make(map[string]*ProgressUpdate, len(taskIDs))

	for _, id := range taskIDs {
		g.Go(func() error {
			var cb func(ProgressUpdate)
			if onProgress != nil {
				cb = func(u ProgressUpdate) { onProgress(id, u) }
			}
			final, err := c.WaitForTask(gctx, id, cb)
			if final != nil {
				mu.Lock()
				results[id] = final
				mu.Unlock()
			}
			if err != nil {
				return fmt.Errorf("task %s: %w", id, err)
			}
			return nil
		})
	}

	err := g.Wait()
	return results, err
}
