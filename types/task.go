package types

import (
	"encoding/json"
	"time"
)

// TaskType 标识生成任务的种类.
type TaskType string

const (
	TaskTypeTextToImage  TaskType = "text_to_image"
	TaskTypeImageToVideo TaskType = "image_to_video"
	TaskTypeStoryboard   TaskType = "storyboard"
)

// Valid reports whether t is one of the known task types.
func (t TaskType) Valid() bool {
	switch t {
	case TaskTypeTextToImage, TaskTypeImageToVideo, TaskTypeStoryboard:
		return true
	}
	return false
}

// TaskStatus 是任务生命周期状态.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
	TaskStatusCancelled TaskStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusRunning, TaskStatusCompleted, TaskStatusFailed, TaskStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions can happen from s.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed || s == TaskStatusCancelled
}

// EndsStream reports whether a progress stream closes on s. Cancellation is
// not announced on the stream, so only completed and failed end it.
func (s TaskStatus) EndsStream() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// CanTransitionTo 检查状态迁移是否合法: 终态不再迁移, 也不能回到 pending.
func (s TaskStatus) CanTransitionTo(next TaskStatus) bool {
	if s.IsTerminal() || !next.Valid() {
		return false
	}
	switch s {
	case TaskStatusPending:
		return next != TaskStatusPending
	case TaskStatusRunning:
		return next != TaskStatusPending
	}
	return false
}

// GenerationTask 是服务端跟踪的一个生成任务. 客户端只读.
type GenerationTask struct {
	ID          string          `json:"id"`
	Type        TaskType        `json:"type"`
	Status      TaskStatus      `json:"status"`
	Progress    float64         `json:"progress"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Error       string          `json:"error,omitempty"`
	Message     string          `json:"message,omitempty"`
	Request     json.RawMessage `json:"request,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
}

// Done reports whether the task reached a terminal state.
func (t *GenerationTask) Done() bool {
	return t != nil && t.Status.IsTerminal()
}
