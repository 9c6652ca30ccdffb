// =============================================================================
// 📦 测试数据工厂 - 生成任务与进度流
// =============================================================================
// 提供预定义的任务、包装响应与 SSE 进度脚本，用于测试
// =============================================================================
package fixtures

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/BaSui01/easyvideo/types"
)

// fixedTime 让快照类断言保持稳定
var fixedTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// =============================================================================
// 🎯 GenerationTask 工厂
// =============================================================================

// Task 返回指定类型与状态的任务
func Task(id string, taskType types.TaskType, status types.TaskStatus) types.GenerationTask {
	t := types.GenerationTask{
		ID:        id,
		Type:      taskType,
		Status:    status,
		CreatedAt: fixedTime,
		UpdatedAt: fixedTime,
		Request:   json.RawMessage(`{"prompt":"a red fox in the snow"}`),
	}
	switch status {
	case types.TaskStatusRunning:
		t.Progress = 40
	case types.TaskStatusCompleted:
		done := fixedTime.Add(time.Minute)
		t.Progress = 100
		t.CompletedAt = &done
		t.Result = json.RawMessage(`{"images":["outputs/fox.png"]}`)
	case types.TaskStatusFailed:
		done := fixedTime.Add(time.Minute)
		t.CompletedAt = &done
		t.Error = "CUDA out of memory"
	}
	return t
}

// PendingImageTask 返回等待中的文生图任务
func PendingImageTask(id string) types.GenerationTask {
	return Task(id, types.TaskTypeTextToImage, types.TaskStatusPending)
}

// CompletedVideoTask 返回已完成的图生视频任务
func CompletedVideoTask(id string) types.GenerationTask {
	return Task(id, types.TaskTypeImageToVideo, types.TaskStatusCompleted)
}

// =============================================================================
// ✉️ 包装响应
// =============================================================================

// SuccessBody 返回 success=true 的包装原文
func SuccessBody(data any) string {
	raw, err := json.Marshal(types.Success[any](data))
	if err != nil {
		panic(err)
	}
	return string(raw)
}

// FailureBody 返回 success=false 的包装原文
func FailureBody(message string) string {
	raw, err := json.Marshal(types.Failure[any](message))
	if err != nil {
		panic(err)
	}
	return string(raw)
}

// NullDataBody 是 success=true 但缺少 data 的包装
const NullDataBody = `{"success":true,"data":null}`

// =============================================================================
// 📡 SSE 进度脚本
// =============================================================================

// Progress 返回一条进度消息
func Progress(progress float64, status types.TaskStatus) string {
	return fmt.Sprintf(`{"progress":%g,"status":%q}`, progress, status)
}

// ErrorEvent 返回一条错误消息
func ErrorEvent(message string) string {
	return fmt.Sprintf(`{"error":%q}`, message)
}

// CompletedScript 返回 10/50/100 的完整进度脚本
func CompletedScript() []string {
	return []string{
		Progress(10, types.TaskStatusRunning),
		Progress(50, types.TaskStatusRunning),
		Progress(100, types.TaskStatusCompleted),
	}
}

// FailedScript 返回以 failed 结束的脚本
func FailedScript(message string) []string {
	return []string{
		Progress(30, types.TaskStatusRunning),
		fmt.Sprintf(`{"progress":30,"status":"failed","message":%q}`, message),
	}
}

// MultiLineEvent 把 JSON 拆成多行 data 字段，并夹带注释与其他字段
func MultiLineEvent(payload string) string {
	var sb strings.Builder
	sb.WriteString(": keep-alive\n")
	sb.WriteString("event: progress\n")
	for _, part := range strings.SplitAfter(payload, ",") {
		sb.WriteString("data: " + part + "\n")
	}
	sb.WriteString("\n")
	return sb.String()
}
