package generation

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/BaSui01/easyvideo/types"
)

// =============================================================================
// 🖼️ 文生图 / 图生视频
// =============================================================================

// TextToImageRequest 文生图请求.
type TextToImageRequest struct {
	Prompt            string  `json:"prompt"`
	NegativePrompt    string  `json:"negative_prompt,omitempty"`
	Width             int     `json:"width,omitempty"`
	Height            int     `json:"height,omitempty"`
	NumImages         int     `json:"num_images,omitempty"`
	Seed              *int64  `json:"seed,omitempty"`
	NumInferenceSteps int     `json:"num_inference_steps,omitempty"`
	CFGScale          float64 `json:"cfg_scale,omitempty"`
	Style             string  `json:"style,omitempty"`
	Model             string  `json:"model,omitempty"`
}

// ImageResult 是文生图的受理结果. 后端异步执行时 Images 为空，
// 通过 TaskID 订阅进度.
type ImageResult struct {
	TaskID  string           `json:"task_id"`
	Status  types.TaskStatus `json:"status,omitempty"`
	Images  []string         `json:"images,omitempty"`
	Message string           `json:"message,omitempty"`
}

// ImageToVideoRequest 图生视频请求. ImageID 与 ImagePath 二选一，
// 通常来自 UploadImage 的结果.
type ImageToVideoRequest struct {
	ImageID           string  `json:"image_id,omitempty"`
	ImagePath         string  `json:"image_path,omitempty"`
	Prompt            string  `json:"prompt,omitempty"`
	NegativePrompt    string  `json:"negative_prompt,omitempty"`
	FPS               int     `json:"fps,omitempty"`
	NumFrames         int     `json:"num_frames,omitempty"`
	Duration          float64 `json:"duration,omitempty"`
	Seed              *int64  `json:"seed,omitempty"`
	Tiled             *bool   `json:"tiled,omitempty"`
	NumInferenceSteps int     `json:"num_inference_steps,omitempty"`
	CFGScale          float64 `json:"cfg_scale,omitempty"`
	MotionStrength    float64 `json:"motion_strength,omitempty"`
}

// VideoResult 图生视频受理结果.
type VideoResult struct {
	TaskID    string           `json:"task_id"`
	Status    types.TaskStatus `json:"status,omitempty"`
	VideoPath string           `json:"video_path,omitempty"`
	VideoURL  string           `json:"video_url,omitempty"`
	Message   string           `json:"message,omitempty"`
}

// UploadResult 图片上传结果.
type UploadResult struct {
	ImageID   string `json:"image_id"`
	ImagePath string `json:"image_path"`
	URL       string `json:"url"`
}

// UploadProgressFunc receives the fraction of the request body sent, in
// [0,1]. Calls are strictly increasing and the last one is exactly 1 once
// the whole body has been written.
type UploadProgressFunc func(fraction float64)

// =============================================================================
// ✍️ 提示词与故事板
// =============================================================================

// OptimizePromptRequest 提示词优化请求.
type OptimizePromptRequest struct {
	Prompt           string   `json:"prompt"`
	Type             string   `json:"type,omitempty"`
	StylePreferences []string `json:"style_preferences,omitempty"`
}

// OptimizedPrompt 提示词优化结果.
type OptimizedPrompt struct {
	OriginalPrompt   string   `json:"original_prompt,omitempty"`
	OptimizedPrompt  string   `json:"optimized_prompt"`
	OptimizationType string   `json:"optimization_type,omitempty"`
	Suggestions      []string `json:"suggestions,omitempty"`
}

// StoryboardRequest 故事板生成请求.
type StoryboardRequest struct {
	Script                 string  `json:"script"`
	SceneCount             int     `json:"scene_count,omitempty"`
	Style                  string  `json:"style,omitempty"`
	Duration               float64 `json:"duration,omitempty"`
	IncludeCameraMovements bool    `json:"include_camera_movements,omitempty"`
	IncludeLightingNotes   bool    `json:"include_lighting_notes,omitempty"`
	IncludeAudioCues       bool    `json:"include_audio_cues,omitempty"`
}

// StoryboardScene 是故事板中的一个镜头.
type StoryboardScene struct {
	SceneNumber    int     `json:"scene_number"`
	Description    string  `json:"description"`
	Prompt         string  `json:"prompt,omitempty"`
	Duration       float64 `json:"duration,omitempty"`
	TransitionType string  `json:"transition_type,omitempty"`
	CameraMovement string  `json:"camera_movement,omitempty"`
	LightingNotes  string  `json:"lighting_notes,omitempty"`
	AudioCues      string  `json:"audio_cues,omitempty"`
}

// StoryboardResult 故事板生成结果.
type StoryboardResult struct {
	TaskID        string            `json:"task_id,omitempty"`
	Title         string            `json:"title,omitempty"`
	Scenes        []StoryboardScene `json:"scenes"`
	TotalDuration float64           `json:"total_duration,omitempty"`
}

// =============================================================================
// 📦 批量任务
// =============================================================================

// BatchRequest 批量生成请求. Requests 中每一项是对应 Type 的请求体.
type BatchRequest struct {
	Type     types.TaskType    `json:"type"`
	Requests []json.RawMessage `json:"requests"`
}

// NewBatch encodes reqs into a BatchRequest of the given task type.
func NewBatch[T any](taskType types.TaskType, reqs ...T) (*BatchRequest, error) {
	if !taskType.Valid() {
		return nil, fmt.Errorf("unknown task type %q", taskType)
	}
	batch := &BatchRequest{Type: taskType, Requests: make([]json.RawMessage, 0, len(reqs))}
	for i, r := range reqs {
		raw, err := json.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("encode batch item %d: %w", i, err)
		}
		batch.Requests = append(batch.Requests, raw)
	}
	return batch, nil
}

// BatchResult 批量生成受理结果.
type BatchResult struct {
	BatchID string   `json:"batch_id,omitempty"`
	TaskIDs []string `json:"task_ids"`
	Total   int      `json:"total"`
}

// =============================================================================
// 📋 任务、历史与统计
// =============================================================================

// TaskPage 分页任务列表.
type TaskPage struct {
	Tasks []types.GenerationTask `json:"tasks"`
	Total int                    `json:"total"`
	Page  int                    `json:"page"`
	Limit int                    `json:"limit"`
}

// Kind 是 URL 中使用的生成记录类别.
type Kind string

const (
	KindImage      Kind = "image"
	KindVideo      Kind = "video"
	KindStoryboard Kind = "storyboard"
)

// KindOf maps a task type to the record kind used in URLs.
func KindOf(t types.TaskType) Kind {
	switch t {
	case types.TaskTypeTextToImage:
		return KindImage
	case types.TaskTypeImageToVideo:
		return KindVideo
	case types.TaskTypeStoryboard:
		return KindStoryboard
	}
	return Kind(t)
}

// HistoryItem 一条生成历史记录.
type HistoryItem struct {
	ID           string          `json:"id"`
	TaskID       string          `json:"task_id,omitempty"`
	Type         types.TaskType  `json:"type"`
	Prompt       string          `json:"prompt,omitempty"`
	ThumbnailURL string          `json:"thumbnail_url,omitempty"`
	ResultURL    string          `json:"result_url,omitempty"`
	Params       json.RawMessage `json:"params,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// HistoryPage 分页历史记录.
type HistoryPage struct {
	Items []HistoryItem `json:"items"`
	Total int           `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// Stats 生成统计.
type Stats struct {
	TotalTasks     int                    `json:"total_tasks"`
	CompletedTasks int                    `json:"completed_tasks"`
	FailedTasks    int                    `json:"failed_tasks"`
	RunningTasks   int                    `json:"running_tasks"`
	PendingTasks   int                    `json:"pending_tasks"`
	ByType         map[types.TaskType]int `json:"by_type,omitempty"`
}

// =============================================================================
// ⚙️ 预设、队列与模型
// =============================================================================

// Preset 保存的参数预设.
type Preset struct {
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name"`
	Type      Kind            `json:"type,omitempty"`
	Params    json.RawMessage `json:"params,omitempty"`
	CreatedAt *time.Time      `json:"created_at,omitempty"`
}

// Queue 当前任务队列.
type Queue struct {
	Tasks  []types.GenerationTask `json:"tasks"`
	Paused bool                   `json:"paused"`
}

// QueueStatus 队列概况.
type QueueStatus struct {
	Paused    bool `json:"paused"`
	Pending   int  `json:"pending"`
	Running   int  `json:"running"`
	Completed int  `json:"completed"`
	Failed    int  `json:"failed"`
}

// ModelInfo 后端可用模型.
type ModelInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        Kind   `json:"type"`
	Loaded      bool   `json:"loaded"`
	Active      bool   `json:"active"`
	Description string `json:"description,omitempty"`
}

// SwitchModelRequest 切换模型请求.
type SwitchModelRequest struct {
	ModelID string `json:"model_id"`
	Type    Kind   `json:"type,omitempty"`
}
