package generation

// operation names one client call: Name labels spans and metrics, Fallback
// is the localized message used when a failed envelope carries no error text.
type operation struct {
	Name     string
	Fallback string
}

var (
	opTextToImage    = operation{"text_to_image", "图片生成失败"}
	opImageToVideo   = operation{"image_to_video", "视频生成失败"}
	opUploadImage    = operation{"upload_image", "图片上传失败"}
	opOptimizePrompt = operation{"optimize_prompt", "提示词优化失败"}
	opStoryboard     = operation{"generate_storyboard", "故事板生成失败"}
	opBatch          = operation{"batch_generate", "批量生成失败"}

	opGetTaskStatus = operation{"get_task_status", "获取任务状态失败"}
	opCancelTask    = operation{"cancel_task", "取消任务失败"}
	opRetryTask     = operation{"retry_task", "重试任务失败"}
	opGetTasks      = operation{"get_tasks", "获取任务列表失败"}

	opGetHistory       = operation{"get_generation_history", "获取生成历史失败"}
	opGetStats         = operation{"get_stats", "获取统计信息失败"}
	opDeleteGeneration = operation{"delete_generation", "删除生成记录失败"}
	opDownload         = operation{"download", "下载失败"}

	opGetPresets   = operation{"get_presets", "获取预设失败"}
	opSavePreset   = operation{"save_preset", "保存预设失败"}
	opDeletePreset = operation{"delete_preset", "删除预设失败"}

	opGetQueue       = operation{"get_queue", "获取队列失败"}
	opGetQueueStatus = operation{"get_queue_status", "获取队列状态失败"}
	opClearQueue     = operation{"clear_queue", "清空队列失败"}
	opPauseQueue     = operation{"pause_queue", "暂停队列失败"}
	opResumeQueue    = operation{"resume_queue", "恢复队列失败"}

	opGetModels   = operation{"get_models", "获取模型列表失败"}
	opSwitchModel = operation{"switch_model", "切换模型失败"}

	opListenProgress = operation{"listen_progress", "进度连接失败"}
)

// 进度流与等待相关的兜底文案
const (
	msgStreamParse    = "进度数据解析失败"
	msgStreamError    = "任务进度返回错误"
	msgStreamClosed   = "进度连接意外断开"
	msgTaskFailed     = "任务执行失败"
	msgMissingData    = "服务端响应缺少数据"
	msgInvalidID      = "ID 不能为空"
	msgInvalidKind    = "生成类型不能为空"
	msgRequestCreate  = "构建请求失败"
	msgRateLimitWait  = "请求被限流"
	msgRequestCancel  = "请求已取消"
	msgBodyReadFailed = "读取响应失败"
)
