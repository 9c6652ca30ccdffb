// Backend 是 EasyVideo 生成后端的进程内模拟实现。
//
// 默认路由维护一个内存任务表，按真实的包装格式与 SSE 进度流应答；
// On* 系列方法可按路径覆盖任意响应，用于错误注入。所有请求都被记录。
package mocks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/BaSui01/easyvideo/types"
	"github.com/google/uuid"
)

const apiPrefix = "/api/generation"

// RecordedRequest 是一次被记录的请求
type RecordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// Backend 模拟生成后端
type Backend struct {
	server *httptest.Server
	mux    *http.ServeMux

	mu        sync.Mutex
	overrides map[string]http.HandlerFunc
	streams   map[string][]string
	steps     []float64
	onStep    func(taskID string, step int)
	tasks     map[string]*types.GenerationTask
	order     []string
	uploads   map[string][]byte
	presets   map[string][]map[string]any
	models    []map[string]any
	paused    bool
	calls     []RecordedRequest
}

// NewBackend 启动模拟后端，测试结束时自动关闭
func NewBackend(t testing.TB) *Backend {
	t.Helper()
	b := &Backend{
		overrides: make(map[string]http.HandlerFunc),
		streams:   make(map[string][]string),
		steps:     []float64{25, 50, 75},
		tasks:     make(map[string]*types.GenerationTask),
		uploads:   make(map[string][]byte),
		presets:   make(map[string][]map[string]any),
		models: []map[string]any{
			{"id": "flux-dev", "name": "FLUX.1 dev", "type": "image", "loaded": true, "active": true},
			{"id": "sdxl", "name": "SDXL 1.0", "type": "image", "loaded": false, "active": false},
			{"id": "wan2.1-i2v", "name": "Wan2.1 I2V", "type": "video", "loaded": true, "active": true},
		},
	}
	b.mux = http.NewServeMux()
	b.routes()
	b.server = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.server.Close)
	return b
}

// URL 返回后端根地址
func (b *Backend) URL() string { return b.server.URL }

// Client 返回连接到后端的 http.Client
func (b *Backend) Client() *http.Client { return b.server.Client() }

// Close 提前关闭后端
func (b *Backend) Close() { b.server.Close() }

// =============================================================================
// 🎭 响应覆盖
// =============================================================================

// On 用 h 覆盖 method+path 的响应；path 为完整路径，不含查询串
func (b *Backend) On(method, path string, h http.HandlerFunc) *Backend {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.overrides[method+" "+path] = h
	return b
}

// OnEnvelope 以 success=true 的包装返回 data
func (b *Backend) OnEnvelope(method, path string, data any) *Backend {
	return b.On(method, path, func(w http.ResponseWriter, _ *http.Request) {
		WriteEnvelope(w, http.StatusOK, data)
	})
}

// OnFailure 以 success=false 的包装返回 message
func (b *Backend) OnFailure(method, path string, status int, message string) *Backend {
	return b.On(method, path, func(w http.ResponseWriter, _ *http.Request) {
		WriteFailure(w, status, message)
	})
}

// OnRaw 原样返回 body
func (b *Backend) OnRaw(method, path string, status int, contentType, body string) *Backend {
	return b.On(method, path, func(w http.ResponseWriter, _ *http.Request) {
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	})
}

// OnStream 为 taskID 的进度流设置脚本. 每个元素是一段事件原文，
// 不以换行结尾的元素会被包装成 "data: <elem>\n\n".
func (b *Backend) OnStream(taskID string, events ...string) *Backend {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.streams[taskID] = events
	return b
}

// WithProgressSteps 设置默认进度流在完成前推送的进度值
func (b *Backend) WithProgressSteps(steps ...float64) *Backend {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.steps = steps
	return b
}

// WithStepHook 在默认进度流每推送一步后调用 hook（不持有锁），
// 用于在流进行中取消或失败任务
func (b *Backend) WithStepHook(hook func(taskID string, step int)) *Backend {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onStep = hook
	return b
}

// =============================================================================
// 📋 状态访问
// =============================================================================

// AddTask 向任务表写入任务，ID 为空时自动生成
func (b *Backend) AddTask(task types.GenerationTask) types.GenerationTask {
	b.mu.Lock()
	defer b.mu.Unlock()
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	if task.UpdatedAt.IsZero() {
		task.UpdatedAt = now
	}
	if task.Status == "" {
		task.Status = types.TaskStatusPending
	}
	if _, exists := b.tasks[task.ID]; !exists {
		b.order = append(b.order, task.ID)
	}
	t := task
	b.tasks[task.ID] = &t
	return t
}

// Task 返回任务快照
func (b *Backend) Task(id string) (types.GenerationTask, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.tasks[id]
	if !ok {
		return types.GenerationTask{}, false
	}
	return *t, true
}

// Upload 返回上传的文件内容
func (b *Backend) Upload(imageID string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.uploads[imageID]
	return data, ok
}

// Paused 返回队列是否暂停
func (b *Backend) Paused() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.paused
}

// Calls 返回全部请求记录
func (b *Backend) Calls() []RecordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]RecordedRequest(nil), b.calls...)
}

// CallsTo 返回匹配 method+path 的请求记录
func (b *Backend) CallsTo(method, path string) []RecordedRequest {
	var out []RecordedRequest
	for _, c := range b.Calls() {
		if c.Method == method && c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

// LastCall 返回最后一次请求
func (b *Backend) LastCall() (RecordedRequest, bool) {
	calls := b.Calls()
	if len(calls) == 0 {
		return RecordedRequest{}, false
	}
	return calls[len(calls)-1], true
}

// =============================================================================
// 🔌 分发
// =============================================================================

func (b *Backend) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))

	b.mu.Lock()
	b.calls = append(b.calls, RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Body:   body,
	})
	override := b.overrides[r.Method+" "+r.URL.Path]
	b.mu.Unlock()

	if override != nil {
		override(w, r)
		return
	}
	b.mux.ServeHTTP(w, r)
}

func (b *Backend) routes() {
	b.mux.HandleFunc("POST "+apiPrefix+"/text-to-image", b.createTask(types.TaskTypeTextToImage))
	b.mux.HandleFunc("POST "+apiPrefix+"/image-to-video", b.createTask(types.TaskTypeImageToVideo))
	b.mux.HandleFunc("POST "+apiPrefix+"/upload-image", b.handleUpload)
	b.mux.HandleFunc("POST "+apiPrefix+"/optimize-prompt", b.handleOptimize)
	b.mux.HandleFunc("POST "+apiPrefix+"/storyboard", b.handleStoryboard)
	b.mux.HandleFunc("POST "+apiPrefix+"/batch", b.handleBatch)

	b.mux.HandleFunc("GET "+apiPrefix+"/task/{id}", b.handleGetTask)
	b.mux.HandleFunc("DELETE "+apiPrefix+"/task/{id}", b.handleCancelTask)
	b.mux.HandleFunc("POST "+apiPrefix+"/task/{id}/retry", b.handleRetryTask)
	b.mux.HandleFunc("GET "+apiPrefix+"/tasks", b.handleListTasks)
	b.mux.HandleFunc("GET "+apiPrefix+"/progress/{id}", b.handleProgress)

	b.mux.HandleFunc("GET "+apiPrefix+"/history", b.handleHistory)
	b.mux.HandleFunc("GET "+apiPrefix+"/stats", b.handleStats)
	b.mux.HandleFunc("DELETE "+apiPrefix+"/{kind}/{id}", b.handleDeleteGeneration)
	b.mux.HandleFunc("GET "+apiPrefix+"/{kind}/{id}/download", b.handleDownload)

	b.mux.HandleFunc("GET "+apiPrefix+"/presets/{kind}", b.handleListPresets)
	b.mux.HandleFunc("POST "+apiPrefix+"/presets/{kind}", b.handleSavePreset)
	b.mux.HandleFunc("DELETE "+apiPrefix+"/presets/{kind}/{id}", b.handleDeletePreset)

	b.mux.HandleFunc("GET "+apiPrefix+"/queue", b.handleQueue)
	b.mux.HandleFunc("GET "+apiPrefix+"/queue/status", b.handleQueueStatus)
	b.mux.HandleFunc("DELETE "+apiPrefix+"/queue", b.handleClearQueue)
	b.mux.HandleFunc("POST "+apiPrefix+"/queue/pause", b.handlePause(true))
	b.mux.HandleFunc("POST "+apiPrefix+"/queue/resume", b.handlePause(false))

	b.mux.HandleFunc("GET "+apiPrefix+"/models", b.handleModels)
	b.mux.HandleFunc("POST "+apiPrefix+"/switch-model", b.handleSwitchModel)
}

// =============================================================================
// ✉️ 包装响应
// =============================================================================

// WriteEnvelope 写出 success=true 的包装
func WriteEnvelope(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, types.Success[any](data))
}

// WriteFailure 写出 success=false 的包装
func WriteFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, types.Failure[any](message))
}

// WriteVoid 写出不带 data 的成功包装
func WriteVoid(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// =============================================================================
// 🖼️ 生成
// =============================================================================

func (b *Backend) createTask(taskType types.TaskType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, _ := io.ReadAll(r.Body)
		if !json.Valid(payload) {
			WriteFailure(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		task := b.AddTask(types.GenerationTask{
			Type:    taskType,
			Request: json.RawMessage(payload),
		})
		WriteEnvelope(w, http.StatusOK, map[string]any{
			"task_id": task.ID,
			"status":  task.Status,
			"message": "任务已提交",
		})
	}
}

func (b *Backend) handleUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("image")
	if err != nil {
		WriteFailure(w, http.StatusBadRequest, "缺少图片文件")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		WriteFailure(w, http.StatusBadRequest, err.Error())
		return
	}

	id := uuid.NewString()
	b.mu.Lock()
	b.uploads[id] = data
	b.mu.Unlock()

	WriteEnvelope(w, http.StatusOK, map[string]any{
		"image_id":   id,
		"image_path": fmt.Sprintf("uploads/%s_%s", id, header.Filename),
		"url":        fmt.Sprintf("/uploads/%s_%s", id, header.Filename),
	})
}

func (b *Backend) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt string `json:"prompt"`
		Type   string `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Prompt) == "" {
		WriteFailure(w, http.StatusBadRequest, "提示词不能为空")
		return
	}
	if req.Type == "" {
		req.Type = "通用型"
	}
	WriteEnvelope(w, http.StatusOK, map[string]any{
		"original_prompt":   req.Prompt,
		"optimized_prompt":  req.Prompt + ", masterpiece, best quality, highly detailed",
		"optimization_type": req.Type,
	})
}

func (b *Backend) handleStoryboard(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Script     string  `json:"script"`
		SceneCount int     `json:"scene_count"`
		Duration   float64 `json:"duration"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Script) == "" {
		WriteFailure(w, http.StatusBadRequest, "脚本不能为空")
		return
	}
	if req.SceneCount <= 0 {
		req.SceneCount = 3
	}
	if req.Duration <= 0 {
		req.Duration = float64(req.SceneCount) * 3
	}
	per := req.Duration / float64(req.SceneCount)
	scenes := make([]map[string]any, 0, req.SceneCount)
	for i := 1; i <= req.SceneCount; i++ {
		scenes = append(scenes, map[string]any{
			"scene_number":    i,
			"description":     fmt.Sprintf("scene %d of %q", i, req.Script),
			"prompt":          fmt.Sprintf("%s, shot %d", req.Script, i),
			"duration":        per,
			"transition_type": "cut",
		})
	}
	task := b.AddTask(types.GenerationTask{
		Type:     types.TaskTypeStoryboard,
		Status:   types.TaskStatusCompleted,
		Progress: 100,
	})
	WriteEnvelope(w, http.StatusOK, map[string]any{
		"task_id":        task.ID,
		"scenes":         scenes,
		"total_duration": req.Duration,
	})
}

func (b *Backend) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type     types.TaskType    `json:"type"`
		Requests []json.RawMessage `json:"requests"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.Type.Valid() || len(req.Requests) == 0 {
		WriteFailure(w, http.StatusBadRequest, "批量请求无效")
		return
	}
	ids := make([]string, 0, len(req.Requests))
	for _, item := range req.Requests {
		task := b.AddTask(types.GenerationTask{Type: req.Type, Request: item})
		ids = append(ids, task.ID)
	}
	WriteEnvelope(w, http.StatusOK, map[string]any{
		"batch_id": uuid.NewString(),
		"task_ids": ids,
		"total":    len(ids),
	})
}

// =============================================================================
// 📋 任务
// =============================================================================

func (b *Backend) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, ok := b.Task(r.PathValue("id"))
	if !ok {
		WriteFailure(w, http.StatusNotFound, "任务不存在")
		return
	}
	WriteEnvelope(w, http.StatusOK, task)
}

func (b *Backend) handleCancelTask(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	task, ok := b.tasks[r.PathValue("id")]
	if !ok {
		b.mu.Unlock()
		WriteFailure(w, http.StatusNotFound, "任务不存在")
		return
	}
	if !b.finish(task, types.TaskStatusCancelled, "") {
		b.mu.Unlock()
		WriteFailure(w, http.StatusConflict, "任务已结束，无法取消")
		return
	}
	b.mu.Unlock()
	WriteVoid(w)
}

func (b *Backend) handleRetryTask(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	task, ok := b.tasks[r.PathValue("id")]
	if !ok {
		b.mu.Unlock()
		WriteFailure(w, http.StatusNotFound, "任务不存在")
		return
	}
	if task.Status != types.TaskStatusFailed && task.Status != types.TaskStatusCancelled {
		b.mu.Unlock()
		WriteFailure(w, http.StatusConflict, "只能重试失败或已取消的任务")
		return
	}
	// a retry is a fresh run of the same task id
	task.Status = types.TaskStatusPending
	task.Progress = 0
	task.Error = ""
	task.CompletedAt = nil
	task.UpdatedAt = time.Now().UTC()
	snapshot := *task
	b.mu.Unlock()
	WriteEnvelope(w, http.StatusOK, snapshot)
}

func (b *Backend) handleListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, limit := pageParams(q)
	status := types.TaskStatus(q.Get("status"))
	taskType := types.TaskType(q.Get("type"))

	var matched []types.GenerationTask
	for _, t := range b.snapshot() {
		if status != "" && t.Status != status {
			continue
		}
		if taskType != "" && t.Type != taskType {
			continue
		}
		matched = append(matched, t)
	}
	WriteEnvelope(w, http.StatusOK, map[string]any{
		"tasks": paginate(matched, page, limit),
		"total": len(matched),
		"page":  page,
		"limit": limit,
	})
}

// handleProgress 推送 SSE 进度. 脚本优先；否则按 steps 推进任务直到完成.
func (b *Backend) handleProgress(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)

	write := func(event string) bool {
		if !strings.HasSuffix(event, "\n") {
			event = "data: " + event + "\n\n"
		}
		if _, err := io.WriteString(w, event); err != nil {
			return false
		}
		if flusher != nil {
			flusher.Flush()
		}
		return r.Context().Err() == nil
	}

	b.mu.Lock()
	script, scripted := b.streams[id]
	steps := append([]float64(nil), b.steps...)
	onStep := b.onStep
	b.mu.Unlock()

	if scripted {
		for _, ev := range script {
			if !write(ev) {
				return
			}
		}
		return
	}

	task, ok := b.Task(id)
	if !ok {
		write(`{"error":"任务不存在"}`)
		return
	}
	if task.Status.IsTerminal() {
		write(progressJSON(task))
		return
	}

	for i, p := range steps {
		b.mu.Lock()
		t, ok := b.tasks[id]
		if !ok {
			b.mu.Unlock()
			write(`{"error":"任务不存在"}`)
			return
		}
		if !t.Status.CanTransitionTo(types.TaskStatusRunning) {
			// 流中途被取消或失败：推送终态后关闭
			snapshot := *t
			b.mu.Unlock()
			write(progressJSON(snapshot))
			return
		}
		t.Status = types.TaskStatusRunning
		t.Progress = p
		t.UpdatedAt = time.Now().UTC()
		snapshot := *t
		b.mu.Unlock()
		if !write(progressJSON(snapshot)) {
			return
		}
		if onStep != nil {
			onStep(id, i)
		}
	}

	b.mu.Lock()
	t, ok := b.tasks[id]
	if !ok {
		b.mu.Unlock()
		write(`{"error":"任务不存在"}`)
		return
	}
	b.finish(t, types.TaskStatusCompleted, "")
	snapshot := *t
	b.mu.Unlock()
	write(progressJSON(snapshot))
}

// FailTask 把任务置为失败
func (b *Backend) FailTask(id, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if t, ok := b.tasks[id]; ok {
		b.finish(t, types.TaskStatusFailed, message)
	}
}

// finish 把任务置为终态，迁移不合法时不做修改并返回 false. 需持有 b.mu
func (b *Backend) finish(t *types.GenerationTask, status types.TaskStatus, message string) bool {
	if !t.Status.CanTransitionTo(status) {
		return false
	}
	now := time.Now().UTC()
	t.Status = status
	t.UpdatedAt = now
	t.CompletedAt = &now
	switch status {
	case types.TaskStatusCompleted:
		t.Progress = 100
		t.Result = json.RawMessage(fmt.Sprintf(`{"output":"outputs/%s"}`, t.ID))
	case types.TaskStatusFailed:
		t.Error = message
		t.Message = message
	}
	return true
}

func progressJSON(t types.GenerationTask) string {
	msg := map[string]any{
		"task_id":  t.ID,
		"status":   t.Status,
		"progress": t.Progress,
	}
	if t.Message != "" {
		msg["message"] = t.Message
	}
	if len(t.Result) > 0 {
		msg["result"] = t.Result
	}
	data, _ := json.Marshal(msg)
	return string(data)
}

// =============================================================================
// 🗂️ 历史、统计与下载
// =============================================================================

func (b *Backend) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, limit := pageParams(q)
	taskType := types.TaskType(q.Get("type"))

	var items []map[string]any
	for _, t := range b.snapshot() {
		if t.Status != types.TaskStatusCompleted {
			continue
		}
		if taskType != "" && t.Type != taskType {
			continue
		}
		items = append(items, map[string]any{
			"id":         t.ID,
			"task_id":    t.ID,
			"type":       t.Type,
			"result_url": fmt.Sprintf("%s/%s/%s/download", apiPrefix, kindOf(t.Type), t.ID),
			"params":     t.Request,
			"created_at": t.CreatedAt,
		})
	}
	WriteEnvelope(w, http.StatusOK, map[string]any{
		"items": paginate(items, page, limit),
		"total": len(items),
		"page":  page,
		"limit": limit,
	})
}

func (b *Backend) handleStats(w http.ResponseWriter, _ *http.Request) {
	stats := map[string]any{}
	byType := map[types.TaskType]int{}
	counts := map[types.TaskStatus]int{}
	tasks := b.snapshot()
	for _, t := range tasks {
		byType[t.Type]++
		counts[t.Status]++
	}
	stats["total_tasks"] = len(tasks)
	stats["completed_tasks"] = counts[types.TaskStatusCompleted]
	stats["failed_tasks"] = counts[types.TaskStatusFailed]
	stats["running_tasks"] = counts[types.TaskStatusRunning]
	stats["pending_tasks"] = counts[types.TaskStatusPending]
	stats["by_type"] = byType
	WriteEnvelope(w, http.StatusOK, stats)
}

func (b *Backend) handleDeleteGeneration(w http.ResponseWriter, r *http.Request) {
	kind, id := r.PathValue("kind"), r.PathValue("id")
	b.mu.Lock()
	task, ok := b.tasks[id]
	if !ok || kindOf(task.Type) != kind {
		b.mu.Unlock()
		WriteFailure(w, http.StatusNotFound, "记录不存在")
		return
	}
	delete(b.tasks, id)
	for i, oid := range b.order {
		if oid == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	b.mu.Unlock()
	WriteVoid(w)
}

func (b *Backend) handleDownload(w http.ResponseWriter, r *http.Request) {
	kind, id := r.PathValue("kind"), r.PathValue("id")
	task, ok := b.Task(id)
	if !ok || kindOf(task.Type) != kind {
		WriteFailure(w, http.StatusOK, "文件不存在")
		return
	}
	if task.Status != types.TaskStatusCompleted {
		WriteFailure(w, http.StatusOK, "任务尚未完成")
		return
	}
	switch kind {
	case "image":
		w.Header().Set("Content-Type", "image/png")
	case "video":
		w.Header().Set("Content-Type", "video/mp4")
	default:
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"task_id": id, "scenes": []any{}})
		return
	}
	_, _ = fmt.Fprintf(w, "%s-bytes-%s", kind, id)
}

// =============================================================================
// ⚙️ 预设、队列与模型
// =============================================================================

func (b *Backend) handleListPresets(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	presets := append([]map[string]any{}, b.presets[r.PathValue("kind")]...)
	b.mu.Unlock()
	WriteEnvelope(w, http.StatusOK, presets)
}

func (b *Backend) handleSavePreset(w http.ResponseWriter, r *http.Request) {
	kind := r.PathValue("kind")
	var preset map[string]any
	if err := json.NewDecoder(r.Body).Decode(&preset); err != nil {
		WriteFailure(w, http.StatusBadRequest, "预设格式错误")
		return
	}
	if name, _ := preset["name"].(string); strings.TrimSpace(name) == "" {
		WriteFailure(w, http.StatusBadRequest, "预设名称不能为空")
		return
	}
	preset["id"] = uuid.NewString()
	preset["type"] = kind
	preset["created_at"] = time.Now().UTC()

	b.mu.Lock()
	b.presets[kind] = append(b.presets[kind], preset)
	b.mu.Unlock()
	WriteEnvelope(w, http.StatusOK, preset)
}

func (b *Backend) handleDeletePreset(w http.ResponseWriter, r *http.Request) {
	kind, id := r.PathValue("kind"), r.PathValue("id")
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.presets[kind]
	for i, p := range list {
		if p["id"] == id {
			b.presets[kind] = append(list[:i], list[i+1:]...)
			WriteVoid(w)
			return
		}
	}
	WriteFailure(w, http.StatusNotFound, "预设不存在")
}

func (b *Backend) handleQueue(w http.ResponseWriter, _ *http.Request) {
	var queued []types.GenerationTask
	for _, t := range b.snapshot() {
		if !t.Status.IsTerminal() {
			queued = append(queued, t)
		}
	}
	if queued == nil {
		queued = []types.GenerationTask{}
	}
	WriteEnvelope(w, http.StatusOK, map[string]any{"tasks": queued, "paused": b.Paused()})
}

func (b *Backend) handleQueueStatus(w http.ResponseWriter, _ *http.Request) {
	counts := map[types.TaskStatus]int{}
	for _, t := range b.snapshot() {
		counts[t.Status]++
	}
	WriteEnvelope(w, http.StatusOK, map[string]any{
		"paused":    b.Paused(),
		"pending":   counts[types.TaskStatusPending],
		"running":   counts[types.TaskStatusRunning],
		"completed": counts[types.TaskStatusCompleted],
		"failed":    counts[types.TaskStatusFailed],
	})
}

func (b *Backend) handleClearQueue(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	for _, t := range b.tasks {
		if t.Status == types.TaskStatusPending {
			b.finish(t, types.TaskStatusCancelled, "")
		}
	}
	b.mu.Unlock()
	WriteVoid(w)
}

func (b *Backend) handlePause(paused bool) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		b.mu.Lock()
		b.paused = paused
		b.mu.Unlock()
		WriteVoid(w)
	}
}

func (b *Backend) handleModels(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	models := append([]map[string]any{}, b.models...)
	b.mu.Unlock()
	WriteEnvelope(w, http.StatusOK, models)
}

func (b *Backend) handleSwitchModel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ModelID string `json:"model_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ModelID == "" {
		WriteFailure(w, http.StatusBadRequest, "模型 ID 不能为空")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	var target map[string]any
	for _, m := range b.models {
		if m["id"] == req.ModelID {
			target = m
		}
	}
	if target == nil {
		WriteFailure(w, http.StatusNotFound, "模型不存在")
		return
	}
	for _, m := range b.models {
		if m["type"] == target["type"] {
			m["active"] = m["id"] == req.ModelID
		}
	}
	target["loaded"] = true
	WriteEnvelope(w, http.StatusOK, target)
}

// =============================================================================
// 🔧 工具
// =============================================================================

// snapshot 按创建顺序返回任务副本
func (b *Backend) snapshot() []types.GenerationTask {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]types.GenerationTask, 0, len(b.order))
	for _, id := range b.order {
		if t, ok := b.tasks[id]; ok {
			out = append(out, *t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func pageParams(q url.Values) (int, int) {
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return page, limit
}

func paginate[T any](items []T, page, limit int) []T {
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func kindOf(t types.TaskType) string {
	switch t {
	case types.TaskTypeTextToImage:
		return "image"
	case types.TaskTypeImageToVideo:
		return "video"
	case types.TaskTypeStoryboard:
		return "storyboard"
	}
	return string(t)
}
