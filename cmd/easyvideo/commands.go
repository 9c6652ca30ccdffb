package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/easyvideo/generation"
	"github.com/BaSui01/easyvideo/internal/journal"
	"github.com/BaSui01/easyvideo/types"
)

// commands 子命令表
var commands = map[string]commandFunc{
	"image":        runImage,
	"video":        runVideo,
	"upload":       runUpload,
	"optimize":     runOptimize,
	"storyboard":   runStoryboard,
	"batch":        runBatch,
	"task":         runTask,
	"tasks":        runTasks,
	"watch":        runWatch,
	"history":      runHistory,
	"stats":        runStats,
	"delete":       runDelete,
	"download":     runDownload,
	"presets":      runPresets,
	"queue":        runQueue,
	"models":       runModels,
	"switch-model": runSwitchModel,
	"journal":      runJournal,
}

// =============================================================================
// 🖼️ 生成命令
// =============================================================================

func runImage(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("image")
	var req generation.TextToImageRequest
	fs.StringVar(&req.Prompt, "prompt", "", "Prompt text (required)")
	fs.StringVar(&req.NegativePrompt, "negative", "", "Negative prompt")
	fs.IntVar(&req.Width, "width", 0, "Image width")
	fs.IntVar(&req.Height, "height", 0, "Image height")
	fs.IntVar(&req.NumImages, "num", 0, "Number of images")
	fs.IntVar(&req.NumInferenceSteps, "steps", 0, "Inference steps")
	fs.Float64Var(&req.CFGScale, "cfg", 0, "CFG scale")
	fs.StringVar(&req.Style, "style", "", "Style preset")
	fs.StringVar(&req.Model, "model", "", "Model id")
	seed := fs.Int64("seed", 0, "Random seed")
	wait := fs.Bool("wait", false, "Wait for the task and print progress")

	if _, err := a.parse(fs, args); err != nil {
		return err
	}
	if req.Prompt == "" {
		return usageErrorf("image: --prompt is required")
	}
	if flagSet(fs, "seed") {
		req.Seed = seed
	}

	res, err := a.client.TextToImage(ctx, req)
	if err != nil {
		return err
	}
	if res.TaskID != "" {
		a.remember(ctx, journal.Entry{TaskID: res.TaskID, Type: types.TaskTypeTextToImage, Status: res.Status, Prompt: req.Prompt})
	}
	if *wait && res.TaskID != "" {
		a.statusf("task %s submitted", res.TaskID)
		return a.waitAndPrint(ctx, res.TaskID)
	}
	return a.printJSON(res)
}

func runVideo(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("video")
	var req generation.ImageToVideoRequest
	image := fs.String("image", "", "Local image to upload first")
	fs.StringVar(&req.ImageID, "image-id", "", "Uploaded image id")
	fs.StringVar(&req.ImagePath, "image-path", "", "Uploaded image path")
	fs.StringVar(&req.Prompt, "prompt", "", "Motion prompt")
	fs.StringVar(&req.NegativePrompt, "negative", "", "Negative prompt")
	fs.IntVar(&req.FPS, "fps", 0, "Frames per second")
	fs.IntVar(&req.NumFrames, "frames", 0, "Number of frames")
	fs.Float64Var(&req.Duration, "duration", 0, "Duration in seconds")
	fs.IntVar(&req.NumInferenceSteps, "steps", 0, "Inference steps")
	fs.Float64Var(&req.CFGScale, "cfg", 0, "CFG scale")
	fs.Float64Var(&req.MotionStrength, "motion", 0, "Motion strength")
	seed := fs.Int64("seed", 0, "Random seed")
	tiled := fs.Bool("tiled", false, "Enable tiled VAE decoding")
	wait := fs.Bool("wait", false, "Wait for the task and print progress")

	if _, err := a.parse(fs, args); err != nil {
		return err
	}
	if flagSet(fs, "seed") {
		req.Seed = seed
	}
	if flagSet(fs, "tiled") {
		req.Tiled = tiled
	}

	if *image != "" {
		up, err := a.client.UploadImageFile(ctx, *image, a.uploadPrinter(filepath.Base(*image)))
		if err != nil {
			return err
		}
		req.ImageID, req.ImagePath = up.ImageID, up.ImagePath
	}
	if req.ImageID == "" && req.ImagePath == "" {
		return usageErrorf("video: one of --image, --image-id or --image-path is required")
	}

	res, err := a.client.ImageToVideo(ctx, req)
	if err != nil {
		return err
	}
	if res.TaskID != "" {
		a.remember(ctx, journal.Entry{TaskID: res.TaskID, Type: types.TaskTypeImageToVideo, Status: res.Status, Prompt: req.Prompt})
	}
	if *wait && res.TaskID != "" {
		a.statusf("task %s submitted", res.TaskID)
		return a.waitAndPrint(ctx, res.TaskID)
	}
	return a.printJSON(res)
}

func runUpload(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("upload")
	quiet := fs.Bool("quiet", false, "Do not print upload progress")
	pos, err := a.parse(fs, args)
	if err != nil {
		return err
	}
	if err := exactArgs("upload", pos, 1, "<file>"); err != nil {
		return err
	}

	var onProgress generation.UploadProgressFunc
	if !*quiet {
		onProgress = a.uploadPrinter(filepath.Base(pos[0]))
	}
	res, err := a.client.UploadImageFile(ctx, pos[0], onProgress)
	if err != nil {
		return err
	}
	return a.printJSON(res)
}

func runOptimize(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("optimize")
	var req generation.OptimizePromptRequest
	fs.StringVar(&req.Prompt, "prompt", "", "Prompt to optimize (required)")
	fs.StringVar(&req.Type, "type", "", "Optimization target: image or video")
	styles := fs.String("style", "", "Comma separated style preferences")
	if _, err := a.parse(fs, args); err != nil {
		return err
	}
	if req.Prompt == "" {
		return usageErrorf("optimize: --prompt is required")
	}
	req.StylePreferences = splitList(*styles)

	res, err := a.client.OptimizePrompt(ctx, req)
	if err != nil {
		return err
	}
	return a.printJSON(res)
}

func runStoryboard(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("storyboard")
	var req generation.StoryboardRequest
	fs.StringVar(&req.Script, "script", "", "Script text")
	scriptFile := fs.String("script-file", "", "Read the script from a file, - for stdin")
	fs.IntVar(&req.SceneCount, "scenes", 0, "Number of scenes")
	fs.StringVar(&req.Style, "style", "", "Visual style")
	fs.Float64Var(&req.Duration, "duration", 0, "Total duration in seconds")
	fs.BoolVar(&req.IncludeCameraMovements, "camera", false, "Include camera movements")
	fs.BoolVar(&req.IncludeLightingNotes, "lighting", false, "Include lighting notes")
	fs.BoolVar(&req.IncludeAudioCues, "audio", false, "Include audio cues")
	if _, err := a.parse(fs, args); err != nil {
		return err
	}

	if *scriptFile != "" {
		data, err := a.readInput(*scriptFile)
		if err != nil {
			return err
		}
		req.Script = string(data)
	}
	if req.Script == "" {
		return usageErrorf("storyboard: --script or --script-file is required")
	}

	res, err := a.client.GenerateStoryboard(ctx, req)
	if err != nil {
		return err
	}
	if res.TaskID != "" {
		a.remember(ctx, journal.Entry{
			TaskID:   res.TaskID,
			Type:     types.TaskTypeStoryboard,
			Status:   types.TaskStatusCompleted,
			Progress: 100,
			Prompt:   req.Script,
		})
	}
	return a.printJSON(res)
}

func runBatch(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("batch")
	taskType := fs.String("type", "", "Task type: text_to_image, image_to_video, storyboard (required)")
	file := fs.String("file", "-", "JSON array of requests, - for stdin")
	wait := fs.Bool("wait", false, "Wait for every task and print progress")
	if _, err := a.parse(fs, args); err != nil {
		return err
	}
	tt, err := parseTaskType(*taskType)
	if err != nil {
		return err
	}
	if tt == "" {
		return usageErrorf("batch: --type is required")
	}

	data, err := a.readInput(*file)
	if err != nil {
		return err
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("batch: %s is not a JSON array: %w", *file, err)
	}
	if len(items) == 0 {
		return usageErrorf("batch: no requests in %s", *file)
	}

	batch, err := generation.NewBatch(tt, items...)
	if err != nil {
		return err
	}
	res, err := a.client.Batch(ctx, *batch)
	if err != nil {
		return err
	}
	a.remember(ctx, batchEntries(tt, res, items)...)
	if *wait && len(res.TaskIDs) > 0 {
		a.statusf("batch %s submitted with %d tasks", res.BatchID, len(res.TaskIDs))
		return a.waitAllAndPrint(ctx, res.TaskIDs)
	}
	return a.printJSON(res)
}

// batchEntries 为批量任务生成记录；TaskIDs 与请求按顺序一一对应
func batchEntries(tt types.TaskType, res *generation.BatchResult, items []json.RawMessage) []journal.Entry {
	entries := make([]journal.Entry, 0, len(res.TaskIDs))
	for i, id := range res.TaskIDs {
		var prompt struct {
			Prompt string `json:"prompt"`
			Script string `json:"script"`
		}
		if i < len(items) {
			_ = json.Unmarshal(items[i], &prompt)
		}
		if prompt.Prompt == "" {
			prompt.Prompt = prompt.Script
		}
		entries = append(entries, journal.Entry{
			TaskID:  id,
			BatchID: res.BatchID,
			Type:    tt,
			Prompt:  prompt.Prompt,
		})
	}
	return entries
}

// readInput 读取文件内容，- 表示 stdin
func (a *app) readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(a.stdin)
	}
	return os.ReadFile(path)
}

// =============================================================================
// 📋 任务命令
// =============================================================================

func runTask(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("task")
	pos, err := a.parse(fs, args)
	if err != nil {
		return err
	}
	if err := exactArgs("task", pos, 2, "status|cancel|retry <id>"); err != nil {
		return err
	}

	action, id := pos[0], pos[1]
	switch action {
	case "status":
		task, err := a.client.GetTaskStatus(ctx, id)
		if err != nil {
			return err
		}
		return a.printJSON(task)
	case "cancel":
		if err := a.client.CancelTask(ctx, id); err != nil {
			return err
		}
		a.trackStatus(ctx, id, types.TaskStatusCancelled)
		return a.printJSON(ack{OK: true, Action: "cancel", ID: id})
	case "retry":
		task, err := a.client.RetryTask(ctx, id)
		if err != nil {
			return err
		}
		a.trackRetry(ctx, id, task)
		return a.printJSON(task)
	}
	return usageErrorf("task: unknown action %q", action)
}

func runTasks(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("tasks")
	page := fs.Int("page", 0, "Page number (default 1)")
	limit := fs.Int("limit", 0, "Page size (default 20)")
	status := fs.String("status", "", "Filter by status")
	taskType := fs.String("type", "", "Filter by task type")
	if _, err := a.parse(fs, args); err != nil {
		return err
	}

	st, err := parseStatus(*status)
	if err != nil {
		return err
	}
	tt, err := parseTaskType(*taskType)
	if err != nil {
		return err
	}

	res, err := a.client.GetTasks(ctx, generation.TaskQuery{Page: *page, Limit: *limit, Status: st, Type: tt})
	if err != nil {
		return err
	}
	return a.printJSON(res)
}

func runWatch(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("watch")
	pos, err := a.parse(fs, args)
	if err != nil {
		return err
	}
	if len(pos) == 0 {
		if a.journal == nil {
			return usageErrorf("usage: easyvideo watch <id> [<id>...]")
		}
		entries, err := a.journal.List(ctx, journal.Filter{Unfinished: true})
		if err != nil {
			return err
		}
		for _, e := range entries {
			pos = append(pos, e.TaskID)
		}
		if len(pos) == 0 {
			a.statusf("no unfinished tasks in journal")
			return a.printJSON(map[string]any{})
		}
	}
	a.logger.Debug("watching tasks", zap.Strings("task_ids", pos))
	return a.waitAllAndPrint(ctx, pos)
}

// =============================================================================
// 🗂️ 记录命令
// =============================================================================

func runHistory(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("history")
	page := fs.Int("page", 0, "Page number (default 1)")
	limit := fs.Int("limit", 0, "Page size (default 20)")
	taskType := fs.String("type", "", "Filter by task type")
	if _, err := a.parse(fs, args); err != nil {
		return err
	}
	tt, err := parseTaskType(*taskType)
	if err != nil {
		return err
	}

	res, err := a.client.GetGenerationHistory(ctx, generation.HistoryQuery{Page: *page, Limit: *limit, Type: tt})
	if err != nil {
		return err
	}
	return a.printJSON(res)
}

func runStats(ctx context.Context, a *app, args []string) error {
	if _, err := a.parse(a.newFlagSet("stats"), args); err != nil {
		return err
	}
	res, err := a.client.GetStats(ctx)
	if err != nil {
		return err
	}
	return a.printJSON(res)
}

func runDelete(ctx context.Context, a *app, args []string) error {
	pos, err := a.parse(a.newFlagSet("delete"), args)
	if err != nil {
		return err
	}
	if err := exactArgs("delete", pos, 2, "<kind> <id>"); err != nil {
		return err
	}
	kind, err := parseKind(pos[0])
	if err != nil {
		return err
	}
	if err := a.client.DeleteGeneration(ctx, kind, pos[1]); err != nil {
		return err
	}
	if a.journal != nil {
		if _, err := a.journal.Delete(ctx, pos[1]); err != nil {
			a.logger.Warn("journal delete failed", zap.String("task_id", pos[1]), zap.Error(err))
		}
	}
	return a.printJSON(ack{OK: true, Action: "delete", ID: pos[1]})
}

// downloadExt 是未指定 --out 时的默认扩展名
var downloadExt = map[generation.Kind]string{
	generation.KindImage:      ".png",
	generation.KindVideo:      ".mp4",
	generation.KindStoryboard: ".json",
}

func runDownload(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("download")
	out := fs.String("out", "", "Output file, - for stdout (default <id>.<ext>)")
	pos, err := a.parse(fs, args)
	if err != nil {
		return err
	}
	if err := exactArgs("download", pos, 2, "<kind> <id> [--out <path>]"); err != nil {
		return err
	}
	kind, err := parseKind(pos[0])
	if err != nil {
		return err
	}
	id := pos[1]

	if *out == "-" {
		_, err := a.client.Download(ctx, kind, id, a.stdout)
		return err
	}

	path := *out
	if path == "" {
		path = id + downloadExt[kind]
	}
	n, err := downloadTo(ctx, a.client, kind, id, path)
	if err != nil {
		return err
	}
	return a.printJSON(struct {
		Path  string `json:"path"`
		Bytes int64  `json:"bytes"`
	}{path, n})
}

// downloadTo 先写入同目录临时文件，成功后再替换 path；失败时 path 保持原样
func downloadTo(ctx context.Context, client *generation.Client, kind generation.Kind, id, path string) (n int64, err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.part")
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if n, err = client.Download(ctx, kind, id, tmp); err != nil {
		return 0, err
	}
	if err = tmp.Close(); err != nil {
		return 0, err
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return 0, err
	}
	return n, nil
}

// =============================================================================
// ⚙️ 管理命令
// =============================================================================

func runPresets(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("presets")
	name := fs.String("name", "", "Preset name (save)")
	params := fs.String("params", "", "Preset parameters as a JSON object (save)")
	pos, err := a.parse(fs, args)
	if err != nil {
		return err
	}
	if len(pos) < 2 {
		return usageErrorf("usage: easyvideo presets list|save|delete <kind> [...]")
	}
	kind, err := parseKind(pos[1])
	if err != nil {
		return err
	}

	switch pos[0] {
	case "list":
		presets, err := a.client.GetPresets(ctx, kind)
		if err != nil {
			return err
		}
		return a.printJSON(presets)
	case "save":
		if *name == "" {
			return usageErrorf("presets save: --name is required")
		}
		preset := generation.Preset{Name: *name, Type: kind}
		if *params != "" {
			if !json.Valid([]byte(*params)) {
				return usageErrorf("presets save: --params is not valid JSON")
			}
			preset.Params = json.RawMessage(*params)
		}
		saved, err := a.client.SavePreset(ctx, kind, preset)
		if err != nil {
			return err
		}
		return a.printJSON(saved)
	case "delete":
		if err := exactArgs("presets delete", pos[1:], 2, "<kind> <id>"); err != nil {
			return err
		}
		if err := a.client.DeletePreset(ctx, kind, pos[2]); err != nil {
			return err
		}
		return a.printJSON(ack{OK: true, Action: "delete_preset", ID: pos[2]})
	}
	return usageErrorf("presets: unknown action %q", pos[0])
}

func runQueue(ctx context.Context, a *app, args []string) error {
	pos, err := a.parse(a.newFlagSet("queue"), args)
	if err != nil {
		return err
	}
	action := "show"
	if len(pos) > 0 {
		action = pos[0]
	}

	switch action {
	case "show":
		q, err := a.client.GetQueue(ctx)
		if err != nil {
			return err
		}
		return a.printJSON(q)
	case "status":
		st, err := a.client.GetQueueStatus(ctx)
		if err != nil {
			return err
		}
		return a.printJSON(st)
	case "clear":
		err = a.client.ClearQueue(ctx)
	case "pause":
		err = a.client.PauseQueue(ctx)
	case "resume":
		err = a.client.ResumeQueue(ctx)
	default:
		return usageErrorf("queue: unknown action %q", action)
	}
	if err != nil {
		return err
	}
	return a.printJSON(ack{OK: true, Action: action})
}

func runModels(ctx context.Context, a *app, args []string) error {
	if _, err := a.parse(a.newFlagSet("models"), args); err != nil {
		return err
	}
	models, err := a.client.GetModels(ctx)
	if err != nil {
		return err
	}
	return a.printJSON(models)
}

func runSwitchModel(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("switch-model")
	kind := fs.String("type", "", "Model kind: image or video")
	pos, err := a.parse(fs, args)
	if err != nil {
		return err
	}
	if err := exactArgs("switch-model", pos, 1, "<model-id> [--type <kind>]"); err != nil {
		return err
	}

	model, err := a.client.SwitchModel(ctx, generation.SwitchModelRequest{ModelID: pos[0], Type: generation.Kind(*kind)})
	if err != nil {
		return err
	}
	return a.printJSON(model)
}

// =============================================================================
// 📒 本地记录命令
// =============================================================================

func runJournal(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("journal")
	status := fs.String("status", "", "Filter by status (list)")
	taskType := fs.String("type", "", "Filter by task type (list)")
	limit := fs.Int("limit", 0, "Maximum entries (list)")
	olderThan := fs.Duration("older-than", 30*24*time.Hour, "Prune finished tasks not updated for this long")
	pos, err := a.parse(fs, args)
	if err != nil {
		return err
	}
	if err := a.requireJournal(); err != nil {
		return err
	}

	action := "list"
	if len(pos) > 0 {
		action = pos[0]
	}
	switch action {
	case "list":
		st, err := parseStatus(*status)
		if err != nil {
			return err
		}
		tt, err := parseTaskType(*taskType)
		if err != nil {
			return err
		}
		n := *limit
		if n <= 0 {
			n = a.journalLimit
		}
		entries, err := a.journal.List(ctx, journal.Filter{Status: st, Type: tt, Limit: n})
		if err != nil {
			return err
		}
		return a.printJSON(entries)
	case "prune":
		if *olderThan < 0 {
			return usageErrorf("journal prune: --older-than must not be negative")
		}
		n, err := a.journal.Prune(ctx, time.Now().Add(-*olderThan))
		if err != nil {
			return err
		}
		return a.printJSON(struct {
			Deleted int64 `json:"deleted"`
		}{n})
	case "forget":
		if err := exactArgs("journal forget", pos[1:], 1, "<id>"); err != nil {
			return err
		}
		found, err := a.journal.Delete(ctx, pos[1])
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("task %s is not in the journal: %w", pos[1], journal.ErrNotFound)
		}
		return a.printJSON(ack{OK: true, Action: "forget", ID: pos[1]})
	}
	return usageErrorf("journal: unknown action %q", action)
}
