package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/BaSui01/easyvideo/generation"
	"github.com/BaSui01/easyvideo/internal/journal"
	"github.com/BaSui01/easyvideo/types"
)

// commandFunc 执行一个子命令，args 不含命令名
type commandFunc func(ctx context.Context, a *app, args []string) error

// app 持有一次命令执行的客户端与输入输出
type app struct {
	client *generation.Client
	logger *zap.Logger

	// journal 为 nil 表示未启用本地记录
	journal      *journal.Store
	journalLimit int

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// 进度回调可能来自多个 goroutine
	errMu sync.Mutex
}

// usageError 表示参数错误，退出码为 2
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usageErrorf(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// ack 是无返回数据操作的输出
type ack struct {
	OK     bool   `json:"ok"`
	Action string `json:"action"`
	ID     string `json:"id,omitempty"`
}

// newFlagSet 创建子命令参数集，错误输出写到 stderr
func (a *app) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet("easyvideo "+name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

// parse 解析 args，允许位置参数与选项交错出现，返回位置参数
func (a *app) parse(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				return nil, err
			}
			return nil, &usageError{}
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

// printJSON 以缩进 JSON 写出结果
func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// statusf 向 stderr 写一行进度信息
func (a *app) statusf(format string, args ...any) {
	a.errMu.Lock()
	defer a.errMu.Unlock()
	fmt.Fprintf(a.stderr, format+"\n", args...)
}

// progressPrinter 返回按任务打印进度的回调
func (a *app) progressPrinter() func(taskID string, u generation.ProgressUpdate) {
	return func(taskID string, u generation.ProgressUpdate) {
		line := fmt.Sprintf("[%s] %-9s %5.1f%%", taskID, u.Status, u.Progress)
		if u.Message != "" {
			line += " " + u.Message
		}
		a.statusf("%s", line)
	}
}

// uploadPrinter 在整数百分比变化时打印上传进度
func (a *app) uploadPrinter(name string) generation.UploadProgressFunc {
	last := -1
	return func(fraction float64) {
		pct := int(fraction * 100)
		if pct == last {
			return
		}
		last = pct
		a.statusf("upload %s: %d%%", name, pct)
	}
}

// waitAndPrint 等待单个任务结束并输出最后一条进度
func (a *app) waitAndPrint(ctx context.Context, taskID string) error {
	printer := a.progressPrinter()
	final, err := a.client.WaitForTask(ctx, taskID, func(u generation.ProgressUpdate) {
		printer(taskID, u)
	})
	if final != nil {
		a.track(ctx, taskID, final.Status, final.Progress, final.Message)
		if perr := a.printJSON(final); perr != nil {
			return perr
		}
	}
	return err
}

// waitAllAndPrint 并发等待多个任务，输出 task_id → 最后一条进度
func (a *app) waitAllAndPrint(ctx context.Context, taskIDs []string) error {
	results, err := a.client.WaitForTasks(ctx, taskIDs, a.progressPrinter())
	for id, final := range results {
		a.track(ctx, id, final.Status, final.Progress, final.Message)
	}
	if len(results) > 0 {
		if perr := a.printJSON(results); perr != nil {
			return perr
		}
	}
	return err
}

// =============================================================================
// 📒 本地记录
// =============================================================================

// remember 记录新提交的任务；记录失败只告警，不影响命令结果
func (a *app) remember(ctx context.Context, entries ...journal.Entry) {
	if a.journal == nil || len(entries) == 0 {
		return
	}
	for i := range entries {
		entries[i].BaseURL = a.client.BaseURL()
	}
	if err := a.journal.RecordAll(ctx, entries); err != nil {
		a.logger.Warn("journal record failed", zap.Int("entries", len(entries)), zap.Error(err))
	}
}

// track 更新已记录任务的状态
func (a *app) track(ctx context.Context, taskID string, status types.TaskStatus, progress float64, message string) {
	if a.journal == nil || status == "" {
		return
	}
	if _, err := a.journal.Update(ctx, taskID, status, progress, message); err != nil {
		a.logger.Warn("journal update failed", zap.String("task_id", taskID), zap.Error(err))
	}
}

// trackStatus 只更新状态，保留已记录的进度
func (a *app) trackStatus(ctx context.Context, taskID string, status types.TaskStatus) {
	if a.journal == nil {
		return
	}
	if _, err := a.journal.UpdateStatus(ctx, taskID, status); err != nil {
		a.logger.Warn("journal update failed", zap.String("task_id", taskID), zap.Error(err))
	}
}

// trackRetry 记录重试后的新状态，这是记录离开终态的唯一途径
func (a *app) trackRetry(ctx context.Context, taskID string, task *types.GenerationTask) {
	if a.journal == nil || task == nil || task.Status == "" {
		return
	}
	if _, err := a.journal.Reset(ctx, taskID, task.Status, task.Progress, task.Message); err != nil {
		a.logger.Warn("journal update failed", zap.String("task_id", taskID), zap.Error(err))
	}
}

// requireJournal 在未启用本地记录时返回错误
func (a *app) requireJournal() error {
	if a.journal == nil {
		return errors.New("journal disabled: set journal.path or pass --journal <path>")
	}
	return nil
}

// =============================================================================
// 🔧 参数辅助
// =============================================================================

// parseKind 校验记录类别
func parseKind(s string) (generation.Kind, error) {
	switch k := generation.Kind(s); k {
	case generation.KindImage, generation.KindVideo, generation.KindStoryboard:
		return k, nil
	}
	return "", usageErrorf("unknown kind %q (want image, video or storyboard)", s)
}

// parseTaskType 接受任务类型或记录类别两种写法
func parseTaskType(s string) (types.TaskType, error) {
	if s == "" {
		return "", nil
	}
	switch generation.Kind(s) {
	case generation.KindImage:
		return types.TaskTypeTextToImage, nil
	case generation.KindVideo:
		return types.TaskTypeImageToVideo, nil
	}
	if t := types.TaskType(s); t.Valid() {
		return t, nil
	}
	return "", usageErrorf("unknown task type %q", s)
}

func parseStatus(s string) (types.TaskStatus, error) {
	if s == "" {
		return "", nil
	}
	if st := types.TaskStatus(s); st.Valid() {
		return st, nil
	}
	return "", usageErrorf("unknown task status %q", s)
}

// splitList 解析逗号分隔列表，忽略空项
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// flagSet 报告选项是否在命令行中显式给出
func flagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// exactArgs 校验位置参数个数
func exactArgs(cmd string, args []string, n int, names string) error {
	if len(args) != n {
		return usageErrorf("usage: easyvideo %s %s", cmd, names)
	}
	return nil
}
