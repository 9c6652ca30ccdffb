package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/clause"

	"github.com/BaSui01/easyvideo/types"
)

// ErrNotFound 表示任务未被记录
var ErrNotFound = errors.New("journal: entry not found")

// ErrClosed 表示 Store 已关闭
var ErrClosed = errors.New("journal: store is closed")

// =============================================================================
// 📒 任务记录
// =============================================================================

// Entry 是本地记录的一个已提交任务
type Entry struct {
	TaskID      string           `gorm:"primaryKey;size:64" json:"task_id"`
	BatchID     string           `gorm:"size:64;index" json:"batch_id,omitempty"`
	Type        types.TaskType   `gorm:"size:32;index" json:"type"`
	Status      types.TaskStatus `gorm:"size:16;index" json:"status"`
	Progress    float64          `json:"progress"`
	Prompt      string           `gorm:"size:2000" json:"prompt,omitempty"`
	Message     string           `gorm:"size:500" json:"message,omitempty"`
	BaseURL     string           `gorm:"size:255" json:"base_url,omitempty"`
	SubmittedAt time.Time        `gorm:"index" json:"submitted_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// TableName 固定表名
func (Entry) TableName() string { return "journal_entries" }

// Filter 列表过滤条件
type Filter struct {
	Status types.TaskStatus
	Type   types.TaskType
	// Unfinished 只返回 pending / running 的任务
	Unfinished bool
	Limit      int
}

// =============================================================================
// 🗄️ Store
// =============================================================================

// Store 基于 SQLite 的任务记录
type Store struct {
	db     *gorm.DB
	sqlDB  *sql.DB
	logger *zap.Logger
	mu     sync.RWMutex
	closed bool
}

// Open 打开（必要时创建）path 处的记录库并迁移表结构.
// path 为 ":memory:" 时使用内存库.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path == "" {
		return nil, errors.New("journal path cannot be empty")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create journal directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	// SQLite 单写者；内存库也依赖同一连接
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := db.AutoMigrate(&Entry{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to auto migrate: %w", err)
	}

	s := &Store{
		db:     db,
		sqlDB:  sqlDB,
		logger: logger.With(zap.String("component", "journal")),
	}
	s.logger.Debug("journal opened", zap.String("path", path))
	return s, nil
}

// conn 返回可用的 DB，已关闭时返回 ErrClosed
func (s *Store) conn(ctx context.Context) (*gorm.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	return s.db.WithContext(ctx), nil
}

// Record 写入或覆盖一条记录. 已存在时只更新状态、进度与消息.
func (s *Store) Record(ctx context.Context, e Entry) error {
	return s.RecordAll(ctx, []Entry{e})
}

// RecordAll 在一个事务内写入多条记录
func (s *Store) RecordAll(ctx context.Context, entries []Entry) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	now := time.Now().UTC()
	rows := make([]Entry, len(entries))
	for i, e := range entries {
		if e.TaskID == "" {
			return fmt.Errorf("journal entry %d has no task id", i)
		}
		if e.SubmittedAt.IsZero() {
			e.SubmittedAt = now
		}
		if e.Status == "" {
			e.Status = types.TaskStatusPending
		}
		e.UpdatedAt = now
		rows[i] = e
	}

	return db.Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "task_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "progress", "message", "updated_at"}),
		}).Create(&rows).Error
	})
}

// Update 更新任务状态与进度. 状态只能前进（未结束任务的相同状态视为进度更新），
// 终态记录不会被覆盖. 任务未记录或迁移不合法时返回 false.
func (s *Store) Update(ctx context.Context, taskID string, status types.TaskStatus, progress float64, message string) (bool, error) {
	return s.advance(ctx, taskID, status, map[string]any{
		"status":   string(status),
		"progress": progress,
		"message":  message,
	})
}

// UpdateStatus 只更新状态，保留已记录的进度与消息. 迁移规则同 Update.
func (s *Store) UpdateStatus(ctx context.Context, taskID string, status types.TaskStatus) (bool, error) {
	return s.advance(ctx, taskID, status, map[string]any{"status": string(status)})
}

// Reset 无条件写入状态，用于重试让任务离开终态. 任务未记录时返回 false.
func (s *Store) Reset(ctx context.Context, taskID string, status types.TaskStatus, progress float64, message string) (bool, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return false, err
	}
	res := db.Model(&Entry{}).Where("task_id = ?", taskID).Updates(map[string]any{
		"status":     string(status),
		"progress":   progress,
		"message":    message,
		"updated_at": time.Now().UTC(),
	})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) advance(ctx context.Context, taskID string, next types.TaskStatus, values map[string]any) (bool, error) {
	if !next.Valid() {
		return false, fmt.Errorf("journal: invalid status %q", next)
	}
	db, err := s.conn(ctx)
	if err != nil {
		return false, err
	}
	values["updated_at"] = time.Now().UTC()
	res := db.Model(&Entry{}).
		Where("task_id = ? AND status IN ?", taskID, sourcesOf(next)).
		Updates(values)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

var allStatuses = []types.TaskStatus{
	types.TaskStatusPending,
	types.TaskStatusRunning,
	types.TaskStatusCompleted,
	types.TaskStatusFailed,
	types.TaskStatusCancelled,
}

// sourcesOf 返回可以迁移到 next 的已记录状态
func sourcesOf(next types.TaskStatus) []string {
	var from []string
	for _, s := range allStatuses {
		if (s == next && !next.IsTerminal()) || s.CanTransitionTo(next) {
			from = append(from, string(s))
		}
	}
	return from
}

// Get 读取一条记录
func (s *Store) Get(ctx context.Context, taskID string) (*Entry, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var e Entry
	if err := db.Where("task_id = ?", taskID).Take(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// List 按提交时间倒序返回记录
func (s *Store) List(ctx context.Context, f Filter) ([]Entry, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	q := db.Order("submitted_at DESC").Order("task_id")
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}
	if f.Type != "" {
		q = q.Where("type = ?", string(f.Type))
	}
	if f.Unfinished {
		q = q.Where("status IN ?", []string{string(types.TaskStatusPending), string(types.TaskStatusRunning)})
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	entries := []Entry{}
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// Delete 删除一条记录，返回是否存在
func (s *Store) Delete(ctx context.Context, taskID string) (bool, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return false, err
	}
	res := db.Where("task_id = ?", taskID).Delete(&Entry{})
	return res.RowsAffected > 0, res.Error
}

// Prune 删除 before 之前结束的记录，未结束的任务保留
func (s *Store) Prune(ctx context.Context, before time.Time) (int64, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return 0, err
	}
	terminal := []string{
		string(types.TaskStatusCompleted),
		string(types.TaskStatusFailed),
		string(types.TaskStatusCancelled),
	}
	res := db.Where("status IN ? AND updated_at < ?", terminal, before.UTC()).Delete(&Entry{})
	if res.Error != nil {
		return 0, res.Error
	}
	s.logger.Debug("journal pruned", zap.Int64("deleted", res.RowsAffected), zap.Time("before", before))
	return res.RowsAffected, nil
}

// Close 关闭记录库，可重复调用
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.sqlDB.Close()
}
