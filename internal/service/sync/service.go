package syncservice

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/weibaohui/skillsync/backend/internal/eventbus"
	"github.com/weibaohui/skillsync/backend/internal/pkg/fsutil"
	"github.com/weibaohui/skillsync/backend/internal/pkg/skills"
	"github.com/weibaohui/skillsync/backend/internal/pkg/tools"
	"k8s.io/klog/v2"
)

// SkillStore 规范仓库
type SkillStore interface {
	List() ([]*skills.Skill, error)
	Get(id string) (*skills.Skill, error)
	SkillPath(id string) (string, error)
}

// ToolDetector 工具探测
type ToolDetector interface {
	DetectAll() []tools.Tool
	GetToolSkillPath(toolID string) (string, error)
	EnsureToolSkillPath(toolID string) (string, error)
}

// EventPublisher 操作事件发布
type EventPublisher interface {
	Publish(ctx context.Context, eventType eventbus.SyncEventType, event eventbus.SyncEvent) error
}

// Service 同步/导入/合并引擎。
// 不缓存任何文件系统状态，每次调用都重新读取；不对文件系统加锁，
// 同一 (技能, 工具) 上的并发调用以最后写入者为准。
type Service struct {
	store    SkillStore
	detector ToolDetector
	events   EventPublisher
	strategy *linkStrategy
}

// Option 引擎选项
type Option func(*Service)

// WithEventPublisher 设置操作事件发布者
func WithEventPublisher(p EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

// WithMethod 固定同步方式，跳过符号链接能力探测
func WithMethod(method Method) Option {
	return func(s *Service) { s.strategy.force(method) }
}

// WithProbeDir 指定符号链接能力探测使用的临时目录
func WithProbeDir(dir string) Option {
	return func(s *Service) { s.strategy.probeDir = dir }
}

func New(store SkillStore, detector ToolDetector, opts ...Option) *Service {
	s := &Service{
		store:    store,
		detector: detector,
		strategy: newLinkStrategy(""),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Method 返回进程级同步方式
func (s *Service) Method() Method {
	return s.strategy.Method()
}

// SyncSkillToTool 将规范技能同步到工具目录：已存在的同名条目被无条件替换
func (s *Service) SyncSkillToTool(ctx context.Context, skillID, toolID string) SyncResult {
	result := s.syncSkillToTool(skillID, toolID)
	if result.Success {
		klog.V(6).Infof("技能已同步: skill=%s, tool=%s, method=%s", skillID, toolID, result.Method)
	} else {
		klog.Errorf("[sync.SyncSkillToTool] 同步失败: skill=%s, tool=%s, error=%s", skillID, toolID, result.Error)
	}
	s.publish(ctx, eventbus.SyncEventSkillSynced, toolID, skillID, string(result.Method), result.Success, result.Error)
	return result
}

func (s *Service) syncSkillToTool(skillID, toolID string) SyncResult {
	method := s.strategy.Method()
	fail := func(format string, args ...any) SyncResult {
		return SyncResult{ToolID: toolID, SkillID: skillID, Success: false, Method: method, Error: fmt.Sprintf(format, args...)}
	}

	if _, err := s.store.Get(skillID); err != nil {
		if errors.Is(err, skills.ErrSkillNotFound) {
			return fail("Skill %q not found", skillID)
		}
		return fail("%v", err)
	}

	if _, err := s.detector.GetToolSkillPath(toolID); err != nil {
		return fail("Tool %q not supported", toolID)
	}

	toolSkillPath, err := s.detector.EnsureToolSkillPath(toolID)
	if err != nil {
		return fail("%v", err)
	}

	sourcePath, err := s.store.SkillPath(skillID)
	if err != nil {
		return fail("%v", err)
	}
	targetPath := filepath.Join(toolSkillPath, skillID)

	// 工具目录与规范仓库重合时，删除目标等于删除规范副本
	if !fsutil.IsSymlink(targetPath) && sameDirectory(sourcePath, targetPath) {
		return fail("%v: %s", ErrSamePath, targetPath)
	}
	if err := fsutil.RemoveEntry(targetPath); err != nil {
		return fail("%v", err)
	}

	if method == MethodSymlink {
		err = os.Symlink(sourcePath, targetPath)
	} else {
		err = fsutil.CopyDir(sourcePath, targetPath)
	}
	if err != nil {
		return fail("%v", err)
	}

	return SyncResult{ToolID: toolID, SkillID: skillID, Success: true, Method: method}
}

// SyncAllSkillsToTool 将全部规范技能同步到一个工具
func (s *Service) SyncAllSkillsToTool(ctx context.Context, toolID string) ([]SyncResult, error) {
	list, err := s.store.List()
	if err != nil {
		return nil, err
	}
	results := make([]SyncResult, 0, len(list))
	for _, skill := range list {
		results = append(results, s.SyncSkillToTool(ctx, skill.ID, toolID))
	}
	return results, nil
}

// SyncSkillToAllTools 将一个技能同步到所有已探测到的工具
func (s *Service) SyncSkillToAllTools(ctx context.Context, skillID string) []SyncResult {
	detected := s.detectedTools()
	results := make([]SyncResult, 0, len(detected))
	for _, tool := range detected {
		results = append(results, s.SyncSkillToTool(ctx, skillID, tool.ID))
	}
	return results
}

// SyncAll 将全部技能同步到所有已探测到的工具，每一对独立执行
func (s *Service) SyncAll(ctx context.Context) ([]SyncResult, error) {
	list, err := s.store.List()
	if err != nil {
		return nil, err
	}
	detected := s.detectedTools()

	results := make([]SyncResult, 0, len(list)*len(detected))
	for _, skill := range list {
		for _, tool := range detected {
			results = append(results, s.SyncSkillToTool(ctx, skill.ID, tool.ID))
		}
	}
	return results, nil
}

// CountResults 统计成功与失败数量
func CountResults(results []SyncResult) (succeeded, failed int) {
	for _, r := range results {
		if r.Success {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}

// GetSyncStatus 查看每个规范技能在工具目录中的状态，不做任何修改
func (s *Service) GetSyncStatus(toolID string) ([]SyncStatus, error) {
	toolSkillPath, err := s.detector.GetToolSkillPath(toolID)
	if err != nil {
		return nil, err
	}
	list, err := s.store.List()
	if err != nil {
		return nil, err
	}

	statuses := make([]SyncStatus, 0, len(list))
	for _, skill := range list {
		statuses = append(statuses, s.inspect(toolID, toolSkillPath, skill))
	}
	return statuses, nil
}

func (s *Service) inspect(toolID, toolSkillPath string, skill *skills.Skill) SyncStatus {
	status := SyncStatus{ToolID: toolID, SkillID: skill.ID, Method: MethodCopy}
	targetPath := filepath.Join(toolSkillPath, skill.ID)

	info, err := os.Lstat(targetPath)
	if errors.Is(err, fs.ErrNotExist) {
		status.Status = StatusPending
		return status
	}
	if err != nil {
		status.Status = StatusError
		status.Error = fmt.Sprintf("Failed to check sync status: %v", err)
		return status
	}

	syncedAt := info.ModTime()
	status.SyncedAt = &syncedAt
	status.Status = StatusSynced

	if info.Mode()&os.ModeSymlink != 0 {
		status.Method = MethodSymlink
		sourcePath, err := s.store.SkillPath(skill.ID)
		if err != nil {
			status.Status = StatusError
			status.Error = err.Error()
			return status
		}
		if !sameDirectory(sourcePath, targetPath) {
			status.Status = StatusConflict
			status.Error = "symlink does not point to the canonical skill"
		}
		return status
	}

	if !matchesSkillFiles(targetPath, skill.Files) {
		status.Status = StatusConflict
		status.Error = "tool copy differs from the canonical skill"
	}
	return status
}

// matchesSkillFiles 比较目录内容与技能文件清单的指纹集合
func matchesSkillFiles(dir string, files []skills.SkillFile) bool {
	hashes, err := fsutil.HashSet(dir)
	if err != nil || len(hashes) != len(files) {
		return false
	}
	for _, f := range files {
		if hashes[f.Path] != f.Hash {
			return false
		}
	}
	return true
}

func (s *Service) detectedTools() []tools.Tool {
	var detected []tools.Tool
	for _, tool := range s.detector.DetectAll() {
		if tool.Detected {
			detected = append(detected, tool)
		}
	}
	return detected
}

// publish 记录操作事件，失败只写日志
func (s *Service) publish(ctx context.Context, eventType eventbus.SyncEventType, toolID, skillID, method string, success bool, errMsg string) {
	if s.events == nil {
		return
	}
	event := eventbus.SyncEvent{
		Type:       eventType,
		ToolID:     toolID,
		SkillID:    skillID,
		Method:     method,
		Success:    success,
		Error:      errMsg,
		OccurredAt: time.Now(),
	}
	if err := s.events.Publish(context.WithoutCancel(ctx), eventType, event); err != nil {
		klog.Warningf("[sync.publish] 发布操作事件失败: type=%s, error=%v", eventType, err)
	}
}

// sameDirectory 判断两个路径是否指向同一目录（跟随符号链接）
func sameDirectory(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}
