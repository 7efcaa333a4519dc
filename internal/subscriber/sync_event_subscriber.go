package subscriber

import (
	"context"

	"github.com/weibaohui/skillsync/backend/internal/eventbus"
	"github.com/weibaohui/skillsync/backend/internal/model"
	"github.com/weibaohui/skillsync/backend/internal/repository"
	"k8s.io/klog/v2"
)

// DefaultRetention 操作日志保留的最大条数
const DefaultRetention = 1000

// SyncEventSubscriber 将同步引擎事件写入操作日志
type SyncEventSubscriber struct {
	repo      repository.SyncEventRepository
	retention uint
}

func NewSyncEventSubscriber(repo repository.SyncEventRepository) *SyncEventSubscriber {
	return &SyncEventSubscriber{repo: repo, retention: DefaultRetention}
}

// WithRetention 设置保留条数，0 表示不裁剪
func (s *SyncEventSubscriber) WithRetention(n uint) *SyncEventSubscriber {
	s.retention = n
	return s
}

func (s *SyncEventSubscriber) Register(bus *eventbus.SyncEventBus) {
	if bus == nil {
		return
	}
	bus.Subscribe(eventbus.SyncEventSkillSynced, s.record)
	bus.Subscribe(eventbus.SyncEventSkillImported, s.record)
	bus.Subscribe(eventbus.SyncEventSkillRestored, s.record)
}

func (s *SyncEventSubscriber) record(ctx context.Context, event eventbus.SyncEvent) error {
	row := &model.SyncEvent{
		EventType: string(event.Type),
		ToolID:    event.ToolID,
		SkillID:   event.SkillID,
		Method:    event.Method,
		Success:   event.Success,
		ErrorMsg:  event.Error,
		CreatedAt: event.OccurredAt,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		klog.Errorf("[subscriber.SyncEvent] 写入操作日志失败: type=%s, tool=%s, skill=%s, error=%v", event.Type, event.ToolID, event.SkillID, err)
		return err
	}
	s.trim(ctx, row.ID)
	klog.V(6).Infof("操作日志已记录: type=%s, tool=%s, skill=%s, success=%t", event.Type, event.ToolID, event.SkillID, event.Success)
	return nil
}

// trim 只保留最近 retention 条记录，失败不影响本次写入
func (s *SyncEventSubscriber) trim(ctx context.Context, lastID uint) {
	if s.retention == 0 || lastID <= s.retention {
		return
	}
	removed, err := s.repo.DeleteBefore(ctx, lastID-s.retention+1)
	if err != nil {
		klog.Warningf("[subscriber.SyncEvent] 裁剪操作日志失败: error=%v", err)
		return
	}
	if removed > 0 {
		klog.V(6).Infof("操作日志已裁剪: removed=%d", removed)
	}
}
