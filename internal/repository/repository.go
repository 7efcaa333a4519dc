package repository

import (
	"context"

	"github.com/weibaohui/skillsync/backend/internal/model"
)

// SyncEventFilter 操作日志查询条件
type SyncEventFilter struct {
	ToolID     string
	SkillID    string
	EventTypes []string
	Limit      int
}

type SyncEventRepository interface {
	Create(ctx context.Context, event *model.SyncEvent) error
	List(ctx context.Context, filter SyncEventFilter) ([]model.SyncEvent, error)
	DeleteBefore(ctx context.Context, id uint) (int64, error)
}
