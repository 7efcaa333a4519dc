package repository

import (
	"context"

	"github.com/weibaohui/skillsync/backend/internal/model"
	"gorm.io/gorm"
)

type syncEventRepository struct {
	db *gorm.DB
}

func NewSyncEventRepository(db *gorm.DB) SyncEventRepository {
	return &syncEventRepository{db: db}
}

func (r *syncEventRepository) Create(ctx context.Context, event *model.SyncEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// List 查询操作日志，按时间倒序
func (r *syncEventRepository) List(ctx context.Context, filter SyncEventFilter) ([]model.SyncEvent, error) {
	var events []model.SyncEvent
	tx := r.db.WithContext(ctx).Model(&model.SyncEvent{})
	if filter.ToolID != "" {
		tx = tx.Where("tool_id = ?", filter.ToolID)
	}
	if filter.SkillID != "" {
		tx = tx.Where("skill_id = ?", filter.SkillID)
	}
	if len(filter.EventTypes) > 0 {
		tx = tx.Where("event_type IN ?", filter.EventTypes)
	}
	tx = tx.Order("created_at desc, id desc")
	if filter.Limit > 0 {
		tx = tx.Limit(filter.Limit)
	}
	if err := tx.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// DeleteBefore 删除 ID 小于给定值的记录，用于裁剪日志
func (r *syncEventRepository) DeleteBefore(ctx context.Context, id uint) (int64, error) {
	result := r.db.WithContext(ctx).Where("id < ?", id).Delete(&model.SyncEvent{})
	return result.RowsAffected, result.Error
}
