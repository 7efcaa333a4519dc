package model

import (
	"time"
)

// SyncEvent 同步/导入/还原操作日志，不记录技能内容本身
type SyncEvent struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	EventType string    `json:"eventType" gorm:"size:32;index;not null"` // SkillSynced, SkillImported, SkillRestored
	ToolID    string    `json:"toolId" gorm:"size:64;index"`
	SkillID   string    `json:"skillId" gorm:"size:255;index"`
	Method    string    `json:"method" gorm:"size:16"` // symlink, copy
	Success   bool      `json:"success"`
	ErrorMsg  string    `json:"error,omitempty" gorm:"size:1000"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
}
