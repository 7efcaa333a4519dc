package eventbus

import "time"

type SyncEventType string

const (
	SyncEventSkillSynced   SyncEventType = "SkillSynced"
	SyncEventSkillImported SyncEventType = "SkillImported"
	SyncEventSkillRestored SyncEventType = "SkillRestored"
)

// SyncEvent 同步引擎完成一次变更操作后发布
type SyncEvent struct {
	Type       SyncEventType
	ToolID     string
	SkillID    string
	Method     string // symlink, copy
	Success    bool
	Error      string
	OccurredAt time.Time
}

type SyncEventHandler = Handler[SyncEvent]
type SyncEventBus = Bus[SyncEventType, SyncEvent]

func NewSyncEventBus() *SyncEventBus {
	return NewBus[SyncEventType, SyncEvent]()
}
