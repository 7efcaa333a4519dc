package repository

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/weibaohui/skillsync/backend/internal/model"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db error: %v", err)
	}
	if err := db.AutoMigrate(&model.SyncEvent{}); err != nil {
		t.Fatalf("migrate error: %v", err)
	}
	return db
}

func TestSyncEventRepositoryCreate(t *testing.T) {
	db := openTestDB(t)

	repo := NewSyncEventRepository(db)
	event := &model.SyncEvent{
		EventType: "SkillSynced",
		ToolID:    "cursor",
		SkillID:   "code-review",
		Method:    "symlink",
		Success:   true,
	}
	if err := repo.Create(context.Background(), event); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	var count int64
	if err := db.Model(&model.SyncEvent{}).Count(&count).Error; err != nil {
		t.Fatalf("count error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}

	var got model.SyncEvent
	if err := db.First(&got, event.ID).Error; err != nil {
		t.Fatalf("load error: %v", err)
	}
	if got.EventType != event.EventType || got.ToolID != event.ToolID || got.SkillID != event.SkillID || got.Method != event.Method || got.Success != event.Success {
		t.Fatalf("unexpected event: %+v", got)
	}
}

func TestSyncEventRepositoryListFilters(t *testing.T) {
	db := openTestDB(t)
	repo := NewSyncEventRepository(db)
	ctx := context.Background()

	seed := []model.SyncEvent{
		{EventType: "SkillSynced", ToolID: "cursor", SkillID: "a", Success: true},
		{EventType: "SkillSynced", ToolID: "codex", SkillID: "a", Success: false, ErrorMsg: "boom"},
		{EventType: "SkillImported", ToolID: "cursor", SkillID: "b", Success: true},
	}
	for i := range seed {
		if err := repo.Create(ctx, &seed[i]); err != nil {
			t.Fatalf("Create error: %v", err)
		}
	}

	events, err := repo.List(ctx, SyncEventFilter{ToolID: "cursor"})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events for cursor, got %d", len(events))
	}

	events, err = repo.List(ctx, SyncEventFilter{EventTypes: []string{"SkillImported"}})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(events) != 1 || events[0].SkillID != "b" {
		t.Fatalf("unexpected events: %+v", events)
	}

	events, err = repo.List(ctx, SyncEventFilter{SkillID: "a", Limit: 1})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected limit to apply, got %d", len(events))
	}
}

func TestSyncEventRepositoryDeleteBefore(t *testing.T) {
	db := openTestDB(t)
	repo := NewSyncEventRepository(db)
	ctx := context.Background()

	var last model.SyncEvent
	for i := 0; i < 3; i++ {
		last = model.SyncEvent{EventType: "SkillSynced", ToolID: "cursor", SkillID: "a"}
		if err := repo.Create(ctx, &last); err != nil {
			t.Fatalf("Create error: %v", err)
		}
	}

	affected, err := repo.DeleteBefore(ctx, last.ID)
	if err != nil {
		t.Fatalf("DeleteBefore error: %v", err)
	}
	if affected != 2 {
		t.Fatalf("expected 2 deleted, got %d", affected)
	}
}
