package subscriber

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/weibaohui/skillsync/backend/internal/eventbus"
	"github.com/weibaohui/skillsync/backend/internal/model"
	"github.com/weibaohui/skillsync/backend/internal/repository"
)

type mockSyncEventRepo struct {
	events       []model.SyncEvent
	err          error
	deleteBefore []uint
}

// Create 记录事件
func (m *mockSyncEventRepo) Create(ctx context.Context, event *model.SyncEvent) error {
	if m.err != nil {
		return m.err
	}
	event.ID = uint(len(m.events) + 1)
	m.events = append(m.events, *event)
	return nil
}

// List 列出事件
func (m *mockSyncEventRepo) List(ctx context.Context, filter repository.SyncEventFilter) ([]model.SyncEvent, error) {
	return m.events, m.err
}

// DeleteBefore 删除旧事件
func (m *mockSyncEventRepo) DeleteBefore(ctx context.Context, id uint) (int64, error) {
	m.deleteBefore = append(m.deleteBefore, id)
	return 1, m.err
}

func TestSyncEventSubscriberRegisterAndHandle(t *testing.T) {
	bus := eventbus.NewSyncEventBus()
	repo := &mockSyncEventRepo{}
	NewSyncEventSubscriber(repo).Register(bus)

	now := time.Now()
	events := []eventbus.SyncEvent{
		{Type: eventbus.SyncEventSkillSynced, ToolID: "cursor", SkillID: "a", Method: "symlink", Success: true, OccurredAt: now},
		{Type: eventbus.SyncEventSkillImported, ToolID: "codex", SkillID: "b", Method: "copy", Success: true, OccurredAt: now},
		{Type: eventbus.SyncEventSkillRestored, ToolID: "codex", SkillID: "b", Success: false, Error: "not a symlink", OccurredAt: now},
	}
	for _, event := range events {
		if err := bus.Publish(context.Background(), event.Type, event); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if len(repo.events) != 3 {
		t.Fatalf("expected 3 recorded events, got %d", len(repo.events))
	}
	last := repo.events[2]
	if last.EventType != "SkillRestored" || last.ErrorMsg != "not a symlink" || last.Success {
		t.Fatalf("unexpected event: %+v", last)
	}
}

func TestSyncEventSubscriberPropagatesRepoError(t *testing.T) {
	bus := eventbus.NewSyncEventBus()
	repo := &mockSyncEventRepo{err: errors.New("db down")}
	NewSyncEventSubscriber(repo).Register(bus)

	err := bus.Publish(context.Background(), eventbus.SyncEventSkillSynced, eventbus.SyncEvent{Type: eventbus.SyncEventSkillSynced})
	if err == nil {
		t.Fatalf("expected error from repository")
	}
}

func TestSyncEventSubscriberNilBus(t *testing.T) {
	NewSyncEventSubscriber(&mockSyncEventRepo{}).Register(nil)
}

func TestSyncEventSubscriberTrimsToRetention(t *testing.T) {
	bus := eventbus.NewSyncEventBus()
	repo := &mockSyncEventRepo{}
	NewSyncEventSubscriber(repo).WithRetention(2).Register(bus)

	for i := 0; i < 4; i++ {
		event := eventbus.SyncEvent{Type: eventbus.SyncEventSkillSynced, SkillID: "s", Success: true}
		if err := bus.Publish(context.Background(), event.Type, event); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	// 第 3、4 条写入后分别裁剪 ID < 2 和 ID < 3 的记录
	if len(repo.deleteBefore) != 2 || repo.deleteBefore[0] != 2 || repo.deleteBefore[1] != 3 {
		t.Fatalf("unexpected trim calls: %v", repo.deleteBefore)
	}
}
