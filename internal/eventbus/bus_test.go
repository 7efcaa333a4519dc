package eventbus

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestBusPublishBroadcast(t *testing.T) {
	bus := NewSyncEventBus()
	calledA := false
	calledB := false

	bus.Subscribe(SyncEventSkillSynced, func(ctx context.Context, event SyncEvent) error {
		calledA = true
		return nil
	})
	bus.Subscribe(SyncEventSkillSynced, func(ctx context.Context, event SyncEvent) error {
		calledB = true
		return nil
	})

	if err := bus.Publish(context.Background(), SyncEventSkillSynced, SyncEvent{Type: SyncEventSkillSynced}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !calledA || !calledB {
		t.Fatalf("expected handlers to be called")
	}
}

func TestBusPublishOnlyMatchingType(t *testing.T) {
	bus := NewSyncEventBus()
	called := false
	bus.Subscribe(SyncEventSkillImported, func(ctx context.Context, event SyncEvent) error {
		called = true
		return nil
	})

	if err := bus.Publish(context.Background(), SyncEventSkillSynced, SyncEvent{Type: SyncEventSkillSynced}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Fatalf("handler for another event type should not be called")
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewSyncEventBus()
	called := false
	unsubscribe := bus.Subscribe(SyncEventSkillSynced, func(ctx context.Context, event SyncEvent) error {
		called = true
		return nil
	})
	unsubscribe()

	if err := bus.Publish(context.Background(), SyncEventSkillSynced, SyncEvent{Type: SyncEventSkillSynced}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Fatalf("expected handler to be unsubscribed")
	}
}

func TestBusPublishJoinErrors(t *testing.T) {
	bus := NewSyncEventBus()
	bus.Subscribe(SyncEventSkillSynced, func(ctx context.Context, event SyncEvent) error {
		return errors.New("err-a")
	})
	bus.Subscribe(SyncEventSkillSynced, func(ctx context.Context, event SyncEvent) error {
		return errors.New("err-b")
	})

	err := bus.Publish(context.Background(), SyncEventSkillSynced, SyncEvent{Type: SyncEventSkillSynced})
	if err == nil {
		t.Fatalf("expected joined error")
	}
	if !strings.Contains(err.Error(), "err-a") || !strings.Contains(err.Error(), "err-b") {
		t.Fatalf("unexpected error: %v", err)
	}
}
