package redis

import (
	"context"
	"testing"
	"time"

	"androbot/internal/dialogue"
	"androbot/internal/domain"
	miniredis "github.com/alicebob/miniredis/v2"
)

func TestStateStoreRoundTripAndExpiry(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewStateStore(newClient(mr), time.Hour)
	ctx := context.Background()

	if _, ok, err := store.Load(ctx, 42); err != nil || ok {
		t.Fatalf("expected miss, ok=%v err=%v", ok, err)
	}

	conv := dialogue.Conversation{State: dialogue.StateGotAnswer, AnswerMode: domain.AnswerModeMental}
	if err := store.Save(ctx, 42, conv); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !mr.Exists("androbot:dialogue:42") {
		t.Fatalf("expected redis key to be set")
	}
	got, ok, err := store.Load(ctx, 42)
	if err != nil || !ok || got != conv {
		t.Fatalf("expected %+v, got %+v ok=%v err=%v", conv, got, ok, err)
	}

	mr.FastForward(2 * time.Hour)
	if _, ok, _ := store.Load(ctx, 42); ok {
		t.Fatalf("expected conversation to expire")
	}
}

func TestStateStoreDelete(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewStateStore(newClient(mr), 0)
	ctx := context.Background()
	if err := store.Save(ctx, 1, dialogue.Conversation{State: dialogue.StateMainMenu}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Delete(ctx, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if mr.Exists("androbot:dialogue:1") {
		t.Fatalf("expected redis key to be removed")
	}
}
