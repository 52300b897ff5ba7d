package memory

import (
	"context"
	"testing"

	"androbot/internal/dialogue"
	"androbot/internal/domain"
)

func TestStateStoreLifecycle(t *testing.T) {
	store := NewStateStore()
	ctx := context.Background()

	if _, ok, err := store.Load(ctx, 7); err != nil || ok {
		t.Fatalf("expected no conversation, ok=%v err=%v", ok, err)
	}

	conv := dialogue.Conversation{State: dialogue.StateAskQuestion, AnswerMode: domain.AnswerModeVoice}
	if err := store.Save(ctx, 7, conv); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok, err := store.Load(ctx, 7)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if got != conv {
		t.Fatalf("expected %+v, got %+v", conv, got)
	}

	if err := store.Delete(ctx, 7); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := store.Load(ctx, 7); ok {
		t.Fatalf("expected conversation removed")
	}
}
