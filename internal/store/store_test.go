package store

import (
	"io"
	"log/slog"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/rickyrobinett/basic-chat/internal/chat"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := Open(filepath.Join(t.TempDir(), "chat.db"), logger)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoadEmptyStore(t *testing.T) {
	s := openTestStore(t)

	state, err := s.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(state.Conversation) != 0 || state.SystemPrompt != "" {
		t.Errorf("expected zero state, got %+v", state)
	}
}

func TestConversationRoundTrip(t *testing.T) {
	s := openTestStore(t)

	conv := chat.Conversation{
		{Role: chat.RoleUser, Content: "hello"},
		{Role: chat.RoleAssistant, Content: "Hello there"},
		{Role: chat.RoleUser, Content: "more?"},
	}
	if err := s.SaveConversation(conv); err != nil {
		t.Fatalf("SaveConversation failed: %v", err)
	}

	state, err := s.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reflect.DeepEqual(state.Conversation, conv) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", state.Conversation, conv)
	}
}

func TestSaveEmptyConversationRejected(t *testing.T) {
	s := openTestStore(t)

	if err := s.SaveConversation(nil); err == nil {
		t.Error("saving an empty conversation must be rejected")
	}
	if err := s.SaveConversation(chat.Conversation{}); err == nil {
		t.Error("saving an empty conversation must be rejected")
	}
}

func TestDeleteConversationRemovesSlot(t *testing.T) {
	s := openTestStore(t)

	conv := chat.Conversation{{Role: chat.RoleUser, Content: "hi"}}
	if err := s.SaveConversation(conv); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteConversation(); err != nil {
		t.Fatalf("DeleteConversation failed: %v", err)
	}

	// The slot is removed, not overwritten with an empty list.
	if _, ok, err := s.get(slotConversation); err != nil || ok {
		t.Errorf("conversation slot still present (ok=%v, err=%v)", ok, err)
	}
}

func TestCorruptConversationResetsBothSlots(t *testing.T) {
	s := openTestStore(t)

	if err := s.put(slotConversation, "{definitely not json"); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveSystemPrompt("be terse"); err != nil {
		t.Fatal(err)
	}

	state, err := s.Load()
	if err != nil {
		t.Fatalf("Load must not fail on corrupt state: %v", err)
	}
	if len(state.Conversation) != 0 || state.SystemPrompt != "" {
		t.Errorf("expected fail-safe zero state, got %+v", state)
	}

	if _, ok, _ := s.get(slotConversation); ok {
		t.Error("corrupt conversation slot was not cleared")
	}
	if _, ok, _ := s.get(slotSystemPrompt); ok {
		t.Error("system prompt slot was not cleared alongside the corrupt conversation")
	}
}

func TestSystemPromptSlot(t *testing.T) {
	s := openTestStore(t)

	if err := s.SaveSystemPrompt("be terse"); err != nil {
		t.Fatal(err)
	}
	state, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if state.SystemPrompt != "be terse" {
		t.Errorf("prompt = %q, want %q", state.SystemPrompt, "be terse")
	}

	if err := s.SaveSystemPrompt(""); err == nil {
		t.Error("saving an empty prompt must be rejected")
	}

	if err := s.DeleteSystemPrompt(); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.get(slotSystemPrompt); ok {
		t.Error("system prompt slot still present after delete")
	}
}

func TestReopenSurvivesProcessRestart(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	path := filepath.Join(t.TempDir(), "chat.db")

	s, err := Open(path, logger)
	if err != nil {
		t.Fatal(err)
	}
	conv := chat.Conversation{{Role: chat.RoleUser, Content: "persist me"}}
	if err := s.SaveConversation(conv); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s2, err := Open(path, logger)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	state, err := s2.Load()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(state.Conversation, conv) {
		t.Errorf("reloaded conversation = %+v, want %+v", state.Conversation, conv)
	}
}
