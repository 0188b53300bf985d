package chat

import (
	"errors"
	"testing"
)

func TestReduceAppendUser(t *testing.T) {
	state := State{}

	state, err := Reduce(state, AppendUser{Text: "hello"})
	if err != nil {
		t.Fatalf("AppendUser failed: %v", err)
	}
	if len(state.Conversation) != 1 {
		t.Fatalf("expected 1 turn, got %d", len(state.Conversation))
	}
	if state.Conversation[0].Role != RoleUser || state.Conversation[0].Content != "hello" {
		t.Errorf("unexpected turn: %+v", state.Conversation[0])
	}
}

func TestReduceAppendUserBlank(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"spaces", "   "},
		{"tabs and newlines", "\t\n "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := State{}
			next, err := Reduce(state, AppendUser{Text: tt.text})
			if !errors.Is(err, ErrBlankMessage) {
				t.Fatalf("expected ErrBlankMessage, got %v", err)
			}
			if len(next.Conversation) != 0 {
				t.Errorf("blank input must not append a turn")
			}
		})
	}
}

func TestReduceStreamingLifecycle(t *testing.T) {
	state := State{}
	var err error

	state, err = Reduce(state, AppendUser{Text: "hello"})
	if err != nil {
		t.Fatal(err)
	}
	state, err = Reduce(state, BeginAssistant{})
	if err != nil {
		t.Fatal(err)
	}
	if got := state.Conversation[1]; got.Role != RoleAssistant || got.Content != "" {
		t.Fatalf("placeholder should be an empty assistant turn, got %+v", got)
	}

	// Each chunk replaces the placeholder content wholesale.
	for _, acc := range []string{"He", "Hello", "Hello there"} {
		state, err = Reduce(state, SetStreamText{Text: acc})
		if err != nil {
			t.Fatal(err)
		}
		if got := state.Conversation[1].Content; got != acc {
			t.Fatalf("expected content %q, got %q", acc, got)
		}
	}

	if len(state.Conversation) != 2 {
		t.Errorf("streaming must not grow the conversation, got %d turns", len(state.Conversation))
	}
}

func TestReduceSetStreamTextWithoutPlaceholder(t *testing.T) {
	state := State{Conversation: Conversation{{Role: RoleUser, Content: "hi"}}}

	_, err := Reduce(state, SetStreamText{Text: "x"})
	if !errors.Is(err, ErrNoStreamingTurn) {
		t.Fatalf("expected ErrNoStreamingTurn, got %v", err)
	}

	_, err = Reduce(State{}, SetStreamText{Text: "x"})
	if !errors.Is(err, ErrNoStreamingTurn) {
		t.Fatalf("expected ErrNoStreamingTurn on empty conversation, got %v", err)
	}
}

func TestReduceIsPure(t *testing.T) {
	orig := State{Conversation: Conversation{
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "partial"},
	}}
	snapshot := orig.Conversation.Clone()

	if _, err := Reduce(orig, SetStreamText{Text: "replaced"}); err != nil {
		t.Fatal(err)
	}
	if _, err := Reduce(orig, AppendUser{Text: "more"}); err != nil {
		t.Fatal(err)
	}
	if _, err := Reduce(orig, ClearConversation{}); err != nil {
		t.Fatal(err)
	}

	for i := range snapshot {
		if orig.Conversation[i] != snapshot[i] {
			t.Fatalf("input state mutated at turn %d: %+v", i, orig.Conversation[i])
		}
	}
}

func TestReduceClearConversationKeepsSystemPrompt(t *testing.T) {
	state := State{
		Conversation: Conversation{{Role: RoleUser, Content: "hi"}},
		SystemPrompt: "be terse",
	}

	state, err := Reduce(state, ClearConversation{})
	if err != nil {
		t.Fatal(err)
	}
	if len(state.Conversation) != 0 {
		t.Error("conversation not cleared")
	}
	if state.SystemPrompt != "be terse" {
		t.Error("system prompt must survive a conversation clear")
	}
}

func TestReduceSystemPrompt(t *testing.T) {
	state := State{}

	state, err := Reduce(state, SetSystemPrompt{Text: "be terse"})
	if err != nil {
		t.Fatal(err)
	}
	if state.SystemPrompt != "be terse" {
		t.Fatalf("unexpected prompt %q", state.SystemPrompt)
	}

	state, err = Reduce(state, ClearSystemPrompt{})
	if err != nil {
		t.Fatal(err)
	}
	if state.SystemPrompt != "" {
		t.Errorf("prompt not cleared: %q", state.SystemPrompt)
	}
}
