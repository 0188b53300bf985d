package chat

import "strings"

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Roles lists every role accepted on the wire.
var Roles = []Role{RoleUser, RoleAssistant, RoleSystem}

// Turn is a single role-tagged message in a conversation.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Conversation is an ordered list of turns. Order is the exact prompt
// history sent to the inference backend.
type Conversation []Turn

// Clone returns a copy that shares no backing storage with c.
func (c Conversation) Clone() Conversation {
	if c == nil {
		return nil
	}
	out := make(Conversation, len(c))
	copy(out, c)
	return out
}

// LastIsAssistant reports whether the trailing turn is an assistant turn.
func (c Conversation) LastIsAssistant() bool {
	return len(c) > 0 && c[len(c)-1].Role == RoleAssistant
}

// IsBlank reports whether s contains no visible characters.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
