package chat

// State is the client's full application state: the conversation plus the
// optional system-prompt override. The override lives outside the
// conversation so it survives a conversation clear; the relay prepends it
// at request time.
type State struct {
	Conversation Conversation
	SystemPrompt string
}

// Action is a state transition applied by Reduce.
type Action interface {
	isAction()
}

// AppendUser appends a user turn carrying Text.
type AppendUser struct {
	Text string
}

// BeginAssistant appends an empty assistant placeholder turn. The
// placeholder is the streaming target and is never sent to the relay.
type BeginAssistant struct{}

// SetStreamText replaces the trailing assistant turn's content wholesale
// with the accumulated stream text. Always a full replace, never an append,
// so a re-applied action is idempotent.
type SetStreamText struct {
	Text string
}

// ClearConversation empties the conversation. The system prompt override
// is untouched.
type ClearConversation struct{}

// SetSystemPrompt sets the system-prompt override.
type SetSystemPrompt struct {
	Text string
}

// ClearSystemPrompt removes the system-prompt override.
type ClearSystemPrompt struct{}

func (AppendUser) isAction()        {}
func (BeginAssistant) isAction()    {}
func (SetStreamText) isAction()     {}
func (ClearConversation) isAction() {}
func (SetSystemPrompt) isAction()   {}
func (ClearSystemPrompt) isAction() {}

// Reduce applies action to state and returns the resulting state. It is
// pure: the input state is never mutated, so callers may hold references
// to prior states (and their conversations) safely.
func Reduce(state State, action Action) (State, error) {
	switch a := action.(type) {
	case AppendUser:
		if IsBlank(a.Text) {
			return state, ErrBlankMessage
		}
		state.Conversation = append(state.Conversation.Clone(), Turn{Role: RoleUser, Content: a.Text})
		return state, nil

	case BeginAssistant:
		state.Conversation = append(state.Conversation.Clone(), Turn{Role: RoleAssistant})
		return state, nil

	case SetStreamText:
		if !state.Conversation.LastIsAssistant() {
			return state, ErrNoStreamingTurn
		}
		conv := state.Conversation.Clone()
		conv[len(conv)-1].Content = a.Text
		state.Conversation = conv
		return state, nil

	case ClearConversation:
		state.Conversation = nil
		return state, nil

	case SetSystemPrompt:
		state.SystemPrompt = a.Text
		return state, nil

	case ClearSystemPrompt:
		state.SystemPrompt = ""
		return state, nil

	default:
		return state, nil
	}
}
