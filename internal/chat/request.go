package chat

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// RequestConfig carries per-request options from the client.
type RequestConfig struct {
	SystemMessage string `json:"systemMessage,omitempty"`
}

// Request is the relay's wire format: the full conversation history plus
// optional config. An empty messages list is legal and forwarded as-is;
// whether that fails is the backend's call.
type Request struct {
	Messages []Turn         `json:"messages"`
	Config   *RequestConfig `json:"config,omitempty"`
}

// Validate checks each turn's role. Content is deliberately unconstrained:
// an in-flight placeholder may legally arrive with empty content as the
// sole trailing element.
func (t Turn) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Role,
			validation.Required,
			validation.In(RoleUser, RoleAssistant, RoleSystem),
		),
	)
}

// Validate validates the request. Message turns are validated
// individually; the list itself may be empty.
func (r Request) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Messages),
	)
}

// ForwardMessages returns the message list to hand to the backend: when a
// system message is configured a synthetic system turn is prepended,
// otherwise the messages are returned unchanged.
func (r Request) ForwardMessages() []Turn {
	if r.Config == nil || r.Config.SystemMessage == "" {
		return r.Messages
	}
	out := make([]Turn, 0, len(r.Messages)+1)
	out = append(out, Turn{Role: RoleSystem, Content: r.Config.SystemMessage})
	return append(out, r.Messages...)
}
