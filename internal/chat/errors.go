package chat

import "errors"

var (
	// ErrBlankMessage is returned when a submitted user message is empty or
	// whitespace-only. No request is issued for blank input.
	ErrBlankMessage = errors.New("message is blank")

	// ErrNoStreamingTurn is returned when streamed text is applied to a
	// conversation whose trailing turn is not an assistant placeholder.
	ErrNoStreamingTurn = errors.New("conversation has no assistant turn to stream into")
)
