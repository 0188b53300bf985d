// Package client owns the chat client's conversation state and the
// submit/stream lifecycle against the relay service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rickyrobinett/basic-chat/internal/chat"
)

// Store is the durable storage the session mirrors its state into.
type Store interface {
	Load() (chat.State, error)
	SaveConversation(chat.Conversation) error
	DeleteConversation() error
	SaveSystemPrompt(string) error
	DeleteSystemPrompt() error
}

// Hooks are rendering callbacks. All of them are optional and are invoked
// from the goroutine driving the session, never concurrently.
type Hooks struct {
	// History is called after Restore with the reloaded conversation.
	History func(chat.Conversation)
	// Delta is called for each received stream chunk, in arrival order.
	Delta func(string)
	// StreamEnd is called once a reply stream finishes cleanly.
	StreamEnd func()
}

// Session drives one conversation. A single submission is in flight at a
// time by construction: Submit blocks until the reply stream is drained,
// and the REPL does not read further input until then.
type Session struct {
	relayURL string
	http     *http.Client
	store    Store
	hooks    Hooks
	state    chat.State
	logger   *slog.Logger
}

// NewSession creates a session talking to the relay at relayURL.
// httpClient may be nil; the default carries no overall timeout because
// reply streams are long-lived.
func NewSession(relayURL string, store Store, httpClient *http.Client, hooks Hooks, logger *slog.Logger) *Session {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Session{
		relayURL: strings.TrimSuffix(relayURL, "/"),
		http:     httpClient,
		store:    store,
		hooks:    hooks,
		logger:   logger,
	}
}

// Restore loads the persisted state. Corrupt durable state has already
// been discarded by the store; whatever comes back is trustworthy.
func (s *Session) Restore() error {
	state, err := s.store.Load()
	if err != nil {
		return fmt.Errorf("load persisted state: %w", err)
	}
	s.state = state
	if s.hooks.History != nil && len(state.Conversation) > 0 {
		s.hooks.History(state.Conversation)
	}
	return nil
}

// State returns the current application state.
func (s *Session) State() chat.State {
	return s.state
}

// Submit sends userText as a new user turn and streams the assistant reply
// into a placeholder turn, re-rendering after every chunk. On failure the
// placeholder keeps whatever partial text had accumulated and the error is
// returned for the caller to surface; the session remains usable.
func (s *Session) Submit(ctx context.Context, userText string) error {
	if err := s.dispatch(chat.AppendUser{Text: userText}); err != nil {
		return err
	}

	// History as it stands now, before the placeholder: the placeholder is
	// never part of a request payload.
	history := s.state.Conversation.Clone()

	if err := s.dispatch(chat.BeginAssistant{}); err != nil {
		return err
	}

	req := chat.Request{Messages: history}
	if s.state.SystemPrompt != "" {
		req.Config = &chat.RequestConfig{SystemMessage: s.state.SystemPrompt}
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.relayURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("send chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("relay returned %s", resp.Status)
	}

	// Consume the reply as a lazy sequence of chunks. The channel is fed by
	// a reader goroutine and honors ctx, which is the session's only
	// cancellation point once a request is in flight.
	var acc strings.Builder
	for chunk := range readChunks(ctx, resp.Body) {
		if chunk.err != nil {
			return fmt.Errorf("read reply stream: %w", chunk.err)
		}
		acc.Write(chunk.data)
		// Always a wholesale replace with the up-to-date accumulator.
		if err := s.dispatch(chat.SetStreamText{Text: acc.String()}); err != nil {
			return err
		}
		if s.hooks.Delta != nil {
			s.hooks.Delta(string(chunk.data))
		}
	}

	if s.hooks.StreamEnd != nil {
		s.hooks.StreamEnd()
	}
	return nil
}

// Clear empties the conversation and removes its durable slot. The system
// prompt override survives.
func (s *Session) Clear() error {
	return s.dispatch(chat.ClearConversation{})
}

// SetSystemPrompt updates the override. A blank prompt clears it: the
// delete-on-clear rule applies uniformly to both durable slots.
func (s *Session) SetSystemPrompt(prompt string) error {
	if chat.IsBlank(prompt) {
		return s.dispatch(chat.ClearSystemPrompt{})
	}
	return s.dispatch(chat.SetSystemPrompt{Text: prompt})
}

// dispatch reduces the action into the state and runs the persistence
// subscriber. Persistence failures are logged, not propagated: losing a
// mirror write must not break the live conversation.
func (s *Session) dispatch(action chat.Action) error {
	prev := s.state
	next, err := chat.Reduce(prev, action)
	if err != nil {
		return err
	}
	s.state = next
	s.persist(prev, next, action)
	return nil
}

// persist mirrors the state transition into durable storage. The rule is
// uniform for both slots: overwrite on non-empty, delete on explicit clear.
func (s *Session) persist(prev, next chat.State, action chat.Action) {
	switch action.(type) {
	case chat.AppendUser, chat.BeginAssistant, chat.SetStreamText:
		if len(next.Conversation) > 0 {
			if err := s.store.SaveConversation(next.Conversation); err != nil {
				s.logger.Warn("persist conversation failed", "error", err)
			}
		}
	case chat.ClearConversation:
		if len(prev.Conversation) > 0 {
			if err := s.store.DeleteConversation(); err != nil {
				s.logger.Warn("delete conversation slot failed", "error", err)
			}
		}
	case chat.SetSystemPrompt:
		if next.SystemPrompt != "" {
			if err := s.store.SaveSystemPrompt(next.SystemPrompt); err != nil {
				s.logger.Warn("persist system prompt failed", "error", err)
			}
		}
	case chat.ClearSystemPrompt:
		if err := s.store.DeleteSystemPrompt(); err != nil {
			s.logger.Warn("delete system prompt slot failed", "error", err)
		}
	}
}

// chunk is one read from the reply stream.
type chunk struct {
	data []byte
	err  error
}

// readChunks turns r into a finite, non-restartable sequence of chunks.
// The channel closes when the stream ends; a read failure is delivered as
// a final chunk carrying the error. Cancelling ctx stops the reader.
func readChunks(ctx context.Context, r io.Reader) <-chan chunk {
	out := make(chan chunk)
	go func() {
		defer close(out)
		buf := make([]byte, 4096)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				data := make([]byte, n)
				copy(data, buf[:n])
				select {
				case out <- chunk{data: data}:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				if err != io.EOF {
					select {
					case out <- chunk{err: err}:
					case <-ctx.Done():
					}
				}
				return
			}
		}
	}()
	return out
}
