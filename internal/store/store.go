// Package store is the client's durable local storage: a small SQLite
// database holding two independent slots, one for the serialized
// conversation and one for the system-prompt override. It mirrors the
// fixed-key key-value contract of the browser client it replaces.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/rickyrobinett/basic-chat/internal/chat"
)

// Slot keys, carried over from the original client's localStorage keys.
const (
	slotConversation = "chatMessages"
	slotSystemPrompt = "systemMessage"
)

const schema = `
CREATE TABLE IF NOT EXISTS slots (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// Store persists client state. Writes are never concurrent with each other:
// the chat session runs a single submission at a time and persists
// synchronously after each state transition.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// DefaultPath returns the per-installation database location under the
// user config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "basic-chat", "chat.db"), nil
}

// Open opens (creating if needed) the store at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Load reads both slots into a fresh State. A missing slot yields the zero
// value. A conversation slot that fails to parse is treated as corrupt:
// both slots are discarded and an empty state returned, rather than
// trusting the data partially.
func (s *Store) Load() (chat.State, error) {
	var state chat.State

	raw, ok, err := s.get(slotConversation)
	if err != nil {
		return state, err
	}
	if ok {
		var conv chat.Conversation
		if err := json.Unmarshal([]byte(raw), &conv); err != nil {
			s.logger.Warn("stored conversation is corrupt, resetting", "error", err)
			if err := s.reset(); err != nil {
				return chat.State{}, err
			}
			return chat.State{}, nil
		}
		state.Conversation = conv
	}

	prompt, ok, err := s.get(slotSystemPrompt)
	if err != nil {
		return state, err
	}
	if ok {
		state.SystemPrompt = prompt
	}

	return state, nil
}

// SaveConversation overwrites the conversation slot with the full
// serialized conversation. Saving an empty conversation is rejected:
// the only path that erases the slot is an explicit clear.
func (s *Store) SaveConversation(conv chat.Conversation) error {
	if len(conv) == 0 {
		return errors.New("refusing to save empty conversation; use DeleteConversation")
	}
	raw, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("serialize conversation: %w", err)
	}
	return s.put(slotConversation, string(raw))
}

// DeleteConversation removes the conversation slot.
func (s *Store) DeleteConversation() error {
	return s.delete(slotConversation)
}

// SaveSystemPrompt overwrites the system-prompt slot.
func (s *Store) SaveSystemPrompt(prompt string) error {
	if prompt == "" {
		return errors.New("refusing to save empty system prompt; use DeleteSystemPrompt")
	}
	return s.put(slotSystemPrompt, prompt)
}

// DeleteSystemPrompt removes the system-prompt slot.
func (s *Store) DeleteSystemPrompt() error {
	return s.delete(slotSystemPrompt)
}

// reset clears both slots. Used for corrupt-state recovery.
func (s *Store) reset() error {
	if err := s.delete(slotConversation); err != nil {
		return err
	}
	return s.delete(slotSystemPrompt)
}

func (s *Store) get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM slots WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read slot %s: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) put(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO slots (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("write slot %s: %w", key, err)
	}
	return nil
}

func (s *Store) delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM slots WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete slot %s: %w", key, err)
	}
	return nil
}
