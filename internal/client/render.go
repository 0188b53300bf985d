package client

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/rickyrobinett/basic-chat/internal/chat"
)

// Renderer prints the conversation to a terminal. It only ever appends:
// streamed text is written as it arrives, so no screen management is
// needed.
type Renderer struct {
	out io.Writer

	userLabel      lipgloss.Style
	assistantLabel lipgloss.Style
	errStyle       lipgloss.Style
	hintStyle      lipgloss.Style
}

// NewRenderer creates a renderer writing to out.
func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{
		out:            out,
		userLabel:      lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Bold(true),
		assistantLabel: lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		errStyle:       lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		hintStyle:      lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// History re-renders a restored conversation. System turns are never
// rendered: they are steering instructions, not chat bubbles.
func (r *Renderer) History(conv chat.Conversation) {
	for _, turn := range conv {
		switch turn.Role {
		case chat.RoleUser:
			fmt.Fprintf(r.out, "%s %s\n", r.userLabel.Render("you>"), turn.Content)
		case chat.RoleAssistant:
			fmt.Fprintf(r.out, "%s %s\n", r.assistantLabel.Render("assistant>"), turn.Content)
		}
	}
}

// AssistantStart prints the assistant label a streamed reply will follow.
func (r *Renderer) AssistantStart() {
	fmt.Fprintf(r.out, "%s ", r.assistantLabel.Render("assistant>"))
}

// Delta writes a stream chunk, unstyled and unbuffered.
func (r *Renderer) Delta(text string) {
	fmt.Fprint(r.out, text)
}

// StreamEnd terminates the streamed line.
func (r *Renderer) StreamEnd() {
	fmt.Fprintln(r.out)
}

// Error surfaces a failed submission as a visible error line.
func (r *Renderer) Error(err error) {
	fmt.Fprintf(r.out, "%s\n", r.errStyle.Render(fmt.Sprintf("error: %v", err)))
}

// Hint prints dimmed auxiliary output (command feedback, startup notes).
func (r *Renderer) Hint(msg string) {
	fmt.Fprintf(r.out, "%s\n", r.hintStyle.Render(msg))
}

// PromptLabel returns the styled input prompt.
func (r *Renderer) PromptLabel() string {
	return r.userLabel.Render("you>") + " "
}
