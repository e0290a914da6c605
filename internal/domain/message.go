package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a chat message.
type Role string

const (
	// RoleUser marks a question typed (or sampled) by the user.
	RoleUser Role = "user"
	// RoleAssistant marks an answer or an error reported back to the user.
	RoleAssistant Role = "assistant"
)

// Message is one rendered entry of the chat history.
type Message struct {
	ID      uuid.UUID
	Role    Role
	Text    string
	Sources []string
	Model   string
	At      time.Time
}

// NewUserMessage creates a user message.
func NewUserMessage(text string) Message {
	return Message{ID: uuid.New(), Role: RoleUser, Text: text, At: time.Now()}
}

// NewAssistantMessage creates an assistant message tagged with sources.
func NewAssistantMessage(text string, sources []string, model string) Message {
	return Message{
		ID:      uuid.New(),
		Role:    RoleAssistant,
		Text:    text,
		Sources: sources,
		Model:   model,
		At:      time.Now(),
	}
}

// Avatar returns the glyph shown next to the message.
func (m Message) Avatar() string {
	if m.Role == RoleUser {
		return "👤"
	}
	return "🤖"
}

// ContextEntry is a retrieved passage shown in the context panel.
type ContextEntry struct {
	Source string
	Score  float64 // relevance in [0,1]
	Text   string
}

// Percent renders the score as a whole percentage, e.g. 0.87 -> "87%".
func (e ContextEntry) Percent() string {
	score := math.Max(0, math.Min(1, e.Score))
	return fmt.Sprintf("%d%%", int(math.Round(score*100)))
}
