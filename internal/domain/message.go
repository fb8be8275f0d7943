/**
 * @description
 * This file defines the Message model and the inbound turn shapes accepted by
 * the chat endpoint. Messages are append-only and ordered solely by creation
 * time; the service never updates or deletes individual messages.
 */
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MessageRole enumerates who authored a message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

// Message is a single conversation turn persisted for an account.
type Message struct {
	ID        uuid.UUID   `json:"id"`
	AccountID uuid.UUID   `json:"account_id"`
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
}

// TurnPart is one segment of a multi-part rich message from the transport
// layer. Only text-typed parts survive flattening.
type TurnPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Turn is an inbound conversation turn as sent by the client. It may carry
// either structured parts or a plain content string.
type Turn struct {
	Role    MessageRole `json:"role"`
	Parts   []TurnPart  `json:"parts,omitempty"`
	Content string      `json:"content,omitempty"`
}

// FlattenText concatenates the turn's text-typed parts in order, falling back
// to the plain content field when no parts are present. Non-text parts are
// dropped.
func (t Turn) FlattenText() string {
	if len(t.Parts) == 0 {
		return t.Content
	}
	var b strings.Builder
	for _, p := range t.Parts {
		if p.Type == "text" {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}
