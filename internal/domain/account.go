/**
 * @description
 * This file defines the core domain models for the agent service. An Account
 * represents a tracked area of work or life managed by its own conversational
 * agent. The account moves through a small lifecycle: it is created in the
 * 'initializing' state, becomes 'active' once the setup conversation has
 * produced a durable system prompt and an initial state summary, and can be
 * archived and reactivated from there.
 */
package domain

import (
	"time"

	"github.com/google/uuid"
)

// AccountStatus enumerates the lifecycle states of an account.
type AccountStatus string

const (
	StatusInitializing AccountStatus = "initializing"
	StatusActive       AccountStatus = "active"
	StatusArchived     AccountStatus = "archived"
)

// IsValid reports whether s is one of the known lifecycle states.
func (s AccountStatus) IsValid() bool {
	switch s {
	case StatusInitializing, StatusActive, StatusArchived:
		return true
	}
	return false
}

// Account represents a tracked area of work/life with its own agent.
//
// SystemPrompt and StateSummary are nil while the account is initializing;
// both are populated together, exactly once, when setup completes.
// ReminderIntervalDays controls the proactive nudge cadence; nil disables it.
type Account struct {
	ID                   uuid.UUID     `json:"id"`
	Name                 string        `json:"name"`
	Status               AccountStatus `json:"status"`
	LLMProvider          string        `json:"llm_provider"`
	LLMModel             string        `json:"llm_model"`
	SystemPrompt         *string       `json:"system_prompt"`
	StateSummary         *string       `json:"state_summary"`
	ReminderIntervalDays *int          `json:"reminder_interval_days"`
	LastReminderAt       *time.Time    `json:"last_reminder_at"`
	CreatedAt            time.Time     `json:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at"`
}

// CreateAccountInput is the payload accepted when creating a new account.
// Missing provider/model fall back to the configured defaults.
type CreateAccountInput struct {
	Name        string `json:"name"`
	LLMProvider string `json:"llm_provider"`
	LLMModel    string `json:"llm_model"`
}

// UpdateAccountInput carries the allow-listed fields a client may patch.
// Pointer fields distinguish "absent" from "set to zero value".
type UpdateAccountInput struct {
	Name                 *string `json:"name"`
	LLMProvider          *string `json:"llm_provider"`
	LLMModel             *string `json:"llm_model"`
	ReminderIntervalDays *int    `json:"reminder_interval_days"`
}

// AccountWithMessages bundles an account with its conversation history.
type AccountWithMessages struct {
	Account
	Messages []Message `json:"messages"`
}

// AccountSummary is the dashboard listing shape: the account plus its most
// recent message, if any.
type AccountSummary struct {
	Account
	LastMessage *Message `json:"last_message,omitempty"`
}
