/**
 * @description
 * This file implements the next-action advisor: given an account's current
 * state summary, derive 1-3 prioritized, concretely actionable suggestions.
 * The advisor output is appended to the conversation as an assistant message
 * under a fixed heading so it stands apart from ordinary turns; the reminder
 * scheduler uses a distinct heading for its nudges.
 */
package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/SidhartK/per-account-agent/internal/domain"
	"github.com/SidhartK/per-account-agent/pkg/llm"
)

const (
	// NextActionsHeading prefixes on-demand advisor output.
	NextActionsHeading = "**Suggested Next Actions**"

	// ReminderHeading prefixes scheduler-originated advisor output.
	ReminderHeading = "**Scheduled Reminder — Suggested Next Actions**"
)

// noSummaryNextAction is the fixed suggestion for accounts that have no
// state summary yet. It is returned without a model call.
const noSummaryNextAction = "This account has no state summary yet. The most important next action is to have an initial conversation to set up the account context."

// nextActionsText derives the suggestion text for an account. A nil or empty
// state summary short-circuits to the fixed setup suggestion.
func (s *Service) nextActionsText(ctx context.Context, account *domain.Account) (string, error) {
	if account.StateSummary == nil || *account.StateSummary == "" {
		return noSummaryNextAction, nil
	}

	handle, err := s.registry.Resolve(account.LLMProvider, account.LLMModel)
	if err != nil {
		return "", err
	}

	prompt := BuildNextActionsPrompt(*account.StateSummary)
	text, err := handle.Complete(ctx, "", []llm.ChatMessage{{Role: "user", Content: prompt}})
	if err != nil {
		return "", fmt.Errorf("%w: next-action derivation: %v", ErrModelBackend, err)
	}
	return text, nil
}

// SuggestNextActions derives next actions for an account on demand and
// appends them to the conversation under the advisor heading.
func (s *Service) SuggestNextActions(ctx context.Context, accountID uuid.UUID) (string, error) {
	account, err := s.accounts.FindAccountByID(ctx, accountID)
	if err != nil {
		return "", err
	}
	if account.Status == domain.StatusArchived {
		return "", fmt.Errorf("%w: archived accounts do not accept new suggestions", ErrInvalidState)
	}

	text, err := s.nextActionsText(ctx, account)
	if err != nil {
		return "", err
	}

	content := NextActionsHeading + "\n\n" + text
	if _, err := s.messages.AppendMessage(ctx, accountID, domain.RoleAssistant, content); err != nil {
		return "", fmt.Errorf("failed to persist next actions: %w", err)
	}
	return text, nil
}
