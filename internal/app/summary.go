/**
 * @description
 * This file implements the summary synchronizer. After each completed
 * exchange on an active account, the follow-up worker calls SyncSummary to
 * regenerate the rolling state summary from a bounded window of recent
 * conversation.
 *
 * The result unconditionally overwrites the stored summary; there is no
 * merge or diff step. Summaries are regenerated wholesale each time, trading
 * precision for robustness against drift.
 */
package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/SidhartK/per-account-agent/internal/domain"
	"github.com/SidhartK/per-account-agent/pkg/llm"
)

// SyncSummary recomputes the state summary for an active account and returns
// the new summary text. An empty message window is a no-op that returns the
// prior summary unchanged without invoking the model. Requests for accounts
// that are not active are rejected with ErrInvalidState.
func (s *Service) SyncSummary(ctx context.Context, accountID uuid.UUID) (string, error) {
	account, err := s.accounts.FindAccountByID(ctx, accountID)
	if err != nil {
		return "", err
	}
	if account.Status != domain.StatusActive {
		return "", fmt.Errorf("%w: summary sync requires an active account", ErrInvalidState)
	}

	recent, err := s.messages.ListRecentMessages(ctx, accountID, summaryWindowSize)
	if err != nil {
		return "", err
	}
	if len(recent) == 0 {
		if account.StateSummary != nil {
			return *account.StateSummary, nil
		}
		return "", nil
	}

	// The window arrives newest-first; the prompt wants chronological order.
	for i, j := 0, len(recent)-1; i < j; i, j = i+1, j-1 {
		recent[i], recent[j] = recent[j], recent[i]
	}

	handle, err := s.registry.Resolve(account.LLMProvider, account.LLMModel)
	if err != nil {
		return "", err
	}

	prompt := BuildSummaryUpdatePrompt(account.StateSummary, recent)
	summary, err := handle.Complete(ctx, "", []llm.ChatMessage{{Role: "user", Content: prompt}})
	if err != nil {
		return "", fmt.Errorf("%w: summary regeneration: %v", ErrModelBackend, err)
	}

	if err := s.accounts.SetStateSummary(ctx, accountID, summary); err != nil {
		return "", err
	}
	return summary, nil
}
