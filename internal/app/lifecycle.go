/**
 * @description
 * This file implements the account lifecycle controller: the mode decision
 * for the chat path, the single transition that activates an account once
 * setup completes, and the archive toggle.
 *
 * Lifecycle invariants enforced here:
 * - An initializing account has neither a system prompt nor a state summary;
 *   both are set together, exactly once, at the initializing→active
 *   transition. No other path populates the system prompt.
 * - archived is reachable only from active and is reversible back to active.
 * - No operation moves an account across more than one state at a time.
 */
package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/SidhartK/per-account-agent/internal/domain"
)

// Mode selects which instruction set drives the conversation.
type Mode string

const (
	ModeInitializing Mode = "initializing"
	ModeActive       Mode = "active"
)

// DetermineMode maps an account's lifecycle state to its conversation mode.
// Archived accounts must never reach this path; callers reject them first.
func DetermineMode(status domain.AccountStatus) Mode {
	if status == domain.StatusInitializing {
		return ModeInitializing
	}
	return ModeActive
}

// ApplySetupCompletion transitions an account from initializing to active
// using the fields extracted from the model's setup payload.
//
// Both the system prompt and the state summary must be present; a partial
// extraction must never cause a partial transition, so anything short of a
// complete payload is a no-op and the account stays initializing. The check
// against the current status also makes the call idempotent-safe: once the
// account is active, a later incomplete extraction can neither revert it nor
// null out its system prompt.
func (s *Service) ApplySetupCompletion(ctx context.Context, accountID uuid.UUID, extracted Extraction) error {
	if extracted.Status != ExtractionComplete {
		return nil
	}

	account, err := s.accounts.FindAccountByID(ctx, accountID)
	if err != nil {
		return err
	}
	if account.Status != domain.StatusInitializing {
		return nil
	}

	systemPrompt := extracted.SystemPrompt
	stateSummary := extracted.StateSummary
	account.Status = domain.StatusActive
	account.SystemPrompt = &systemPrompt
	account.StateSummary = &stateSummary
	if extracted.AccountName != "" {
		account.Name = extracted.AccountName
	}

	if err := s.accounts.UpdateAccount(ctx, account); err != nil {
		return fmt.Errorf("failed to activate account: %w", err)
	}
	s.logger.Info("account setup completed", "account_id", accountID, "name", account.Name)
	return nil
}

// ToggleArchive flips an account between active and archived. Any other
// source state is an error. The reminder cadence survives both directions so
// reactivation resumes the same schedule.
func (s *Service) ToggleArchive(ctx context.Context, accountID uuid.UUID) (*domain.Account, error) {
	account, err := s.accounts.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	switch account.Status {
	case domain.StatusActive:
		account.Status = domain.StatusArchived
	case domain.StatusArchived:
		account.Status = domain.StatusActive
	default:
		return nil, fmt.Errorf("%w: cannot archive an account in state %q", ErrInvalidState, account.Status)
	}

	if err := s.accounts.UpdateAccount(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}
