/**
 * @description
 * This file implements the reminder sweep: the batch that decides, per
 * active account with a configured cadence, whether a proactive nudge is due
 * and, if so, posts the advisor's suggestions into the conversation.
 *
 * Each account is processed independently. A model error or transient fault
 * for one account is recorded in its outcome and never aborts the rest of
 * the batch. The returned outcome list is the sole audit trail: there is no
 * persisted job queue or retry, so a missed or failed reminder is simply
 * reconsidered on the next sweep.
 */
package app

import (
	"context"
	"time"

	"github.com/SidhartK/per-account-agent/internal/domain"
)

// RunReminderSweep checks every eligible account against its cadence at the
// given instant. An account is due when now has reached
// (lastReminderAt ?? createdAt) + reminderIntervalDays. Due accounts get the
// advisor output appended under the reminder heading and their
// lastReminderAt stamped with the sweep time.
func (s *Service) RunReminderSweep(ctx context.Context, now time.Time) (domain.ReminderBatchResult, error) {
	candidates, err := s.accounts.ListReminderCandidates(ctx)
	if err != nil {
		return domain.ReminderBatchResult{}, err
	}

	results := make([]domain.ReminderOutcome, 0, len(candidates))
	for _, account := range candidates {
		if account.ReminderIntervalDays == nil {
			continue
		}

		last := account.CreatedAt
		if account.LastReminderAt != nil {
			last = *account.LastReminderAt
		}
		nextDue := last.Add(time.Duration(*account.ReminderIntervalDays) * 24 * time.Hour)

		if now.Before(nextDue) {
			results = append(results, domain.ReminderOutcome{AccountID: account.ID, Triggered: false})
			continue
		}

		results = append(results, s.fireReminder(ctx, account, now))
	}

	return domain.ReminderBatchResult{Processed: len(results), Results: results}, nil
}

// fireReminder performs one account's check-and-update under the per-account
// lock so a concurrent sweep or user-driven exchange cannot double-fire.
func (s *Service) fireReminder(ctx context.Context, account domain.Account, now time.Time) domain.ReminderOutcome {
	release, err := s.locker.Acquire(ctx, account.ID)
	if err != nil {
		s.logger.Warn("reminder skipped, account busy", "account_id", account.ID, "error", err)
		return domain.ReminderOutcome{AccountID: account.ID, Triggered: false, Error: err.Error()}
	}
	defer release()

	text, err := s.nextActionsText(ctx, &account)
	if err != nil {
		s.logger.Error("reminder generation failed", "account_id", account.ID, "error", err)
		return domain.ReminderOutcome{AccountID: account.ID, Triggered: false, Error: err.Error()}
	}

	content := ReminderHeading + "\n\n" + text
	if _, err := s.messages.AppendMessage(ctx, account.ID, domain.RoleAssistant, content); err != nil {
		s.logger.Error("reminder persistence failed", "account_id", account.ID, "error", err)
		return domain.ReminderOutcome{AccountID: account.ID, Triggered: false, Error: err.Error()}
	}

	if err := s.accounts.SetLastReminderAt(ctx, account.ID, now); err != nil {
		s.logger.Error("failed to record reminder time", "account_id", account.ID, "error", err)
		return domain.ReminderOutcome{AccountID: account.ID, Triggered: true, Error: err.Error()}
	}

	return domain.ReminderOutcome{AccountID: account.ID, Triggered: true}
}
