/**
 * @description
 * This file defines the event payloads published to RabbitMQ. After a
 * conversational reply has been delivered, the chat path enqueues a follow-up
 * job here instead of doing the work inline, so failures and retries are
 * decoupled from the request lifecycle.
 */
package domain

import (
	"time"

	"github.com/google/uuid"
)

// FollowUpKind selects which post-reply job the worker should run.
type FollowUpKind string

const (
	// FollowUpSetupCheck asks the worker to scan the latest assistant reply
	// for a completed setup payload and, if found, activate the account.
	FollowUpSetupCheck FollowUpKind = "setup_check"

	// FollowUpSummarySync asks the worker to regenerate the account's
	// rolling state summary from recent conversation.
	FollowUpSummarySync FollowUpKind = "summary_sync"
)

// FollowUpJob is the queue payload for post-reply processing.
type FollowUpJob struct {
	AccountID uuid.UUID    `json:"account_id"`
	Kind      FollowUpKind `json:"kind"`
	Timestamp time.Time    `json:"timestamp"`
}

// ReminderOutcome records what happened for one account during a reminder
// sweep. The per-account Error string is the sole audit trail for failed
// nudges; a failed reminder is simply reconsidered on the next sweep.
type ReminderOutcome struct {
	AccountID uuid.UUID `json:"account_id"`
	Triggered bool      `json:"triggered"`
	Error     string    `json:"error,omitempty"`
}

// ReminderBatchResult is returned by the cron entry point.
type ReminderBatchResult struct {
	Processed int               `json:"processed"`
	Results   []ReminderOutcome `json:"results"`
}
