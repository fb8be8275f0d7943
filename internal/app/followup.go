/**
 * @description
 * This file implements the follow-up job hand-off. The chat path enqueues a
 * job after each delivered reply instead of doing the work inline: the
 * conversational caller gets its answer first, and the worker runs the
 * setup-completion check or summary resync independently, under the
 * per-account lock, with its failures logged and swallowed.
 *
 * Two dispatchers exist: a RabbitMQ-backed one for deployments with a
 * broker, and an inline one that runs the worker on a goroutine when no
 * broker is configured (and in tests).
 */
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/SidhartK/per-account-agent/internal/domain"
	"github.com/SidhartK/per-account-agent/pkg/rabbitmq"
)

// Routing keys for follow-up jobs on the conversation events exchange.
const (
	RoutingKeySetupCheck  = "followup.setup_check"
	RoutingKeySummarySync = "followup.summary_sync"
)

// FollowUpQueueName is the durable queue the worker consumes.
const FollowUpQueueName = "agent_service_followups"

// FollowUpDispatcher hands a follow-up job off for asynchronous processing.
type FollowUpDispatcher interface {
	Dispatch(ctx context.Context, job domain.FollowUpJob) error
}

// QueueDispatcher publishes follow-up jobs to RabbitMQ.
type QueueDispatcher struct {
	producer rabbitmq.Publisher
}

// NewQueueDispatcher creates a RabbitMQ-backed dispatcher.
func NewQueueDispatcher(producer rabbitmq.Publisher) *QueueDispatcher {
	return &QueueDispatcher{producer: producer}
}

// Dispatch publishes the job under its kind-specific routing key.
func (d *QueueDispatcher) Dispatch(ctx context.Context, job domain.FollowUpJob) error {
	routingKey, err := routingKeyForKind(job.Kind)
	if err != nil {
		return err
	}
	return d.producer.Publish(ctx, rabbitmq.ConversationEventsExchange, routingKey, job)
}

func routingKeyForKind(kind domain.FollowUpKind) (string, error) {
	switch kind {
	case domain.FollowUpSetupCheck:
		return RoutingKeySetupCheck, nil
	case domain.FollowUpSummarySync:
		return RoutingKeySummarySync, nil
	}
	return "", fmt.Errorf("unknown follow-up kind %q", kind)
}

// Worker consumes follow-up jobs and runs them against the service.
type Worker struct {
	service *Service
	logger  *slog.Logger
}

// NewWorker creates a follow-up worker.
func NewWorker(service *Service, logger *slog.Logger) *Worker {
	return &Worker{service: service, logger: logger}
}

// Handle runs one follow-up job under the per-account lock.
func (w *Worker) Handle(ctx context.Context, job domain.FollowUpJob) error {
	release, err := w.service.locker.Acquire(ctx, job.AccountID)
	if err != nil {
		return fmt.Errorf("failed to lock account %s: %w", job.AccountID, err)
	}
	defer release()

	switch job.Kind {
	case domain.FollowUpSetupCheck:
		return w.runSetupCheck(ctx, job)
	case domain.FollowUpSummarySync:
		_, err := w.service.SyncSummary(ctx, job.AccountID)
		return err
	}
	return fmt.Errorf("unknown follow-up kind %q", job.Kind)
}

// runSetupCheck scans the newest assistant reply for a completed setup
// payload. Nothing to do if the account already left initializing or the
// reply carries no (or an incomplete) payload; the conversation simply
// continues.
func (w *Worker) runSetupCheck(ctx context.Context, job domain.FollowUpJob) error {
	account, err := w.service.accounts.FindAccountByID(ctx, job.AccountID)
	if err != nil {
		return err
	}
	if account.Status != domain.StatusInitializing {
		return nil
	}

	latest, err := w.service.messages.LatestMessage(ctx, job.AccountID)
	if err != nil {
		return err
	}
	if latest == nil || latest.Role != domain.RoleAssistant {
		return nil
	}

	extracted := ExtractSetupPayload(latest.Content)
	return w.service.ApplySetupCompletion(ctx, job.AccountID, extracted)
}

// Bindings maps routing keys to queue handlers for the RabbitMQ consumer.
// Handlers always acknowledge: a follow-up failure is logged and dropped
// rather than re-queued, because the next exchange re-derives the same work.
func (w *Worker) Bindings() map[string]func([]byte) bool {
	handle := func(body []byte) bool {
		var job domain.FollowUpJob
		if err := json.Unmarshal(body, &job); err != nil {
			w.logger.Error("failed to decode follow-up job", "error", err)
			return true
		}
		if err := w.Handle(context.Background(), job); err != nil {
			w.logger.Error("follow-up job failed", "account_id", job.AccountID, "kind", job.Kind, "error", err)
		}
		return true
	}
	return map[string]func([]byte) bool{
		RoutingKeySetupCheck:  handle,
		RoutingKeySummarySync: handle,
	}
}

// InlineDispatcher runs follow-up jobs on a goroutine in the same process.
// Used when no broker is configured, and in tests via a synchronous variant.
type InlineDispatcher struct {
	worker *Worker
	logger *slog.Logger
}

// NewInlineDispatcher creates an in-process dispatcher.
func NewInlineDispatcher(worker *Worker, logger *slog.Logger) *InlineDispatcher {
	return &InlineDispatcher{worker: worker, logger: logger}
}

// Dispatch hands the job to the worker on a fresh goroutine. Errors are
// logged, never surfaced to the caller.
func (d *InlineDispatcher) Dispatch(_ context.Context, job domain.FollowUpJob) error {
	go func() {
		if err := d.worker.Handle(context.Background(), job); err != nil {
			d.logger.Error("follow-up job failed", "account_id", job.AccountID, "kind", job.Kind, "error", err)
		}
	}()
	return nil
}
