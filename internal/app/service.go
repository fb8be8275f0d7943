/**
 * @description
 * This file contains the core business logic for the agent service. The
 * `Service` struct orchestrates conversation ingestion and account
 * operations, coordinating between the repositories, the LLM registry, the
 * follow-up dispatcher, and the per-account lock.
 *
 * Key features:
 * - Implements the chat path: persist the user turn, invoke the model with
 *   mode-selected instructions, persist the reply, enqueue the follow-up.
 * - Implements account CRUD recovered from the dashboard surface.
 * - Maps lifecycle violations to ErrInvalidState so the API layer can
 *   reject them uniformly.
 *
 * @dependencies
 * - context, errors, fmt, log/slog, time: Standard Go libraries.
 * - github.com/google/uuid: For UUID handling.
 * - internal/domain, internal/store: For domain models and data access.
 * - pkg/llm: For model invocation.
 */
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/SidhartK/per-account-agent/internal/domain"
	"github.com/SidhartK/per-account-agent/internal/store"
	"github.com/SidhartK/per-account-agent/pkg/llm"
)

// ErrInvalidState is returned when an operation is attempted against an
// account in the wrong lifecycle state.
var ErrInvalidState = errors.New("account is in an invalid state for this operation")

// ErrInvalidInput is returned for client payloads that fail validation.
var ErrInvalidInput = errors.New("invalid input")

// ErrModelBackend wraps network or provider failures during a completion so
// the API layer can distinguish upstream faults from internal ones.
var ErrModelBackend = errors.New("model backend failure")

// summaryWindowSize bounds the recent-message window fed to the summary
// synchronizer.
const summaryWindowSize = 20

// Defaults carries the fallback model selection for new accounts.
type Defaults struct {
	Provider string
	Model    string
}

// Service provides the core business logic for accounts and conversations.
type Service struct {
	accounts   store.AccountRepository
	messages   store.MessageRepository
	registry   *llm.Registry
	dispatcher FollowUpDispatcher
	locker     AccountLocker
	logger     *slog.Logger
	defaults   Defaults
}

// NewService creates a new service instance. The follow-up dispatcher is
// attached afterwards via SetFollowUpDispatcher because the worker that
// backs the in-process dispatcher is itself built on top of the service.
func NewService(
	accounts store.AccountRepository,
	messages store.MessageRepository,
	registry *llm.Registry,
	locker AccountLocker,
	logger *slog.Logger,
	defaults Defaults,
) *Service {
	return &Service{
		accounts: accounts,
		messages: messages,
		registry: registry,
		locker:   locker,
		logger:   logger,
		defaults: defaults,
	}
}

// SetFollowUpDispatcher wires the post-reply job hand-off. Must be called
// during startup, before the service accepts chat traffic.
func (s *Service) SetFollowUpDispatcher(d FollowUpDispatcher) {
	s.dispatcher = d
}

// CreateAccount creates a new account in the initializing state. Missing
// name or model selection falls back to the configured defaults; an
// unregistered provider is rejected up front.
func (s *Service) CreateAccount(ctx context.Context, input domain.CreateAccountInput) (*domain.Account, error) {
	if input.Name == "" {
		input.Name = "New Account"
	}
	if input.LLMProvider == "" {
		input.LLMProvider = s.defaults.Provider
	}
	if input.LLMModel == "" {
		input.LLMModel = s.defaults.Model
	}
	if _, err := s.registry.Resolve(input.LLMProvider, input.LLMModel); err != nil {
		return nil, err
	}
	return s.accounts.CreateAccount(ctx, input, domain.StatusInitializing)
}

// ListAccounts returns accounts ordered by recent activity, optionally
// filtered by status, each paired with its most recent message.
func (s *Service) ListAccounts(ctx context.Context, status *domain.AccountStatus) ([]domain.AccountSummary, error) {
	if status != nil && !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *status)
	}
	accounts, err := s.accounts.ListAccounts(ctx, status)
	if err != nil {
		return nil, err
	}
	summaries := make([]domain.AccountSummary, 0, len(accounts))
	for _, a := range accounts {
		last, err := s.messages.LatestMessage(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, domain.AccountSummary{Account: a, LastMessage: last})
	}
	return summaries, nil
}

// GetAccountWithMessages returns an account and its full conversation
// history in chronological order.
func (s *Service) GetAccountWithMessages(ctx context.Context, id uuid.UUID) (*domain.AccountWithMessages, error) {
	account, err := s.accounts.FindAccountByID(ctx, id)
	if err != nil {
		return nil, err
	}
	messages, err := s.messages.ListMessages(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.AccountWithMessages{Account: *account, Messages: messages}, nil
}

// UpdateAccount patches the allow-listed mutable fields. The lifecycle
// fields (status, system prompt, state summary) are deliberately not
// patchable here: status moves only through the lifecycle operations and the
// system prompt is populated only by setup completion.
func (s *Service) UpdateAccount(ctx context.Context, id uuid.UUID, input domain.UpdateAccountInput) (*domain.Account, error) {
	account, err := s.accounts.FindAccountByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if account.Status == domain.StatusArchived {
		return nil, fmt.Errorf("%w: archived accounts only accept reactivation", ErrInvalidState)
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
		}
		account.Name = *input.Name
	}
	if input.LLMProvider != nil {
		account.LLMProvider = *input.LLMProvider
	}
	if input.LLMModel != nil {
		account.LLMModel = *input.LLMModel
	}
	if input.LLMProvider != nil || input.LLMModel != nil {
		if _, err := s.registry.Resolve(account.LLMProvider, account.LLMModel); err != nil {
			return nil, err
		}
	}
	if input.ReminderIntervalDays != nil {
		days := *input.ReminderIntervalDays
		if days <= 0 {
			// Zero or negative disables the cadence entirely.
			account.ReminderIntervalDays = nil
		} else {
			account.ReminderIntervalDays = &days
		}
	}

	if err := s.accounts.UpdateAccount(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// DeleteAccount removes an account and its messages. This is an
// administrative operation outside the account lifecycle.
func (s *Service) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	return s.accounts.DeleteAccount(ctx, id)
}

// PrepareChat verifies an account can accept a conversational turn: it must
// exist, must not be archived, and its model selection must resolve. Callers
// that stream the reply check this before committing response headers, so a
// rejection still surfaces as a proper status code.
func (s *Service) PrepareChat(ctx context.Context, accountID uuid.UUID) error {
	account, err := s.accounts.FindAccountByID(ctx, accountID)
	if err != nil {
		return err
	}
	if account.Status == domain.StatusArchived {
		return fmt.Errorf("%w: archived accounts do not accept messages", ErrInvalidState)
	}
	if _, err := s.registry.Resolve(account.LLMProvider, account.LLMModel); err != nil {
		return err
	}
	return nil
}

// Chat ingests a conversational turn and produces the assistant reply.
//
// The latest user turn is flattened to text and persisted before the model
// is invoked, so a model failure still leaves it durably recorded. The model
// receives the full persisted history plus mode-selected system
// instructions. Once the reply has fully streamed, it is persisted and the
// mode-specific follow-up job is enqueued; that hand-off never blocks or
// fails the caller.
func (s *Service) Chat(ctx context.Context, accountID uuid.UUID, turn domain.Turn, onDelta llm.StreamFunc) (*domain.Message, error) {
	account, err := s.accounts.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.Status == domain.StatusArchived {
		return nil, fmt.Errorf("%w: archived accounts do not accept messages", ErrInvalidState)
	}

	mode := DetermineMode(account.Status)

	if text := turn.FlattenText(); text != "" {
		if _, err := s.messages.AppendMessage(ctx, accountID, domain.RoleUser, text); err != nil {
			return nil, fmt.Errorf("failed to persist user turn: %w", err)
		}
	}

	history, err := s.messages.ListMessages(ctx, accountID)
	if err != nil {
		return nil, err
	}

	var system string
	if mode == ModeInitializing {
		system = InitializationMetaPrompt
	} else {
		durable := DefaultActiveSystemPrompt
		if account.SystemPrompt != nil && *account.SystemPrompt != "" {
			durable = *account.SystemPrompt
		}
		system = BuildAccountSystemPrompt(durable, account.StateSummary)
	}

	handle, err := s.registry.Resolve(account.LLMProvider, account.LLMModel)
	if err != nil {
		return nil, err
	}

	replyText, err := handle.Stream(ctx, system, toChatHistory(history), onDelta)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelBackend, err)
	}

	reply, err := s.messages.AppendMessage(ctx, accountID, domain.RoleAssistant, replyText)
	if err != nil {
		return nil, fmt.Errorf("failed to persist assistant reply: %w", err)
	}

	kind := domain.FollowUpSummarySync
	if mode == ModeInitializing {
		kind = domain.FollowUpSetupCheck
	}
	job := domain.FollowUpJob{AccountID: accountID, Kind: kind, Timestamp: time.Now()}
	if s.dispatcher == nil {
		s.logger.Warn("no follow-up dispatcher configured, skipping", "account_id", accountID, "kind", kind)
	} else if err := s.dispatcher.Dispatch(context.WithoutCancel(ctx), job); err != nil {
		s.logger.Error("failed to dispatch follow-up job", "account_id", accountID, "kind", kind, "error", err)
	}

	return reply, nil
}

func toChatHistory(messages []domain.Message) []llm.ChatMessage {
	history := make([]llm.ChatMessage, 0, len(messages))
	for _, m := range messages {
		history = append(history, llm.ChatMessage{Role: string(m.Role), Content: m.Content})
	}
	return history
}
