/**
 * @description
 * This file defines the interfaces for the data access layer (repositories)
 * along with the sentinel errors they surface. Components depend on these
 * interfaces rather than on the concrete PostgreSQL implementation, which
 * keeps the business logic testable with in-memory stubs.
 */
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/SidhartK/per-account-agent/internal/domain"
)

// ErrAccountNotFound is returned when a referenced account does not exist.
var ErrAccountNotFound = errors.New("account not found")

// AccountRepository defines the contract for database operations on accounts.
type AccountRepository interface {
	CreateAccount(ctx context.Context, input domain.CreateAccountInput, status domain.AccountStatus) (*domain.Account, error)
	FindAccountByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	ListAccounts(ctx context.Context, status *domain.AccountStatus) ([]domain.Account, error)
	UpdateAccount(ctx context.Context, account *domain.Account) error
	DeleteAccount(ctx context.Context, id uuid.UUID) error

	// ListReminderCandidates returns all active accounts that have a
	// reminder cadence configured, regardless of whether they are due.
	ListReminderCandidates(ctx context.Context) ([]domain.Account, error)

	// SetLastReminderAt records that a reminder fired for the account.
	SetLastReminderAt(ctx context.Context, id uuid.UUID, at time.Time) error

	// SetStateSummary overwrites only the rolling state summary.
	SetStateSummary(ctx context.Context, id uuid.UUID, summary string) error
}

// MessageRepository defines the contract for the append-only message log.
type MessageRepository interface {
	AppendMessage(ctx context.Context, accountID uuid.UUID, role domain.MessageRole, content string) (*domain.Message, error)

	// ListMessages returns the account's messages in chronological order.
	ListMessages(ctx context.Context, accountID uuid.UUID) ([]domain.Message, error)

	// ListRecentMessages returns up to limit messages, newest first.
	ListRecentMessages(ctx context.Context, accountID uuid.UUID, limit int) ([]domain.Message, error)

	// LatestMessage returns the newest message for the account, or nil when
	// the account has no messages yet.
	LatestMessage(ctx context.Context, accountID uuid.UUID) (*domain.Message, error)
}
