/**
 * @description
 * This file implements the account data access layer against PostgreSQL.
 * It contains all the SQL queries and scanning logic for the accounts table.
 */
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SidhartK/per-account-agent/internal/domain"
)

const accountColumns = `id, name, status, llm_provider, llm_model, system_prompt,
       state_summary, reminder_interval_days, last_reminder_at, created_at, updated_at`

// PostgresAccountRepository handles account persistence in PostgreSQL.
type PostgresAccountRepository struct {
	db *pgxpool.Pool
}

// NewPostgresAccountRepository creates a new account repository.
func NewPostgresAccountRepository(db *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{db: db}
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	err := row.Scan(
		&a.ID,
		&a.Name,
		&a.Status,
		&a.LLMProvider,
		&a.LLMModel,
		&a.SystemPrompt,
		&a.StateSummary,
		&a.ReminderIntervalDays,
		&a.LastReminderAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &a, nil
}

// CreateAccount inserts a new account in the given lifecycle state.
func (r *PostgresAccountRepository) CreateAccount(ctx context.Context, input domain.CreateAccountInput, status domain.AccountStatus) (*domain.Account, error) {
	query := `
        INSERT INTO accounts (name, status, llm_provider, llm_model)
        VALUES ($1, $2, $3, $4)
        RETURNING ` + accountColumns
	return scanAccount(r.db.QueryRow(ctx, query, input.Name, status, input.LLMProvider, input.LLMModel))
}

// FindAccountByID retrieves a single account.
func (r *PostgresAccountRepository) FindAccountByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccount(r.db.QueryRow(ctx, query, id))
}

// ListAccounts returns accounts ordered by most recent activity, optionally
// filtered by lifecycle state.
func (r *PostgresAccountRepository) ListAccounts(ctx context.Context, status *domain.AccountStatus) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts`
	args := []interface{}{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

// UpdateAccount persists the mutable fields of an account.
func (r *PostgresAccountRepository) UpdateAccount(ctx context.Context, account *domain.Account) error {
	query := `
        UPDATE accounts
        SET name = $2,
            status = $3,
            llm_provider = $4,
            llm_model = $5,
            system_prompt = $6,
            state_summary = $7,
            reminder_interval_days = $8,
            last_reminder_at = $9,
            updated_at = NOW()
        WHERE id = $1
    `
	tag, err := r.db.Exec(ctx, query,
		account.ID,
		account.Name,
		account.Status,
		account.LLMProvider,
		account.LLMModel,
		account.SystemPrompt,
		account.StateSummary,
		account.ReminderIntervalDays,
		account.LastReminderAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// DeleteAccount removes an account and, via ON DELETE CASCADE, its messages.
// Deletion is an administrative operation; the lifecycle never reaches it.
func (r *PostgresAccountRepository) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// ListReminderCandidates returns active accounts with a reminder cadence set.
func (r *PostgresAccountRepository) ListReminderCandidates(ctx context.Context) ([]domain.Account, error) {
	query := `
        SELECT ` + accountColumns + `
        FROM accounts
        WHERE status = $1 AND reminder_interval_days IS NOT NULL
        ORDER BY created_at
    `
	rows, err := r.db.Query(ctx, query, domain.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminder candidates: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

// SetLastReminderAt records the time a reminder fired.
func (r *PostgresAccountRepository) SetLastReminderAt(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE accounts SET last_reminder_at = $2, updated_at = NOW() WHERE id = $1`,
		id, at,
	)
	if err != nil {
		return fmt.Errorf("failed to set last reminder time: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// SetStateSummary overwrites the rolling state summary wholesale.
func (r *PostgresAccountRepository) SetStateSummary(ctx context.Context, id uuid.UUID, summary string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE accounts SET state_summary = $2, updated_at = NOW() WHERE id = $1`,
		id, summary,
	)
	if err != nil {
		return fmt.Errorf("failed to set state summary: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}
