/**
 * @description
 * This file implements the append-only message log against PostgreSQL.
 * Ordering by created_at is the only ordering guarantee the rest of the
 * service relies on; there are no sequence numbers.
 */
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SidhartK/per-account-agent/internal/domain"
)

// PostgresMessageRepository handles message persistence in PostgreSQL.
type PostgresMessageRepository struct {
	db *pgxpool.Pool
}

// NewPostgresMessageRepository creates a new message repository.
func NewPostgresMessageRepository(db *pgxpool.Pool) *PostgresMessageRepository {
	return &PostgresMessageRepository{db: db}
}

// AppendMessage stores a new conversation turn for an account.
func (r *PostgresMessageRepository) AppendMessage(ctx context.Context, accountID uuid.UUID, role domain.MessageRole, content string) (*domain.Message, error) {
	var m domain.Message
	query := `
        INSERT INTO messages (account_id, role, content)
        VALUES ($1, $2, $3)
        RETURNING id, account_id, role, content, created_at
    `
	err := r.db.QueryRow(ctx, query, accountID, role, content).Scan(
		&m.ID,
		&m.AccountID,
		&m.Role,
		&m.Content,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to append message: %w", err)
	}
	return &m, nil
}

// ListMessages returns the full history for an account in chronological order.
func (r *PostgresMessageRepository) ListMessages(ctx context.Context, accountID uuid.UUID) ([]domain.Message, error) {
	query := `
        SELECT id, account_id, role, content, created_at
        FROM messages
        WHERE account_id = $1
        ORDER BY created_at ASC
    `
	return r.queryMessages(ctx, query, accountID)
}

// ListRecentMessages returns up to limit messages, newest first. Callers that
// need chronological order reverse the slice themselves.
func (r *PostgresMessageRepository) ListRecentMessages(ctx context.Context, accountID uuid.UUID, limit int) ([]domain.Message, error) {
	query := `
        SELECT id, account_id, role, content, created_at
        FROM messages
        WHERE account_id = $1
        ORDER BY created_at DESC
        LIMIT $2
    `
	return r.queryMessages(ctx, query, accountID, limit)
}

// LatestMessage returns the newest message for the account, or nil when the
// conversation is empty.
func (r *PostgresMessageRepository) LatestMessage(ctx context.Context, accountID uuid.UUID) (*domain.Message, error) {
	var m domain.Message
	query := `
        SELECT id, account_id, role, content, created_at
        FROM messages
        WHERE account_id = $1
        ORDER BY created_at DESC
        LIMIT 1
    `
	err := r.db.QueryRow(ctx, query, accountID).Scan(
		&m.ID,
		&m.AccountID,
		&m.Role,
		&m.Content,
		&m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch latest message: %w", err)
	}
	return &m, nil
}

func (r *PostgresMessageRepository) queryMessages(ctx context.Context, query string, args ...interface{}) ([]domain.Message, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.AccountID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
