package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rivalth/kumbara/internal/transaction"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const selectTransactionColumns = `
	t.id, t.wallet_id, t.user_id, t.amount, t.type, t.category, t.description, t.date,
	t.created_at, t.updated_at, t.deleted_at
`

// scanTransaction reads a transaction row from the scanner.
// Expected column order: id, wallet_id, user_id, amount, type, category, description, date, created_at, updated_at, deleted_at
func scanTransaction(s scanner) (*transaction.Transaction, error) {
	var tx transaction.Transaction

	var typeStr, categoryStr string

	var desc sql.NullString

	if err := s.Scan(
		&tx.ID, &tx.WalletID, &tx.UserID, &tx.Amount, &typeStr, &categoryStr, &desc, &tx.Date,
		&tx.CreatedAt, &tx.UpdatedAt, &tx.DeletedAt,
	); err != nil {
		return nil, err
	}

	tx.Type = transaction.Type(typeStr)
	tx.Category = transaction.Category(categoryStr)
	tx.Description = desc.String

	return &tx, nil
}

func (s *Store) CreateTransaction(ctx context.Context, tx *transaction.Transaction) error {
	query := `
		INSERT INTO transactions (wallet_id, user_id, amount, type, category, description, date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		tx.WalletID,
		tx.UserID,
		tx.Amount,
		tx.Type,
		tx.Category,
		tx.Description,
		tx.Date,
	).Scan(&tx.ID, &tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating transaction: %w", err)
	}

	return nil
}

func (s *Store) GetTransaction(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + `
		FROM transactions t
		WHERE t.id = $1 AND t.deleted_at IS NULL`

	tx, err := scanTransaction(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, transaction.ErrNotFound
		}

		return nil, fmt.Errorf("getting transaction: %w", err)
	}

	return tx, nil
}

func (s *Store) ListTransactions(ctx context.Context, filter transaction.ListFilter) ([]*transaction.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + `
		FROM transactions t
		WHERE t.deleted_at IS NULL`

	var args []any

	argIdx := 1

	addFilter := func(clause string, value any) {
		query += fmt.Sprintf(" AND %s $%d", clause, argIdx)

		args = append(args, value)
		argIdx++
	}

	if filter.WalletID != nil {
		addFilter("t.wallet_id =", *filter.WalletID)
	}

	if filter.UserID != nil {
		addFilter("t.user_id =", *filter.UserID)
	}

	if filter.Type != nil {
		addFilter("t.type =", *filter.Type)
	}

	if filter.Category != nil {
		addFilter("t.category =", *filter.Category)
	}

	if filter.StartDate != nil {
		addFilter("t.date >=", *filter.StartDate)
	}

	if filter.EndDate != nil {
		addFilter("t.date <=", *filter.EndDate)
	}

	query += " ORDER BY t.date ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var txs []*transaction.Transaction

	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transactions: %w", err)
	}

	return txs, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, tx *transaction.Transaction) error {
	query := `
		UPDATE transactions
		SET amount = $1, type = $2, category = $3, description = $4, date = $5, updated_at = NOW()
		WHERE id = $6 AND deleted_at IS NULL
	`

	_, err := s.db.ExecContext(ctx, query,
		tx.Amount,
		tx.Type,
		tx.Category,
		tx.Description,
		tx.Date,
		tx.ID,
	)
	if err != nil {
		return fmt.Errorf("updating transaction: %w", err)
	}

	return nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE transactions
		SET deleted_at = NOW()
		WHERE id = $1
	`

	_, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deleting transaction: %w", err)
	}

	return nil
}

// InsertBatch inserts one bulk-import chunk as a single multi-row INSERT.
// Callers cap chunk sizes; the statement stays well under the Postgres
// parameter limit at 7 parameters per row.
func (s *Store) InsertBatch(ctx context.Context, txs []*transaction.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	var (
		placeholders = make([]string, 0, len(txs))
		args         = make([]any, 0, len(txs)*7)
	)

	for i, tx := range txs {
		base := i * 7
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, NOW(), NOW())",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7))
		args = append(args, tx.WalletID, tx.UserID, tx.Amount, tx.Type, tx.Category, tx.Description, tx.Date)
	}

	query := `
		INSERT INTO transactions (wallet_id, user_id, amount, type, category, description, date, created_at, updated_at)
		VALUES ` + strings.Join(placeholders, ", ")

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting batch of %d: %w", len(txs), err)
	}

	return nil
}

// NewestDate returns the newest transaction date stored for a wallet, or
// nil when the wallet has none.
func (s *Store) NewestDate(ctx context.Context, walletID, userID uuid.UUID) (*time.Time, error) {
	return s.boundaryDate(ctx, "MAX", walletID, userID)
}

// OldestDate returns the oldest transaction date stored for a wallet, or
// nil when the wallet has none.
func (s *Store) OldestDate(ctx context.Context, walletID, userID uuid.UUID) (*time.Time, error) {
	return s.boundaryDate(ctx, "MIN", walletID, userID)
}

func (s *Store) boundaryDate(ctx context.Context, agg string, walletID, userID uuid.UUID) (*time.Time, error) {
	query := fmt.Sprintf(`
		SELECT %s(date)
		FROM transactions
		WHERE wallet_id = $1 AND user_id = $2 AND deleted_at IS NULL
	`, agg)

	var date sql.NullTime
	if err := s.db.QueryRowContext(ctx, query, walletID, userID).Scan(&date); err != nil {
		return nil, fmt.Errorf("querying %s date: %w", strings.ToLower(agg), err)
	}

	if !date.Valid {
		return nil, nil
	}

	return &date.Time, nil
}
