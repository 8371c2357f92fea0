package transaction

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	// MaxBulkRows is the hard cap on rows accepted by a single bulk import call.
	MaxBulkRows = 1000
	// ChunkSize is the maximum number of rows sent to storage per insert.
	ChunkSize = 500
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=transaction
type Repository interface {
	CreateTransaction(ctx context.Context, tx *Transaction) error
	GetTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error)
	UpdateTransaction(ctx context.Context, tx *Transaction) error
	DeleteTransaction(ctx context.Context, id uuid.UUID) error
	ListTransactions(ctx context.Context, filter ListFilter) ([]*Transaction, error)

	InsertBatch(ctx context.Context, txs []*Transaction) error
	NewestDate(ctx context.Context, walletID, userID uuid.UUID) (*time.Time, error)
	OldestDate(ctx context.Context, walletID, userID uuid.UUID) (*time.Time, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateParams struct {
	WalletID    uuid.UUID
	UserID      uuid.UUID
	Amount      int64
	Type        Type
	Category    Category
	Description string
	Date        time.Time
}

type ListFilter struct {
	WalletID  *uuid.UUID
	UserID    *uuid.UUID
	Type      *Type
	Category  *Category
	StartDate *time.Time
	EndDate   *time.Time
}

// FailedRow describes one submitted row that was rejected by server-side
// validation. Index is the 0-based position in the submitted slice, so the
// caller can map failures back to its original rows for a retry loop.
type FailedRow struct {
	Index  int
	Params CreateParams
	Errors []string
}

// BulkImportResult is the outcome of one bulk import call.
type BulkImportResult struct {
	SuccessCount int
	FailedCount  int
	FailedRows   []FailedRow
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Transaction, error) {
	if problems := Validate(params); len(problems) > 0 {
		return nil, fmt.Errorf("invalid transaction: %s", problems[0])
	}

	tx := paramsToTransaction(params)
	if err := s.repo.CreateTransaction(ctx, tx); err != nil {
		return nil, err
	}

	return tx, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	return s.repo.GetTransaction(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Transaction, error) {
	return s.repo.ListTransactions(ctx, filter)
}

func (s *Service) Update(ctx context.Context, tx *Transaction) error {
	return s.repo.UpdateTransaction(ctx, tx)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteTransaction(ctx, id)
}

// StoredDateRange returns the oldest and newest transaction dates recorded
// for a wallet. Either bound is nil when the wallet has no transactions.
// The bank statement parsers use this range to skip already-imported rows.
func (s *Service) StoredDateRange(ctx context.Context, walletID, userID uuid.UUID) (oldest, newest *time.Time, err error) {
	oldest, err = s.repo.OldestDate(ctx, walletID, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("oldest date: %w", err)
	}

	newest, err = s.repo.NewestDate(ctx, walletID, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("newest date: %w", err)
	}

	return oldest, newest, nil
}

// BulkImport revalidates every row, inserts the valid ones in chunks of at
// most ChunkSize, and reports per-row failures by submitted index.
//
// Chunks are inserted strictly sequentially. If a chunk insert fails at the
// storage layer the whole call returns an error; chunks already inserted
// stay persisted (there is no compensating rollback), so callers must be
// idempotent-safe on retry.
func (s *Service) BulkImport(ctx context.Context, params []CreateParams) (*BulkImportResult, error) {
	if len(params) == 0 {
		return nil, fmt.Errorf("no rows submitted")
	}

	if len(params) > MaxBulkRows {
		return nil, fmt.Errorf("too many rows: %d exceeds the limit of %d", len(params), MaxBulkRows)
	}

	result := &BulkImportResult{}

	var valid []*Transaction

	for i, p := range params {
		problems := Validate(p)
		if len(problems) > 0 {
			result.FailedRows = append(result.FailedRows, FailedRow{
				Index:  i,
				Params: p,
				Errors: problems,
			})

			continue
		}

		valid = append(valid, paramsToTransaction(p))
	}

	result.FailedCount = len(result.FailedRows)

	for start := 0; start < len(valid); start += ChunkSize {
		end := min(start+ChunkSize, len(valid))

		if err := s.repo.InsertBatch(ctx, valid[start:end]); err != nil {
			return nil, fmt.Errorf("insert chunk %d-%d: %w", start, end-1, err)
		}
	}

	result.SuccessCount = len(valid)

	return result, nil
}

func paramsToTransaction(p CreateParams) *Transaction {
	return &Transaction{
		WalletID:    p.WalletID,
		UserID:      p.UserID,
		Amount:      p.Amount,
		Type:        p.Type,
		Category:    p.Category,
		Description: p.Description,
		Date:        p.Date,
	}
}
