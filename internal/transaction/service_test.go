package transaction_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/rivalth/kumbara/internal/transaction"
)

func validParams() transaction.CreateParams {
	return transaction.CreateParams{
		WalletID:    uuid.New(),
		UserID:      uuid.New(),
		Amount:      12345,
		Type:        transaction.TypeExpense,
		Category:    transaction.CategoryGroceries,
		Description: "migros",
		Date:        time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestService_Create(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := transaction.NewMockRepository(ctrl)
	svc := transaction.NewService(repo)

	params := validParams()

	repo.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).Return(nil)

	tx, err := svc.Create(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, params.WalletID, tx.WalletID)
	assert.Equal(t, params.Amount, tx.Amount)
}

func TestService_Create_Invalid(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := transaction.NewMockRepository(ctrl)
	svc := transaction.NewService(repo)

	params := validParams()
	params.Amount = 0

	_, err := svc.Create(context.Background(), params)
	require.Error(t, err)
}

func TestService_StoredDateRange(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := transaction.NewMockRepository(ctrl)
	svc := transaction.NewService(repo)

	walletID, userID := uuid.New(), uuid.New()
	oldest := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newest := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	repo.EXPECT().OldestDate(gomock.Any(), walletID, userID).Return(&oldest, nil)
	repo.EXPECT().NewestDate(gomock.Any(), walletID, userID).Return(&newest, nil)

	gotOldest, gotNewest, err := svc.StoredDateRange(context.Background(), walletID, userID)
	require.NoError(t, err)
	assert.Equal(t, &oldest, gotOldest)
	assert.Equal(t, &newest, gotNewest)
}

func TestService_StoredDateRange_Empty(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := transaction.NewMockRepository(ctrl)
	svc := transaction.NewService(repo)

	repo.EXPECT().OldestDate(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)
	repo.EXPECT().NewestDate(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)

	oldest, newest, err := svc.StoredDateRange(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, oldest)
	assert.Nil(t, newest)
}

func TestService_BulkImport_Caps(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := transaction.NewMockRepository(ctrl)
	svc := transaction.NewService(repo)

	// No repository call is expected for either rejection.
	_, err := svc.BulkImport(context.Background(), nil)
	require.Error(t, err)

	over := make([]transaction.CreateParams, transaction.MaxBulkRows+1)
	for i := range over {
		over[i] = validParams()
	}

	_, err = svc.BulkImport(context.Background(), over)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1001")
}

func TestService_BulkImport_Chunks(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := transaction.NewMockRepository(ctrl)
	svc := transaction.NewService(repo)

	params := make([]transaction.CreateParams, transaction.MaxBulkRows)
	for i := range params {
		params[i] = validParams()
	}

	var sizes []int

	repo.EXPECT().InsertBatch(gomock.Any(), gomock.Any()).Times(2).DoAndReturn(
		func(_ context.Context, txs []*transaction.Transaction) error {
			sizes = append(sizes, len(txs))
			return nil
		})

	result, err := svc.BulkImport(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, []int{500, 500}, sizes)
	assert.Equal(t, 1000, result.SuccessCount)
	assert.Equal(t, 0, result.FailedCount)
}

func TestService_BulkImport_ChunkFailureFailsCall(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := transaction.NewMockRepository(ctrl)
	svc := transaction.NewService(repo)

	params := make([]transaction.CreateParams, 600)
	for i := range params {
		params[i] = validParams()
	}

	gomock.InOrder(
		repo.EXPECT().InsertBatch(gomock.Any(), gomock.Len(500)).Return(nil),
		repo.EXPECT().InsertBatch(gomock.Any(), gomock.Len(100)).Return(errors.New("db down")),
	)

	_, err := svc.BulkImport(context.Background(), params)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert chunk 500-599")
	assert.Contains(t, err.Error(), "db down")
}

func TestService_BulkImport_InvalidRowsReportedByIndex(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := transaction.NewMockRepository(ctrl)
	svc := transaction.NewService(repo)

	params := []transaction.CreateParams{
		validParams(),
		validParams(),
		validParams(),
	}
	params[1].Amount = -5
	params[1].Date = time.Time{}

	repo.EXPECT().InsertBatch(gomock.Any(), gomock.Len(2)).Return(nil)

	result, err := svc.BulkImport(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 1, result.FailedCount)

	require.Len(t, result.FailedRows, 1)
	failed := result.FailedRows[0]
	assert.Equal(t, 1, failed.Index)
	assert.Equal(t, params[1], failed.Params)
	assert.Len(t, failed.Errors, 2)
}

func TestService_BulkImport_AllRowsInvalid(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := transaction.NewMockRepository(ctrl)
	svc := transaction.NewService(repo)

	params := []transaction.CreateParams{{}, {}}

	// Nothing valid, nothing inserted, still a successful call.
	result, err := svc.BulkImport(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, 0, result.SuccessCount)
	assert.Equal(t, 2, result.FailedCount)
	assert.Len(t, result.FailedRows, 2)
}
