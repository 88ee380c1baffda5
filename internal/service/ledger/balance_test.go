package ledger

import (
	"context"
	"testing"

	"github.com/devtomiwa9/pxsm-backend/internal/models/modeldto"
	serviceErrors "github.com/devtomiwa9/pxsm-backend/internal/service/ledger/errors"
	storageErrors "github.com/devtomiwa9/pxsm-backend/internal/storage/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateBalanceArithmetic(t *testing.T) {
	proc, st, _ := newTestService()
	ctx := context.Background()
	userID := seedUser(st, "ada@example.com", decimal.NewFromInt(100))

	change, err := proc.UpdateBalance(ctx, modeldto.BalanceUpdate{
		UserID:         userID,
		Amount:         decimal.RequireFromString("25.50"),
		Type:           "credit",
		IdempotencyKey: "key-1",
	})
	require.NoError(t, err)
	assert.True(t, change.PreviousBalance.Equal(decimal.NewFromInt(100)))
	assert.True(t, change.NewBalance.Equal(decimal.RequireFromString("125.50")))
	assert.False(t, change.Replayed)

	change, err = proc.UpdateBalance(ctx, modeldto.BalanceUpdate{
		UserID:         userID,
		Amount:         decimal.RequireFromString("0.50"),
		Type:           "debit",
		IdempotencyKey: "key-2",
	})
	require.NoError(t, err)
	assert.True(t, change.NewBalance.Equal(decimal.NewFromInt(125)))

	// every successful mutation appends exactly one transaction row whose
	// delta equals the signed amount
	transactions, err := proc.GetUserTransactions(ctx, userID)
	require.NoError(t, err)
	require.Len(t, transactions, 2)
	for _, tx := range transactions {
		delta := tx.NewBalance.Sub(tx.PreviousBalance)
		if tx.Type == TypeDebit {
			delta = delta.Neg()
		}
		assert.True(t, delta.Equal(tx.Amount), "transaction delta should equal its amount")
		assert.Equal(t, "completed", tx.Status)
	}
	// newest first
	assert.Equal(t, TypeDebit, transactions[0].Type)
}

func TestUpdateBalanceInsufficientFunds(t *testing.T) {
	proc, st, _ := newTestService()
	ctx := context.Background()
	userID := seedUser(st, "ada@example.com", decimal.NewFromInt(10))

	_, err := proc.UpdateBalance(ctx, modeldto.BalanceUpdate{
		UserID:         userID,
		Amount:         decimal.RequireFromString("10.01"),
		Type:           "debit",
		IdempotencyKey: "key-1",
	})
	var notEnough *storageErrors.NotEnoughFundsError
	require.ErrorAs(t, err, &notEnough)

	// failure leaves balance and history untouched
	balance, err := proc.GetBalance(ctx, userID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, 0, st.countTransactions(userID))
}

func TestUpdateBalanceIdempotentReplay(t *testing.T) {
	proc, st, _ := newTestService()
	ctx := context.Background()
	userID := seedUser(st, "ada@example.com", decimal.NewFromInt(100))
	update := modeldto.BalanceUpdate{
		UserID:         userID,
		Amount:         decimal.NewFromInt(40),
		Type:           "credit",
		IdempotencyKey: "key-replay",
	}

	first, err := proc.UpdateBalance(ctx, update)
	require.NoError(t, err)
	assert.False(t, first.Replayed)

	second, err := proc.UpdateBalance(ctx, update)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.True(t, second.NewBalance.Equal(first.NewBalance))

	// the replay moved no funds and wrote no row
	balance, err := proc.GetBalance(ctx, userID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(140)))
	assert.Equal(t, 1, st.countTransactions(userID))
}

func TestUpdateBalanceValidation(t *testing.T) {
	proc, st, _ := newTestService()
	ctx := context.Background()
	userID := seedUser(st, "ada@example.com", decimal.NewFromInt(100))
	var validation *serviceErrors.ServiceValidationError

	cases := []struct {
		name   string
		update modeldto.BalanceUpdate
	}{
		{"missing user", modeldto.BalanceUpdate{Amount: decimal.NewFromInt(1), Type: "credit", IdempotencyKey: "k"}},
		{"missing key", modeldto.BalanceUpdate{UserID: userID, Amount: decimal.NewFromInt(1), Type: "credit"}},
		{"zero amount", modeldto.BalanceUpdate{UserID: userID, Amount: decimal.Zero, Type: "credit", IdempotencyKey: "k"}},
		{"negative amount", modeldto.BalanceUpdate{UserID: userID, Amount: decimal.NewFromInt(-5), Type: "credit", IdempotencyKey: "k"}},
		{"bad type", modeldto.BalanceUpdate{UserID: userID, Amount: decimal.NewFromInt(1), Type: "transfer", IdempotencyKey: "k"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := proc.UpdateBalance(ctx, tc.update)
			require.ErrorAs(t, err, &validation)
		})
	}
	assert.Equal(t, 0, st.countTransactions(userID))
}

func TestSetBalanceWritesAdjustmentRow(t *testing.T) {
	proc, st, _ := newTestService()
	ctx := context.Background()
	userID := seedUser(st, "ada@example.com", decimal.NewFromInt(80))

	change, err := proc.SetBalance(ctx, modeldto.BalanceSet{UserID: userID, Amount: decimal.NewFromInt(200)})
	require.NoError(t, err)
	assert.True(t, change.PreviousBalance.Equal(decimal.NewFromInt(80)))
	assert.True(t, change.NewBalance.Equal(decimal.NewFromInt(200)))

	transactions, err := proc.GetUserTransactions(ctx, userID)
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	assert.Equal(t, "administrative balance adjustment", transactions[0].Description)

	_, err = proc.SetBalance(ctx, modeldto.BalanceSet{UserID: userID, Amount: decimal.NewFromInt(-1)})
	var validation *serviceErrors.ServiceValidationError
	require.ErrorAs(t, err, &validation)

	_, err = proc.SetBalance(ctx, modeldto.BalanceSet{UserID: "missing", Amount: decimal.NewFromInt(1)})
	var notFound *storageErrors.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, 1, st.countTransactions(userID))
}
