package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/devtomiwa9/pxsm-backend/internal/models/modeldto"
	serviceErrors "github.com/devtomiwa9/pxsm-backend/internal/service/ledger/errors"
	"github.com/shopspring/decimal"
)

const (
	TypeCredit = "credit"
	TypeDebit  = "debit"
)

// UpdateBalance processes balance mutation requests. Every mutation carries a
// caller-supplied idempotency key; a replayed key returns the previously
// recorded outcome without moving funds again.
func (proc *Processor) UpdateBalance(ctx context.Context, update modeldto.BalanceUpdate) (*modeldto.BalanceChange, error) {
	if update.UserID == "" {
		return nil, &serviceErrors.ServiceValidationError{Msg: "user_id is required"}
	}
	if update.IdempotencyKey == "" {
		return nil, &serviceErrors.ServiceValidationError{Msg: "idempotency_key is required"}
	}
	if !update.Amount.IsPositive() {
		return nil, &serviceErrors.ServiceValidationError{Msg: "amount must be positive"}
	}
	txType := strings.ToLower(update.Type)
	if txType != TypeCredit && txType != TypeDebit {
		return nil, &serviceErrors.ServiceValidationError{Msg: fmt.Sprintf("invalid transaction type %s", update.Type)}
	}
	description := update.Description
	if description == "" {
		description = fmt.Sprintf("%s%s transaction of %s", strings.ToUpper(txType[:1]), txType[1:], update.Amount)
	}
	entry, replayed, err := proc.storage.UpdateBalance(ctx, update.UserID, update.Amount, txType, update.IdempotencyKey, description)
	if err != nil {
		return nil, err
	}
	change := modeldto.BalanceChange{
		PreviousBalance: entry.PreviousBalance,
		NewBalance:      entry.NewBalance,
		Replayed:        replayed,
	}
	return &change, nil
}

// SetBalance processes administrative balance overwrite requests.
func (proc *Processor) SetBalance(ctx context.Context, update modeldto.BalanceSet) (*modeldto.BalanceChange, error) {
	if update.UserID == "" {
		return nil, &serviceErrors.ServiceValidationError{Msg: "user_id is required"}
	}
	if update.Amount.IsNegative() {
		return nil, &serviceErrors.ServiceValidationError{Msg: "amount must not be negative"}
	}
	entry, err := proc.storage.SetBalance(ctx, update.UserID, update.Amount)
	if err != nil {
		return nil, err
	}
	change := modeldto.BalanceChange{
		PreviousBalance: entry.PreviousBalance,
		NewBalance:      entry.NewBalance,
	}
	return &change, nil
}

// GetBalance processes balance query requests.
func (proc *Processor) GetBalance(ctx context.Context, userID string) (decimal.Decimal, error) {
	if userID == "" {
		return decimal.Zero, &serviceErrors.ServiceValidationError{Msg: "user id is required"}
	}
	return proc.storage.GetBalance(ctx, userID)
}

// GetUserTransactions processes transaction history query requests.
func (proc *Processor) GetUserTransactions(ctx context.Context, userID string) ([]modeldto.Transaction, error) {
	if userID == "" {
		return nil, &serviceErrors.ServiceValidationError{Msg: "user id is required"}
	}
	entries, err := proc.storage.GetTransactions(ctx, userID)
	if err != nil {
		return nil, err
	}
	var transactions []modeldto.Transaction
	for _, entry := range entries {
		transactions = append(transactions, modeldto.Transaction{
			Type:            entry.Type,
			Amount:          entry.Amount,
			PreviousBalance: entry.PreviousBalance,
			NewBalance:      entry.NewBalance,
			Status:          entry.Status,
			Description:     entry.Description,
			CreatedAt:       entry.CreatedAt,
		})
	}
	return transactions, nil
}
