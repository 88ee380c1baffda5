// Package storage defines the contract between the ledger services and the DB layer.
package storage

import (
	"context"

	"github.com/devtomiwa9/pxsm-backend/internal/models/modelstorage"
	"github.com/shopspring/decimal"
)

// Accounts groups user identity operations.
type Accounts interface {
	AddNewUser(ctx context.Context, userID, username, email, passwordHash string) error
	GetUserByEmail(ctx context.Context, email string) (*modelstorage.UserStorageEntry, error)
	GetUserByID(ctx context.Context, userID string) (*modelstorage.UserStorageEntry, error)
	GetUserByAgentID(ctx context.Context, agentID string) (*modelstorage.UserStorageEntry, error)
	PromoteToAgent(ctx context.Context, userID, agentID, agentPasswordHash string) error
}

// BalanceLedger groups balance mutations and the transaction history backing them.
type BalanceLedger interface {
	UpdateBalance(ctx context.Context, userID string, amount decimal.Decimal, txType, idempotencyKey, description string) (*modelstorage.TransactionStorageEntry, bool, error)
	SetBalance(ctx context.Context, userID string, amount decimal.Decimal) (*modelstorage.TransactionStorageEntry, error)
	GetBalance(ctx context.Context, userID string) (decimal.Decimal, error)
	GetTransactions(ctx context.Context, userID string) ([]modelstorage.TransactionStorageEntry, error)
}

// OrderLedger groups order persistence tied to balance debits.
type OrderLedger interface {
	AddNewOrder(ctx context.Context, order modelstorage.OrderStorageEntry, requiresPayment bool) (*modelstorage.TransactionStorageEntry, error)
	GetOrders(ctx context.Context, userID string) ([]modelstorage.OrderStorageEntry, error)
}

// AgentSettlement groups agent subscription state and commission settlement.
type AgentSettlement interface {
	GetAgentInfo(ctx context.Context, agentID string) (*modelstorage.AgentInfoStorageEntry, error)
	UpsertAgentSubscription(ctx context.Context, info modelstorage.AgentInfoStorageEntry) error
	GetAgentOrders(ctx context.Context, agentID string) ([]modelstorage.OrderStorageEntry, error)
	GetPendingCommissionOrders(ctx context.Context, agentID string) ([]modelstorage.OrderStorageEntry, error)
	AddWithdrawal(ctx context.Context, withdrawal modelstorage.WithdrawalStorageEntry) (*modelstorage.WithdrawalStorageEntry, error)
	UpdateWithdrawalStatus(ctx context.Context, withdrawalID int64, status string) (*modelstorage.WithdrawalStorageEntry, []string, error)
	GetWithdrawals(ctx context.Context, agentID string) ([]modelstorage.WithdrawalStorageEntry, error)
}

type Storage interface {
	Accounts
	BalanceLedger
	OrderLedger
	AgentSettlement
	DumpUsers(ctx context.Context) ([]modelstorage.UserStorageEntry, error)
	Ping(ctx context.Context) error
}
