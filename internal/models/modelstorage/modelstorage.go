// Package modelstorage provides types for DB row entities.

package modelstorage

import (
	"github.com/shopspring/decimal"
)

type UserStorageEntry struct {
	ID           uint            `db:"id"`
	UserID       string          `db:"user_id"`
	Username     string          `db:"username"`
	Email        string          `db:"email"`
	PasswordHash string          `db:"password"`
	Balance      decimal.Decimal `db:"balance"`
	AgentID      string          `db:"agent_id"`
	IsAgent      bool            `db:"is_agent"`
	AgentHash    string          `db:"agent_password"`
	RegisteredAt string          `db:"created_at"`
}

type TransactionStorageEntry struct {
	ID              uint            `db:"id"`
	UserID          string          `db:"user_id"`
	Type            string          `db:"type"`
	Amount          decimal.Decimal `db:"amount"`
	PreviousBalance decimal.Decimal `db:"previous_balance"`
	NewBalance      decimal.Decimal `db:"new_balance"`
	Status          string          `db:"status"`
	Description     string          `db:"description"`
	IdempotencyKey  string          `db:"idempotency_key"`
	CreatedAt       string          `db:"created_at"`
}

type OrderStorageEntry struct {
	ID          uint            `db:"id"`
	UserID      string          `db:"user_id"`
	OrderID     string          `db:"order_id"`
	ServiceName string          `db:"service_name"`
	Link        string          `db:"link"`
	Amount      decimal.Decimal `db:"amount"`
	Status      string          `db:"status"`
	AgentID     string          `db:"agent_id"`
	Commission  decimal.Decimal `db:"commission"`
	IsPaidAgent string          `db:"is_paid_agent"`
	CreatedAt   string          `db:"created_at"`
}

type AgentInfoStorageEntry struct {
	ID                    uint            `db:"id"`
	AgentID               string          `db:"agent_id"`
	AgentUserID           string          `db:"agent_user_id"`
	SubscriptionType      string          `db:"subscription_type"`
	CommissionRate        decimal.Decimal `db:"commission_rate"`
	SubscriptionAmount    decimal.Decimal `db:"subscription_amount"`
	IsPaid                bool            `db:"is_paid"`
	SubscriptionStartDate string          `db:"subscription_start_date"`
	SubscriptionEndDate   string          `db:"subscription_end_date"`
	TotalEarnings         decimal.Decimal `db:"total_earnings"`
	PendingEarnings       decimal.Decimal `db:"pending_earnings"`
}

type WithdrawalStorageEntry struct {
	ID                   int64           `db:"id"`
	AgentID              string          `db:"agent_id"`
	Amount               decimal.Decimal `db:"amount"`
	OrderIDs             []string        `db:"order_ids"`
	TransactionReference string          `db:"transaction_reference"`
	Email                string          `db:"email"`
	Status               string          `db:"status"`
	BankName             string          `db:"bank_name"`
	AccountNumber        string          `db:"account_number"`
	CreatedAt            string          `db:"created_at"`
}
