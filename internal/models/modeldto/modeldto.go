// Package modeldto provides types for API request and response entities.

package modeldto

import (
	"github.com/shopspring/decimal"
)

type (
	// Credentials carries signup/login request bodies.
	Credentials struct {
		Username string `json:"username,omitempty"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	// AgentCredentials carries agent signup/login request bodies.
	AgentCredentials struct {
		Email         string `json:"email"`
		Password      string `json:"password,omitempty"`
		AgentPassword string `json:"agent_password"`
	}
	// User is the public user representation returned on auth operations.
	User struct {
		UserID   string `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
		AgentID  string `json:"agent_id,omitempty"`
	}
	// BalanceUpdate carries a balance mutation request.
	BalanceUpdate struct {
		UserID         string          `json:"user_id"`
		Amount         decimal.Decimal `json:"amount"`
		Type           string          `json:"type"`
		IdempotencyKey string          `json:"idempotency_key"`
		Description    string          `json:"description,omitempty"`
	}
	// BalanceSet carries an administrative balance overwrite request.
	BalanceSet struct {
		UserID string          `json:"user_id"`
		Amount decimal.Decimal `json:"amount"`
	}
	// BalanceChange reports the outcome of a balance mutation.
	BalanceChange struct {
		PreviousBalance decimal.Decimal `json:"previous_balance"`
		NewBalance      decimal.Decimal `json:"new_balance"`
		Replayed        bool            `json:"replayed,omitempty"`
	}
	// Transaction is one row of a user's balance history.
	Transaction struct {
		Type            string          `json:"type"`
		Amount          decimal.Decimal `json:"amount"`
		PreviousBalance decimal.Decimal `json:"previous_balance"`
		NewBalance      decimal.Decimal `json:"new_balance"`
		Status          string          `json:"status"`
		Description     string          `json:"description"`
		CreatedAt       string          `json:"created_at"`
	}
	// NewOrder carries an order creation request.
	NewOrder struct {
		UserID      string          `json:"user_id"`
		OrderID     string          `json:"order_id"`
		ServiceName string          `json:"service_name"`
		Link        string          `json:"link"`
		Amount      decimal.Decimal `json:"amount"`
		Status      string          `json:"status"`
		AgentID     string          `json:"agent_id,omitempty"`
	}
	// Order is one row of a user's order history.
	Order struct {
		OrderID     string          `json:"order_id"`
		ServiceName string          `json:"service_name"`
		Link        string          `json:"link"`
		Amount      decimal.Decimal `json:"amount"`
		Status      string          `json:"status"`
		AgentID     string          `json:"agent_id,omitempty"`
		Commission  decimal.Decimal `json:"commission"`
		IsPaidAgent string          `json:"is_paid_agent,omitempty"`
		CreatedAt   string          `json:"created_at"`
	}
	// AgentOrderDetail reports the commission accrued by a single order.
	AgentOrderDetail struct {
		OrderID          string          `json:"order_id"`
		Amount           decimal.Decimal `json:"amount"`
		CommissionRate   decimal.Decimal `json:"commission_rate"`
		CommissionAmount decimal.Decimal `json:"commission_amount"`
		IsPaidAgent      string          `json:"is_paid_agent"`
	}
	// Subscription carries an agent subscription purchase request.
	Subscription struct {
		SubscriptionType string `json:"subscription_type"`
	}
	// SubscriptionStatus reports agent subscription validity.
	SubscriptionStatus struct {
		AgentID          string          `json:"agent_id"`
		SubscriptionType string          `json:"subscription_type,omitempty"`
		CommissionRate   decimal.Decimal `json:"commission_rate"`
		IsActive         bool            `json:"is_active"`
		EndDate          string          `json:"subscription_end_date,omitempty"`
	}
	// NewWithdrawal carries an agent withdrawal request.
	NewWithdrawal struct {
		Amount        decimal.Decimal `json:"amount"`
		OrderIDs      []string        `json:"order_ids"`
		BankName      string          `json:"bank_name"`
		AccountNumber string          `json:"account_number"`
	}
	// Withdrawal is one agent withdrawal record.
	Withdrawal struct {
		WithdrawalID         int64           `json:"withdrawal_id"`
		Amount               decimal.Decimal `json:"amount"`
		OrderIDs             []string        `json:"order_ids"`
		TransactionReference string          `json:"transaction_reference"`
		Status               string          `json:"status"`
		BankName             string          `json:"bank_name"`
		AccountNumber        string          `json:"account_number"`
		CreatedAt            string          `json:"created_at"`
	}
	// WithdrawalDetails aggregates an agent's settlement state.
	WithdrawalDetails struct {
		AgentID          string             `json:"agent_id"`
		AvailableBalance decimal.Decimal    `json:"available_balance"`
		PendingOrders    []AgentOrderDetail `json:"pending_orders"`
		Withdrawals      []Withdrawal       `json:"withdrawals"`
	}
	// WithdrawalStatusUpdate carries an administrative status transition.
	WithdrawalStatusUpdate struct {
		Status string `json:"status"`
	}
)
