package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/ShiraazMoollatjie/goluhn"
	"github.com/devtomiwa9/pxsm-backend/internal/models/modeldto"
	"github.com/devtomiwa9/pxsm-backend/internal/models/modelstorage"
	serviceErrors "github.com/devtomiwa9/pxsm-backend/internal/service/ledger/errors"
	"github.com/devtomiwa9/pxsm-backend/internal/service/mail"
	storageErrors "github.com/devtomiwa9/pxsm-backend/internal/storage/errors"
	"github.com/shopspring/decimal"
)

// SubscriptionPlan fixes the price and commission rate of one subscription tier.
type SubscriptionPlan struct {
	Amount         decimal.Decimal
	CommissionRate decimal.Decimal
}

var subscriptionPlans = map[string]SubscriptionPlan{
	"basic":   {Amount: decimal.NewFromInt(5000), CommissionRate: decimal.NewFromInt(5)},
	"premium": {Amount: decimal.NewFromInt(10000), CommissionRate: decimal.NewFromInt(10)},
}

var withdrawalStatuses = map[string]bool{
	"processing": true,
	"approved":   true,
	"failed":     true,
}

// CommissionAmount computes the commission accrued by one order:
// commission rate of the order times the order amount over 100.
func CommissionAmount(rate, amount decimal.Decimal) decimal.Decimal {
	return rate.Mul(amount).Div(decimal.NewFromInt(100)).Round(2)
}

// subscriptionActive is a pure function of now versus the subscription window.
func subscriptionActive(info *modelstorage.AgentInfoStorageEntry, now time.Time) bool {
	if !info.IsPaid {
		return false
	}
	endDate, err := time.Parse(time.RFC3339, info.SubscriptionEndDate)
	if err != nil {
		return false
	}
	return now.Before(endDate)
}

// SubscribeAgent processes subscription purchase requests for registered agents.
func (proc *Processor) SubscribeAgent(ctx context.Context, agentID string, subscription modeldto.Subscription) (*modeldto.SubscriptionStatus, error) {
	plan, ok := subscriptionPlans[subscription.SubscriptionType]
	if !ok {
		return nil, &serviceErrors.ServiceValidationError{Msg: fmt.Sprintf("invalid subscription type %s", subscription.SubscriptionType)}
	}
	user, err := proc.storage.GetUserByAgentID(ctx, agentID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	endDate := now.AddDate(1, 0, 0)
	info := modelstorage.AgentInfoStorageEntry{
		AgentID:               agentID,
		AgentUserID:           user.UserID,
		SubscriptionType:      subscription.SubscriptionType,
		CommissionRate:        plan.CommissionRate,
		SubscriptionAmount:    plan.Amount,
		IsPaid:                true,
		SubscriptionStartDate: now.Format(time.RFC3339),
		SubscriptionEndDate:   endDate.Format(time.RFC3339),
	}
	err = proc.storage.UpsertAgentSubscription(ctx, info)
	if err != nil {
		return nil, err
	}
	proc.mailer.Enqueue(mail.SubscriptionActivated(user.Email, subscription.SubscriptionType, endDate.Format(time.RFC1123)))
	status := modeldto.SubscriptionStatus{
		AgentID:          agentID,
		SubscriptionType: subscription.SubscriptionType,
		CommissionRate:   plan.CommissionRate,
		IsActive:         true,
		EndDate:          info.SubscriptionEndDate,
	}
	return &status, nil
}

// CheckAgentSubscription processes subscription validity query requests. An
// agent with no subscription record is reported inactive, not missing.
func (proc *Processor) CheckAgentSubscription(ctx context.Context, agentID string) (*modeldto.SubscriptionStatus, error) {
	if agentID == "" {
		return nil, &serviceErrors.ServiceValidationError{Msg: "agent id is required"}
	}
	info, err := proc.storage.GetAgentInfo(ctx, agentID)
	if err != nil {
		if _, ok := err.(*storageErrors.NotFoundError); ok {
			return &modeldto.SubscriptionStatus{AgentID: agentID, IsActive: false}, nil
		}
		return nil, err
	}
	status := modeldto.SubscriptionStatus{
		AgentID:          agentID,
		SubscriptionType: info.SubscriptionType,
		CommissionRate:   info.CommissionRate,
		IsActive:         subscriptionActive(info, time.Now()),
		EndDate:          info.SubscriptionEndDate,
	}
	return &status, nil
}

// GetAgentOrders processes agent order listing requests.
func (proc *Processor) GetAgentOrders(ctx context.Context, agentID string) ([]modeldto.Order, error) {
	if agentID == "" {
		return nil, &serviceErrors.ServiceValidationError{Msg: "agent id is required"}
	}
	entries, err := proc.storage.GetAgentOrders(ctx, agentID)
	if err != nil {
		return nil, err
	}
	var orders []modeldto.Order
	for _, entry := range entries {
		orders = append(orders, toOrderDTO(entry))
	}
	return orders, nil
}

// GetAgentOrderDetails processes per-order commission breakdown requests.
func (proc *Processor) GetAgentOrderDetails(ctx context.Context, agentID string) ([]modeldto.AgentOrderDetail, error) {
	if agentID == "" {
		return nil, &serviceErrors.ServiceValidationError{Msg: "agent id is required"}
	}
	entries, err := proc.storage.GetAgentOrders(ctx, agentID)
	if err != nil {
		return nil, err
	}
	var details []modeldto.AgentOrderDetail
	for _, entry := range entries {
		details = append(details, toOrderDetail(entry))
	}
	return details, nil
}

// GetAgentWithdrawalDetails aggregates an agent's settlement state. The
// available balance uses the same formula and the same pending-orders filter
// as the withdrawal request check.
func (proc *Processor) GetAgentWithdrawalDetails(ctx context.Context, agentID string) (*modeldto.WithdrawalDetails, error) {
	if agentID == "" {
		return nil, &serviceErrors.ServiceValidationError{Msg: "agent id is required"}
	}
	pending, err := proc.storage.GetPendingCommissionOrders(ctx, agentID)
	if err != nil {
		return nil, err
	}
	available := decimal.Zero
	var pendingDetails []modeldto.AgentOrderDetail
	for _, entry := range pending {
		detail := toOrderDetail(entry)
		available = available.Add(detail.CommissionAmount)
		pendingDetails = append(pendingDetails, detail)
	}
	withdrawals, err := proc.storage.GetWithdrawals(ctx, agentID)
	if err != nil {
		return nil, err
	}
	var withdrawalDTOs []modeldto.Withdrawal
	for _, entry := range withdrawals {
		withdrawalDTOs = append(withdrawalDTOs, toWithdrawalDTO(entry))
	}
	details := modeldto.WithdrawalDetails{
		AgentID:          agentID,
		AvailableBalance: available,
		PendingOrders:    pendingDetails,
		Withdrawals:      withdrawalDTOs,
	}
	return &details, nil
}

// CreateWithdrawalRequest settles the listed pending commissions into a new
// withdrawal. The storage layer re-prices the orders under lock; the request
// fails without side effects when the amount exceeds what the orders carry.
func (proc *Processor) CreateWithdrawalRequest(ctx context.Context, agentID string, withdrawal modeldto.NewWithdrawal) (*modeldto.Withdrawal, error) {
	if agentID == "" {
		return nil, &serviceErrors.ServiceValidationError{Msg: "agent id is required"}
	}
	if !withdrawal.Amount.IsPositive() {
		return nil, &serviceErrors.ServiceValidationError{Msg: "amount must be positive"}
	}
	if len(withdrawal.OrderIDs) == 0 {
		return nil, &serviceErrors.ServiceValidationError{Msg: "order_ids are required"}
	}
	if withdrawal.BankName == "" || withdrawal.AccountNumber == "" {
		return nil, &serviceErrors.ServiceValidationError{Msg: "bank_name and account_number are required"}
	}
	if err := goluhn.Validate(withdrawal.AccountNumber); err != nil {
		return nil, &serviceErrors.ServiceValidationError{Msg: fmt.Sprintf("illegal account number %s", withdrawal.AccountNumber)}
	}
	user, err := proc.storage.GetUserByAgentID(ctx, agentID)
	if err != nil {
		return nil, err
	}
	entry := modelstorage.WithdrawalStorageEntry{
		AgentID:              agentID,
		Amount:               withdrawal.Amount,
		OrderIDs:             withdrawal.OrderIDs,
		TransactionReference: "PXW-" + proc.secretary.NewID(),
		Email:                user.Email,
		BankName:             withdrawal.BankName,
		AccountNumber:        withdrawal.AccountNumber,
	}
	created, err := proc.storage.AddWithdrawal(ctx, entry)
	if err != nil {
		if _, ok := err.(*storageErrors.NotEnoughFundsError); ok {
			return nil, &serviceErrors.ServiceNotEnoughFunds{Msg: fmt.Sprintf("requested amount %s exceeds the available commission balance", withdrawal.Amount)}
		}
		return nil, err
	}
	proc.mailer.Enqueue(mail.WithdrawalRequested(user.Email, created.TransactionReference, created.Amount.StringFixed(2)))
	dto := toWithdrawalDTO(*created)
	return &dto, nil
}

// UpdateWithdrawalStatus processes administrative withdrawal transitions and
// returns the order identifiers the transition cascaded to.
func (proc *Processor) UpdateWithdrawalStatus(ctx context.Context, withdrawalID int64, update modeldto.WithdrawalStatusUpdate) ([]string, error) {
	if withdrawalID <= 0 {
		return nil, &serviceErrors.ServiceValidationError{Msg: "withdrawal id is required"}
	}
	if !withdrawalStatuses[update.Status] {
		return nil, &serviceErrors.ServiceValidationError{Msg: fmt.Sprintf("invalid withdrawal status %s", update.Status)}
	}
	entry, orderIDs, err := proc.storage.UpdateWithdrawalStatus(ctx, withdrawalID, update.Status)
	if err != nil {
		return nil, err
	}
	proc.mailer.Enqueue(mail.WithdrawalStatusUpdated(entry.Email, entry.TransactionReference, update.Status))
	return orderIDs, nil
}

func toOrderDetail(entry modelstorage.OrderStorageEntry) modeldto.AgentOrderDetail {
	return modeldto.AgentOrderDetail{
		OrderID:          entry.OrderID,
		Amount:           entry.Amount,
		CommissionRate:   entry.Commission,
		CommissionAmount: CommissionAmount(entry.Commission, entry.Amount),
		IsPaidAgent:      entry.IsPaidAgent,
	}
}

func toWithdrawalDTO(entry modelstorage.WithdrawalStorageEntry) modeldto.Withdrawal {
	return modeldto.Withdrawal{
		WithdrawalID:         entry.ID,
		Amount:               entry.Amount,
		OrderIDs:             entry.OrderIDs,
		TransactionReference: entry.TransactionReference,
		Status:               entry.Status,
		BankName:             entry.BankName,
		AccountNumber:        entry.AccountNumber,
		CreatedAt:            entry.CreatedAt,
	}
}
