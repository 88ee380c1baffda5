package ledger

import (
	"context"
	"fmt"

	"github.com/devtomiwa9/pxsm-backend/internal/models/modeldto"
	"github.com/devtomiwa9/pxsm-backend/internal/models/modelstorage"
	serviceErrors "github.com/devtomiwa9/pxsm-backend/internal/service/ledger/errors"
	"github.com/devtomiwa9/pxsm-backend/internal/service/mail"
	storageErrors "github.com/devtomiwa9/pxsm-backend/internal/storage/errors"
)

var orderStatuses = map[string]bool{
	"pending":    true,
	"completing": true,
	"completed":  true,
	"cancelled":  true,
}

// paymentDue reports whether creating an order in this status debits the
// user balance.
func paymentDue(status string) bool {
	return status == "pending" || status == "completing"
}

// CreateOrder processes new order requests. Orders whose status implies
// payment debit the user balance atomically with the order insert; orders
// referencing an agent capture that agent's commission rate at creation time.
func (proc *Processor) CreateOrder(ctx context.Context, order modeldto.NewOrder) (*modeldto.Order, error) {
	if order.UserID == "" || order.OrderID == "" || order.ServiceName == "" || order.Link == "" || order.Status == "" {
		return nil, &serviceErrors.ServiceValidationError{Msg: "user_id, order_id, service_name, link, amount, and status are required"}
	}
	if !orderStatuses[order.Status] {
		return nil, &serviceErrors.ServiceValidationError{Msg: fmt.Sprintf("invalid order status %s", order.Status)}
	}
	if !order.Amount.IsPositive() {
		return nil, &serviceErrors.ServiceValidationError{Msg: "amount must be positive"}
	}
	user, err := proc.storage.GetUserByID(ctx, order.UserID)
	if err != nil {
		return nil, err
	}
	commissionRate := proc.defaultCommissionRate
	if order.AgentID != "" {
		if _, err := proc.storage.GetUserByAgentID(ctx, order.AgentID); err != nil {
			return nil, err
		}
		info, err := proc.storage.GetAgentInfo(ctx, order.AgentID)
		if err == nil {
			commissionRate = info.CommissionRate
		} else if _, ok := err.(*storageErrors.NotFoundError); !ok {
			return nil, err
		}
	}
	entry := modelstorage.OrderStorageEntry{
		UserID:      order.UserID,
		OrderID:     order.OrderID,
		ServiceName: order.ServiceName,
		Link:        order.Link,
		Amount:      order.Amount,
		Status:      order.Status,
		AgentID:     order.AgentID,
		IsPaidAgent: "pending",
	}
	if order.AgentID != "" {
		entry.Commission = commissionRate
	}
	_, err = proc.storage.AddNewOrder(ctx, entry, paymentDue(order.Status))
	if err != nil {
		return nil, err
	}
	proc.mailer.Enqueue(mail.OrderPlaced(user.Email, user.Username, order.OrderID, order.ServiceName, order.Amount.StringFixed(2)))
	created := toOrderDTO(entry)
	return &created, nil
}

// GetOrderHistory processes order history query requests.
func (proc *Processor) GetOrderHistory(ctx context.Context, userID string) ([]modeldto.Order, error) {
	if userID == "" {
		return nil, &serviceErrors.ServiceValidationError{Msg: "user id is required"}
	}
	entries, err := proc.storage.GetOrders(ctx, userID)
	if err != nil {
		return nil, err
	}
	var orders []modeldto.Order
	for _, entry := range entries {
		orders = append(orders, toOrderDTO(entry))
	}
	return orders, nil
}
