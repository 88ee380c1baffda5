package ledger

import (
	"context"

	"github.com/devtomiwa9/pxsm-backend/internal/models/modelclaims"
	"github.com/devtomiwa9/pxsm-backend/internal/models/modeldto"
	"github.com/devtomiwa9/pxsm-backend/internal/service/mail"
	"github.com/shopspring/decimal"
)

// Mailer enqueues fire-and-forget notifications.
type Mailer interface {
	Enqueue(msg mail.Message) bool
}

// Ledger is the operation surface consumed by the API layer.
type Ledger interface {
	GetClaims(accessToken string) (*modelclaims.MyCustomClaims, error)

	SignUp(ctx context.Context, credentials modeldto.Credentials) (string, *modeldto.User, error)
	Login(ctx context.Context, credentials modeldto.Credentials, remoteAddr string) (string, *modeldto.User, error)
	AgentSignUp(ctx context.Context, credentials modeldto.AgentCredentials) (string, *modeldto.User, error)
	AgentLogin(ctx context.Context, credentials modeldto.AgentCredentials) (string, *modeldto.User, error)
	CheckAgentID(ctx context.Context, agentID string) (*modeldto.User, error)

	UpdateBalance(ctx context.Context, update modeldto.BalanceUpdate) (*modeldto.BalanceChange, error)
	SetBalance(ctx context.Context, update modeldto.BalanceSet) (*modeldto.BalanceChange, error)
	GetBalance(ctx context.Context, userID string) (decimal.Decimal, error)
	GetUserTransactions(ctx context.Context, userID string) ([]modeldto.Transaction, error)

	CreateOrder(ctx context.Context, order modeldto.NewOrder) (*modeldto.Order, error)
	GetOrderHistory(ctx context.Context, userID string) ([]modeldto.Order, error)

	SubscribeAgent(ctx context.Context, agentID string, subscription modeldto.Subscription) (*modeldto.SubscriptionStatus, error)
	CheckAgentSubscription(ctx context.Context, agentID string) (*modeldto.SubscriptionStatus, error)
	GetAgentOrders(ctx context.Context, agentID string) ([]modeldto.Order, error)
	GetAgentOrderDetails(ctx context.Context, agentID string) ([]modeldto.AgentOrderDetail, error)
	GetAgentWithdrawalDetails(ctx context.Context, agentID string) (*modeldto.WithdrawalDetails, error)
	CreateWithdrawalRequest(ctx context.Context, agentID string, withdrawal modeldto.NewWithdrawal) (*modeldto.Withdrawal, error)
	UpdateWithdrawalStatus(ctx context.Context, withdrawalID int64, update modeldto.WithdrawalStatusUpdate) ([]string, error)

	DumpTable(ctx context.Context, table string) ([]modeldto.User, error)
	Ping(ctx context.Context) error
}
