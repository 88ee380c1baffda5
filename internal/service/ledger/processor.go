// Package ledger provides intermediary layer functionality between the DB and API endpoint handlers.

package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/devtomiwa9/pxsm-backend/internal/config"
	"github.com/devtomiwa9/pxsm-backend/internal/models/modelclaims"
	"github.com/devtomiwa9/pxsm-backend/internal/models/modeldto"
	"github.com/devtomiwa9/pxsm-backend/internal/models/modelstorage"
	serviceErrors "github.com/devtomiwa9/pxsm-backend/internal/service/ledger/errors"
	"github.com/devtomiwa9/pxsm-backend/internal/service/mail"
	"github.com/devtomiwa9/pxsm-backend/internal/service/secretary"
	"github.com/devtomiwa9/pxsm-backend/internal/storage"
	"github.com/shopspring/decimal"
)

// Processor defines attributes of a struct available to its methods.
type Processor struct {
	storage               storage.Storage
	secretary             *secretary.Secretary
	mailer                Mailer
	defaultCommissionRate decimal.Decimal
}

// InitService initializes an intermediary service for data processing.
func InitService(st storage.Storage, sec *secretary.Secretary, mailer Mailer, policy *config.PolicyConfig) (*Processor, error) {
	if st == nil {
		return nil, &serviceErrors.ServiceFoundNilArgument{Msg: "nil storage was passed to service initializer"}
	}
	if sec == nil {
		return nil, &serviceErrors.ServiceFoundNilArgument{Msg: "nil secretary was passed to service initializer"}
	}
	if mailer == nil {
		return nil, &serviceErrors.ServiceFoundNilArgument{Msg: "nil mailer was passed to service initializer"}
	}
	if policy == nil {
		return nil, &serviceErrors.ServiceFoundNilArgument{Msg: "nil policy config was passed to service initializer"}
	}
	processor := &Processor{
		storage:               st,
		secretary:             sec,
		mailer:                mailer,
		defaultCommissionRate: policy.CommissionRate(),
	}
	return processor, nil
}

// GetClaims retrieves verified identity claims from a token.
func (proc *Processor) GetClaims(accessToken string) (*modelclaims.MyCustomClaims, error) {
	return proc.secretary.ValidateToken(accessToken)
}

// SignUp processes user register requests.
func (proc *Processor) SignUp(ctx context.Context, credentials modeldto.Credentials) (string, *modeldto.User, error) {
	if credentials.Email == "" || credentials.Password == "" || credentials.Username == "" {
		return "", nil, &serviceErrors.ServiceValidationError{Msg: "email, password, and username are required"}
	}
	passwordHash, err := proc.secretary.HashPassword(credentials.Password)
	if err != nil {
		return "", nil, err
	}
	userID := proc.secretary.NewID()
	err = proc.storage.AddNewUser(ctx, userID, credentials.Username, credentials.Email, passwordHash)
	if err != nil {
		return "", nil, err
	}
	accessToken, err := proc.secretary.GetTokenForUser(userID, credentials.Email, "", false)
	if err != nil {
		return "", nil, err
	}
	proc.mailer.Enqueue(mail.WelcomeMessage(credentials.Email, credentials.Username))
	user := modeldto.User{UserID: userID, Username: credentials.Username, Email: credentials.Email}
	return accessToken, &user, nil
}

// Login processes user login requests.
func (proc *Processor) Login(ctx context.Context, credentials modeldto.Credentials, remoteAddr string) (string, *modeldto.User, error) {
	if credentials.Email == "" || credentials.Password == "" {
		return "", nil, &serviceErrors.ServiceValidationError{Msg: "email and password are required"}
	}
	entry, err := proc.storage.GetUserByEmail(ctx, credentials.Email)
	if err != nil {
		return "", nil, err
	}
	if !proc.secretary.VerifyPassword(entry.PasswordHash, credentials.Password) {
		return "", nil, &serviceErrors.ServiceUnauthorized{Msg: "invalid email or password"}
	}
	accessToken, err := proc.secretary.GetTokenForUser(entry.UserID, entry.Email, entry.AgentID, entry.IsAgent)
	if err != nil {
		return "", nil, err
	}
	proc.mailer.Enqueue(mail.LoginNotification(entry.Email, entry.Username, time.Now().Format(time.RFC1123), remoteAddr))
	user := modeldto.User{UserID: entry.UserID, Username: entry.Username, Email: entry.Email, AgentID: entry.AgentID}
	return accessToken, &user, nil
}

// AgentSignUp promotes an existing user into the agent program.
func (proc *Processor) AgentSignUp(ctx context.Context, credentials modeldto.AgentCredentials) (string, *modeldto.User, error) {
	if credentials.Email == "" || credentials.Password == "" || credentials.AgentPassword == "" {
		return "", nil, &serviceErrors.ServiceValidationError{Msg: "email, password, and agent_password are required"}
	}
	entry, err := proc.storage.GetUserByEmail(ctx, credentials.Email)
	if err != nil {
		return "", nil, err
	}
	if !proc.secretary.VerifyPassword(entry.PasswordHash, credentials.Password) {
		return "", nil, &serviceErrors.ServiceUnauthorized{Msg: "invalid email or password"}
	}
	if entry.IsAgent {
		return "", nil, &serviceErrors.ServiceValidationError{Msg: fmt.Sprintf("user %s is already an agent", entry.Email)}
	}
	agentHash, err := proc.secretary.HashPassword(credentials.AgentPassword)
	if err != nil {
		return "", nil, err
	}
	agentID := proc.secretary.NewID()
	err = proc.storage.PromoteToAgent(ctx, entry.UserID, agentID, agentHash)
	if err != nil {
		return "", nil, err
	}
	accessToken, err := proc.secretary.GetTokenForUser(entry.UserID, entry.Email, agentID, true)
	if err != nil {
		return "", nil, err
	}
	user := modeldto.User{UserID: entry.UserID, Username: entry.Username, Email: entry.Email, AgentID: agentID}
	return accessToken, &user, nil
}

// AgentLogin processes agent login requests.
func (proc *Processor) AgentLogin(ctx context.Context, credentials modeldto.AgentCredentials) (string, *modeldto.User, error) {
	if credentials.Email == "" || credentials.AgentPassword == "" {
		return "", nil, &serviceErrors.ServiceValidationError{Msg: "email and agent_password are required"}
	}
	entry, err := proc.storage.GetUserByEmail(ctx, credentials.Email)
	if err != nil {
		return "", nil, err
	}
	if !entry.IsAgent || !proc.secretary.VerifyPassword(entry.AgentHash, credentials.AgentPassword) {
		return "", nil, &serviceErrors.ServiceUnauthorized{Msg: "invalid agent credentials"}
	}
	accessToken, err := proc.secretary.GetTokenForUser(entry.UserID, entry.Email, entry.AgentID, true)
	if err != nil {
		return "", nil, err
	}
	user := modeldto.User{UserID: entry.UserID, Username: entry.Username, Email: entry.Email, AgentID: entry.AgentID}
	return accessToken, &user, nil
}

// CheckAgentID verifies that a referral identifier belongs to a registered agent.
func (proc *Processor) CheckAgentID(ctx context.Context, agentID string) (*modeldto.User, error) {
	if agentID == "" {
		return nil, &serviceErrors.ServiceValidationError{Msg: "agent id is required"}
	}
	entry, err := proc.storage.GetUserByAgentID(ctx, agentID)
	if err != nil {
		return nil, err
	}
	user := modeldto.User{UserID: entry.UserID, Username: entry.Username, Email: entry.Email, AgentID: entry.AgentID}
	return &user, nil
}

// DumpTable serves the restricted table viewer. Table names are matched
// against a fixed set, never interpolated into SQL.
func (proc *Processor) DumpTable(ctx context.Context, table string) ([]modeldto.User, error) {
	switch table {
	case "users":
		entries, err := proc.storage.DumpUsers(ctx)
		if err != nil {
			return nil, err
		}
		users := make([]modeldto.User, 0, len(entries))
		for _, entry := range entries {
			users = append(users, modeldto.User{UserID: entry.UserID, Username: entry.Username, Email: entry.Email, AgentID: entry.AgentID})
		}
		return users, nil
	default:
		return nil, &serviceErrors.ServiceValidationError{Msg: fmt.Sprintf("invalid table name %s", table)}
	}
}

// Ping reports DB connectivity.
func (proc *Processor) Ping(ctx context.Context) error {
	return proc.storage.Ping(ctx)
}

func toOrderDTO(entry modelstorage.OrderStorageEntry) modeldto.Order {
	return modeldto.Order{
		OrderID:     entry.OrderID,
		ServiceName: entry.ServiceName,
		Link:        entry.Link,
		Amount:      entry.Amount,
		Status:      entry.Status,
		AgentID:     entry.AgentID,
		Commission:  entry.Commission,
		IsPaidAgent: entry.IsPaidAgent,
		CreatedAt:   entry.CreatedAt,
	}
}
