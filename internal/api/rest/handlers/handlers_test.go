package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/devtomiwa9/pxsm-backend/internal/config"
	"github.com/devtomiwa9/pxsm-backend/internal/logger"
	"github.com/devtomiwa9/pxsm-backend/internal/models/modelclaims"
	"github.com/devtomiwa9/pxsm-backend/internal/models/modeldto"
	serviceErrors "github.com/devtomiwa9/pxsm-backend/internal/service/ledger/errors"
	storageErrors "github.com/devtomiwa9/pxsm-backend/internal/storage/errors"
	"github.com/go-chi/chi"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubLedger returns canned results; fields left nil yield zero values.
type stubLedger struct {
	signUpErr        error
	updateBalanceErr error
	balance          decimal.Decimal
	balanceErr       error
}

func (s *stubLedger) GetClaims(string) (*modelclaims.MyCustomClaims, error) { return nil, nil }
func (s *stubLedger) SignUp(_ context.Context, credentials modeldto.Credentials) (string, *modeldto.User, error) {
	if s.signUpErr != nil {
		return "", nil, s.signUpErr
	}
	return "token", &modeldto.User{UserID: "user-1", Username: credentials.Username, Email: credentials.Email}, nil
}
func (s *stubLedger) Login(context.Context, modeldto.Credentials, string) (string, *modeldto.User, error) {
	return "", nil, nil
}
func (s *stubLedger) AgentSignUp(context.Context, modeldto.AgentCredentials) (string, *modeldto.User, error) {
	return "", nil, nil
}
func (s *stubLedger) AgentLogin(context.Context, modeldto.AgentCredentials) (string, *modeldto.User, error) {
	return "", nil, nil
}
func (s *stubLedger) CheckAgentID(context.Context, string) (*modeldto.User, error) { return nil, nil }
func (s *stubLedger) UpdateBalance(context.Context, modeldto.BalanceUpdate) (*modeldto.BalanceChange, error) {
	if s.updateBalanceErr != nil {
		return nil, s.updateBalanceErr
	}
	return &modeldto.BalanceChange{}, nil
}
func (s *stubLedger) SetBalance(context.Context, modeldto.BalanceSet) (*modeldto.BalanceChange, error) {
	return &modeldto.BalanceChange{}, nil
}
func (s *stubLedger) GetBalance(context.Context, string) (decimal.Decimal, error) {
	return s.balance, s.balanceErr
}
func (s *stubLedger) GetUserTransactions(context.Context, string) ([]modeldto.Transaction, error) {
	return nil, nil
}
func (s *stubLedger) CreateOrder(context.Context, modeldto.NewOrder) (*modeldto.Order, error) {
	return &modeldto.Order{}, nil
}
func (s *stubLedger) GetOrderHistory(context.Context, string) ([]modeldto.Order, error) {
	return nil, nil
}
func (s *stubLedger) SubscribeAgent(context.Context, string, modeldto.Subscription) (*modeldto.SubscriptionStatus, error) {
	return nil, nil
}
func (s *stubLedger) CheckAgentSubscription(context.Context, string) (*modeldto.SubscriptionStatus, error) {
	return nil, nil
}
func (s *stubLedger) GetAgentOrders(context.Context, string) ([]modeldto.Order, error) {
	return nil, nil
}
func (s *stubLedger) GetAgentOrderDetails(context.Context, string) ([]modeldto.AgentOrderDetail, error) {
	return nil, nil
}
func (s *stubLedger) GetAgentWithdrawalDetails(context.Context, string) (*modeldto.WithdrawalDetails, error) {
	return nil, nil
}
func (s *stubLedger) CreateWithdrawalRequest(context.Context, string, modeldto.NewWithdrawal) (*modeldto.Withdrawal, error) {
	return nil, nil
}
func (s *stubLedger) UpdateWithdrawalStatus(context.Context, int64, modeldto.WithdrawalStatusUpdate) ([]string, error) {
	return nil, nil
}
func (s *stubLedger) DumpTable(context.Context, string) ([]modeldto.User, error) { return nil, nil }
func (s *stubLedger) Ping(context.Context) error                                 { return nil }

func newTestHandler(t *testing.T, service *stubLedger) *Handler {
	t.Helper()
	log := logger.InitLog()
	h, err := InitHandlers(service, &config.ServerConfig{ServerAddress: ":1245"}, log)
	require.NoError(t, err)
	return h
}

func decodeEnvelope(t *testing.T, body string) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(body), &payload))
	return payload
}

func TestHandleSignUp(t *testing.T) {
	h := newTestHandler(t, &stubLedger{})
	request := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(`{"username":"ada","email":"ada@example.com","password":"s3cret"}`))
	recorder := httptest.NewRecorder()
	h.HandleSignUp().ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusCreated, recorder.Code)
	payload := decodeEnvelope(t, recorder.Body.String())
	assert.Equal(t, "success", payload["status"])
	assert.Equal(t, "token", payload["token"])
}

func TestHandleSignUpBadBody(t *testing.T) {
	h := newTestHandler(t, &stubLedger{})
	request := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader("{not json"))
	recorder := httptest.NewRecorder()
	h.HandleSignUp().ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	payload := decodeEnvelope(t, recorder.Body.String())
	assert.Equal(t, "error", payload["status"])
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"conflict", &storageErrors.AlreadyExistsError{ID: "ada@example.com"}, http.StatusConflict},
		{"not found", &storageErrors.NotFoundError{}, http.StatusNotFound},
		{"not enough funds", &storageErrors.NotEnoughFundsError{}, http.StatusPaymentRequired},
		{"validation", &serviceErrors.ServiceValidationError{Msg: "bad input"}, http.StatusBadRequest},
		{"unauthorized", &serviceErrors.ServiceUnauthorized{Msg: "no"}, http.StatusUnauthorized},
		{"context timeout", &storageErrors.ContextTimeoutExceededError{Err: context.DeadlineExceeded}, http.StatusGatewayTimeout},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestHandler(t, &stubLedger{signUpErr: tc.err})
			request := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(`{"username":"ada","email":"a@b.c","password":"p"}`))
			recorder := httptest.NewRecorder()
			h.HandleSignUp().ServeHTTP(recorder, request)

			assert.Equal(t, tc.wantCode, recorder.Code)
			payload := decodeEnvelope(t, recorder.Body.String())
			assert.Equal(t, "error", payload["status"])
		})
	}
}

func TestErrorMappingSanitizesInternalErrors(t *testing.T) {
	h := newTestHandler(t, &stubLedger{signUpErr: &storageErrors.ExecutionPSQLError{Err: context.Canceled}})
	request := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(`{"username":"ada","email":"a@b.c","password":"p"}`))
	recorder := httptest.NewRecorder()
	h.HandleSignUp().ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	payload := decodeEnvelope(t, recorder.Body.String())
	assert.Equal(t, "internal server error", payload["message"])
	assert.NotContains(t, recorder.Body.String(), "could not execute")
}

func TestHandleGetBalanceRouting(t *testing.T) {
	h := newTestHandler(t, &stubLedger{balance: decimal.RequireFromString("12.34")})
	r := chi.NewRouter()
	r.Get("/balance/get/{userID}", h.HandleGetBalance())
	request := httptest.NewRequest(http.MethodGet, "/balance/get/user-1", nil)
	recorder := httptest.NewRecorder()
	r.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	payload := decodeEnvelope(t, recorder.Body.String())
	assert.Equal(t, "success", payload["status"])
}
