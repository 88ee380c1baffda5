package ledger

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/devtomiwa9/pxsm-backend/internal/config"
	"github.com/devtomiwa9/pxsm-backend/internal/models/modelstorage"
	"github.com/devtomiwa9/pxsm-backend/internal/service/mail"
	"github.com/devtomiwa9/pxsm-backend/internal/service/secretary"
	storageErrors "github.com/devtomiwa9/pxsm-backend/internal/storage/errors"
	"github.com/shopspring/decimal"
)

// fakeStorage is an in-memory stand-in mirroring the DB layer's observable
// behavior: idempotency replay, duplicate detection, atomic failure (nothing
// mutates when an operation errors), pending-only withdrawal selection.
type fakeStorage struct {
	mu               sync.Mutex
	users            map[string]*modelstorage.UserStorageEntry
	transactions     []modelstorage.TransactionStorageEntry
	txByKey          map[string]int
	orders           []*modelstorage.OrderStorageEntry
	agentInfo        map[string]*modelstorage.AgentInfoStorageEntry
	withdrawals      map[int64]*modelstorage.WithdrawalStorageEntry
	withdrawnOrders  map[int64][]string
	nextWithdrawalID int64
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		users:           make(map[string]*modelstorage.UserStorageEntry),
		txByKey:         make(map[string]int),
		agentInfo:       make(map[string]*modelstorage.AgentInfoStorageEntry),
		withdrawals:     make(map[int64]*modelstorage.WithdrawalStorageEntry),
		withdrawnOrders: make(map[int64][]string),
	}
}

func (f *fakeStorage) AddNewUser(_ context.Context, userID, username, email, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			return &storageErrors.AlreadyExistsError{ID: email}
		}
	}
	f.users[userID] = &modelstorage.UserStorageEntry{
		UserID:       userID,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Balance:      decimal.Zero,
		RegisteredAt: time.Now().Format(time.RFC3339),
	}
	return nil
}

func (f *fakeStorage) GetUserByEmail(_ context.Context, email string) (*modelstorage.UserStorageEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			entry := *user
			return &entry, nil
		}
	}
	return nil, &storageErrors.NotFoundError{}
}

func (f *fakeStorage) GetUserByID(_ context.Context, userID string) (*modelstorage.UserStorageEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return nil, &storageErrors.NotFoundError{}
	}
	entry := *user
	return &entry, nil
}

func (f *fakeStorage) GetUserByAgentID(_ context.Context, agentID string) (*modelstorage.UserStorageEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.AgentID == agentID && agentID != "" {
			entry := *user
			return &entry, nil
		}
	}
	return nil, &storageErrors.NotFoundError{}
}

func (f *fakeStorage) PromoteToAgent(_ context.Context, userID, agentID, agentPasswordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return &storageErrors.NotFoundError{}
	}
	user.AgentID = agentID
	user.IsAgent = true
	user.AgentHash = agentPasswordHash
	return nil
}

func (f *fakeStorage) UpdateBalance(_ context.Context, userID string, amount decimal.Decimal, txType, idempotencyKey, description string) (*modelstorage.TransactionStorageEntry, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if idx, ok := f.txByKey[idempotencyKey]; ok {
		entry := f.transactions[idx]
		return &entry, true, nil
	}
	entry, err := f.applyBalanceChange(userID, amount, txType, idempotencyKey, description)
	if err != nil {
		return nil, false, err
	}
	return entry, false, nil
}

// applyBalanceChange mutates the user balance and appends exactly one
// transaction row, or does neither. Callers hold f.mu.
func (f *fakeStorage) applyBalanceChange(userID string, amount decimal.Decimal, txType, idempotencyKey, description string) (*modelstorage.TransactionStorageEntry, error) {
	user, ok := f.users[userID]
	if !ok {
		return nil, &storageErrors.NotFoundError{}
	}
	previous := user.Balance
	var next decimal.Decimal
	switch txType {
	case TypeCredit:
		next = previous.Add(amount)
	case TypeDebit:
		if previous.LessThan(amount) {
			return nil, &storageErrors.NotEnoughFundsError{}
		}
		next = previous.Sub(amount)
	}
	user.Balance = next
	entry := modelstorage.TransactionStorageEntry{
		ID:              uint(len(f.transactions) + 1),
		UserID:          userID,
		Type:            txType,
		Amount:          amount,
		PreviousBalance: previous,
		NewBalance:      next,
		Status:          "completed",
		Description:     description,
		IdempotencyKey:  idempotencyKey,
		CreatedAt:       time.Now().Format(time.RFC3339),
	}
	f.transactions = append(f.transactions, entry)
	if idempotencyKey != "" {
		f.txByKey[idempotencyKey] = len(f.transactions) - 1
	}
	return &entry, nil
}

func (f *fakeStorage) SetBalance(_ context.Context, userID string, amount decimal.Decimal) (*modelstorage.TransactionStorageEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return nil, &storageErrors.NotFoundError{}
	}
	previous := user.Balance
	user.Balance = amount
	txType := TypeCredit
	if amount.LessThan(previous) {
		txType = TypeDebit
	}
	entry := modelstorage.TransactionStorageEntry{
		ID:              uint(len(f.transactions) + 1),
		UserID:          userID,
		Type:            txType,
		Amount:          amount.Sub(previous).Abs(),
		PreviousBalance: previous,
		NewBalance:      amount,
		Status:          "completed",
		Description:     "administrative balance adjustment",
		CreatedAt:       time.Now().Format(time.RFC3339),
	}
	f.transactions = append(f.transactions, entry)
	return &entry, nil
}

func (f *fakeStorage) GetBalance(_ context.Context, userID string) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return decimal.Zero, &storageErrors.NotFoundError{}
	}
	return user.Balance, nil
}

func (f *fakeStorage) GetTransactions(_ context.Context, userID string) ([]modelstorage.TransactionStorageEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var entries []modelstorage.TransactionStorageEntry
	for i := len(f.transactions) - 1; i >= 0; i-- {
		if f.transactions[i].UserID == userID {
			entries = append(entries, f.transactions[i])
		}
	}
	return entries, nil
}

func (f *fakeStorage) AddNewOrder(_ context.Context, order modelstorage.OrderStorageEntry, requiresPayment bool) (*modelstorage.TransactionStorageEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.orders {
		if existing.OrderID == order.OrderID {
			return nil, &storageErrors.AlreadyExistsError{ID: order.OrderID}
		}
	}
	var txEntry *modelstorage.TransactionStorageEntry
	if requiresPayment {
		entry, err := f.applyBalanceChange(order.UserID, order.Amount, TypeDebit, "order:"+order.OrderID, "debit for order "+order.OrderID)
		if err != nil {
			return nil, err
		}
		txEntry = entry
	}
	stored := order
	stored.ID = uint(len(f.orders) + 1)
	stored.CreatedAt = time.Now().Format(time.RFC3339)
	f.orders = append(f.orders, &stored)
	return txEntry, nil
}

func (f *fakeStorage) GetOrders(_ context.Context, userID string) ([]modelstorage.OrderStorageEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var entries []modelstorage.OrderStorageEntry
	for i := len(f.orders) - 1; i >= 0; i-- {
		if f.orders[i].UserID == userID {
			entries = append(entries, *f.orders[i])
		}
	}
	return entries, nil
}

func (f *fakeStorage) GetAgentInfo(_ context.Context, agentID string) (*modelstorage.AgentInfoStorageEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	info, ok := f.agentInfo[agentID]
	if !ok {
		return nil, &storageErrors.NotFoundError{}
	}
	entry := *info
	return &entry, nil
}

func (f *fakeStorage) UpsertAgentSubscription(_ context.Context, info modelstorage.AgentInfoStorageEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.agentInfo[info.AgentID]
	if ok {
		info.TotalEarnings = existing.TotalEarnings
		info.PendingEarnings = existing.PendingEarnings
	}
	f.agentInfo[info.AgentID] = &info
	return nil
}

func (f *fakeStorage) GetAgentOrders(_ context.Context, agentID string) ([]modelstorage.OrderStorageEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var entries []modelstorage.OrderStorageEntry
	for i := len(f.orders) - 1; i >= 0; i-- {
		if f.orders[i].AgentID == agentID {
			entries = append(entries, *f.orders[i])
		}
	}
	return entries, nil
}

func (f *fakeStorage) GetPendingCommissionOrders(_ context.Context, agentID string) ([]modelstorage.OrderStorageEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var entries []modelstorage.OrderStorageEntry
	for _, order := range f.orders {
		if order.AgentID == agentID && order.IsPaidAgent == "pending" {
			entries = append(entries, *order)
		}
	}
	return entries, nil
}

func (f *fakeStorage) AddWithdrawal(_ context.Context, withdrawal modelstorage.WithdrawalStorageEntry) (*modelstorage.WithdrawalStorageEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	available := decimal.Zero
	var claimed []*modelstorage.OrderStorageEntry
	for _, orderID := range withdrawal.OrderIDs {
		var found *modelstorage.OrderStorageEntry
		for _, order := range f.orders {
			if order.OrderID == orderID && order.AgentID == withdrawal.AgentID {
				found = order
				break
			}
		}
		if found == nil {
			return nil, &storageErrors.NotFoundError{}
		}
		if found.IsPaidAgent != "pending" {
			return nil, &storageErrors.AlreadyExistsError{ID: orderID}
		}
		available = available.Add(CommissionAmount(found.Commission, found.Amount))
		claimed = append(claimed, found)
	}
	if withdrawal.Amount.GreaterThan(available) {
		return nil, &storageErrors.NotEnoughFundsError{}
	}
	f.nextWithdrawalID++
	created := withdrawal
	created.ID = f.nextWithdrawalID
	created.Status = "pending"
	created.CreatedAt = time.Now().Format(time.RFC3339)
	f.withdrawals[created.ID] = &created
	f.withdrawnOrders[created.ID] = append([]string(nil), withdrawal.OrderIDs...)
	for _, order := range claimed {
		order.IsPaidAgent = "processing"
	}
	if info, ok := f.agentInfo[withdrawal.AgentID]; ok {
		info.PendingEarnings = info.PendingEarnings.Add(withdrawal.Amount)
	}
	return &created, nil
}

func (f *fakeStorage) UpdateWithdrawalStatus(_ context.Context, withdrawalID int64, status string) (*modelstorage.WithdrawalStorageEntry, []string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	withdrawal, ok := f.withdrawals[withdrawalID]
	if !ok {
		return nil, nil, &storageErrors.NotFoundError{}
	}
	previous := withdrawal.Status
	withdrawal.Status = status
	orderIDs := append([]string(nil), f.withdrawnOrders[withdrawalID]...)
	if status == "approved" || status == "failed" {
		for _, order := range f.orders {
			for _, orderID := range orderIDs {
				if order.OrderID == orderID {
					order.IsPaidAgent = status
				}
			}
		}
	}
	if status == "approved" && previous != "approved" {
		if info, ok := f.agentInfo[withdrawal.AgentID]; ok {
			info.PendingEarnings = info.PendingEarnings.Sub(withdrawal.Amount)
			info.TotalEarnings = info.TotalEarnings.Add(withdrawal.Amount)
		}
	}
	entry := *withdrawal
	return &entry, orderIDs, nil
}

func (f *fakeStorage) GetWithdrawals(_ context.Context, agentID string) ([]modelstorage.WithdrawalStorageEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var entries []modelstorage.WithdrawalStorageEntry
	for id := f.nextWithdrawalID; id >= 1; id-- {
		withdrawal, ok := f.withdrawals[id]
		if ok && withdrawal.AgentID == agentID {
			entries = append(entries, *withdrawal)
		}
	}
	return entries, nil
}

func (f *fakeStorage) DumpUsers(_ context.Context) ([]modelstorage.UserStorageEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var entries []modelstorage.UserStorageEntry
	for _, user := range f.users {
		entries = append(entries, *user)
	}
	return entries, nil
}

func (f *fakeStorage) Ping(_ context.Context) error {
	return nil
}

// countTransactions reports how many transaction rows exist for a user.
func (f *fakeStorage) countTransactions(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, entry := range f.transactions {
		if entry.UserID == userID {
			n++
		}
	}
	return n
}

// fakeMailer records enqueued messages.
type fakeMailer struct {
	mu       sync.Mutex
	messages []mail.Message
}

func (m *fakeMailer) Enqueue(msg mail.Message) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return true
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

func newTestService() (*Processor, *fakeStorage, *fakeMailer) {
	st := newFakeStorage()
	mailer := &fakeMailer{}
	sec, err := secretary.NewSecretaryService(&config.SecretConfig{SecretKey: "test_secret_key"})
	if err != nil {
		panic(err)
	}
	proc, err := InitService(st, sec, mailer, &config.PolicyConfig{DefaultCommissionRate: "5.00"})
	if err != nil {
		panic(err)
	}
	return proc, st, mailer
}

// seedUser registers a user directly and returns its generated id.
func seedUser(st *fakeStorage, email string, balance decimal.Decimal) string {
	userID := "user-" + strconv.Itoa(len(st.users)+1)
	st.users[userID] = &modelstorage.UserStorageEntry{
		UserID:   userID,
		Username: "tester",
		Email:    email,
		Balance:  balance,
	}
	return userID
}
