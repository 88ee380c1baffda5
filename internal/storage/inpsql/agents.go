package inpsql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/devtomiwa9/pxsm-backend/internal/models/modelstorage"
	storageErrors "github.com/devtomiwa9/pxsm-backend/internal/storage/errors"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/shopspring/decimal"
)

const withdrawalColumns = "id, agent_id, amount, order_ids, transaction_reference, email, status, bank_name, account_number, created_at"

func (s *Storage) GetAgentInfo(ctx context.Context, agentID string) (*modelstorage.AgentInfoStorageEntry, error) {
	selectStmt, err := s.DB.PrepareContext(ctx, "SELECT id, agent_id, agent_user_id, subscription_type, commission_rate, subscription_amount, is_paid, subscription_start_date, subscription_end_date, total_earnings, pending_earnings FROM agent_info WHERE agent_id = $1")
	if err != nil {
		return nil, &storageErrors.StatementPSQLError{Err: err}
	}
	defer selectStmt.Close()
	chanOk := make(chan modelstorage.AgentInfoStorageEntry)
	chanEr := make(chan error)
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		var queryOutput modelstorage.AgentInfoStorageEntry
		err := selectStmt.QueryRowContext(ctx, agentID).Scan(&queryOutput.ID, &queryOutput.AgentID, &queryOutput.AgentUserID, &queryOutput.SubscriptionType, &queryOutput.CommissionRate, &queryOutput.SubscriptionAmount, &queryOutput.IsPaid, &queryOutput.SubscriptionStartDate, &queryOutput.SubscriptionEndDate, &queryOutput.TotalEarnings, &queryOutput.PendingEarnings)
		if err != nil {
			chanEr <- scanNoRows(err)
			return
		}
		chanOk <- queryOutput
	}()
	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg(fmt.Sprintf("retrieving agent info failed for %s", agentID))
		return nil, &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg(fmt.Sprintf("retrieving agent info failed for %s", agentID))
		return nil, methodErr
	case entry := <-chanOk:
		return &entry, nil
	}
}

func (s *Storage) UpsertAgentSubscription(ctx context.Context, info modelstorage.AgentInfoStorageEntry) error {
	upsertStmt, err := s.DB.PrepareContext(ctx, `INSERT INTO agent_info
		(agent_id, agent_user_id, subscription_type, commission_rate, subscription_amount, is_paid, subscription_start_date, subscription_end_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (agent_id) DO UPDATE SET
		subscription_type = EXCLUDED.subscription_type,
		commission_rate = EXCLUDED.commission_rate,
		subscription_amount = EXCLUDED.subscription_amount,
		is_paid = EXCLUDED.is_paid,
		subscription_start_date = EXCLUDED.subscription_start_date,
		subscription_end_date = EXCLUDED.subscription_end_date`)
	if err != nil {
		return &storageErrors.StatementPSQLError{Err: err}
	}
	defer upsertStmt.Close()
	chanOk := make(chan bool)
	chanEr := make(chan error)
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		_, err := upsertStmt.ExecContext(ctx, info.AgentID, info.AgentUserID, info.SubscriptionType, info.CommissionRate, info.SubscriptionAmount, info.IsPaid, info.SubscriptionStartDate, info.SubscriptionEndDate)
		if err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		chanOk <- true
	}()
	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg(fmt.Sprintf("agent subscription upsert failed for %s", info.AgentID))
		return &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg(fmt.Sprintf("agent subscription upsert failed for %s", info.AgentID))
		return methodErr
	case <-chanOk:
		s.log.Info().Msg(fmt.Sprintf("agent subscription upsert done for %s", info.AgentID))
		return nil
	}
}

func (s *Storage) GetAgentOrders(ctx context.Context, agentID string) ([]modelstorage.OrderStorageEntry, error) {
	return s.getOrdersWhere(ctx, "SELECT "+orderColumns+" FROM order_history WHERE agent_id = $1 ORDER BY created_at DESC", agentID)
}

func (s *Storage) GetPendingCommissionOrders(ctx context.Context, agentID string) ([]modelstorage.OrderStorageEntry, error) {
	return s.getOrdersWhere(ctx, "SELECT "+orderColumns+" FROM order_history WHERE agent_id = $1 AND is_paid_agent = 'pending' ORDER BY created_at", agentID)
}

// AddWithdrawal settles pending commissions into a withdrawal request. The
// listed orders are locked and re-priced inside the DB transaction, so no
// order can be claimed by two concurrent withdrawals.
func (s *Storage) AddWithdrawal(ctx context.Context, withdrawal modelstorage.WithdrawalStorageEntry) (*modelstorage.WithdrawalStorageEntry, error) {
	chanOk := make(chan modelstorage.WithdrawalStorageEntry)
	chanEr := make(chan error)
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		tx, err := s.DB.BeginTx(ctx, nil)
		if err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		defer tx.Rollback()
		available := decimal.Zero
		orderCommissions := make(map[string]decimal.Decimal, len(withdrawal.OrderIDs))
		for _, orderID := range withdrawal.OrderIDs {
			var amount, rate decimal.Decimal
			var isPaidAgent string
			err = tx.QueryRowContext(ctx, "SELECT amount, commission, is_paid_agent FROM order_history WHERE order_id = $1 AND agent_id = $2 FOR UPDATE", orderID, withdrawal.AgentID).
				Scan(&amount, &rate, &isPaidAgent)
			if err != nil {
				chanEr <- scanNoRows(err)
				return
			}
			if isPaidAgent != "pending" {
				chanEr <- &storageErrors.AlreadyExistsError{Err: nil, ID: orderID}
				return
			}
			commission := rate.Mul(amount).Div(decimal.NewFromInt(100)).Round(2)
			orderCommissions[orderID] = commission
			available = available.Add(commission)
		}
		if withdrawal.Amount.GreaterThan(available) {
			chanEr <- &storageErrors.NotEnoughFundsError{}
			return
		}
		now := time.Now().Format(time.RFC3339)
		var withdrawalID int64
		err = tx.QueryRowContext(ctx,
			"INSERT INTO agent_withdrawals (agent_id, amount, order_ids, transaction_reference, email, status, bank_name, account_number, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id",
			withdrawal.AgentID, withdrawal.Amount, strings.Join(withdrawal.OrderIDs, ","), withdrawal.TransactionReference, withdrawal.Email, "pending", withdrawal.BankName, withdrawal.AccountNumber, now).Scan(&withdrawalID)
		if err != nil {
			if err, ok := err.(*pgconn.PgError); ok && err.Code == pgerrcode.UniqueViolation {
				chanEr <- &storageErrors.AlreadyExistsError{Err: err, ID: withdrawal.TransactionReference}
				return
			}
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		for _, orderID := range withdrawal.OrderIDs {
			_, err = tx.ExecContext(ctx,
				"INSERT INTO withdrawn_orders (withdrawal_id, order_id, agent_id, amount, created_at) VALUES ($1, $2, $3, $4, $5)",
				withdrawalID, orderID, withdrawal.AgentID, orderCommissions[orderID], now)
			if err != nil {
				chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
				return
			}
			_, err = tx.ExecContext(ctx, "UPDATE order_history SET is_paid_agent = 'processing' WHERE order_id = $1", orderID)
			if err != nil {
				chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
				return
			}
		}
		// agent rows from before the first subscription have no aggregate yet
		_, err = tx.ExecContext(ctx, "UPDATE agent_info SET pending_earnings = pending_earnings + $1 WHERE agent_id = $2", withdrawal.Amount, withdrawal.AgentID)
		if err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		if err := tx.Commit(); err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		created := withdrawal
		created.ID = withdrawalID
		created.Status = "pending"
		created.CreatedAt = now
		chanOk <- created
	}()
	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg(fmt.Sprintf("adding withdrawal failed for %s", withdrawal.AgentID))
		return nil, &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg(fmt.Sprintf("adding withdrawal failed for %s", withdrawal.AgentID))
		return nil, methodErr
	case entry := <-chanOk:
		s.log.Info().Msg(fmt.Sprintf("adding withdrawal done for %s", withdrawal.AgentID))
		return &entry, nil
	}
}

type withdrawalStatusResult struct {
	entry    modelstorage.WithdrawalStorageEntry
	orderIDs []string
}

// UpdateWithdrawalStatus transitions a withdrawal and cascades the new state
// to exactly the orders joined through withdrawn_orders.
func (s *Storage) UpdateWithdrawalStatus(ctx context.Context, withdrawalID int64, status string) (*modelstorage.WithdrawalStorageEntry, []string, error) {
	chanOk := make(chan withdrawalStatusResult)
	chanEr := make(chan error)
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		tx, err := s.DB.BeginTx(ctx, nil)
		if err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		defer tx.Rollback()
		var entry modelstorage.WithdrawalStorageEntry
		entry.ID = withdrawalID
		err = tx.QueryRowContext(ctx, "SELECT agent_id, amount, status, email, transaction_reference FROM agent_withdrawals WHERE id = $1 FOR UPDATE", withdrawalID).
			Scan(&entry.AgentID, &entry.Amount, &entry.Status, &entry.Email, &entry.TransactionReference)
		if err != nil {
			chanEr <- scanNoRows(err)
			return
		}
		current := entry.Status
		_, err = tx.ExecContext(ctx, "UPDATE agent_withdrawals SET status = $1 WHERE id = $2", status, withdrawalID)
		if err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		rows, err := tx.QueryContext(ctx, "SELECT order_id FROM withdrawn_orders WHERE withdrawal_id = $1", withdrawalID)
		if err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		var orderIDs []string
		for rows.Next() {
			var orderID string
			if err = rows.Scan(&orderID); err != nil {
				rows.Close()
				chanEr <- &storageErrors.ScanningPSQLError{Err: err}
				return
			}
			orderIDs = append(orderIDs, orderID)
		}
		if err = rows.Err(); err != nil {
			rows.Close()
			chanEr <- &storageErrors.ScanningPSQLError{Err: err}
			return
		}
		rows.Close()
		if status == "approved" || status == "failed" {
			for _, orderID := range orderIDs {
				_, err = tx.ExecContext(ctx, "UPDATE order_history SET is_paid_agent = $1 WHERE order_id = $2", status, orderID)
				if err != nil {
					chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
					return
				}
			}
		}
		if status == "approved" && current != "approved" {
			_, err = tx.ExecContext(ctx, "UPDATE agent_info SET pending_earnings = pending_earnings - $1, total_earnings = total_earnings + $1 WHERE agent_id = $2", entry.Amount, entry.AgentID)
			if err != nil {
				chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
				return
			}
		}
		if err := tx.Commit(); err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		entry.Status = status
		entry.OrderIDs = orderIDs
		chanOk <- withdrawalStatusResult{entry: entry, orderIDs: orderIDs}
	}()
	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg(fmt.Sprintf("updating withdrawal status failed for %d", withdrawalID))
		return nil, nil, &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg(fmt.Sprintf("updating withdrawal status failed for %d", withdrawalID))
		return nil, nil, methodErr
	case result := <-chanOk:
		s.log.Info().Msg(fmt.Sprintf("updating withdrawal status done for %d", withdrawalID))
		return &result.entry, result.orderIDs, nil
	}
}

func (s *Storage) GetWithdrawals(ctx context.Context, agentID string) ([]modelstorage.WithdrawalStorageEntry, error) {
	selectStmt, err := s.DB.PrepareContext(ctx, "SELECT "+withdrawalColumns+" FROM agent_withdrawals WHERE agent_id = $1 ORDER BY created_at DESC")
	if err != nil {
		return nil, &storageErrors.StatementPSQLError{Err: err}
	}
	defer selectStmt.Close()
	chanOk := make(chan []modelstorage.WithdrawalStorageEntry)
	chanEr := make(chan error)
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		rows, err := selectStmt.QueryContext(ctx, agentID)
		if err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		defer rows.Close()
		var queryOutput []modelstorage.WithdrawalStorageEntry
		for rows.Next() {
			var queryOutputRow modelstorage.WithdrawalStorageEntry
			var orderIDs string
			err = rows.Scan(&queryOutputRow.ID, &queryOutputRow.AgentID, &queryOutputRow.Amount, &orderIDs, &queryOutputRow.TransactionReference, &queryOutputRow.Email, &queryOutputRow.Status, &queryOutputRow.BankName, &queryOutputRow.AccountNumber, &queryOutputRow.CreatedAt)
			if err != nil {
				chanEr <- &storageErrors.ScanningPSQLError{Err: err}
				return
			}
			if orderIDs != "" {
				queryOutputRow.OrderIDs = strings.Split(orderIDs, ",")
			}
			queryOutput = append(queryOutput, queryOutputRow)
		}
		err = rows.Err()
		if err != nil {
			chanEr <- &storageErrors.ScanningPSQLError{Err: err}
			return
		}
		chanOk <- queryOutput
	}()
	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg(fmt.Sprint("getting withdrawals failed"))
		return nil, &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg(fmt.Sprint("getting withdrawals failed"))
		return nil, methodErr
	case entries := <-chanOk:
		return entries, nil
	}
}
