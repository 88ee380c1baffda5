package inpsql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/devtomiwa9/pxsm-backend/internal/models/modelstorage"
	storageErrors "github.com/devtomiwa9/pxsm-backend/internal/storage/errors"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
)

const orderColumns = "id, user_id, order_id, service_name, link, amount, status, agent_id, commission, is_paid_agent, created_at"

// AddNewOrder inserts an order row and, when the order status implies payment,
// performs the balance debit plus transaction insert in the same DB
// transaction. Either all three writes land or none do.
func (s *Storage) AddNewOrder(ctx context.Context, order modelstorage.OrderStorageEntry, requiresPayment bool) (*modelstorage.TransactionStorageEntry, error) {
	chanOk := make(chan *modelstorage.TransactionStorageEntry)
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
		var existing string
		err = tx.QueryRowContext(ctx, "SELECT order_id FROM order_history WHERE order_id = $1", order.OrderID).Scan(&existing)
		if err == nil {
			chanEr <- &storageErrors.AlreadyExistsError{Err: nil, ID: order.OrderID}
			return
		}
		if err != sql.ErrNoRows {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		var debitEntry *modelstorage.TransactionStorageEntry
		if requiresPayment {
			// the order id doubles as the idempotency key so a replayed
			// submission cannot debit twice
			debitEntry, err = s.applyBalanceChange(ctx, tx, order.UserID, order.Amount, "debit", "order:"+order.OrderID, fmt.Sprintf("Debit transaction of %s for order %s", order.Amount, order.OrderID))
			if err != nil {
				chanEr <- err
				return
			}
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO order_history (user_id, order_id, service_name, link, amount, status, agent_id, commission, is_paid_agent, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)",
			order.UserID, order.OrderID, order.ServiceName, order.Link, order.Amount, order.Status, order.AgentID, order.Commission, order.IsPaidAgent, time.Now().Format(time.RFC3339))
		if err != nil {
			if err, ok := err.(*pgconn.PgError); ok && err.Code == pgerrcode.UniqueViolation {
				chanEr <- &storageErrors.AlreadyExistsError{Err: err, ID: order.OrderID}
				return
			}
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		if err := tx.Commit(); err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		chanOk <- debitEntry
	}()
	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg(fmt.Sprintf("adding new order failed for %s", order.OrderID))
		return nil, &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg(fmt.Sprintf("adding new order failed for %s", order.OrderID))
		return nil, methodErr
	case debitEntry := <-chanOk:
		s.log.Info().Msg(fmt.Sprintf("adding new order done for %s", order.OrderID))
		return debitEntry, nil
	}
}

func (s *Storage) GetOrders(ctx context.Context, userID string) ([]modelstorage.OrderStorageEntry, error) {
	return s.getOrdersWhere(ctx, "SELECT "+orderColumns+" FROM order_history WHERE user_id = $1 ORDER BY created_at DESC", userID)
}

func (s *Storage) getOrdersWhere(ctx context.Context, query, arg string) ([]modelstorage.OrderStorageEntry, error) {
	selectStmt, err := s.DB.PrepareContext(ctx, query)
	if err != nil {
		return nil, &storageErrors.StatementPSQLError{Err: err}
	}
	defer selectStmt.Close()
	chanOk := make(chan []modelstorage.OrderStorageEntry)
	chanEr := make(chan error)
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		rows, err := selectStmt.QueryContext(ctx, arg)
		if err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		defer rows.Close()
		var queryOutput []modelstorage.OrderStorageEntry
		for rows.Next() {
			var queryOutputRow modelstorage.OrderStorageEntry
			err = rows.Scan(&queryOutputRow.ID, &queryOutputRow.UserID, &queryOutputRow.OrderID, &queryOutputRow.ServiceName, &queryOutputRow.Link, &queryOutputRow.Amount, &queryOutputRow.Status, &queryOutputRow.AgentID, &queryOutputRow.Commission, &queryOutputRow.IsPaidAgent, &queryOutputRow.CreatedAt)
			if err != nil {
				chanEr <- &storageErrors.ScanningPSQLError{Err: err}
				return
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
		s.log.Error().Err(ctx.Err()).Msg(fmt.Sprint("getting orders failed"))
		return nil, &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg(fmt.Sprint("getting orders failed"))
		return nil, methodErr
	case entries := <-chanOk:
		return entries, nil
	}
}
