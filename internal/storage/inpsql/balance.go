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
	"github.com/shopspring/decimal"
)

const transactionColumns = "id, user_id, type, amount, previous_balance, new_balance, status, description, COALESCE(idempotency_key, ''), created_at"

type balanceUpdateResult struct {
	entry    modelstorage.TransactionStorageEntry
	replayed bool
}

// UpdateBalance moves funds on a user balance and appends the justifying
// transaction row as one DB transaction. A previously applied idempotency key
// short-circuits into the recorded result without touching the balance.
func (s *Storage) UpdateBalance(ctx context.Context, userID string, amount decimal.Decimal, txType, idempotencyKey, description string) (*modelstorage.TransactionStorageEntry, bool, error) {
	chanOk := make(chan balanceUpdateResult)
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
		prior, err := s.findByIdempotencyKey(ctx, tx, idempotencyKey)
		if err != nil {
			chanEr <- err
			return
		}
		if prior != nil {
			chanOk <- balanceUpdateResult{entry: *prior, replayed: true}
			return
		}
		entry, err := s.applyBalanceChange(ctx, tx, userID, amount, txType, idempotencyKey, description)
		if err != nil {
			if err, ok := err.(*pgconn.PgError); ok && err.Code == pgerrcode.UniqueViolation {
				// lost an idempotency race to a concurrent request
				chanEr <- &storageErrors.AlreadyExistsError{Err: err, ID: idempotencyKey}
				return
			}
			chanEr <- err
			return
		}
		if err := tx.Commit(); err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		chanOk <- balanceUpdateResult{entry: *entry}
	}()
	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg(fmt.Sprintf("balance update failed for %s", userID))
		return nil, false, &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg(fmt.Sprintf("balance update failed for %s", userID))
		return nil, false, methodErr
	case result := <-chanOk:
		s.log.Info().Msg(fmt.Sprintf("balance update done for %s", userID))
		return &result.entry, result.replayed, nil
	}
}

// SetBalance overwrites a user balance, recording the overwrite as an
// adjustment transaction so the audit trail stays complete.
func (s *Storage) SetBalance(ctx context.Context, userID string, amount decimal.Decimal) (*modelstorage.TransactionStorageEntry, error) {
	chanOk := make(chan modelstorage.TransactionStorageEntry)
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
		var previous decimal.Decimal
		err = tx.QueryRowContext(ctx, "SELECT balance FROM users WHERE user_id = $1 FOR UPDATE", userID).Scan(&previous)
		if err != nil {
			chanEr <- scanNoRows(err)
			return
		}
		_, err = tx.ExecContext(ctx, "UPDATE users SET balance = $1 WHERE user_id = $2", amount, userID)
		if err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		txType := "credit"
		if amount.LessThan(previous) {
			txType = "debit"
		}
		entry := modelstorage.TransactionStorageEntry{
			UserID:          userID,
			Type:            txType,
			Amount:          amount.Sub(previous).Abs(),
			PreviousBalance: previous,
			NewBalance:      amount,
			Status:          "completed",
			Description:     "administrative balance adjustment",
			CreatedAt:       time.Now().Format(time.RFC3339),
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO transactions (user_id, type, amount, previous_balance, new_balance, status, description, idempotency_key, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, NULL, $8)",
			entry.UserID, entry.Type, entry.Amount, entry.PreviousBalance, entry.NewBalance, entry.Status, entry.Description, entry.CreatedAt)
		if err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		if err := tx.Commit(); err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		chanOk <- entry
	}()
	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg(fmt.Sprintf("balance overwrite failed for %s", userID))
		return nil, &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg(fmt.Sprintf("balance overwrite failed for %s", userID))
		return nil, methodErr
	case entry := <-chanOk:
		s.log.Info().Msg(fmt.Sprintf("balance overwrite done for %s", userID))
		return &entry, nil
	}
}

func (s *Storage) GetBalance(ctx context.Context, userID string) (decimal.Decimal, error) {
	selectStmt, err := s.DB.PrepareContext(ctx, "SELECT balance FROM users WHERE user_id = $1")
	if err != nil {
		return decimal.Zero, &storageErrors.StatementPSQLError{Err: err}
	}
	defer selectStmt.Close()
	chanOk := make(chan decimal.Decimal)
	chanEr := make(chan error)
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		var balance decimal.Decimal
		err := selectStmt.QueryRowContext(ctx, userID).Scan(&balance)
		if err != nil {
			chanEr <- scanNoRows(err)
			return
		}
		chanOk <- balance
	}()
	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg(fmt.Sprint("getting current balance failed"))
		return decimal.Zero, &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg(fmt.Sprint("getting current balance failed"))
		return decimal.Zero, methodErr
	case balance := <-chanOk:
		return balance, nil
	}
}

func (s *Storage) GetTransactions(ctx context.Context, userID string) ([]modelstorage.TransactionStorageEntry, error) {
	selectStmt, err := s.DB.PrepareContext(ctx, "SELECT "+transactionColumns+" FROM transactions WHERE user_id = $1 ORDER BY created_at DESC")
	if err != nil {
		return nil, &storageErrors.StatementPSQLError{Err: err}
	}
	defer selectStmt.Close()
	chanOk := make(chan []modelstorage.TransactionStorageEntry)
	chanEr := make(chan error)
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		rows, err := selectStmt.QueryContext(ctx, userID)
		if err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		defer rows.Close()
		var queryOutput []modelstorage.TransactionStorageEntry
		for rows.Next() {
			var queryOutputRow modelstorage.TransactionStorageEntry
			err = rows.Scan(&queryOutputRow.ID, &queryOutputRow.UserID, &queryOutputRow.Type, &queryOutputRow.Amount, &queryOutputRow.PreviousBalance, &queryOutputRow.NewBalance, &queryOutputRow.Status, &queryOutputRow.Description, &queryOutputRow.IdempotencyKey, &queryOutputRow.CreatedAt)
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
		s.log.Error().Err(ctx.Err()).Msg(fmt.Sprint("getting transactions failed"))
		return nil, &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg(fmt.Sprint("getting transactions failed"))
		return nil, methodErr
	case entries := <-chanOk:
		return entries, nil
	}
}

// findByIdempotencyKey looks up a previously applied mutation by key. A nil
// entry with nil error means the key is unused.
func (s *Storage) findByIdempotencyKey(ctx context.Context, tx *sql.Tx, idempotencyKey string) (*modelstorage.TransactionStorageEntry, error) {
	if idempotencyKey == "" {
		return nil, nil
	}
	var entry modelstorage.TransactionStorageEntry
	err := tx.QueryRowContext(ctx, "SELECT "+transactionColumns+" FROM transactions WHERE idempotency_key = $1", idempotencyKey).
		Scan(&entry.ID, &entry.UserID, &entry.Type, &entry.Amount, &entry.PreviousBalance, &entry.NewBalance, &entry.Status, &entry.Description, &entry.IdempotencyKey, &entry.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, &storageErrors.ExecutionPSQLError{Err: err}
	}
	return &entry, nil
}

// applyBalanceChange performs the locked read-compute-write plus transaction
// insert inside an open DB transaction. The caller owns commit and rollback.
func (s *Storage) applyBalanceChange(ctx context.Context, tx *sql.Tx, userID string, amount decimal.Decimal, txType, idempotencyKey, description string) (*modelstorage.TransactionStorageEntry, error) {
	var previous decimal.Decimal
	err := tx.QueryRowContext(ctx, "SELECT balance FROM users WHERE user_id = $1 FOR UPDATE", userID).Scan(&previous)
	if err != nil {
		return nil, scanNoRows(err)
	}
	var next decimal.Decimal
	switch txType {
	case "credit":
		next = previous.Add(amount)
	case "debit":
		if previous.LessThan(amount) {
			return nil, &storageErrors.NotEnoughFundsError{}
		}
		next = previous.Sub(amount)
	default:
		return nil, &storageErrors.ExecutionPSQLError{Err: fmt.Errorf("unknown transaction type %s", txType)}
	}
	_, err = tx.ExecContext(ctx, "UPDATE users SET balance = $1 WHERE user_id = $2", next, userID)
	if err != nil {
		return nil, err
	}
	entry := modelstorage.TransactionStorageEntry{
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
	key := sql.NullString{String: idempotencyKey, Valid: idempotencyKey != ""}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO transactions (user_id, type, amount, previous_balance, new_balance, status, description, idempotency_key, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)",
		entry.UserID, entry.Type, entry.Amount, entry.PreviousBalance, entry.NewBalance, entry.Status, entry.Description, key, entry.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
