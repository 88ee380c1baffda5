// Package inpsql provides PSQL-backed persistence for the ledger.
package inpsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/devtomiwa9/pxsm-backend/internal/config"
	"github.com/devtomiwa9/pxsm-backend/internal/models/modelstorage"
	storageErrors "github.com/devtomiwa9/pxsm-backend/internal/storage/errors"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/rs/zerolog"
)

type Storage struct {
	mu  sync.Mutex
	Cfg *config.StorageConfig
	DB  *sql.DB
	log *zerolog.Logger
}

func InitStorage(ctx context.Context, cfg *config.StorageConfig, log *zerolog.Logger) (*Storage, error) {
	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("")
	}
	// initialize a Storage
	st := Storage{
		Cfg: cfg,
		DB:  db,
		log: log,
	}
	err = st.createTables(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("")
	}
	log.Info().Msg("PSQL DB connection was established")
	return &st, nil
}

// Ping verifies DB connectivity for the connection-test endpoint.
func (s *Storage) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

// DumpUsers returns all user rows for the restricted table viewer.
func (s *Storage) DumpUsers(ctx context.Context) ([]modelstorage.UserStorageEntry, error) {
	selectStmt, err := s.DB.PrepareContext(ctx, "SELECT id, user_id, username, email, balance, COALESCE(agent_id, ''), is_agent, created_at FROM users ORDER BY id")
	if err != nil {
		return nil, &storageErrors.StatementPSQLError{Err: err}
	}
	defer selectStmt.Close()
	chanOk := make(chan []modelstorage.UserStorageEntry)
	chanEr := make(chan error)
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		rows, err := selectStmt.QueryContext(ctx)
		if err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		defer rows.Close()
		var queryOutput []modelstorage.UserStorageEntry
		for rows.Next() {
			var queryOutputRow modelstorage.UserStorageEntry
			err = rows.Scan(&queryOutputRow.ID, &queryOutputRow.UserID, &queryOutputRow.Username, &queryOutputRow.Email, &queryOutputRow.Balance, &queryOutputRow.AgentID, &queryOutputRow.IsAgent, &queryOutputRow.RegisteredAt)
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
		s.log.Error().Err(ctx.Err()).Msg(fmt.Sprint("dumping users failed"))
		return nil, &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg(fmt.Sprint("dumping users failed"))
		return nil, methodErr
	case entries := <-chanOk:
		return entries, nil
	}
}

// scanNoRows converts sql.ErrNoRows into the storage NotFoundError.
func scanNoRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return &storageErrors.NotFoundError{Err: err}
	}
	return err
}

func (s *Storage) createTables(ctx context.Context) error {
	var queries []string
	query := `CREATE TABLE IF NOT EXISTS users (
		id             BIGSERIAL      NOT NULL,
		user_id        TEXT           NOT NULL UNIQUE,
		username       TEXT           NOT NULL UNIQUE,
		email          TEXT           NOT NULL UNIQUE,
		password       TEXT           NOT NULL,
		balance        NUMERIC(10, 2) NOT NULL DEFAULT 0.00,
		agent_id       TEXT           UNIQUE,
		is_agent       BOOLEAN        NOT NULL DEFAULT FALSE,
		agent_password TEXT,
		created_at     TIMESTAMPTZ    NOT NULL
	);`
	queries = append(queries, query)
	query = `CREATE TABLE IF NOT EXISTS transactions (
		id               BIGSERIAL      NOT NULL,
		user_id          TEXT           NOT NULL REFERENCES users (user_id) ON DELETE CASCADE,
		type             TEXT           NOT NULL,
		amount           NUMERIC(10, 2) NOT NULL,
		previous_balance NUMERIC(10, 2) NOT NULL,
		new_balance      NUMERIC(10, 2) NOT NULL,
		status           TEXT           NOT NULL DEFAULT 'pending',
		description      TEXT           NOT NULL DEFAULT '',
		idempotency_key  TEXT           UNIQUE,
		created_at       TIMESTAMPTZ    NOT NULL
	);`
	queries = append(queries, query)
	query = `CREATE TABLE IF NOT EXISTS order_history (
		id            BIGSERIAL      NOT NULL,
		user_id       TEXT           NOT NULL REFERENCES users (user_id) ON DELETE CASCADE,
		order_id      TEXT           NOT NULL UNIQUE,
		service_name  TEXT           NOT NULL,
		link          TEXT           NOT NULL,
		amount        NUMERIC(10, 2) NOT NULL,
		status        TEXT           NOT NULL DEFAULT 'pending',
		agent_id      TEXT           NOT NULL DEFAULT '',
		commission    NUMERIC(10, 2) NOT NULL DEFAULT 0.00,
		is_paid_agent TEXT           NOT NULL DEFAULT 'pending',
		created_at    TIMESTAMPTZ    NOT NULL
	);`
	queries = append(queries, query)
	query = `CREATE TABLE IF NOT EXISTS agent_info (
		id                      BIGSERIAL      NOT NULL,
		agent_id                TEXT           NOT NULL UNIQUE,
		agent_user_id           TEXT           NOT NULL REFERENCES users (user_id) ON DELETE CASCADE,
		subscription_type       TEXT           NOT NULL,
		commission_rate         NUMERIC(4, 2)  NOT NULL,
		subscription_amount     NUMERIC(10, 2) NOT NULL,
		is_paid                 BOOLEAN        NOT NULL DEFAULT FALSE,
		subscription_start_date TIMESTAMPTZ    NOT NULL,
		subscription_end_date   TIMESTAMPTZ    NOT NULL,
		total_earnings          NUMERIC(10, 2) NOT NULL DEFAULT 0.00,
		pending_earnings        NUMERIC(10, 2) NOT NULL DEFAULT 0.00
	);`
	queries = append(queries, query)
	query = `CREATE TABLE IF NOT EXISTS agent_withdrawals (
		id                    BIGSERIAL      NOT NULL PRIMARY KEY,
		agent_id              TEXT           NOT NULL,
		amount                NUMERIC(10, 2) NOT NULL,
		order_ids             TEXT           NOT NULL,
		transaction_reference TEXT           NOT NULL UNIQUE,
		email                 TEXT           NOT NULL,
		status                TEXT           NOT NULL DEFAULT 'pending',
		bank_name             TEXT           NOT NULL,
		account_number        TEXT           NOT NULL,
		created_at            TIMESTAMPTZ    NOT NULL
	);`
	queries = append(queries, query)
	query = `CREATE TABLE IF NOT EXISTS withdrawn_orders (
		id            BIGSERIAL      NOT NULL,
		withdrawal_id BIGINT         NOT NULL REFERENCES agent_withdrawals (id) ON DELETE CASCADE,
		order_id      TEXT           NOT NULL,
		agent_id      TEXT           NOT NULL,
		amount        NUMERIC(10, 2) NOT NULL,
		created_at    TIMESTAMPTZ    NOT NULL,
		UNIQUE (order_id, withdrawal_id)
	);`
	queries = append(queries, query)
	for _, subquery := range queries {
		_, err := s.DB.ExecContext(ctx, subquery)
		if err != nil {
			return err
		}
	}
	return nil
}
