package inpsql

import (
	"context"
	"fmt"
	"time"

	"github.com/devtomiwa9/pxsm-backend/internal/models/modelstorage"
	storageErrors "github.com/devtomiwa9/pxsm-backend/internal/storage/errors"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
)

const userColumns = "id, user_id, username, email, password, balance, COALESCE(agent_id, ''), is_agent, COALESCE(agent_password, ''), created_at"

func (s *Storage) AddNewUser(ctx context.Context, userID, username, email, passwordHash string) error {
	newUserStmt, err := s.DB.PrepareContext(ctx, "INSERT INTO users (user_id, username, email, password, created_at) VALUES ($1, $2, $3, $4, $5)")
	if err != nil {
		return &storageErrors.StatementPSQLError{Err: err}
	}
	defer newUserStmt.Close()
	chanOk := make(chan bool)
	chanEr := make(chan error)
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		_, err := newUserStmt.ExecContext(ctx, userID, username, email, passwordHash, time.Now().Format(time.RFC3339))
		if err != nil {
			if err, ok := err.(*pgconn.PgError); ok && err.Code == pgerrcode.UniqueViolation {
				chanEr <- &storageErrors.AlreadyExistsError{Err: err, ID: email}
				return
			}
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		chanOk <- true
	}()
	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg(fmt.Sprintf("adding new user failed for %s", email))
		return &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg(fmt.Sprintf("adding new user failed for %s", email))
		return methodErr
	case <-chanOk:
		s.log.Info().Msg(fmt.Sprintf("adding new user done for %s", email))
		return nil
	}
}

func (s *Storage) getUserBy(ctx context.Context, query, arg, tag string) (*modelstorage.UserStorageEntry, error) {
	selectStmt, err := s.DB.PrepareContext(ctx, query)
	if err != nil {
		return nil, &storageErrors.StatementPSQLError{Err: err}
	}
	defer selectStmt.Close()
	chanOk := make(chan modelstorage.UserStorageEntry)
	chanEr := make(chan error)
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		var queryOutput modelstorage.UserStorageEntry
		err := selectStmt.QueryRowContext(ctx, arg).Scan(&queryOutput.ID, &queryOutput.UserID, &queryOutput.Username, &queryOutput.Email, &queryOutput.PasswordHash, &queryOutput.Balance, &queryOutput.AgentID, &queryOutput.IsAgent, &queryOutput.AgentHash, &queryOutput.RegisteredAt)
		if err != nil {
			chanEr <- scanNoRows(err)
			return
		}
		chanOk <- queryOutput
	}()
	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg(fmt.Sprintf("retrieving user failed for %s", tag))
		return nil, &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg(fmt.Sprintf("retrieving user failed for %s", tag))
		return nil, methodErr
	case entry := <-chanOk:
		return &entry, nil
	}
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*modelstorage.UserStorageEntry, error) {
	return s.getUserBy(ctx, "SELECT "+userColumns+" FROM users WHERE email = $1", email, email)
}

func (s *Storage) GetUserByID(ctx context.Context, userID string) (*modelstorage.UserStorageEntry, error) {
	return s.getUserBy(ctx, "SELECT "+userColumns+" FROM users WHERE user_id = $1", userID, userID)
}

func (s *Storage) GetUserByAgentID(ctx context.Context, agentID string) (*modelstorage.UserStorageEntry, error) {
	return s.getUserBy(ctx, "SELECT "+userColumns+" FROM users WHERE agent_id = $1", agentID, agentID)
}

func (s *Storage) PromoteToAgent(ctx context.Context, userID, agentID, agentPasswordHash string) error {
	updateStmt, err := s.DB.PrepareContext(ctx, "UPDATE users SET agent_id = $1, is_agent = TRUE, agent_password = $2 WHERE user_id = $3")
	if err != nil {
		return &storageErrors.StatementPSQLError{Err: err}
	}
	defer updateStmt.Close()
	chanOk := make(chan bool)
	chanEr := make(chan error)
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		result, err := updateStmt.ExecContext(ctx, agentID, agentPasswordHash, userID)
		if err != nil {
			if err, ok := err.(*pgconn.PgError); ok && err.Code == pgerrcode.UniqueViolation {
				chanEr <- &storageErrors.AlreadyExistsError{Err: err, ID: agentID}
				return
			}
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		affected, err := result.RowsAffected()
		if err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		if affected == 0 {
			chanEr <- &storageErrors.NotFoundError{Err: nil}
			return
		}
		chanOk <- true
	}()
	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg(fmt.Sprintf("agent promotion failed for %s", userID))
		return &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg(fmt.Sprintf("agent promotion failed for %s", userID))
		return methodErr
	case <-chanOk:
		s.log.Info().Msg(fmt.Sprintf("agent promotion done for %s", userID))
		return nil
	}
}
