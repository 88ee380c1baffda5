// Package handlers provides HTTP endpoint handling for the ledger service.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	handlersErrors "github.com/devtomiwa9/pxsm-backend/internal/api/rest/errors"
	"github.com/devtomiwa9/pxsm-backend/internal/config"
	"github.com/devtomiwa9/pxsm-backend/internal/models/modeldto"
	"github.com/devtomiwa9/pxsm-backend/internal/service/ledger"
	serviceErrors "github.com/devtomiwa9/pxsm-backend/internal/service/ledger/errors"
	storageErrors "github.com/devtomiwa9/pxsm-backend/internal/storage/errors"
	"github.com/go-chi/chi"
	"github.com/rs/zerolog"
)

type Handler struct {
	service      ledger.Ledger
	serverConfig *config.ServerConfig
	log          *zerolog.Logger
}

func InitHandlers(mainService ledger.Ledger, serverConfig *config.ServerConfig, log *zerolog.Logger) (*Handler, error) {
	if mainService == nil {
		return nil, &handlersErrors.HandlersFoundNilArgument{Msg: "nil ledger service was passed to handlers initializer"}
	}
	return &Handler{service: mainService, serverConfig: serverConfig, log: log}, nil
}

// envelope is the uniform response body shape. Callers set "status" and
// "message", everything else is payload.
type envelope map[string]interface{}

func (h *Handler) respond(w http.ResponseWriter, code int, payload envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	err := json.NewEncoder(w).Encode(payload)
	if err != nil {
		h.log.Error().Err(err).Msg("response encoding failed")
	}
}

// respondError maps layered errors onto HTTP codes. Unknown errors never leak
// their text into the response body.
func (h *Handler) respondError(w http.ResponseWriter, err error, action string) {
	h.log.Error().Err(err).Msg(fmt.Sprintf("%s failed", action))
	var contextTimeoutExceededError *storageErrors.ContextTimeoutExceededError
	var notFoundError *storageErrors.NotFoundError
	var alreadyExistsError *storageErrors.AlreadyExistsError
	var notEnoughFundsError *storageErrors.NotEnoughFundsError
	var validationError *serviceErrors.ServiceValidationError
	var unauthorizedError *serviceErrors.ServiceUnauthorized
	var serviceNotEnoughFunds *serviceErrors.ServiceNotEnoughFunds
	switch {
	case errors.As(err, &contextTimeoutExceededError):
		h.respond(w, http.StatusGatewayTimeout, envelope{"status": "error", "message": err.Error()})
	case errors.As(err, &notFoundError):
		h.respond(w, http.StatusNotFound, envelope{"status": "error", "message": err.Error()})
	case errors.As(err, &alreadyExistsError):
		h.respond(w, http.StatusConflict, envelope{"status": "error", "message": err.Error()})
	case errors.As(err, &notEnoughFundsError), errors.As(err, &serviceNotEnoughFunds):
		h.respond(w, http.StatusPaymentRequired, envelope{"status": "error", "message": err.Error()})
	case errors.As(err, &validationError):
		h.respond(w, http.StatusBadRequest, envelope{"status": "error", "message": err.Error()})
	case errors.As(err, &unauthorizedError):
		h.respond(w, http.StatusUnauthorized, envelope{"status": "error", "message": err.Error()})
	default:
		h.respond(w, http.StatusInternalServerError, envelope{"status": "error", "message": "internal server error"})
	}
}

func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err != nil {
		h.log.Error().Err(err).Msg("request body decoding failed")
		h.respond(w, http.StatusBadRequest, envelope{"status": "error", "message": "invalid request body"})
		return false
	}
	return true
}

func (h *Handler) HandleRoot() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.respond(w, http.StatusOK, envelope{"status": "success", "message": "PXSM backend service is running"})
	}
}

func (h *Handler) HandleTestConnection() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		err := h.service.Ping(ctx)
		if err != nil {
			h.respondError(w, err, "test connection")
			return
		}
		h.respond(w, http.StatusOK, envelope{"status": "success", "message": "database connection is healthy"})
	}
}

func (h *Handler) HandleShowTable() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		table := chi.URLParam(r, "table")
		users, err := h.service.DumpTable(ctx, table)
		if err != nil {
			h.respondError(w, err, "show table")
			return
		}
		h.respond(w, http.StatusOK, envelope{"status": "success", "message": fmt.Sprintf("contents of %s", table), "rows": users})
	}
}

func (h *Handler) HandleSignUp() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		var credentials modeldto.Credentials
		if !h.decodeJSON(w, r, &credentials) {
			return
		}
		h.log.Info().Msg(fmt.Sprintf("new user signup request detected for %s", credentials.Email))
		accessToken, user, err := h.service.SignUp(ctx, credentials)
		if err != nil {
			h.respondError(w, err, "handle signup")
			return
		}
		h.respond(w, http.StatusCreated, envelope{"status": "success", "message": "signup successful", "token": accessToken, "user": user})
	}
}

func (h *Handler) HandleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		var credentials modeldto.Credentials
		if !h.decodeJSON(w, r, &credentials) {
			return
		}
		h.log.Info().Msg(fmt.Sprintf("new login request detected for %s", credentials.Email))
		accessToken, user, err := h.service.Login(ctx, credentials, r.RemoteAddr)
		if err != nil {
			h.respondError(w, err, "handle login")
			return
		}
		h.respond(w, http.StatusOK, envelope{"status": "success", "message": "login successful", "token": accessToken, "user": user})
	}
}

func (h *Handler) HandleAgentSignUp() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		var credentials modeldto.AgentCredentials
		if !h.decodeJSON(w, r, &credentials) {
			return
		}
		h.log.Info().Msg(fmt.Sprintf("new agent signup request detected for %s", credentials.Email))
		accessToken, user, err := h.service.AgentSignUp(ctx, credentials)
		if err != nil {
			h.respondError(w, err, "handle agent signup")
			return
		}
		h.respond(w, http.StatusCreated, envelope{"status": "success", "message": "agent signup successful", "token": accessToken, "user": user})
	}
}

func (h *Handler) HandleAgentLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		var credentials modeldto.AgentCredentials
		if !h.decodeJSON(w, r, &credentials) {
			return
		}
		h.log.Info().Msg(fmt.Sprintf("new agent login request detected for %s", credentials.Email))
		accessToken, user, err := h.service.AgentLogin(ctx, credentials)
		if err != nil {
			h.respondError(w, err, "handle agent login")
			return
		}
		h.respond(w, http.StatusOK, envelope{"status": "success", "message": "agent login successful", "token": accessToken, "user": user})
	}
}

func (h *Handler) HandleCheckAgentID() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		agentID := chi.URLParam(r, "agentID")
		user, err := h.service.CheckAgentID(ctx, agentID)
		if err != nil {
			h.respondError(w, err, "handle agent id check")
			return
		}
		h.respond(w, http.StatusOK, envelope{"status": "success", "message": "agent id is valid", "user": user})
	}
}
