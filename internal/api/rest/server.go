// Package rest provides functionality for initializing a server.
package rest

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/devtomiwa9/pxsm-backend/internal/api/rest/handlers"
	"github.com/devtomiwa9/pxsm-backend/internal/api/rest/middleware"
	"github.com/devtomiwa9/pxsm-backend/internal/config"
	"github.com/devtomiwa9/pxsm-backend/internal/service/ledger"
	"github.com/devtomiwa9/pxsm-backend/internal/service/mail"
	"github.com/devtomiwa9/pxsm-backend/internal/service/secretary"
	"github.com/devtomiwa9/pxsm-backend/internal/storage/inpsql"
	"github.com/go-chi/chi"
	"github.com/rs/zerolog"
)

// InitServer returns a http.Server object ready to be listening and serving.
func InitServer(ctx context.Context, cfg *config.Config, log *zerolog.Logger, wg *sync.WaitGroup) (server *http.Server, err error) {
	// initialize secretary
	secretaryService, err := secretary.NewSecretaryService(cfg.SecretConfig)
	if err != nil {
		return nil, err
	}

	// initialize token handler
	tokenHandler, err := middleware.NewTokenHandler(secretaryService)
	if err != nil {
		return nil, err
	}

	// initialize storage
	storage, err := inpsql.InitStorage(ctx, cfg.StorageConfig, log)
	if err != nil {
		return nil, err
	}

	// initialize mail client and dispatcher
	mailClient := mail.InitClient(cfg.MailConfig, log)
	mailDispatcher := mail.InitDispatcher(ctx, mailClient, log, wg, cfg.MailConfig.WorkerNumber)

	// initialize main service
	mainService, err := ledger.InitService(storage, secretaryService, mailDispatcher, cfg.PolicyConfig)
	if err != nil {
		return nil, err
	}

	// initialize handlers
	urlHandler, err := handlers.InitHandlers(mainService, cfg.ServerConfig, log)
	if err != nil {
		return nil, err
	}

	// initialize server and set routing
	r := chi.NewRouter()
	publicGroup := r.Group(nil)
	mainGroup := r.Group(nil)
	mainGroup.Use(tokenHandler.TokenHandle) // bearer authorization is not used for auth and service routes
	publicGroup.Get("/", urlHandler.HandleRoot())
	publicGroup.Get("/test-connection", urlHandler.HandleTestConnection())
	publicGroup.Get("/show/{table}", urlHandler.HandleShowTable())
	publicGroup.Post("/auth/signup", urlHandler.HandleSignUp())
	publicGroup.Post("/auth/login", urlHandler.HandleLogin())
	publicGroup.Post("/auth/agent/signup", urlHandler.HandleAgentSignUp())
	publicGroup.Post("/auth/agent/login", urlHandler.HandleAgentLogin())
	publicGroup.Get("/agents/check/{agentID}", urlHandler.HandleCheckAgentID())
	mainGroup.Post("/balance/update", urlHandler.HandleUpdateBalance())
	mainGroup.Post("/balance/set", urlHandler.HandleSetBalance())
	mainGroup.Get("/balance/get/{userID}", urlHandler.HandleGetBalance())
	mainGroup.Get("/transactions/{userID}", urlHandler.HandleGetTransactions())
	mainGroup.Post("/orders/create", urlHandler.HandleCreateOrder())
	mainGroup.Get("/orders/{userID}", urlHandler.HandleGetOrders())
	mainGroup.Post("/agents/subscribe", urlHandler.HandleSubscribeAgent())
	mainGroup.Get("/agents/subscription", urlHandler.HandleCheckAgentSubscription())
	mainGroup.Get("/agents/orders", urlHandler.HandleGetAgentOrders())
	mainGroup.Get("/agents/orders/details", urlHandler.HandleGetAgentOrderDetails())
	mainGroup.Get("/agents/withdrawals", urlHandler.HandleGetWithdrawalDetails())
	mainGroup.Post("/agents/withdrawals", urlHandler.HandleCreateWithdrawal())
	mainGroup.Post("/agents/withdrawals/{withdrawalID}/status", urlHandler.HandleUpdateWithdrawalStatus())

	srv := &http.Server{
		Addr:         cfg.ServerConfig.ServerAddress,
		Handler:      r,
		IdleTimeout:  60 * time.Second,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	return srv, nil
}
