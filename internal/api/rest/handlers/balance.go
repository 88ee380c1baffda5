package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/devtomiwa9/pxsm-backend/internal/models/modeldto"
	"github.com/go-chi/chi"
)

func (h *Handler) HandleUpdateBalance() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		var update modeldto.BalanceUpdate
		if !h.decodeJSON(w, r, &update) {
			return
		}
		h.log.Info().Msg(fmt.Sprintf("new balance update request detected for %s", update.UserID))
		change, err := h.service.UpdateBalance(ctx, update)
		if err != nil {
			h.respondError(w, err, "handle balance update")
			return
		}
		message := "balance updated successfully"
		if change.Replayed {
			message = "balance update already applied"
		}
		h.respond(w, http.StatusOK, envelope{"status": "success", "message": message, "previous_balance": change.PreviousBalance, "new_balance": change.NewBalance})
	}
}

func (h *Handler) HandleSetBalance() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		var update modeldto.BalanceSet
		if !h.decodeJSON(w, r, &update) {
			return
		}
		h.log.Info().Msg(fmt.Sprintf("new balance set request detected for %s", update.UserID))
		change, err := h.service.SetBalance(ctx, update)
		if err != nil {
			h.respondError(w, err, "handle balance set")
			return
		}
		h.respond(w, http.StatusOK, envelope{"status": "success", "message": "balance set successfully", "previous_balance": change.PreviousBalance, "new_balance": change.NewBalance})
	}
}

func (h *Handler) HandleGetBalance() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		userID := chi.URLParam(r, "userID")
		balance, err := h.service.GetBalance(ctx, userID)
		if err != nil {
			h.respondError(w, err, "handle balance retrieval")
			return
		}
		h.respond(w, http.StatusOK, envelope{"status": "success", "message": "balance retrieved successfully", "balance": balance})
	}
}

func (h *Handler) HandleGetTransactions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		userID := chi.URLParam(r, "userID")
		transactions, err := h.service.GetUserTransactions(ctx, userID)
		if err != nil {
			h.respondError(w, err, "handle transactions retrieval")
			return
		}
		h.respond(w, http.StatusOK, envelope{"status": "success", "message": "transactions retrieved successfully", "transactions": transactions})
	}
}
