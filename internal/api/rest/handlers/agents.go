package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/devtomiwa9/pxsm-backend/internal/api/rest/middleware"
	"github.com/devtomiwa9/pxsm-backend/internal/models/modeldto"
	"github.com/go-chi/chi"
)

// agentID resolves the calling agent from verified token claims. Requests
// bearing a non-agent token are rejected before reaching the service.
func (h *Handler) agentID(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil || !claims.IsAgent || claims.AgentID == "" {
		h.respond(w, http.StatusUnauthorized, envelope{"status": "error", "message": "agent authorization required"})
		return "", false
	}
	return claims.AgentID, true
}

func (h *Handler) HandleSubscribeAgent() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		agentID, ok := h.agentID(w, r)
		if !ok {
			return
		}
		var subscription modeldto.Subscription
		if !h.decodeJSON(w, r, &subscription) {
			return
		}
		h.log.Info().Msg(fmt.Sprintf("new subscription request detected for agent %s", agentID))
		status, err := h.service.SubscribeAgent(ctx, agentID, subscription)
		if err != nil {
			h.respondError(w, err, "handle agent subscription")
			return
		}
		h.respond(w, http.StatusOK, envelope{"status": "success", "message": "subscription activated", "subscription": status})
	}
}

func (h *Handler) HandleCheckAgentSubscription() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		agentID, ok := h.agentID(w, r)
		if !ok {
			return
		}
		status, err := h.service.CheckAgentSubscription(ctx, agentID)
		if err != nil {
			h.respondError(w, err, "handle agent subscription check")
			return
		}
		h.respond(w, http.StatusOK, envelope{"status": "success", "message": "subscription status retrieved", "subscription": status})
	}
}

func (h *Handler) HandleGetAgentOrders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		agentID, ok := h.agentID(w, r)
		if !ok {
			return
		}
		orders, err := h.service.GetAgentOrders(ctx, agentID)
		if err != nil {
			h.respondError(w, err, "handle agent orders retrieval")
			return
		}
		h.respond(w, http.StatusOK, envelope{"status": "success", "message": "agent orders retrieved successfully", "orders": orders})
	}
}

func (h *Handler) HandleGetAgentOrderDetails() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		agentID, ok := h.agentID(w, r)
		if !ok {
			return
		}
		details, err := h.service.GetAgentOrderDetails(ctx, agentID)
		if err != nil {
			h.respondError(w, err, "handle agent order details retrieval")
			return
		}
		h.respond(w, http.StatusOK, envelope{"status": "success", "message": "agent order details retrieved successfully", "orders": details})
	}
}

func (h *Handler) HandleGetWithdrawalDetails() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		agentID, ok := h.agentID(w, r)
		if !ok {
			return
		}
		details, err := h.service.GetAgentWithdrawalDetails(ctx, agentID)
		if err != nil {
			h.respondError(w, err, "handle withdrawal details retrieval")
			return
		}
		h.respond(w, http.StatusOK, envelope{"status": "success", "message": "withdrawal details retrieved successfully", "details": details})
	}
}

func (h *Handler) HandleCreateWithdrawal() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		agentID, ok := h.agentID(w, r)
		if !ok {
			return
		}
		var newWithdrawal modeldto.NewWithdrawal
		if !h.decodeJSON(w, r, &newWithdrawal) {
			return
		}
		h.log.Info().Msg(fmt.Sprintf("new withdrawal request detected for agent %s", agentID))
		withdrawal, err := h.service.CreateWithdrawalRequest(ctx, agentID, newWithdrawal)
		if err != nil {
			h.respondError(w, err, "handle withdrawal creation")
			return
		}
		h.respond(w, http.StatusCreated, envelope{"status": "success", "message": "withdrawal request created", "withdrawal": withdrawal})
	}
}

func (h *Handler) HandleUpdateWithdrawalStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		withdrawalID, err := strconv.ParseInt(chi.URLParam(r, "withdrawalID"), 10, 64)
		if err != nil {
			h.respond(w, http.StatusBadRequest, envelope{"status": "error", "message": "invalid withdrawal id"})
			return
		}
		var update modeldto.WithdrawalStatusUpdate
		if !h.decodeJSON(w, r, &update) {
			return
		}
		h.log.Info().Msg(fmt.Sprintf("withdrawal status update request detected for %v", withdrawalID))
		orderIDs, err := h.service.UpdateWithdrawalStatus(ctx, withdrawalID, update)
		if err != nil {
			h.respondError(w, err, "handle withdrawal status update")
			return
		}
		h.respond(w, http.StatusOK, envelope{"status": "success", "message": "withdrawal status updated", "order_ids": orderIDs})
	}
}
