package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/devtomiwa9/pxsm-backend/internal/models/modeldto"
	"github.com/go-chi/chi"
)

func (h *Handler) HandleCreateOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		var newOrder modeldto.NewOrder
		if !h.decodeJSON(w, r, &newOrder) {
			return
		}
		h.log.Info().Msg(fmt.Sprintf("new order request detected for %s", newOrder.UserID))
		order, err := h.service.CreateOrder(ctx, newOrder)
		if err != nil {
			h.respondError(w, err, "handle order creation")
			return
		}
		h.respond(w, http.StatusCreated, envelope{"status": "success", "message": "order created successfully", "order": order})
	}
}

func (h *Handler) HandleGetOrders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		userID := chi.URLParam(r, "userID")
		orders, err := h.service.GetOrderHistory(ctx, userID)
		if err != nil {
			h.respondError(w, err, "handle order history retrieval")
			return
		}
		h.respond(w, http.StatusOK, envelope{"status": "success", "message": "orders retrieved successfully", "orders": orders})
	}
}
