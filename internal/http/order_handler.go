package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/thefrankalbert/radisson-menu-app-sub001/internal/domain"
	"github.com/thefrankalbert/radisson-menu-app-sub001/internal/editwindow"
	"github.com/thefrankalbert/radisson-menu-app-sub001/internal/order"
)

type OrderHandler struct {
	orders   *order.Service
	sessions *Sessions
	windows  *editwindow.Registry
	timeout  time.Duration
}

func NewOrderHandler(orders *order.Service, sessions *Sessions, windows *editwindow.Registry, timeout time.Duration) *OrderHandler {
	return &OrderHandler{
		orders:   orders,
		sessions: sessions,
		windows:  windows,
		timeout:  timeout,
	}
}

type CheckoutRequestDTO struct {
	TableNumber string `json:"table_number"`
}

type ModifyRequestDTO struct {
	Confirmed bool `json:"confirmed"`
}

type StatusRequestDTO struct {
	Status string `json:"status"`
}

type OrderResponseDTO struct {
	*domain.Order
	EditState        string `json:"edit_state"`
	RemainingSeconds int    `json:"remaining_seconds"`
}

func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.TableNumber == "" {
		respondError(w, http.StatusBadRequest, "invalid_table", "table_number is required")
		return
	}

	m := h.sessions.Machine(r.Context(), getSessionID(r.Context()))
	placed, err := h.orders.Checkout(ctx, m, req.TableNumber)
	if err != nil {
		if errors.Is(err, order.ErrEmptyCart) {
			respondError(w, http.StatusBadRequest, "empty_cart", "cannot place an order with an empty cart")
			return
		}
		respondError(w, http.StatusBadGateway, "checkout_failed", "order could not be placed, please retry")
		return
	}

	respondJSON(w, http.StatusCreated, placed)
}

// GetOrder returns the order plus its live edit-window state, starting
// the window controller on first view.
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	o, err := h.orders.Get(ctx, id)
	if err != nil {
		handleOrderError(w, err)
		return
	}

	m := h.sessions.Machine(r.Context(), getSessionID(r.Context()))
	ctrl, err := h.windows.Acquire(ctx, id, m)
	if err != nil {
		handleOrderError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, OrderResponseDTO{
		Order:            o,
		EditState:        ctrl.State().String(),
		RemainingSeconds: int(ctrl.Remaining().Seconds()),
	})
}

func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.orders.ListBySession(ctx, getSessionID(r.Context()))
	if err != nil {
		handleOrderError(w, err)
		return
	}
	if orders == nil {
		orders = []*domain.Order{}
	}
	respondJSON(w, http.StatusOK, orders)
}

// Modify retracts a just-placed order back into the cart, inside the
// edit window only. The request carries the guest's explicit
// confirmation of the destructive step.
func (h *OrderHandler) Modify(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	var req ModifyRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	m := h.sessions.Machine(r.Context(), getSessionID(r.Context()))
	ctrl, err := h.windows.Acquire(ctx, id, m)
	if err != nil {
		handleOrderError(w, err)
		return
	}

	err = ctrl.RequestModify(withConfirmation(ctx, req.Confirmed))
	if err != nil {
		switch {
		case errors.Is(err, editwindow.ErrNotEditable):
			respondError(w, http.StatusConflict, "not_editable", "the kitchen already has this order")
		case errors.Is(err, editwindow.ErrNotConfirmed):
			respondError(w, http.StatusBadRequest, "not_confirmed", "modification requires confirmation")
		default:
			respondError(w, http.StatusBadGateway, "modify_failed", "order could not be modified, please retry")
		}
		return
	}

	h.windows.Release(id)
	respondJSON(w, http.StatusOK, cartResponse(m))
}

// SetStatus is the kitchen-staff transition endpoint.
func (h *OrderHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	var req StatusRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	err := h.orders.SetStatus(ctx, id, domain.OrderStatus(req.Status))
	if err != nil {
		if errors.Is(err, order.ErrInvalidStatus) {
			respondError(w, http.StatusBadRequest, "invalid_status", "unknown order status")
			return
		}
		handleOrderError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func parseOrderID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

func handleOrderError(w http.ResponseWriter, err error) {
	if errors.Is(err, order.ErrOrderNotFound) {
		respondError(w, http.StatusNotFound, "not_found", "order not found")
		return
	}
	respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}
