package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/thefrankalbert/radisson-menu-app-sub001/internal/cart"
	"github.com/thefrankalbert/radisson-menu-app-sub001/internal/domain"
)

type CartHandler struct {
	sessions *Sessions
	timeout  time.Duration
}

func NewCartHandler(sessions *Sessions, timeout time.Duration) *CartHandler {
	return &CartHandler{
		sessions: sessions,
		timeout:  timeout,
	}
}

type AddItemRequestDTO struct {
	BaseID      string              `json:"base_id"`
	Name        string              `json:"name"`
	Price       int64               `json:"price"`
	Option      *domain.ItemOption  `json:"option,omitempty"`
	Variant     *domain.ItemVariant `json:"variant,omitempty"`
	VenueID     string              `json:"venue_id"`
	SkipConfirm bool                `json:"skip_confirm,omitempty"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type NoteRequestDTO struct {
	Note string `json:"note"`
}

type CartLineDTO struct {
	Key string `json:"key"`
	domain.LineItem
}

type CartResponseDTO struct {
	Items      []CartLineDTO           `json:"items"`
	BoundVenue string                  `json:"bound_venue,omitempty"`
	Note       string                  `json:"note,omitempty"`
	ItemCount  int                     `json:"item_count"`
	TotalPrice int64                   `json:"total_price"`
	Pending    *domain.PendingConflict `json:"pending_conflict,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func (h *CartHandler) machine(r *http.Request) *cart.Machine {
	return h.sessions.Machine(r.Context(), getSessionID(r.Context()))
}

func cartResponse(m *cart.Machine) CartResponseDTO {
	items := m.Items()
	lines := make([]CartLineDTO, 0, len(items))
	for _, li := range items {
		lines = append(lines, CartLineDTO{Key: li.Key(), LineItem: li})
	}
	return CartResponseDTO{
		Items:      lines,
		BoundVenue: m.BoundVenue(),
		Note:       m.Note(),
		ItemCount:  m.ItemCount(),
		TotalPrice: m.TotalPrice(),
		Pending:    m.Pending(),
	}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, cartResponse(h.machine(r)))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.BaseID == "" || req.VenueID == "" {
		respondError(w, http.StatusBadRequest, "invalid_item", "base_id and venue_id are required")
		return
	}
	if req.Price < 0 {
		respondError(w, http.StatusBadRequest, "invalid_price", "price must not be negative")
		return
	}

	item := domain.LineItem{
		BaseID:  req.BaseID,
		Name:    req.Name,
		Price:   req.Price,
		Option:  req.Option,
		Variant: req.Variant,
	}

	m := h.machine(r)
	outcome, err := m.AddItem(ctx, item, req.VenueID, req.SkipConfirm)
	if err != nil {
		// venues could not be verified; the conflict was assumed
		respondJSON(w, http.StatusConflict, cartResponse(m))
		return
	}
	if outcome == cart.OutcomeConflictPending {
		respondJSON(w, http.StatusConflict, cartResponse(m))
		return
	}

	respondJSON(w, http.StatusCreated, cartResponse(m))
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		respondError(w, http.StatusBadRequest, "invalid_key", "item key is required")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be at most 99")
		return
	}

	m := h.machine(r)
	m.UpdateQuantity(r.Context(), key, req.Quantity)
	respondJSON(w, http.StatusOK, cartResponse(m))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		respondError(w, http.StatusBadRequest, "invalid_key", "item key is required")
		return
	}

	m := h.machine(r)
	m.RemoveItem(r.Context(), key)
	respondJSON(w, http.StatusOK, cartResponse(m))
}

func (h *CartHandler) SetNote(w http.ResponseWriter, r *http.Request) {
	var req NoteRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	m := h.machine(r)
	m.SetNote(r.Context(), req.Note)
	respondJSON(w, http.StatusOK, cartResponse(m))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	m := h.machine(r)
	m.Clear(r.Context())
	respondJSON(w, http.StatusOK, cartResponse(m))
}

func (h *CartHandler) ConfirmConflict(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	m := h.machine(r)
	if err := m.ConfirmPendingConflict(ctx); err != nil {
		respondError(w, http.StatusBadGateway, "confirm_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, cartResponse(m))
}

func (h *CartHandler) CancelConflict(w http.ResponseWriter, r *http.Request) {
	m := h.machine(r)
	m.CancelPendingConflict()
	respondJSON(w, http.StatusOK, cartResponse(m))
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
