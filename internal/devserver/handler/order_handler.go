package handler

import (
	"net/http"
	"strconv"

	"ticketing-front/internal/devserver/middleware"
	"ticketing-front/internal/devserver/service"
	"ticketing-front/internal/model"
	"ticketing-front/pkg/apierror"
)

type OrderHandler struct {
	service *service.OrderService
}

func NewOrderHandler(service *service.OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	var payload model.CheckoutRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.service.Checkout(r.Context(), claims.UserID, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *OrderHandler) Orders(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	orders, err := h.service.Orders(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) Tickets(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	orderID, err := pathID(r, "orderId")
	if err != nil {
		writeError(w, err)
		return
	}

	tickets, err := h.service.Tickets(r.Context(), orderID, claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tickets)
}

// QRCode serves the ticket key as an inline PNG.
func (h *OrderHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	ticketID, err := pathID(r, "ticketId")
	if err != nil {
		writeError(w, err)
		return
	}

	png, err := h.service.QRCode(r.Context(), ticketID)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func requireClaims(w http.ResponseWriter, r *http.Request) (*service.Claims, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.New("UNAUTHORIZED", "authentication required", http.StatusUnauthorized))
	}
	return claims, ok
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
