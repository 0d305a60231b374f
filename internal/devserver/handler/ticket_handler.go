package handler

import (
	"net/http"

	"ticketing-front/internal/devserver/service"
)

type TicketHandler struct {
	gate  *service.GateService
	sales *service.SalesService
}

func NewTicketHandler(gate *service.GateService, sales *service.SalesService) *TicketHandler {
	return &TicketHandler{gate: gate, sales: sales}
}

func (h *TicketHandler) Verify(w http.ResponseWriter, r *http.Request) {
	verification, err := h.gate.Verify(r.Context(), r.URL.Query().Get("key"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, verification)
}

// Consume accepts the key as "finalKey" or "key".
func (h *TicketHandler) Consume(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		FinalKey string `json:"finalKey"`
		Key      string `json:"key"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	key := payload.FinalKey
	if key == "" {
		key = payload.Key
	}

	result, err := h.gate.Consume(r.Context(), key)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *TicketHandler) Sales(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.sales.Snapshot(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}
