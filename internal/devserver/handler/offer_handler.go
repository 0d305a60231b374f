package handler

import (
	"net/http"

	"ticketing-front/internal/devserver/service"
	"ticketing-front/internal/model"
)

type OfferHandler struct {
	service *service.CatalogService
}

func NewOfferHandler(service *service.CatalogService) *OfferHandler {
	return &OfferHandler{service: service}
}

// Public lists the offers on sale.
func (h *OfferHandler) Public(w http.ResponseWriter, r *http.Request) {
	offers, err := h.service.ActiveOffers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, offers)
}

func (h *OfferHandler) List(w http.ResponseWriter, r *http.Request) {
	offers, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, offers)
}

func (h *OfferHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload model.OfferInput
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	offer, err := h.service.Create(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Location", "/api/admin/offers/"+formatID(offer.ID))
	writeJSON(w, http.StatusCreated, offer)
}

func (h *OfferHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var payload model.OfferInput
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	offer, err := h.service.Update(r.Context(), id, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, offer)
}

func (h *OfferHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var payload struct {
		Active *bool `json:"active"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	offer, err := h.service.SetActive(r.Context(), id, payload.Active != nil && *payload.Active)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, offer)
}

func (h *OfferHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
