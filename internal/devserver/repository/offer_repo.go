package repository

import (
	"context"
	"slices"
	"strings"
	"sync"

	"ticketing-front/internal/model"
)

type OfferRepository struct {
	mu     sync.RWMutex
	nextID int64
	offers map[int64]model.Offer
}

func NewOfferRepository() *OfferRepository {
	return &OfferRepository{offers: map[int64]model.Offer{}}
}

// List returns every offer ordered by id.
func (r *OfferRepository) List(_ context.Context) ([]model.Offer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Offer, 0, len(r.offers))
	for _, offer := range r.offers {
		out = append(out, offer)
	}
	slices.SortFunc(out, func(a, b model.Offer) int {
		return compareIDs(a.ID, b.ID)
	})
	return out, nil
}

func (r *OfferRepository) Find(_ context.Context, id int64) (model.Offer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	offer, exists := r.offers[id]
	if !exists {
		return model.Offer{}, ErrNotFound
	}
	return offer, nil
}

// Create assigns the next id. Codes are unique case-insensitively.
func (r *OfferRepository) Create(_ context.Context, input model.OfferInput) (model.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.codeTakenLocked(input.Code, 0) {
		return model.Offer{}, ErrConflict
	}

	r.nextID++
	offer := offerFromInput(r.nextID, input)
	r.offers[offer.ID] = offer
	return offer, nil
}

func (r *OfferRepository) Update(_ context.Context, id int64, input model.OfferInput) (model.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.offers[id]; !exists {
		return model.Offer{}, ErrNotFound
	}
	if r.codeTakenLocked(input.Code, id) {
		return model.Offer{}, ErrConflict
	}

	offer := offerFromInput(id, input)
	r.offers[id] = offer
	return offer, nil
}

func (r *OfferRepository) SetActive(_ context.Context, id int64, active bool) (model.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	offer, exists := r.offers[id]
	if !exists {
		return model.Offer{}, ErrNotFound
	}
	offer.Active = active
	r.offers[id] = offer
	return offer, nil
}

// Delete removes the offer unless inUse reports it is still referenced.
// inUse runs under the write lock.
func (r *OfferRepository) Delete(_ context.Context, id int64, inUse func(int64) (bool, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.offers[id]; !exists {
		return ErrNotFound
	}
	if inUse != nil {
		used, err := inUse(id)
		if err != nil {
			return err
		}
		if used {
			return ErrConflict
		}
	}

	delete(r.offers, id)
	return nil
}

func (r *OfferRepository) codeTakenLocked(code string, exceptID int64) bool {
	for id, offer := range r.offers {
		if id != exceptID && strings.EqualFold(offer.Code, strings.TrimSpace(code)) {
			return true
		}
	}
	return false
}

func offerFromInput(id int64, input model.OfferInput) model.Offer {
	return model.Offer{
		ID:          id,
		Code:        strings.TrimSpace(input.Code),
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		PriceCents:  input.PriceCents,
		Seats:       input.Seats,
		Active:      input.Active,
	}
}

func compareIDs(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
