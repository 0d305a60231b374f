package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"ticketing-front/internal/devserver/event"
	"ticketing-front/internal/devserver/repository"
	"ticketing-front/internal/model"
	"ticketing-front/pkg/apierror"
)

const (
	maxCodeLength        = 32
	maxNameLength        = 128
	maxDescriptionLength = 1024
)

type CatalogService struct {
	offers repository.OfferStore
	orders repository.OrderStore
	bus    event.Bus
}

func NewCatalogService(offers repository.OfferStore, orders repository.OrderStore, bus event.Bus) *CatalogService {
	return &CatalogService{offers: offers, orders: orders, bus: bus}
}

// ActiveOffers is the public storefront listing.
func (s *CatalogService) ActiveOffers(ctx context.Context) ([]model.Offer, error) {
	all, err := s.offers.List(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]model.Offer, 0, len(all))
	for _, offer := range all {
		if offer.Active {
			active = append(active, offer)
		}
	}
	return active, nil
}

func (s *CatalogService) List(ctx context.Context) ([]model.Offer, error) {
	return s.offers.List(ctx)
}

func (s *CatalogService) Create(ctx context.Context, input model.OfferInput) (model.Offer, error) {
	if err := validateOffer(input); err != nil {
		return model.Offer{}, err
	}

	offer, err := s.offers.Create(ctx, input)
	if errors.Is(err, repository.ErrConflict) {
		return model.Offer{}, errCodeTaken()
	}
	if err != nil {
		return model.Offer{}, err
	}

	s.publish(event.TypeOfferCreated, offer.ID)
	return offer, nil
}

func (s *CatalogService) Update(ctx context.Context, id int64, input model.OfferInput) (model.Offer, error) {
	if err := validateOffer(input); err != nil {
		return model.Offer{}, err
	}

	offer, err := s.offers.Update(ctx, id, input)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return model.Offer{}, errOfferNotFound()
	case errors.Is(err, repository.ErrConflict):
		return model.Offer{}, errCodeTaken()
	case err != nil:
		return model.Offer{}, err
	}

	s.publish(event.TypeOfferUpdated, offer.ID)
	return offer, nil
}

func (s *CatalogService) SetActive(ctx context.Context, id int64, active bool) (model.Offer, error) {
	offer, err := s.offers.SetActive(ctx, id, active)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Offer{}, errOfferNotFound()
	}
	if err != nil {
		return model.Offer{}, err
	}

	s.publish(event.TypeOfferUpdated, offer.ID)
	return offer, nil
}

// Delete refuses offers that already issued tickets.
func (s *CatalogService) Delete(ctx context.Context, id int64) error {
	err := s.offers.Delete(ctx, id, func(offerID int64) (bool, error) {
		return s.orders.HasTicketsForOffer(ctx, offerID)
	})
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return errOfferNotFound()
	case errors.Is(err, repository.ErrConflict):
		return apierror.New("OFFER_IN_USE", "Cannot delete: tickets exist for this offer. Deactivate it instead.", http.StatusConflict)
	case err != nil:
		return err
	}

	s.publish(event.TypeOfferDeleted, id)
	return nil
}

// Seed loads the initial catalog when it is empty.
func (s *CatalogService) Seed(ctx context.Context, inputs []model.OfferInput) (int, error) {
	existing, err := s.offers.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	for i, input := range inputs {
		if err := validateOffer(input); err != nil {
			return i, err
		}
		if _, err := s.offers.Create(ctx, input); err != nil {
			return i, err
		}
	}
	return len(inputs), nil
}

func (s *CatalogService) publish(kind event.Type, offerID int64) {
	if s.bus != nil {
		s.bus.Publish(event.Event{Type: kind, Payload: offerID})
	}
}

func validateOffer(input model.OfferInput) error {
	code := strings.TrimSpace(input.Code)
	name := strings.TrimSpace(input.Name)

	switch {
	case code == "" || utf8.RuneCountInString(code) > maxCodeLength:
		return validationError("code is required (max 32 characters)")
	case name == "" || utf8.RuneCountInString(name) > maxNameLength:
		return validationError("name is required (max 128 characters)")
	case utf8.RuneCountInString(strings.TrimSpace(input.Description)) > maxDescriptionLength:
		return validationError("description is too long (max 1024 characters)")
	case input.PriceCents < 0:
		return validationError("priceCents cannot be negative")
	case input.Seats < 1:
		return validationError("seats must be at least 1")
	}
	return nil
}

func validationError(message string) error {
	return apierror.New("VALIDATION_ERROR", message, http.StatusBadRequest)
}

func errCodeTaken() error {
	return apierror.New("ALREADY_EXISTS", "This offer code already exists.", http.StatusConflict)
}

func errOfferNotFound() error {
	return apierror.New("NOT_FOUND", "Unknown offer", http.StatusNotFound)
}
