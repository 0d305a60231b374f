package service

import (
	"context"

	"ticketing-front/internal/devserver/repository"
	"ticketing-front/internal/model"
)

type SalesService struct {
	offers repository.OfferStore
	orders repository.OrderStore
}

func NewSalesService(offers repository.OfferStore, orders repository.OrderStore) *SalesService {
	return &SalesService{offers: offers, orders: orders}
}

// Snapshot counts issued tickets per offer. Offers without sales are
// left out.
func (s *SalesService) Snapshot(ctx context.Context) (model.SalesSnapshot, error) {
	counts, err := s.orders.CountByOffer(ctx)
	if err != nil {
		return model.SalesSnapshot{}, err
	}
	snapshot := model.SalesSnapshot{ByOffer: make([]model.OfferSales, 0, len(counts))}

	for _, count := range counts {
		row := model.OfferSales{OfferID: count.OfferID, TicketsSold: count.Count}
		if offer, err := s.offers.Find(ctx, count.OfferID); err == nil {
			row.OfferName = offer.Name
		}
		snapshot.ByOffer = append(snapshot.ByOffer, row)
		snapshot.Total += count.Count
	}
	return snapshot, nil
}
