package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"ticketing-front/internal/devserver/event"
	"ticketing-front/internal/devserver/repository"
	"ticketing-front/internal/model"
	"ticketing-front/pkg/apierror"
)

// ConsumeResult is the gate's answer to a successful consume.
type ConsumeResult struct {
	TicketID   int64           `json:"ticketId"`
	OfferID    int64           `json:"offerId"`
	ConsumedAt model.Timestamp `json:"consumedAt"`
}

// GateService checks and stamps tickets at the entrance.
type GateService struct {
	orders repository.OrderStore
	bus    event.Bus
	now    func() time.Time
}

func NewGateService(orders repository.OrderStore, bus event.Bus) *GateService {
	return &GateService{
		orders: orders,
		bus:    bus,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Verify reports whether a ticket exists for the key, together with its
// consumption time. It never changes state.
func (s *GateService) Verify(ctx context.Context, key string) (model.TicketVerification, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return model.TicketVerification{}, nil
	}

	ticket, err := s.orders.FindTicketByKey(ctx, key)
	if errors.Is(err, repository.ErrNotFound) {
		return model.TicketVerification{}, nil
	}
	if err != nil {
		return model.TicketVerification{}, err
	}

	verification := model.TicketVerification{
		Valid:    true,
		TicketID: &ticket.ID,
		OfferID:  &ticket.OfferID,
	}
	if ticket.ConsumedAt != nil {
		verification.ConsumedAt = &model.Timestamp{Time: *ticket.ConsumedAt}
	}
	return verification, nil
}

// Consume stamps the ticket once. Unknown and already used keys are
// rejected alike.
func (s *GateService) Consume(ctx context.Context, key string) (ConsumeResult, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return ConsumeResult{}, apierror.New("BAD_REQUEST", "Missing key", http.StatusBadRequest)
	}

	ticket, err := s.orders.ConsumeOnce(ctx, key, s.now())
	if errors.Is(err, repository.ErrNotFound) {
		return ConsumeResult{}, apierror.New("BAD_REQUEST", "Ticket not found or already consumed", http.StatusBadRequest)
	}
	if err != nil {
		return ConsumeResult{}, err
	}

	if s.bus != nil {
		s.bus.Publish(event.Event{Type: event.TypeTicketConsumed, Payload: ticket.ID})
	}

	return ConsumeResult{
		TicketID:   ticket.ID,
		OfferID:    ticket.OfferID,
		ConsumedAt: model.Timestamp{Time: *ticket.ConsumedAt},
	}, nil
}
