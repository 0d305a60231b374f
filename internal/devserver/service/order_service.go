package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"

	"ticketing-front/internal/devserver/event"
	"ticketing-front/internal/devserver/repository"
	"ticketing-front/internal/model"
	"ticketing-front/pkg/apierror"
)

// QRSize is the edge of generated QR PNGs in pixels.
const QRSize = 256

// TicketView is a ticket as listed for its order.
type TicketView struct {
	ID         int64            `json:"id"`
	OfferID    int64            `json:"offerId"`
	OfferName  string           `json:"offerName"`
	FinalKey   string           `json:"finalKey"`
	ConsumedAt *model.Timestamp `json:"consumedAt"`
}

type OrderService struct {
	users  repository.UserStore
	offers repository.OfferStore
	orders repository.OrderStore
	bus    event.Bus
}

func NewOrderService(users repository.UserStore, offers repository.OfferStore, orders repository.OrderStore, bus event.Bus) *OrderService {
	return &OrderService{users: users, offers: offers, orders: orders, bus: bus}
}

// Checkout issues one ticket per unit of quantity. Items with a
// non-positive quantity are skipped. Every ticket key is derived from the
// buyer's secret, a fresh purchase key, the offer and the ticket's
// position in the order.
func (s *OrderService) Checkout(ctx context.Context, userID int64, req model.CheckoutRequest) (*model.CheckoutResult, error) {
	if len(req.Items) == 0 {
		return nil, apierror.New("BAD_REQUEST", "Empty cart", http.StatusBadRequest)
	}

	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apierror.New("UNAUTHORIZED", "user not found", http.StatusUnauthorized)
	}
	if err != nil {
		return nil, err
	}

	purchaseKey := uuid.NewString()
	perOffer := map[int64]int{}
	var pending []repository.Ticket

	for _, item := range req.Items {
		if item.Quantity <= 0 {
			continue
		}

		offer, err := s.offers.Find(ctx, item.OfferID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errOfferNotFound()
		}
		if err != nil {
			return nil, err
		}
		if !offer.Active {
			return nil, apierror.New("OFFER_UNAVAILABLE", "Offer unavailable", http.StatusConflict)
		}

		for range item.Quantity {
			pending = append(pending, repository.Ticket{
				OfferID:  offer.ID,
				FinalKey: ticketKey(user.Key, purchaseKey, offer.ID, len(pending)),
			})
		}
		perOffer[offer.ID] += item.Quantity
	}

	order, tickets, err := s.orders.Create(ctx, repository.Order{UserID: user.ID}, pending)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	result := &model.CheckoutResult{OrderID: order.ID, Tickets: make([]model.Ticket, 0, len(tickets))}
	for _, ticket := range tickets {
		png, err := qrcode.Encode(ticket.FinalKey, qrcode.Medium, QRSize)
		if err != nil {
			return nil, fmt.Errorf("encode qr: %w", err)
		}

		offerID := ticket.OfferID
		encoded := base64.StdEncoding.EncodeToString(png)
		result.Tickets = append(result.Tickets, model.Ticket{
			ID:           ticket.ID,
			OfferID:      &offerID,
			QRCodeBase64: &encoded,
		})
	}

	if s.bus != nil {
		s.bus.Publish(event.Event{
			Type:    event.TypeOrderPlaced,
			ActorID: user.ID,
			Payload: event.OrderPlaced{OrderID: order.ID, Tickets: perOffer},
		})
	}

	return result, nil
}

// Orders lists the user's orders, newest first.
func (s *OrderService) Orders(ctx context.Context, userID int64) ([]model.Order, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]model.Order, 0, len(orders))
	for _, order := range orders {
		out = append(out, model.Order{ID: order.ID, CreatedAt: model.Timestamp{Time: order.CreatedAt}})
	}
	return out, nil
}

// Tickets lists an order's tickets. Only the buyer may read them.
func (s *OrderService) Tickets(ctx context.Context, orderID int64, userID int64) ([]TicketView, error) {
	order, err := s.orders.FindOrder(ctx, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apierror.New("NOT_FOUND", "Unknown order", http.StatusNotFound)
	}
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, apierror.New("FORBIDDEN", "Access denied", http.StatusForbidden)
	}

	tickets, err := s.orders.TicketsByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	out := make([]TicketView, 0, len(tickets))
	for _, ticket := range tickets {
		view := TicketView{ID: ticket.ID, OfferID: ticket.OfferID, FinalKey: ticket.FinalKey}
		if offer, err := s.offers.Find(ctx, ticket.OfferID); err == nil {
			view.OfferName = offer.Name
		}
		if ticket.ConsumedAt != nil {
			view.ConsumedAt = &model.Timestamp{Time: *ticket.ConsumedAt}
		}
		out = append(out, view)
	}
	return out, nil
}

// QRCode renders the ticket key as a PNG.
func (s *OrderService) QRCode(ctx context.Context, ticketID int64) ([]byte, error) {
	ticket, err := s.orders.FindTicket(ctx, ticketID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apierror.New("NOT_FOUND", "Ticket not found", http.StatusNotFound)
	}
	if err != nil {
		return nil, err
	}

	png, err := qrcode.Encode(ticket.FinalKey, qrcode.Medium, QRSize)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

func ticketKey(userKey string, purchaseKey string, offerID int64, index int) string {
	sum := sha256.Sum256([]byte(userKey + ":" + purchaseKey + ":" + strconv.FormatInt(offerID, 10) + ":" + strconv.Itoa(index)))
	return hex.EncodeToString(sum[:])
}
