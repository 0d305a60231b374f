package repository

import (
	"context"
	"slices"
	"sync"
	"time"
)

type Order struct {
	ID        int64
	UserID    int64
	CreatedAt time.Time
}

type Ticket struct {
	ID         int64
	OrderID    int64
	UserID     int64
	OfferID    int64
	FinalKey   string
	ConsumedAt *time.Time
}

// OfferCount is the number of tickets issued for one offer.
type OfferCount struct {
	OfferID int64
	Count   int64
}

// OrderRepository holds orders and the tickets they issued.
type OrderRepository struct {
	mu           sync.RWMutex
	nextOrderID  int64
	nextTicketID int64
	orders       map[int64]Order
	tickets      map[int64]Ticket
	byKey        map[string]int64
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		orders:  map[int64]Order{},
		tickets: map[int64]Ticket{},
		byKey:   map[string]int64{},
	}
}

// Create stores the order and its tickets in one step. Ticket ids follow
// the order of the given slice; keys must be unique.
func (r *OrderRepository) Create(_ context.Context, order Order, tickets []Ticket) (Order, []Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ticket := range tickets {
		if _, exists := r.byKey[ticket.FinalKey]; exists {
			return Order{}, nil, ErrConflict
		}
	}

	r.nextOrderID++
	order.ID = r.nextOrderID
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}
	r.orders[order.ID] = order

	created := make([]Ticket, 0, len(tickets))
	for _, ticket := range tickets {
		r.nextTicketID++
		ticket.ID = r.nextTicketID
		ticket.OrderID = order.ID
		ticket.UserID = order.UserID
		r.tickets[ticket.ID] = ticket
		r.byKey[ticket.FinalKey] = ticket.ID
		created = append(created, ticket)
	}

	return order, created, nil
}

// ListByUser returns the user's orders, newest first.
func (r *OrderRepository) ListByUser(_ context.Context, userID int64) ([]Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []Order{}
	for _, order := range r.orders {
		if order.UserID == userID {
			out = append(out, order)
		}
	}
	slices.SortFunc(out, func(a, b Order) int {
		return compareIDs(b.ID, a.ID)
	})
	return out, nil
}

func (r *OrderRepository) FindOrder(_ context.Context, id int64) (Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, exists := r.orders[id]
	if !exists {
		return Order{}, ErrNotFound
	}
	return order, nil
}

// TicketsByOrder returns the order's tickets by ascending id.
func (r *OrderRepository) TicketsByOrder(_ context.Context, orderID int64) ([]Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []Ticket{}
	for _, ticket := range r.tickets {
		if ticket.OrderID == orderID {
			out = append(out, ticket)
		}
	}
	slices.SortFunc(out, func(a, b Ticket) int {
		return compareIDs(a.ID, b.ID)
	})
	return out, nil
}

func (r *OrderRepository) FindTicket(_ context.Context, id int64) (Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ticket, exists := r.tickets[id]
	if !exists {
		return Ticket{}, ErrNotFound
	}
	return ticket, nil
}

func (r *OrderRepository) FindTicketByKey(_ context.Context, key string) (Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.byKey[key]
	if !exists {
		return Ticket{}, ErrNotFound
	}
	return r.tickets[id], nil
}

// ConsumeOnce stamps the ticket with now. A missing or already consumed
// ticket yields ErrNotFound.
func (r *OrderRepository) ConsumeOnce(_ context.Context, key string, now time.Time) (Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, exists := r.byKey[key]
	if !exists {
		return Ticket{}, ErrNotFound
	}

	ticket := r.tickets[id]
	if ticket.ConsumedAt != nil {
		return Ticket{}, ErrNotFound
	}

	consumed := now
	ticket.ConsumedAt = &consumed
	r.tickets[id] = ticket
	return ticket, nil
}

func (r *OrderRepository) HasTicketsForOffer(_ context.Context, offerID int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, ticket := range r.tickets {
		if ticket.OfferID == offerID {
			return true, nil
		}
	}
	return false, nil
}

// CountByOffer groups issued tickets by offer, ordered by offer id.
func (r *OrderRepository) CountByOffer(_ context.Context) ([]OfferCount, error) {
	r.mu.RLock()
	counts := map[int64]int64{}
	for _, ticket := range r.tickets {
		counts[ticket.OfferID]++
	}
	r.mu.RUnlock()

	out := make([]OfferCount, 0, len(counts))
	for offerID, count := range counts {
		out = append(out, OfferCount{OfferID: offerID, Count: count})
	}
	slices.SortFunc(out, func(a, b OfferCount) int {
		return compareIDs(a.OfferID, b.OfferID)
	})
	return out, nil
}
