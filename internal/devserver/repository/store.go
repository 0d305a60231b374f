package repository

import (
	"context"
	"time"

	"ticketing-front/internal/model"
)

// UserStore persists accounts. Emails are unique case-insensitively.
type UserStore interface {
	Create(ctx context.Context, user User) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id int64) (User, error)
}

// OTPStore keeps the latest one-time code per email.
type OTPStore interface {
	Store(ctx context.Context, code OTPCode) error
	ConsumeLatest(ctx context.Context, email string, now time.Time, check func(OTPCode) error) error
	CleanExpired(ctx context.Context, now time.Time) (int, error)
}

// OfferStore persists the catalog. Codes are unique case-insensitively.
type OfferStore interface {
	List(ctx context.Context) ([]model.Offer, error)
	Find(ctx context.Context, id int64) (model.Offer, error)
	Create(ctx context.Context, input model.OfferInput) (model.Offer, error)
	Update(ctx context.Context, id int64, input model.OfferInput) (model.Offer, error)
	SetActive(ctx context.Context, id int64, active bool) (model.Offer, error)
	Delete(ctx context.Context, id int64, inUse func(int64) (bool, error)) error
}

// OrderStore persists orders and the tickets they issued.
type OrderStore interface {
	Create(ctx context.Context, order Order, tickets []Ticket) (Order, []Ticket, error)
	ListByUser(ctx context.Context, userID int64) ([]Order, error)
	FindOrder(ctx context.Context, id int64) (Order, error)
	TicketsByOrder(ctx context.Context, orderID int64) ([]Ticket, error)
	FindTicket(ctx context.Context, id int64) (Ticket, error)
	FindTicketByKey(ctx context.Context, key string) (Ticket, error)
	ConsumeOnce(ctx context.Context, key string, now time.Time) (Ticket, error)
	HasTicketsForOffer(ctx context.Context, offerID int64) (bool, error)
	CountByOffer(ctx context.Context) ([]OfferCount, error)
}

// Stores bundles one implementation of every store.
type Stores struct {
	Users  UserStore
	OTPs   OTPStore
	Offers OfferStore
	Orders OrderStore
}

// NewMemoryStores returns fresh in-memory stores.
func NewMemoryStores() Stores {
	return Stores{
		Users:  NewUserRepository(),
		OTPs:   NewOTPRepository(),
		Offers: NewOfferRepository(),
		Orders: NewOrderRepository(),
	}
}
