package tui

import (
	"context"

	"ticketing-front/internal/model"
)

// Backend is the slice of the API client the view drives. *api.Client
// satisfies it.
type Backend interface {
	Register(ctx context.Context, req model.RegisterRequest) (*model.MessageResponse, error)
	Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error)
	VerifyOTP(ctx context.Context, req model.OTPVerifyRequest) (string, error)
	Me(ctx context.Context, token string) (*model.Profile, error)

	Offers(ctx context.Context, token string) ([]model.Offer, error)
	Checkout(ctx context.Context, token string, items []model.CheckoutItem) (*model.CheckoutResult, error)
	Orders(ctx context.Context, token string) ([]model.Order, error)
	OrderTickets(ctx context.Context, token string, orderID int64) ([]model.Ticket, error)

	TicketQR(ctx context.Context, token string, ticketID int64) ([]byte, error)
	VerifyTicket(ctx context.Context, token string, finalKey string) (bool, error)
	ConsumeTicket(ctx context.Context, token string, finalKey string) error

	AdminSales(ctx context.Context, token string) (*model.SalesSnapshot, error)
	AdminListOffers(ctx context.Context, token string) ([]model.Offer, error)
	AdminCreateOffer(ctx context.Context, token string, input model.OfferInput) (*model.Offer, error)
	AdminUpdateOffer(ctx context.Context, token string, id int64, input model.OfferInput) (*model.Offer, error)
	AdminDeleteOffer(ctx context.Context, token string, id int64) error
}
