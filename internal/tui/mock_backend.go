package tui

import (
	"context"

	"github.com/stretchr/testify/mock"

	"ticketing-front/internal/model"
)

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Register(ctx context.Context, req model.RegisterRequest) (*model.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MessageResponse), args.Error(1)
}

func (m *MockBackend) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LoginResponse), args.Error(1)
}

func (m *MockBackend) VerifyOTP(ctx context.Context, req model.OTPVerifyRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) Me(ctx context.Context, token string) (*model.Profile, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *MockBackend) Offers(ctx context.Context, token string) ([]model.Offer, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Offer), args.Error(1)
}

func (m *MockBackend) Checkout(ctx context.Context, token string, items []model.CheckoutItem) (*model.CheckoutResult, error) {
	args := m.Called(ctx, token, items)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CheckoutResult), args.Error(1)
}

func (m *MockBackend) Orders(ctx context.Context, token string) ([]model.Order, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockBackend) OrderTickets(ctx context.Context, token string, orderID int64) ([]model.Ticket, error) {
	args := m.Called(ctx, token, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Ticket), args.Error(1)
}

func (m *MockBackend) TicketQR(ctx context.Context, token string, ticketID int64) ([]byte, error) {
	args := m.Called(ctx, token, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockBackend) VerifyTicket(ctx context.Context, token string, finalKey string) (bool, error) {
	args := m.Called(ctx, token, finalKey)
	return args.Bool(0), args.Error(1)
}

func (m *MockBackend) ConsumeTicket(ctx context.Context, token string, finalKey string) error {
	args := m.Called(ctx, token, finalKey)
	return args.Error(0)
}

func (m *MockBackend) AdminSales(ctx context.Context, token string) (*model.SalesSnapshot, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SalesSnapshot), args.Error(1)
}

func (m *MockBackend) AdminListOffers(ctx context.Context, token string) ([]model.Offer, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Offer), args.Error(1)
}

func (m *MockBackend) AdminCreateOffer(ctx context.Context, token string, input model.OfferInput) (*model.Offer, error) {
	args := m.Called(ctx, token, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Offer), args.Error(1)
}

func (m *MockBackend) AdminUpdateOffer(ctx context.Context, token string, id int64, input model.OfferInput) (*model.Offer, error) {
	args := m.Called(ctx, token, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Offer), args.Error(1)
}

func (m *MockBackend) AdminDeleteOffer(ctx context.Context, token string, id int64) error {
	args := m.Called(ctx, token, id)
	return args.Error(0)
}
