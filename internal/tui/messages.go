package tui

import "ticketing-front/internal/model"

// Every result message carries the generation it was issued under.
// Update drops it when a newer trigger has superseded that generation.

type offersLoadedMsg struct {
	gen    uint64
	offers []model.Offer
	err    error
}

type profileLoadedMsg struct {
	gen     uint64
	profile *model.Profile
	err     error
}

type ordersLoadedMsg struct {
	gen    uint64
	orders []model.Order
	err    error
}

type salesLoadedMsg struct {
	gen   uint64
	sales *model.SalesSnapshot
	err   error
}

type adminOffersLoadedMsg struct {
	gen    uint64
	offers []model.Offer
	err    error
}

type authAction int

const (
	authLogin authAction = iota
	authRegister
)

type authDoneMsg struct {
	gen    uint64
	action authAction
	email  string
	err    error
}

type otpDoneMsg struct {
	gen   uint64
	token string
	err   error
}

type checkoutDoneMsg struct {
	gen    uint64
	orders []model.Order
	err    error
}

type ticketsLoadedMsg struct {
	gen     uint64
	orderID int64
	tickets []model.Ticket
	err     error
}

type qrLoadedMsg struct {
	gen      uint64
	ticketID int64
	art      string
	err      error
}

type scanDoneMsg struct {
	gen     uint64
	consume bool
	valid   bool
	err     error
}

type offerSavedMsg struct {
	gen    uint64
	offers []model.Offer
	err    error
}

type offerDeletedMsg struct {
	gen    uint64
	offers []model.Offer
	err    error
}

type clipboardFadeMsg struct{}
